// ABOUTME: Tests for FLAC decoder
// ABOUTME: Tests FLAC decoder construction, validation, and malformed-frame handling
package decode

import (
	"errors"
	"testing"

	"github.com/resonate-audio/resonate-go/pkg/audio"
)

func TestNewFLAC(t *testing.T) {
	format := audio.Format{Codec: "flac", SampleRate: 48000, Channels: 2, BitDepth: 24}

	decoder, err := NewFLAC(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestNewFLACInvalidCodec(t *testing.T) {
	_, err := NewFLAC(audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 24})
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}
}

func TestFLACDecodeMalformedFrame(t *testing.T) {
	decoder, err := NewFLAC(audio.Format{Codec: "flac", SampleRate: 48000, Channels: 2, BitDepth: 24})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// Not a valid FLAC frame sync code; must surface as ErrInvalidFrame
	// rather than panicking or silently returning empty PCM.
	_, err = decoder.Decode([]byte{0x00, 0x01, 0x02, 0x03})
	if !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("expected ErrInvalidFrame for malformed data, got %v", err)
	}
}

func TestFLACClose(t *testing.T) {
	decoder, err := NewFLAC(audio.Format{Codec: "flac", SampleRate: 48000, Channels: 2, BitDepth: 24})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if err := decoder.Close(); err != nil {
		t.Errorf("expected Close to succeed, got error: %v", err)
	}
}
