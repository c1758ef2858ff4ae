// ABOUTME: Tests for PCM decoder
// ABOUTME: Tests 16-bit, 24-bit, and 32-bit PCM decoding
package decode

import (
	"errors"
	"testing"

	"github.com/resonate-audio/resonate-go/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestPCMDecode16BitPassesThrough(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	input := []byte{0x00, 0x01, 0x02, 0x03}
	output, err := decoder.Decode(input)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(output) != len(input) {
		t.Fatalf("16-bit PCM should pass through unchanged: got %d bytes, want %d", len(output), len(input))
	}
	for i := range input {
		if output[i] != input[i] {
			t.Errorf("byte %d = %#x, want %#x", i, output[i], input[i])
		}
	}

	// mutating the caller's slice must not affect a previously decoded buffer
	input[0] = 0xFF
	if output[0] == 0xFF {
		t.Error("Decode should return a defensive copy, not an alias of the input")
	}
}

func TestPCMDecode32BitPassesThrough(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 192000, Channels: 2, BitDepth: 32})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	input := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	output, err := decoder.Decode(input)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(output) != len(input) {
		t.Fatalf("32-bit PCM should pass through unchanged: got %d bytes, want %d", len(output), len(input))
	}
}

func TestPCMDecode24BitUnpacksTo32Bit(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 192000, Channels: 2, BitDepth: 24})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// two 24-bit samples, little-endian: 0x020100 and 0x050403
	input := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}
	output, err := decoder.Decode(input)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	wantLen := (len(input) / 3) * 4
	if len(output) != wantLen {
		t.Fatalf("expected %d bytes (2 samples x 4 bytes), got %d", wantLen, len(output))
	}

	want := []byte{0x00, 0x00, 0x01, 0x02, 0x00, 0x03, 0x04, 0x05}
	for i := range want {
		if output[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, output[i], want[i])
		}
	}
}

func TestPCMDecode24BitRejectsMisalignedLength(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 192000, Channels: 2, BitDepth: 24})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	_, err = decoder.Decode([]byte{0x00, 0x01})
	if !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("expected ErrInvalidFrame for misaligned 24-bit frame, got %v", err)
	}
}

func TestNewPCMInvalidCodec(t *testing.T) {
	_, err := NewPCM(audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}
}

func TestNewPCMUnsupportedBitDepth(t *testing.T) {
	_, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 8})
	if err == nil {
		t.Fatal("expected error for unsupported bit depth, got nil")
	}
}

func TestPCMDecodeEmptyInput(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	output, err := decoder.Decode([]byte{})
	if err != nil {
		t.Fatalf("decode failed with empty input: %v", err)
	}
	if len(output) != 0 {
		t.Errorf("expected 0 bytes from empty input, got %d", len(output))
	}
}
