// ABOUTME: Tests for binary frame encode/decode round-tripping
package protocol

import (
	"bytes"
	"testing"
)

func TestBinaryFrameRoundTrip(t *testing.T) {
	f := BinaryFrame{Kind: KindAudioChunk, ServerTS: 1234567, Payload: []byte{1, 2, 3, 4}}
	encoded := EncodeBinaryFrame(f)

	if len(encoded) != FrameHeaderSize+4 {
		t.Fatalf("encoded length = %d, want %d", len(encoded), FrameHeaderSize+4)
	}

	decoded, err := DecodeBinaryFrame(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Kind != f.Kind || decoded.ServerTS != f.ServerTS || !bytes.Equal(decoded.Payload, f.Payload) {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, f)
	}
}

func TestDecodeBinaryFrameTooShort(t *testing.T) {
	for _, n := range []int{0, 1, 8} {
		if _, err := DecodeBinaryFrame(make([]byte, n)); err == nil {
			t.Errorf("DecodeBinaryFrame(%d bytes) should reject, got nil error", n)
		}
	}
}

func TestDecodeBinaryFrameMinimumLength(t *testing.T) {
	// exactly 9 bytes (header only, empty payload) must decode cleanly
	f, err := DecodeBinaryFrame(make([]byte, FrameHeaderSize))
	if err != nil {
		t.Fatalf("minimum-length frame should decode: %v", err)
	}
	if len(f.Payload) != 0 {
		t.Errorf("payload = %d bytes, want 0", len(f.Payload))
	}
}

func TestKindAudioChunkLegacyAlias(t *testing.T) {
	if !KindAudioChunkLegacy.IsAudioChunk() || !KindAudioChunk.IsAudioChunk() {
		t.Error("both audio chunk kinds should report IsAudioChunk")
	}
	if KindVisualizer.IsAudioChunk() {
		t.Error("visualizer kind should not report IsAudioChunk")
	}
}

func TestKindArtworkChannel(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindArtworkChannel0, 0},
		{KindArtworkChannel1, 1},
		{KindArtworkChannel2, 2},
		{KindArtworkChannel3, 3},
		{KindAudioChunk, -1},
		{KindVisualizer, -1},
	}
	for _, c := range cases {
		if got := c.kind.ArtworkChannel(); got != c.want {
			t.Errorf("Kind(%d).ArtworkChannel() = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestDecodeBinaryFrameRejectsNegativeTimestamp(t *testing.T) {
	encoded := EncodeBinaryFrame(BinaryFrame{Kind: KindAudioChunk, ServerTS: -1, Payload: []byte{9}})
	if _, err := DecodeBinaryFrame(encoded); err == nil {
		t.Error("DecodeBinaryFrame with negative server timestamp should reject, got nil error")
	}
}

func TestDecodeBinaryFrameUnknownKindStillDecodes(t *testing.T) {
	encoded := EncodeBinaryFrame(BinaryFrame{Kind: Kind(200), ServerTS: 1, Payload: nil})
	f, err := DecodeBinaryFrame(encoded)
	if err != nil {
		t.Fatalf("unknown kind should still decode: %v", err)
	}
	if f.Kind != Kind(200) {
		t.Errorf("Kind = %d, want 200", f.Kind)
	}
}
