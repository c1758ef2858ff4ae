// ABOUTME: Binary audio/artwork/visualizer frame encoding
// ABOUTME: kind byte + big-endian server-microsecond timestamp + payload
package protocol

import (
	"encoding/binary"
	"fmt"
)

// FrameHeaderSize is the fixed header size of every binary frame: one kind
// byte followed by an 8-byte big-endian server timestamp in microseconds.
const FrameHeaderSize = 1 + 8

// Kind discriminates a binary frame's payload.
type Kind uint8

const (
	// KindAudioChunkLegacy is an alias for KindAudioChunk kept for servers
	// still emitting the original single-slot audio kind.
	KindAudioChunkLegacy Kind = 0
	KindAudioChunk       Kind = 1

	KindArtworkChannel0 Kind = 4
	KindArtworkChannel1 Kind = 5
	KindArtworkChannel2 Kind = 6
	KindArtworkChannel3 Kind = 7

	KindVisualizer Kind = 8
)

// IsAudioChunk reports whether k is either audio-chunk kind.
func (k Kind) IsAudioChunk() bool {
	return k == KindAudioChunkLegacy || k == KindAudioChunk
}

// ArtworkChannel returns the artwork channel index (0-3) for k, or -1 if k
// is not an artwork kind.
func (k Kind) ArtworkChannel() int {
	if k >= KindArtworkChannel0 && k <= KindArtworkChannel3 {
		return int(k - KindArtworkChannel0)
	}
	return -1
}

// BinaryFrame is a decoded binary WebSocket frame: a server-clock
// timestamp plus an opaque payload whose interpretation depends on Kind.
type BinaryFrame struct {
	Kind     Kind
	ServerTS int64 // microseconds, server monotonic domain
	Payload  []byte
}

// EncodeBinaryFrame serializes a frame to the wire format:
// uint8 kind || int64 big-endian server_ts_µs || payload.
func EncodeBinaryFrame(f BinaryFrame) []byte {
	buf := make([]byte, FrameHeaderSize+len(f.Payload))
	buf[0] = byte(f.Kind)
	binary.BigEndian.PutUint64(buf[1:9], uint64(f.ServerTS))
	copy(buf[9:], f.Payload)
	return buf
}

// DecodeBinaryFrame parses a raw WebSocket binary message. Frames shorter
// than FrameHeaderSize are malformed and rejected; frames with an unknown
// kind byte decode successfully so a caller can choose to ignore them
// rather than tear down the connection.
func DecodeBinaryFrame(data []byte) (BinaryFrame, error) {
	if len(data) < FrameHeaderSize {
		return BinaryFrame{}, fmt.Errorf("binary frame too short: %d bytes, want at least %d", len(data), FrameHeaderSize)
	}

	ts := int64(binary.BigEndian.Uint64(data[1:9]))
	if ts < 0 {
		return BinaryFrame{}, fmt.Errorf("binary frame has negative server timestamp: %d", ts)
	}
	payload := data[9:]

	return BinaryFrame{
		Kind:     Kind(data[0]),
		ServerTS: ts,
		Payload:  payload,
	}, nil
}
