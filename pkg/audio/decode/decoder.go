// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for all audio decoders
package decode

import "errors"

// ErrInvalidFrame is returned when an input frame's length is inconsistent
// with the codec's framing requirements (e.g. PCM24 given a length that
// isn't a multiple of 3 bytes/sample).
var ErrInvalidFrame = errors.New("decode: invalid frame")

// Decoder turns one opaque codec frame into canonical interleaved PCM.
// PCM 16/32-bit decoders pass data through unchanged; PCM 24-bit unpacks
// to 32-bit; the Opus decoder is stateful across frames. Opus and FLAC
// decoders always emit 32-bit signed little-endian PCM regardless of the
// stream's advertised bit depth.
type Decoder interface {
	// Decode converts one encoded frame to interleaved PCM bytes.
	Decode(frame []byte) ([]byte, error)

	// Close releases decoder resources.
	Close() error
}
