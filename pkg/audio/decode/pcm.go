// ABOUTME: PCM audio decoder
// ABOUTME: Passes 16/32-bit PCM through unchanged; unpacks 24-bit to 32-bit
package decode

import (
	"fmt"

	"github.com/resonate-audio/resonate-go/pkg/audio"
)

// PCMDecoder decodes PCM audio. It holds no codec state; only the bit
// depth needed to pick the unpack path.
type PCMDecoder struct {
	bitDepth int
}

// NewPCM creates a PCM decoder for format. Only 16, 24, and 32-bit PCM
// are supported.
func NewPCM(format audio.Format) (Decoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}
	if format.BitDepth != 16 && format.BitDepth != 24 && format.BitDepth != 32 {
		return nil, fmt.Errorf("unsupported PCM bit depth: %d (supported: 16, 24, 32)", format.BitDepth)
	}
	return &PCMDecoder{bitDepth: format.BitDepth}, nil
}

// Decode converts one PCM frame into canonical interleaved PCM bytes.
// 16/32-bit frames pass through unchanged (a defensive copy is returned so
// the caller can't mutate data the Decoder still references). 24-bit
// frames are unpacked 3 bytes → 4 bytes per sample; a length that isn't a
// multiple of 3 is ErrInvalidFrame.
func (d *PCMDecoder) Decode(frame []byte) ([]byte, error) {
	if d.bitDepth != 24 {
		out := make([]byte, len(frame))
		copy(out, frame)
		return out, nil
	}

	if len(frame)%3 != 0 {
		return nil, fmt.Errorf("%w: 24-bit PCM frame length %d not a multiple of 3", ErrInvalidFrame, len(frame))
	}

	numSamples := len(frame) / 3
	out := make([]byte, numSamples*4)
	for i := 0; i < numSamples; i++ {
		var b [3]byte
		copy(b[:], frame[i*3:i*3+3])
		unpacked := audio.Unpack24To32LE(b)
		copy(out[i*4:i*4+4], unpacked[:])
	}
	return out, nil
}

// Close releases resources. PCM decoding is stateless, so this is a no-op.
func (d *PCMDecoder) Close() error {
	return nil
}
