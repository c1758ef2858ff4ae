// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes individual FLAC frames to canonical 32-bit signed PCM
package decode

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
	"github.com/mewkiz/flac/frame"

	"github.com/resonate-audio/resonate-go/pkg/audio"
)

// FLACDecoder decodes a stream of raw FLAC frames (no container, no
// metadata blocks — the server sends the STREAMINFO block once, out of
// band, in stream/start's codec_header). Each call to Decode parses and
// fully decodes one frame using mewkiz/flac's low-level frame reader.
type FLACDecoder struct {
	channels int
	bitDepth int
}

// NewFLAC creates a FLAC decoder for format. The codec header (STREAMINFO)
// is not needed here: each FLAC frame's header is self-describing enough
// for frame-level decode. Bit depth comes from the negotiated stream
// format; the channel count is taken from each frame's subframes.
func NewFLAC(format audio.Format) (Decoder, error) {
	if format.Codec != "flac" {
		return nil, fmt.Errorf("invalid codec for FLAC decoder: %s", format.Codec)
	}
	return &FLACDecoder{channels: format.Channels, bitDepth: format.BitDepth}, nil
}

// Decode parses one FLAC frame and interleaves its subframes into
// canonical 32-bit signed little-endian PCM, left-justifying each sample
// from the stream's native bit depth so all codecs share one loudness
// scale.
func (d *FLACDecoder) Decode(frameBytes []byte) ([]byte, error) {
	br := bitio.NewReader(bytes.NewReader(frameBytes))

	f, err := frame.New(br)
	if err != nil {
		return nil, fmt.Errorf("%w: flac frame decode: %v", ErrInvalidFrame, err)
	}

	if len(f.Subframes) == 0 {
		return nil, fmt.Errorf("%w: flac frame has no subframes", ErrInvalidFrame)
	}

	blockSize := len(f.Subframes[0].Samples)
	channels := len(f.Subframes)
	out := make([]byte, blockSize*channels*4)

	for j := 0; j < blockSize; j++ {
		for ch := 0; ch < channels; ch++ {
			sample := f.Subframes[ch].Samples[j]
			widened := audio.WidenToInt32LE(sample, d.bitDepth)
			off := (j*channels + ch) * 4
			copy(out[off:off+4], widened[:])
		}
	}
	return out, nil
}

// Close releases decoder resources. Frame-level FLAC decode holds no
// cross-frame state, so this is a no-op.
func (d *FLACDecoder) Close() error {
	return nil
}
