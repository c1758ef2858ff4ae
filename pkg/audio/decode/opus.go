// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Opus frames to canonical 32-bit signed PCM
package decode

import (
	"fmt"

	"github.com/resonate-audio/resonate-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrameSamples is the largest frame size libopus can ever produce
// per channel (120ms at 48kHz), used to size the scratch decode buffer.
const maxOpusFrameSamples = 5760

// OpusDecoder decodes Opus audio. Opus decoders are stateful (they carry
// internal prediction history across frames), so one OpusDecoder must be
// used for the lifetime of a single stream.
type OpusDecoder struct {
	decoder  *opus.Decoder
	channels int
}

// NewOpus creates an Opus decoder for format.
func NewOpus(format audio.Format) (Decoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{decoder: dec, channels: format.Channels}, nil
}

// Decode converts one Opus frame to canonical 32-bit signed little-endian
// interleaved PCM. Opus itself only ever decodes to 16-bit precision; the
// result is widened to 32-bit so all codecs share one sink format.
func (d *OpusDecoder) Decode(frame []byte) ([]byte, error) {
	pcm16 := make([]int16, maxOpusFrameSamples*d.channels)

	n, err := d.decoder.Decode(frame, pcm16)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	sampleCount := n * d.channels
	out := make([]byte, sampleCount*4)
	for i := 0; i < sampleCount; i++ {
		widened := audio.WidenToInt32LE(int32(pcm16[i]), 16)
		copy(out[i*4:i*4+4], widened[:])
	}
	return out, nil
}

// Close releases decoder resources.
func (d *OpusDecoder) Close() error {
	return nil
}
