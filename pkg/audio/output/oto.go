// ABOUTME: Oto-based audio output implementation
// ABOUTME: Handles PCM playback with software volume control using the oto library
package output

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/ebitengine/oto/v3"

	"github.com/resonate-audio/resonate-go/pkg/audio"
)

// Oto is an Output backed by github.com/ebitengine/oto/v3. oto only
// supports one context per process and only plays 16-bit samples, so
// every canonical 32-bit chunk is volume-scaled at 32-bit precision and
// then narrowed to 16-bit immediately before the pipe write.
type Oto struct {
	ctx    context.Context
	cancel context.CancelFunc

	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter

	sampleRate int
	channels   int
	volume     int
	muted      bool
	ready      bool
}

// NewOto creates an Oto output with default volume 100, unmuted. Open
// must be called before Write.
func NewOto() Output {
	ctx, cancel := context.WithCancel(context.Background())
	return &Oto{ctx: ctx, cancel: cancel, volume: 100}
}

// Open initializes the output device. oto cannot be reinitialized with a
// new format once a context exists for the process, so a format change
// after the first Open is logged and the existing context is kept.
func (o *Oto) Open(sampleRate, channels, bitDepth int) error {
	if o.otoCtx != nil {
		if o.sampleRate != sampleRate || o.channels != channels {
			log.Printf("audio output: format change %dHz/%dch -> %dHz/%dch requested, but oto only allows one context per process; continuing with the existing one",
				o.sampleRate, o.channels, sampleRate, channels)
		}
		if !o.ready {
			if err := o.otoCtx.Resume(); err != nil {
				return fmt.Errorf("failed to resume oto context: %w", err)
			}
			o.pipeReader, o.pipeWriter = io.Pipe()
			o.player = o.otoCtx.NewPlayer(o.pipeReader)
			o.player.Play()
			o.ready = true
		}
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true

	log.Printf("audio output: initialized %dHz, %d channels", sampleRate, channels)
	return nil
}

// Write volume-scales pcm (canonical 32-bit signed LE), narrows it to
// 16-bit, and blocks on a pipe write to the persistent oto player.
func (o *Oto) Write(pcm []byte) error {
	if !o.ready {
		return fmt.Errorf("audio output: not initialized")
	}

	scaled := applyVolume32(pcm, o.volume, o.muted)

	numSamples := len(scaled) / 4
	out := make([]byte, numSamples*2)
	for i := 0; i < numSamples; i++ {
		sample32 := int32(scaled[i*4]) | int32(scaled[i*4+1])<<8 | int32(scaled[i*4+2])<<16 | int32(scaled[i*4+3])<<24
		audio.PutInt16LE(out[i*2:i*2+2], int16(sample32>>16))
	}

	if _, err := o.pipeWriter.Write(out); err != nil {
		return fmt.Errorf("audio output: pipe write failed: %w", err)
	}
	return nil
}

// Close tears down the pipe and player and suspends the oto context; the
// context itself is kept, and a later Open resumes it.
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
		o.ready = false
	}
	o.cancel()
	return nil
}

// SetVolume sets the volume (0-100), clamped to range.
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.volume = volume
}

// SetMuted sets the mute state.
func (o *Oto) SetMuted(muted bool) {
	o.muted = muted
}

// GetVolume returns the current volume.
func (o *Oto) GetVolume() int {
	return o.volume
}

// IsMuted reports the current mute state.
func (o *Oto) IsMuted() bool {
	return o.muted
}

// applyVolume32 scales each 32-bit LE sample in pcm by volume/100 (or to
// zero if muted), clamping to the int32 range to avoid wraparound.
func applyVolume32(pcm []byte, volume int, muted bool) []byte {
	multiplier := volumeMultiplier(volume, muted)

	out := make([]byte, len(pcm))
	numSamples := len(pcm) / 4
	for i := 0; i < numSamples; i++ {
		off := i * 4
		sample := int32(pcm[off]) | int32(pcm[off+1])<<8 | int32(pcm[off+2])<<16 | int32(pcm[off+3])<<24

		scaled := int64(float64(sample) * multiplier)
		if scaled > int64(1<<31-1) {
			scaled = 1<<31 - 1
		} else if scaled < -int64(1<<31) {
			scaled = -(1 << 31)
		}

		audio.PutInt32LE(out[off:off+4], int32(scaled))
	}
	return out
}

func volumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
