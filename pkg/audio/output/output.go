// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends
package output

// Output represents an audio output device. Implementations receive
// canonical 32-bit signed little-endian interleaved PCM, as produced by
// the decode pipeline, and are responsible for converting to whatever
// the underlying device actually wants.
type Output interface {
	// Open initializes the output device for the given format.
	Open(sampleRate, channels, bitDepth int) error

	// Write outputs one chunk of canonical 32-bit PCM (blocks until
	// accepted by the device).
	Write(pcm []byte) error

	// SetVolume sets the software volume, 0-100.
	SetVolume(volume int)

	// SetMuted sets the mute flag. Muted output still advances playback
	// position; it simply scales samples to zero.
	SetMuted(muted bool)

	// Close releases output resources.
	Close() error
}
