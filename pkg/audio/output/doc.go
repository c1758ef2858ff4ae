// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the Output interface and an oto-backed implementation
// Package output provides audio playback interfaces. Implementations
// consume canonical 32-bit signed PCM from the decode pipeline.
//
// Currently backed by github.com/ebitengine/oto/v3.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(48000, 2, 32)
//	err = out.Write(pcm)
package output
