// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides the Decoder interface and PCM/Opus/FLAC implementations
// Package decode turns opaque codec frames into canonical interleaved PCM.
//
// PCM 16/32-bit pass through unchanged; PCM 24-bit unpacks to 32-bit.
// Opus and FLAC always decode to 32-bit signed little-endian PCM
// regardless of the stream's advertised bit depth, so the Audio Sink only
// ever has to handle one sample width.
package decode
