// ABOUTME: Audio fundamentals package providing the stream Format type
// ABOUTME: and raw little-endian byte-level sample conversions
// Package audio provides the Format type shared across decode, scheduler,
// and output packages, plus byte-level helpers for the few bit-depth
// conversions the decode pipeline needs (24-bit unpack, raw PCM writes).
package audio
