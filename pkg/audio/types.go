// ABOUTME: Audio type definitions
// ABOUTME: Defines the stream Format and raw byte-level sample conversions
package audio

// Format describes an audio stream's shape. It is immutable for the
// lifetime of a stream.
type Format struct {
	Codec       string
	SampleRate  int
	Channels    int
	BitDepth    int
	CodecHeader []byte // codec-specific init data (Opus/FLAC), base64-decoded
}

// BytesPerFrame returns channels × ceil(bit_depth/8) after decode-time
// normalization: 24-bit audio is always unpacked to 32-bit before it
// reaches the scheduler, so a 24-bit format still reports 4 bytes/channel.
func (f Format) BytesPerFrame() int {
	depth := f.BitDepth
	if depth == 24 {
		depth = 32
	}
	return f.Channels * ((depth + 7) / 8)
}

// Unpack24To32LE expands one little-endian 24-bit signed sample into a
// little-endian 32-bit signed sample, left-justified: the 24-bit value is
// shifted up into the top 24 bits of the 32-bit container (equivalent to
// multiplying by 256), so a sample's relative loudness is preserved
// whether it started life as 16-, 24-, or 32-bit PCM.
func Unpack24To32LE(b [3]byte) [4]byte {
	return [4]byte{0, b[0], b[1], b[2]}
}

// WidenToInt32LE left-justifies an N-bit signed sample (N ≤ 32) into a
// canonical 32-bit signed little-endian sample, so every codec's output
// shares one loudness scale regardless of its native bit depth.
func WidenToInt32LE(sample int32, bitDepth int) [4]byte {
	shift := 32 - bitDepth
	widened := sample << uint(shift)
	return [4]byte{
		byte(widened),
		byte(widened >> 8),
		byte(widened >> 16),
		byte(widened >> 24),
	}
}

// PutInt16LE writes v as a little-endian 16-bit signed sample into buf[0:2].
func PutInt16LE(buf []byte, v int16) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
}

// PutInt32LE writes v as a little-endian 32-bit signed sample into buf[0:4].
func PutInt32LE(buf []byte, v int32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}
