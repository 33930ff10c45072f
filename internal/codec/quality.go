package codec

// EncodeQuality run-length encodes q as a sequence of (count, byte) pairs
// (spec §4.5). count is a single byte covering 1..255; runs longer than
// 255 are split into multiple pairs. Empty input encodes to an empty slice.
// No outer type tag is written here; the caller (Encode) prepends one.
func EncodeQuality(q []byte) []byte {
	if len(q) == 0 {
		return nil
	}

	out := make([]byte, 0, len(q)/2+2)
	i := 0
	for i < len(q) {
		run := 1
		for i+run < len(q) && q[i+run] == q[i] && run < 255 {
			run++
		}
		out = append(out, byte(run), q[i])
		i += run
	}
	return out
}

// DecodeQuality reverses EncodeQuality: each (count, byte) pair expands to
// count repetitions of byte.
func DecodeQuality(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	var out []byte
	for i := 0; i+1 < len(data); i += 2 {
		count := data[i]
		b := data[i+1]
		for n := byte(0); n < count; n++ {
			out = append(out, b)
		}
	}
	return out
}
