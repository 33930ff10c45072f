// Package codec implements TracEon's self-describing payload codecs: the
// 2-bit nucleotide packer with its N-position side table, the run-length
// quality codec, and the type-tagged façade that dispatches between them
// and the plain-bytes fallback (spec §4.4, §4.5, §4.7).
package codec

import "encoding/binary"

// base2bit maps an input byte to its 2-bit code. A/a=00 C/c=01 G/g=10
// T/t/U/u=11; everything else packs as 00 and is lossy unless it happens
// to also be listed in the N side-table (only 'N'/'n' is).
func base2bit(b byte) byte {
	switch b {
	case 'A', 'a':
		return 0
	case 'C', 'c':
		return 1
	case 'G', 'g':
		return 2
	case 'T', 't', 'U', 'u':
		return 3
	default:
		return 0
	}
}

var code2base = [4]byte{'A', 'C', 'G', 'T'}

// EncodeNucleotide packs s into the layout from spec §4.4:
//
//	4 bytes BE: original length L
//	4 bytes BE: N count k
//	ceil(L/4) bytes: packed 2-bit codes, base i in bits (3-(i%4))*2..+1
//	4*k bytes LE: ascending positions of every 'N'/'n' in s
//
// No outer type tag is written here; the caller (Encode) prepends one.
func EncodeNucleotide(s []byte) []byte {
	l := len(s)
	var positions []uint32
	for i, b := range s {
		if b == 'N' || b == 'n' {
			positions = append(positions, uint32(i))
		}
	}

	packedLen := (l + 3) / 4
	out := make([]byte, 8+packedLen+4*len(positions))
	binary.BigEndian.PutUint32(out[0:4], uint32(l))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(positions)))

	packed := out[8 : 8+packedLen]
	for i, b := range s {
		code := base2bit(b)
		shift := uint(3-(i%4)) * 2
		packed[i/4] |= code << shift
	}

	posRegion := out[8+packedLen:]
	for i, p := range positions {
		binary.LittleEndian.PutUint32(posRegion[i*4:i*4+4], p)
	}
	return out
}

// DecodeNucleotide reverses EncodeNucleotide. It reconstructs L uppercase
// bases from the packed region, then overwrites every recorded N position
// with 'N'. U is not recoverable: any original U/u decodes as 'T'.
func DecodeNucleotide(data []byte) []byte {
	if len(data) < 8 {
		return nil
	}
	l := int(binary.BigEndian.Uint32(data[0:4]))
	k := int(binary.BigEndian.Uint32(data[4:8]))
	packedLen := (l + 3) / 4
	if 8+packedLen+4*k > len(data) {
		return nil
	}
	packed := data[8 : 8+packedLen]

	out := make([]byte, l)
	for i := 0; i < l; i++ {
		shift := uint(3-(i%4)) * 2
		code := (packed[i/4] >> shift) & 0x3
		out[i] = code2base[code]
	}

	posRegion := data[8+packedLen : 8+packedLen+4*k]
	for i := 0; i < k; i++ {
		p := binary.LittleEndian.Uint32(posRegion[i*4 : i*4+4])
		if int(p) < l {
			out[p] = 'N'
		}
	}
	return out
}
