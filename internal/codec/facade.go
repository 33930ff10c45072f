package codec

import "github.com/woosflex/traceon/internal/classify"

// Hint selects which codec Encode should prefer (spec §4.7).
type Hint byte

const (
	// Generic lets Encode pick 2-bit nucleotide packing when the content
	// looks like a nucleotide sequence, plain bytes otherwise.
	Generic Hint = iota
	// QualityScore always routes through the run-length quality codec.
	QualityScore
)

// Type tags, the first byte of every encoded payload.
const (
	TagNucleotide byte = 0x01
	TagQuality    byte = 0x12
	TagPlain      byte = 0x21
)

// Encode is the single type-tagged encoder used by the store and the
// snapshot writer (spec §4.7).
func Encode(data []byte, hint Hint) []byte {
	switch {
	case hint == QualityScore:
		return append([]byte{TagQuality}, EncodeQuality(data)...)
	case classify.IsNucleotide(data):
		return append([]byte{TagNucleotide}, EncodeNucleotide(data)...)
	default:
		return append([]byte{TagPlain}, data...)
	}
}

// Decode strips the leading type tag and dispatches to the matching
// inverse codec. Unknown tags decode to an empty slice.
func Decode(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	tag, body := data[0], data[1:]
	switch tag {
	case TagNucleotide:
		return DecodeNucleotide(body)
	case TagQuality:
		return DecodeQuality(body)
	case TagPlain:
		out := make([]byte, len(body))
		copy(out, body)
		return out
	default:
		return nil
	}
}
