// Package record defines the in-memory shapes TracEon stores per sequence.
package record

// Kind distinguishes the two payload shapes a stored record can take.
type Kind byte

const (
	// KindFasta records carry a single encoded sequence payload, no quality.
	KindFasta Kind = iota
	// KindFastq records carry an encoded sequence payload and an encoded
	// quality payload of the same decoded length.
	KindFastq
)

// Encoded is the sum type stored under each id: either a FASTA payload
// (one type-tagged byte slice) or a FASTQ payload (two). Kind says which
// one it holds; a KindFasta value leaves Quality empty.
type Encoded struct {
	Kind     Kind
	Sequence []byte // type-tagged, see codec.Encode
	Quality  []byte // type-tagged; nil/empty for KindFasta
}

// Decoded is a fully materialized record, produced on demand from an
// Encoded value at lookup time.
type Decoded struct {
	ID       string
	Sequence string
	Quality  string // empty for FASTA
}

// Format is the process-wide detected-format tag derived from the first
// stored record after ingest (spec §3, §4.6). The zero value means no
// record has been classified yet.
type Format byte

const (
	FormatUnknown Format = iota
	FormatDNAFasta
	FormatRNAFasta
	FormatProteinFasta
	FormatDNAFastq
	FormatRNAFastq
	FormatProteinFastq
)

func (f Format) String() string {
	switch f {
	case FormatDNAFasta:
		return "DNA_FASTA"
	case FormatRNAFasta:
		return "RNA_FASTA"
	case FormatProteinFasta:
		return "PROTEIN_FASTA"
	case FormatDNAFastq:
		return "DNA_FASTQ"
	case FormatRNAFastq:
		return "RNA_FASTQ"
	case FormatProteinFastq:
		return "PROTEIN_FASTQ"
	default:
		return "UNKNOWN"
	}
}

// Byte returns the single-byte encoding used in v2 SMRT snapshots.
func (f Format) Byte() byte { return byte(f) }

// FormatFromByte reconstructs a Format from a v2 snapshot's format byte.
// Unrecognized values fall back to FormatUnknown rather than erroring —
// the snapshot is still structurally valid, just informational metadata
// we can't interpret.
func FormatFromByte(b byte) Format {
	if b > byte(FormatProteinFastq) {
		return FormatUnknown
	}
	return Format(b)
}

// Raw is the source-of-truth triple a chunk parser produces before
// encoding. Quality is empty for FASTA.
type Raw struct {
	ID       string
	Sequence string
	Quality  string
}
