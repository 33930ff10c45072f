// Package classify implements TracEon's content classifier: the
// DNA/RNA/protein heuristic used to pick a codec path, and the
// once-per-cache detected-format tag derived from the first stored record
// (spec §4.6).
package classify

import "github.com/woosflex/traceon/internal/record"

// isNucleotideLetter reports membership in the case-insensitive set the
// classifier checks alphabetic characters against.
func isNucleotideLetter(b byte) bool {
	switch b {
	case 'A', 'a', 'T', 't', 'G', 'g', 'C', 'c', 'U', 'u', 'N', 'n':
		return true
	default:
		return false
	}
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// IsNucleotide reports whether, of the alphabetic characters in s, more
// than 80% fall in {A,T,G,C,U,N} (case-insensitive). Requires at least one
// alphabetic character; an all-non-alphabetic input is not nucleotide.
func IsNucleotide(s []byte) bool {
	alpha, hits := 0, 0
	for _, b := range s {
		if !isAlpha(b) {
			continue
		}
		alpha++
		if isNucleotideLetter(b) {
			hits++
		}
	}
	if alpha == 0 {
		return false
	}
	return float64(hits)/float64(alpha) > 0.80
}

// HasRNA reports whether s contains a 'U'/'u'.
func HasRNA(s []byte) bool {
	for _, b := range s {
		if b == 'U' || b == 'u' {
			return true
		}
	}
	return false
}

// Detect derives the DetectedFormat tag from a single record (spec says
// this runs once, against the first stored record only — see Open
// Question decisions in DESIGN.md).
func Detect(r record.Raw) record.Format {
	isFastq := r.Quality != ""
	seq := []byte(r.Sequence)

	if !IsNucleotide(seq) {
		if isFastq {
			return record.FormatProteinFastq
		}
		return record.FormatProteinFasta
	}

	if HasRNA(seq) {
		if isFastq {
			return record.FormatRNAFastq
		}
		return record.FormatRNAFasta
	}
	if isFastq {
		return record.FormatDNAFastq
	}
	return record.FormatDNAFasta
}
