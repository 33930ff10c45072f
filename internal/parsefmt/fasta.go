// Package parsefmt implements the FASTA and FASTQ chunk parsers (spec
// §4.2, §4.3). Each parser consumes a byte slice assumed to start at a
// record boundary for its format and returns every well-formed record it
// finds; malformed records are skipped rather than aborting the chunk.
package parsefmt

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/woosflex/traceon/internal/record"
)

// ParseFasta parses chunk, which is assumed to start at a '>' header
// line, into a list of raw records. Trailing '\r' is stripped from every
// line; empty lines are skipped; whitespace inside a sequence line is
// preserved verbatim (spec §4.2 documented design choice, see DESIGN.md).
// skipped counts headers that yielded no usable id (spec §4.1/§7: a
// malformed record inside a chunk is skipped, not fatal).
func ParseFasta(chunk []byte) (out []record.Raw, skipped int) {
	var id string
	var seq strings.Builder
	haveID := false
	sawHeader := false

	flush := func() {
		if haveID {
			out = append(out, record.Raw{ID: id, Sequence: seq.String()})
		} else if sawHeader {
			skipped++
		}
		seq.Reset()
		haveID = false
		sawHeader = false
	}

	scanner := bufio.NewScanner(bytes.NewReader(chunk))
	scanner.Buffer(make([]byte, 64*1024), 1<<30)
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			flush()
			sawHeader = true
			header := line[1:]
			if sp := bytes.IndexAny(header, " \t"); sp >= 0 {
				id = string(header[:sp])
			} else {
				id = string(header)
			}
			haveID = id != ""
			continue
		}
		seq.Write(line)
	}
	flush()
	return out, skipped
}
