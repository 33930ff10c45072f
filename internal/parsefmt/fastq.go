package parsefmt

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/woosflex/traceon/internal/record"
)

// ParseFastq parses chunk, assumed to start at an '@' header, into a list
// of raw records. Lines are read in strict groups of four (header,
// sequence, plus-line, quality). A group is accepted only when its header
// begins with '@', its plus-line begins with '+', and sequence/quality
// lengths match; otherwise it is skipped and scanning resumes at the next
// line (spec §4.3). skipped counts rejected groups (spec §4.1/§7).
func ParseFastq(chunk []byte) (out []record.Raw, skipped int) {
	scanner := bufio.NewScanner(bytes.NewReader(chunk))
	scanner.Buffer(make([]byte, 64*1024), 1<<30)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, string(bytes.TrimRight(scanner.Bytes(), "\r")))
	}

	i := 0
	for i < len(lines) {
		header := lines[i]
		if header == "" || header[0] != '@' {
			i++
			continue
		}
		if i+3 >= len(lines) {
			break
		}
		seq := lines[i+1]
		plus := lines[i+2]
		qual := lines[i+3]

		if len(plus) == 0 || plus[0] != '+' || len(seq) != len(qual) {
			skipped++
			i++
			continue
		}

		id := header[1:]
		if sp := strings.IndexAny(id, " \t"); sp >= 0 {
			id = id[:sp]
		}
		if id == "" {
			skipped++
			i++
			continue
		}
		out = append(out, record.Raw{ID: id, Sequence: seq, Quality: qual})
		i += 4
	}
	return out, skipped
}
