package ingest

import (
	"bufio"
	"io"
	"os"
	"strings"
)

const boundaryScanBuf = 1 << 16

// fastaBoundaries discovers workerCount+1 offsets, each guaranteed to be
// the start of a FASTA record, covering [0, size) (spec §4.1 step 2). It
// approximates each interior boundary at size/workerCount*i and scans
// forward for the next "\n>" pattern.
func fastaBoundaries(f *os.File, size int64, workerCount int) ([]int64, error) {
	bounds := make([]int64, workerCount+1)
	bounds[0] = 0
	bounds[workerCount] = size

	approx := size / int64(workerCount)
	for i := 1; i < workerCount; i++ {
		p := approx * int64(i)
		off, err := nextFastaStart(f, p, size)
		if err != nil {
			return nil, err
		}
		bounds[i] = off
	}
	for i := 1; i <= workerCount; i++ {
		if bounds[i] < bounds[i-1] {
			bounds[i] = bounds[i-1]
		}
	}
	return bounds, nil
}

func nextFastaStart(f *os.File, from, size int64) (int64, error) {
	if from <= 0 {
		return 0, nil
	}
	buf := make([]byte, boundaryScanBuf)
	pos := from

	var prev byte
	prevBuf := make([]byte, 1)
	if n, err := f.ReadAt(prevBuf, pos-1); n == 1 {
		prev = prevBuf[0]
	} else if err != nil && err != io.EOF {
		return 0, err
	}

	for pos < size {
		want := int64(len(buf))
		if remain := size - pos; remain < want {
			want = remain
		}
		n, err := f.ReadAt(buf[:want], pos)
		if err != nil && err != io.EOF {
			return 0, err
		}
		for i := 0; i < n; i++ {
			c := buf[i]
			if c == '>' && prev == '\n' {
				return pos + int64(i), nil
			}
			prev = c
		}
		pos += int64(n)
		if n == 0 {
			break
		}
	}
	return size, nil
}

// fastqRecordOffsets implements spec §4.1's mandatory pre-scan strategy for
// FASTQ: the naive "newline then '@'" scan is ambiguous because a quality
// line can itself start with '@'. This walks the whole file once
// sequentially, validating the 4-line shape of every candidate record
// (header starts with '@', plus-line starts with '+', quality length
// equals sequence length), and returns the list of verified record-start
// offsets. Callers then partition that list evenly across workers.
func fastqRecordOffsets(f *os.File) ([]int64, int64, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	size := info.Size()

	r := bufio.NewReaderSize(io.NewSectionReader(f, 0, size), 1<<20)
	var offsets []int64
	var pos int64

	readLine := func() (string, int64, bool) {
		line, _ := r.ReadString('\n')
		n := int64(len(line))
		pos += n
		if n == 0 {
			return "", 0, false
		}
		return strings.TrimRight(line, "\r\n"), n, true
	}

	for {
		lineStart := pos
		header, _, ok := readLine()
		if !ok {
			break
		}
		if header == "" || header[0] != '@' {
			continue
		}
		seq, n2, ok2 := readLine()
		plus, n3, ok3 := readLine()
		qual, n4, ok4 := readLine()
		if !ok2 || !ok3 || !ok4 {
			break
		}
		if len(plus) > 0 && plus[0] == '+' && len(seq) == len(qual) {
			offsets = append(offsets, lineStart)
		}
		_ = n2
		_ = n3
		_ = n4
	}
	return offsets, size, nil
}

// fastqBoundaries turns the verified offset list into workerCount+1
// spans. Spans may be empty (two consecutive equal boundaries) when there
// are fewer verified records than workers.
func fastqBoundaries(offsets []int64, size int64, workerCount int) []int64 {
	bounds := make([]int64, workerCount+1)
	n := len(offsets)
	if n == 0 {
		for i := range bounds {
			bounds[i] = size
		}
		bounds[0] = 0
		return bounds
	}

	bounds[0] = 0
	for i := 1; i < workerCount; i++ {
		idx := i * n / workerCount
		if idx >= n {
			idx = n - 1
		}
		bounds[i] = offsets[idx]
	}
	bounds[workerCount] = size

	for i := 1; i <= workerCount; i++ {
		if bounds[i] < bounds[i-1] {
			bounds[i] = bounds[i-1]
		}
	}
	return bounds
}
