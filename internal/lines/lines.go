// Package lines implements the line-source dependency from spec §6: a
// minimal, forward-only, single-use next_line() abstraction over plain
// text or gzip-compressed input. Adapted from the teacher's
// internal/loader/decompressor.go.
package lines

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/woosflex/traceon/internal/tracerr"
)

const defaultBufferSize = 32 * 1024

// Source is the line-source contract the orchestrator consumes. A ".gz"
// path suffix requests gzip decompression; anything else is read as plain
// text. Trailing '\r' and '\n' are stripped before a line is returned.
type Source interface {
	// NextLine reads the next line. ok is false once the source is
	// exhausted; err is non-nil only on a genuine read failure.
	NextLine() (line string, ok bool, err error)
	// IsOpen reports whether the underlying stream is still usable.
	IsOpen() bool
	Close() error
}

// fileSource is the one concrete Source this repository ships (spec §1
// treats the line reader as an external collaborator specified only by
// interface; this is the reference implementation).
type fileSource struct {
	file   *os.File
	gz     *gzip.Reader
	reader *bufio.Reader
	open   bool
}

// Open opens path for line-oriented reading, decompressing transparently
// if it ends in ".gz".
func Open(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tracerr.Wrap(tracerr.OpenFailed, "open input path", err)
	}

	var r io.Reader = f
	var gz *gzip.Reader
	if strings.HasSuffix(path, ".gz") {
		gz, err = gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, tracerr.Wrap(tracerr.OpenFailed, "open gzip stream", err)
		}
		r = gz
	}

	return &fileSource{
		file:   f,
		gz:     gz,
		reader: bufio.NewReaderSize(r, defaultBufferSize),
		open:   true,
	}, nil
}

func (s *fileSource) NextLine() (string, bool, error) {
	if !s.open {
		return "", false, nil
	}
	line, err := s.reader.ReadString('\n')
	if err != nil {
		s.open = false
		if err == io.EOF {
			if line == "" {
				return "", false, nil
			}
			return strings.TrimRight(line, "\r\n"), true, nil
		}
		return "", false, tracerr.Wrap(tracerr.OpenFailed, "read line", err)
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}

func (s *fileSource) IsOpen() bool { return s.open }

func (s *fileSource) Close() error {
	s.open = false
	if s.gz != nil {
		if err := s.gz.Close(); err != nil {
			s.file.Close()
			return err
		}
	}
	return s.file.Close()
}

// Seekable is satisfied by sources that can also support positional reads
// for parallel ingest (spec §4.1: "Open the raw file for binary positional
// reads"). A gzip-backed Seekable reports Compressed() == true, which forces
// single-threaded mode (spec mode-selection floor).
type Seekable interface {
	Source
	// Path returns the underlying filesystem path for opening independent
	// positional readers.
	Path() string
	// Size returns the on-disk byte length of the file backing the source;
	// for a gzip source this is the compressed length.
	Size() (int64, error)
	// Compressed reports whether this source is gzip-decompressing.
	Compressed() bool
}

type seekableFileSource struct {
	*fileSource
	path string
}

// OpenSeekable is like Open but also returns path/size/compressed
// metadata the orchestrator needs to decide between single-threaded and
// parallel ingest.
func OpenSeekable(path string) (Seekable, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	return &seekableFileSource{fileSource: src.(*fileSource), path: path}, nil
}

func (s *seekableFileSource) Path() string { return s.path }

func (s *seekableFileSource) Size() (int64, error) {
	info, err := s.file.Stat()
	if err != nil {
		return 0, tracerr.Wrap(tracerr.OpenFailed, "stat input path", err)
	}
	return info.Size(), nil
}

func (s *seekableFileSource) Compressed() bool { return s.gz != nil }
