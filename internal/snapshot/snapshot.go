// Package snapshot implements TracEon's two binary snapshot layouts (spec
// §4.8): the older store-driven v1 "TRAC" format and the parser-driven v2
// "SMRT" format, with magic-byte auto-detection on restore. Adapted in
// spirit from other_examples' osakka-entitydb binary reader (header-first,
// magic-dispatched) but to spec §4.8's exact byte layout, which no example
// repo implements verbatim.
package snapshot

import (
	"encoding/binary"
	"io"

	"github.com/woosflex/traceon/internal/codec"
	"github.com/woosflex/traceon/internal/record"
	"github.com/woosflex/traceon/internal/store"
	"github.com/woosflex/traceon/internal/tracerr"
)

const (
	magicTRAC = "TRAC"
	magicSMRT = "SMRT"
	v1Version = 2
)

const (
	recTypeFasta byte = 0
	recTypeFastq byte = 1
)

// maxFieldLen bounds a single length-prefixed field (key, sequence, or
// quality) read from a snapshot. A corrupt or truncated snapshot can carry
// an arbitrary 32-bit length value; without a cap, a value like 0xFFFFFFFF
// would drive an immediate ~4 GiB allocation attempt before io.ReadFull ever
// gets a chance to fail on the short read. 256 MiB is far above any single
// sequence or quality string this cache is sized for, so legitimate
// snapshots never hit it.
const maxFieldLen = 256 << 20

// WriteV1 writes s in the v1 "TRAC" layout: every record already carries
// its type-tagged payload bytes, written as-is.
func WriteV1(w io.Writer, s *store.Store) error {
	var recs []struct {
		key string
		v   record.Encoded
	}
	s.Each(func(key string, v record.Encoded) {
		recs = append(recs, struct {
			key string
			v   record.Encoded
		}{key, v})
	})

	if _, err := w.Write([]byte(magicTRAC)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{v1Version}); err != nil {
		return err
	}
	if err := writeUint64LE(w, uint64(len(recs))); err != nil {
		return err
	}

	for _, r := range recs {
		if err := writeLenPrefixed(w, []byte(r.key)); err != nil {
			return err
		}
		if r.v.Kind == record.KindFastq {
			if _, err := w.Write([]byte{recTypeFastq}); err != nil {
				return err
			}
			if err := writeLenPrefixed(w, r.v.Sequence); err != nil {
				return err
			}
			if err := writeLenPrefixed(w, r.v.Quality); err != nil {
				return err
			}
		} else {
			if _, err := w.Write([]byte{recTypeFasta}); err != nil {
				return err
			}
			if err := writeLenPrefixed(w, r.v.Sequence); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteV2 writes s in the v2 "SMRT" layout: plain uncompressed sequence
// and quality bytes, decoded from the store first (the SMRT format trades
// space for speed, spec §4.8).
func WriteV2(w io.Writer, s *store.Store, format record.Format) error {
	var recs []struct {
		key string
		v   record.Encoded
	}
	s.Each(func(key string, v record.Encoded) {
		recs = append(recs, struct {
			key string
			v   record.Encoded
		}{key, v})
	})

	if _, err := w.Write([]byte(magicSMRT)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{format.Byte()}); err != nil {
		return err
	}
	if err := writeUint64LE(w, uint64(len(recs))); err != nil {
		return err
	}

	for _, r := range recs {
		if err := writeLenPrefixed(w, []byte(r.key)); err != nil {
			return err
		}
		seq := codec.Decode(r.v.Sequence)
		if err := writeLenPrefixed(w, seq); err != nil {
			return err
		}
		var qual []byte
		if r.v.Kind == record.KindFastq {
			qual = codec.Decode(r.v.Quality)
		}
		if err := writeLenPrefixed(w, qual); err != nil {
			return err
		}
	}
	return nil
}

// Restore reads 4 magic bytes and dispatches to the v1 or v2 reader,
// populating and returning a fresh Store (spec §4.8 restore dispatch, §9
// "do not rely on exceptions to discriminate"). The returned bool is true
// when the snapshot was v1 "TRAC" (set-populated provenance), false for v2
// "SMRT", so callers can preserve Save's dispatch across a restore.
func Restore(r io.Reader) (*store.Store, record.Format, bool, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, record.FormatUnknown, false, tracerr.Wrap(tracerr.SnapshotCorrupt, "read magic", err)
	}

	switch string(magic) {
	case magicTRAC:
		s, err := readV1(r)
		return s, record.FormatUnknown, true, err
	case magicSMRT:
		s, format, err := readV2(r)
		return s, format, false, err
	default:
		return nil, record.FormatUnknown, false, tracerr.New(tracerr.SnapshotMagic, "unrecognized snapshot magic")
	}
}

func readV1(r io.Reader) (*store.Store, error) {
	versionBuf := make([]byte, 1)
	if _, err := io.ReadFull(r, versionBuf); err != nil {
		return nil, tracerr.Wrap(tracerr.SnapshotCorrupt, "read version", err)
	}
	if versionBuf[0] != v1Version {
		return nil, tracerr.New(tracerr.SnapshotVersion, "unsupported v1 version byte")
	}

	count, err := readUint64LE(r)
	if err != nil {
		return nil, tracerr.Wrap(tracerr.SnapshotCorrupt, "read record count", err)
	}

	s := store.New()
	for i := uint64(0); i < count; i++ {
		key, err := readLenPrefixed(r)
		if err != nil {
			return nil, tracerr.Wrap(tracerr.SnapshotCorrupt, "read key", err)
		}
		recType := make([]byte, 1)
		if _, err := io.ReadFull(r, recType); err != nil {
			return nil, tracerr.Wrap(tracerr.SnapshotCorrupt, "read record type", err)
		}

		switch recType[0] {
		case recTypeFastq:
			seq, err := readLenPrefixed(r)
			if err != nil {
				return nil, tracerr.Wrap(tracerr.SnapshotCorrupt, "read fastq sequence", err)
			}
			qual, err := readLenPrefixed(r)
			if err != nil {
				return nil, tracerr.Wrap(tracerr.SnapshotCorrupt, "read fastq quality", err)
			}
			s.Insert(string(key), record.Encoded{Kind: record.KindFastq, Sequence: seq, Quality: qual})
		default:
			data, err := readLenPrefixed(r)
			if err != nil {
				return nil, tracerr.Wrap(tracerr.SnapshotCorrupt, "read fasta data", err)
			}
			s.Insert(string(key), record.Encoded{Kind: record.KindFasta, Sequence: data})
		}
	}
	return s, nil
}

func readV2(r io.Reader) (*store.Store, record.Format, error) {
	formatBuf := make([]byte, 1)
	if _, err := io.ReadFull(r, formatBuf); err != nil {
		return nil, record.FormatUnknown, tracerr.Wrap(tracerr.SnapshotCorrupt, "read format byte", err)
	}
	formatByte := formatBuf[0]

	count, err := readUint64LE(r)
	if err != nil {
		return nil, record.FormatUnknown, tracerr.Wrap(tracerr.SnapshotCorrupt, "read record count", err)
	}

	s := store.New()
	for i := uint64(0); i < count; i++ {
		id, err := readLenPrefixed(r)
		if err != nil {
			return nil, record.FormatUnknown, tracerr.Wrap(tracerr.SnapshotCorrupt, "read id", err)
		}
		seq, err := readLenPrefixed(r)
		if err != nil {
			return nil, record.FormatUnknown, tracerr.Wrap(tracerr.SnapshotCorrupt, "read sequence", err)
		}
		qual, err := readLenPrefixed(r)
		if err != nil {
			return nil, record.FormatUnknown, tracerr.Wrap(tracerr.SnapshotCorrupt, "read quality", err)
		}

		if len(qual) > 0 {
			s.Insert(string(id), record.Encoded{
				Kind:     record.KindFastq,
				Sequence: codec.Encode(seq, codec.Generic),
				Quality:  codec.Encode(qual, codec.QualityScore),
			})
		} else {
			s.Insert(string(id), record.Encoded{
				Kind:     record.KindFasta,
				Sequence: codec.Encode(seq, codec.Generic),
			})
		}
	}
	return s, record.FormatFromByte(formatByte), nil
}

func writeUint64LE(w io.Writer, v uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	_, err := w.Write(buf)
	return err
}

func readUint64LE(r io.Reader) (uint64, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

func writeLenPrefixed(w io.Writer, data []byte) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(len(data)))
	if _, err := w.Write(buf); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readLenPrefixed(r io.Reader) ([]byte, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf)
	if n > maxFieldLen {
		return nil, tracerr.New(tracerr.SnapshotCorrupt, "length prefix exceeds sane field size cap")
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
