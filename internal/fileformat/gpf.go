// Package fileformat reads and writes .gpf files, a sectioned container for
// one GP prediction problem.
//
// Layout: 8-byte magic, header {ver, num, res uint32}, a TOC of num entries
// {type u32, offset u64, size u64, flags u32}, then the section payloads,
// each aligned to 4096 bytes. All integers are little-endian.
package fileformat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	lz4 "github.com/pierrec/lz4/v4"
)

const Version = 1

const (
	TypeMeta    uint32 = 1
	TypeTrain   uint32 = 2
	TypeQuery   uint32 = 3
	TypeLength  uint32 = 4
	TypeWeights uint32 = 5
)

const (
	FlagCompZSTD uint32 = 1 << 0
	FlagCompLZ4  uint32 = 1 << 1
)

const sectionAlign = 4096

var magic = [8]byte{'G', 'P', 'F', 0, 0, 0, 0, 0}

var (
	ErrNotGPF          = errors.New("fileformat: not a GPF file")
	ErrSectionNotFound = errors.New("fileformat: section not found")
)

// SectionName returns a printable name for a section type.
func SectionName(t uint32) string {
	switch t {
	case TypeMeta:
		return "META"
	case TypeTrain:
		return "TRAIN"
	case TypeQuery:
		return "QUERY"
	case TypeLength:
		return "LENGTH"
	case TypeWeights:
		return "WEIGHTS"
	}
	return fmt.Sprintf("TYPE%d", t)
}

// ParseCompression maps none, zstd or lz4 to section flags.
func ParseCompression(s string) (uint32, error) {
	switch s {
	case "", "none":
		return 0, nil
	case "zstd":
		return FlagCompZSTD, nil
	case "lz4":
		return FlagCompLZ4, nil
	}
	return 0, fmt.Errorf("fileformat: unknown compression %q", s)
}

type section struct {
	TypeID uint32
	Data   []byte
	Flags  uint32
}

type Writer struct {
	sections []section
}

func NewWriter() *Writer { return &Writer{} }

// AddSection queues an uncompressed payload; flags select its compression.
func (w *Writer) AddSection(t uint32, data []byte, flags uint32) {
	w.sections = append(w.sections, section{TypeID: t, Data: data, Flags: flags})
}

func zstdEncode(b []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(b, make([]byte, 0, len(b))), nil
}

func zstdDecode(b []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(b, nil)
}

func lz4Encode(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lz4Decode(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, lz4.NewReader(bytes.NewReader(b))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func alignUp(x, a int64) int64 {
	if r := x % a; r != 0 {
		return x + (a - r)
	}
	return x
}

type header struct{ Ver, Num, Res uint32 }

type tocEntry struct {
	TypeID uint32
	Offset uint64
	Size   uint64
	Flags  uint32
}

const tocEntrySize = 4 + 8 + 8 + 4

func (w *Writer) Write(path string) error {
	if len(w.sections) == 0 {
		return errors.New("fileformat: no sections to write")
	}
	payloads := make([][]byte, len(w.sections))
	for i, s := range w.sections {
		data := s.Data
		var err error
		switch {
		case s.Flags&FlagCompZSTD != 0:
			data, err = zstdEncode(data)
		case s.Flags&FlagCompLZ4 != 0:
			data, err = lz4Encode(data)
		}
		if err != nil {
			return fmt.Errorf("fileformat: compress %s: %w", SectionName(s.TypeID), err)
		}
		payloads[i] = data
	}

	toc := make([]tocEntry, len(w.sections))
	offset := alignUp(int64(len(magic)+12+tocEntrySize*len(w.sections)), sectionAlign)
	for i, s := range w.sections {
		toc[i] = tocEntry{TypeID: s.TypeID, Offset: uint64(offset), Size: uint64(len(payloads[i])), Flags: s.Flags}
		offset = alignUp(offset+int64(len(payloads[i])), sectionAlign)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(magic[:]); err != nil {
		return err
	}
	hdr := header{Ver: Version, Num: uint32(len(w.sections))}
	if err := binary.Write(f, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	for _, e := range toc {
		if err := binary.Write(f, binary.LittleEndian, &e); err != nil {
			return err
		}
	}
	for i := range toc {
		if _, err := f.WriteAt(payloads[i], int64(toc[i].Offset)); err != nil {
			return err
		}
	}
	// empty trailing sections would otherwise leave the file short of its last offset
	last := toc[len(toc)-1]
	if err := f.Truncate(int64(last.Offset + last.Size)); err != nil {
		return err
	}
	return f.Close()
}

type Reader struct {
	f   *os.File
	Ver uint32
	TOC []tocEntry
}

// Open reads the header and TOC of a .gpf file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := readHeader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func readHeader(f *os.File) (*Reader, error) {
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(f, head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotGPF, err)
	}
	if !bytes.Equal(head, magic[:]) {
		return nil, ErrNotGPF
	}
	var hdr header
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	if hdr.Ver != Version {
		return nil, fmt.Errorf("fileformat: unsupported version %d", hdr.Ver)
	}
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := uint64(st.Size())
	tocEnd := uint64(len(magic)+12) + uint64(hdr.Num)*tocEntrySize
	if tocEnd > size {
		return nil, fmt.Errorf("%w: %d TOC entries exceed file size %d", ErrNotGPF, hdr.Num, size)
	}
	toc := make([]tocEntry, hdr.Num)
	for i := range toc {
		if err := binary.Read(f, binary.LittleEndian, &toc[i]); err != nil {
			return nil, err
		}
		e := toc[i]
		if e.Offset < tocEnd || e.Offset > size || e.Size > size-e.Offset {
			return nil, fmt.Errorf("%w: section %s [%d,+%d) outside file of %d bytes", ErrNotGPF, SectionName(e.TypeID), e.Offset, e.Size, size)
		}
	}
	return &Reader{f: f, Ver: hdr.Ver, TOC: toc}, nil
}

func (r *Reader) Close() error { return r.f.Close() }

func (r *Reader) entry(typeID uint32) (tocEntry, error) {
	for _, e := range r.TOC {
		if e.TypeID == typeID {
			return e, nil
		}
	}
	return tocEntry{}, fmt.Errorf("%w: %s", ErrSectionNotFound, SectionName(typeID))
}

// Section returns the stored payload, compressed or not.
func (r *Reader) Section(typeID uint32) ([]byte, error) {
	e, err := r.entry(typeID)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, e.Size)
	if _, err := r.f.ReadAt(buf, int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("fileformat: read %s: %w", SectionName(typeID), err)
	}
	return buf, nil
}

// SectionUncompressed returns the payload after undoing its compression flag.
func (r *Reader) SectionUncompressed(typeID uint32) ([]byte, error) {
	e, err := r.entry(typeID)
	if err != nil {
		return nil, err
	}
	buf, err := r.Section(typeID)
	if err != nil {
		return nil, err
	}
	switch {
	case e.Flags&FlagCompZSTD != 0:
		buf, err = zstdDecode(buf)
	case e.Flags&FlagCompLZ4 != 0:
		buf, err = lz4Decode(buf)
	}
	if err != nil {
		return nil, fmt.Errorf("fileformat: decompress %s: %w", SectionName(typeID), err)
	}
	return buf, nil
}
