package fileformat

import (
	"errors"
	"fmt"
	"strconv"

	xxh3 "github.com/zeebo/xxh3"
)

const (
	ChecksumAlgo         = "xxh3-64"
	DefaultChecksumChunk = 1 << 20
)

var (
	ErrNoChecksums = errors.New("fileformat: no checksum_index in META")
	ErrChecksum    = errors.New("fileformat: checksum mismatch")
)

// ChecksumEntry is one section's rolling hash list. Hashes are stored as hex
// strings so JSON numbers never truncate them.
type ChecksumEntry struct {
	Algo      string   `json:"algo"`
	ChunkSize int      `json:"chunk_size"`
	Count     int      `json:"count"`
	HashesHex []string `json:"hashes_hex"`
}

func rollXXH3(data []byte, chunk int) []uint64 {
	hashes := make([]uint64, 0, (len(data)+chunk-1)/chunk)
	for i := 0; i < len(data); i += chunk {
		end := min(i+chunk, len(data))
		hashes = append(hashes, xxh3.Hash(data[i:end]))
	}
	return hashes
}

func newChecksumEntry(data []byte, chunk int) ChecksumEntry {
	hashes := rollXXH3(data, chunk)
	hx := make([]string, len(hashes))
	for i, h := range hashes {
		hx[i] = fmt.Sprintf("%016x", h)
	}
	return ChecksumEntry{Algo: ChecksumAlgo, ChunkSize: chunk, Count: len(hashes), HashesHex: hx}
}

func (c ChecksumEntry) hashes() ([]uint64, error) {
	out := make([]uint64, len(c.HashesHex))
	for i, s := range c.HashesHex {
		v, err := strconv.ParseUint(s, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("fileformat: bad hash %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

// SectionCheck is the verification result for one section.
type SectionCheck struct {
	Type       uint32
	Chunks     int
	Mismatched []int // chunk indices whose hash differs
	Err        error
}

func (c SectionCheck) OK() bool { return c.Err == nil && len(c.Mismatched) == 0 }

// Verify recomputes the rolling xxh3 of every data section over its
// uncompressed bytes and compares it with META's checksum_index. The
// returned error wraps ErrChecksum when any section fails.
func (r *Reader) Verify() ([]SectionCheck, error) {
	meta, err := r.Meta()
	if err != nil {
		return nil, err
	}
	if len(meta.ChecksumIndex) == 0 {
		return nil, ErrNoChecksums
	}
	var (
		checks []SectionCheck
		failed int
	)
	for _, sec := range dataSections {
		c := r.verifySection(sec, meta.ChecksumIndex)
		if !c.OK() {
			failed++
		}
		checks = append(checks, c)
	}
	if failed > 0 {
		return checks, fmt.Errorf("%w: %d of %d sections", ErrChecksum, failed, len(checks))
	}
	return checks, nil
}

func (r *Reader) verifySection(sec uint32, idx map[string]ChecksumEntry) SectionCheck {
	c := SectionCheck{Type: sec}
	entry, ok := idx[strconv.FormatUint(uint64(sec), 10)]
	if !ok {
		c.Err = fmt.Errorf("missing checksum for %s", SectionName(sec))
		return c
	}
	if entry.Algo != ChecksumAlgo || entry.ChunkSize <= 0 {
		c.Err = fmt.Errorf("unsupported checksum %s/%d", entry.Algo, entry.ChunkSize)
		return c
	}
	want, err := entry.hashes()
	if err != nil {
		c.Err = err
		return c
	}
	data, err := r.SectionUncompressed(sec)
	if err != nil {
		c.Err = err
		return c
	}
	have := rollXXH3(data, entry.ChunkSize)
	c.Chunks = len(have)
	if len(have) != len(want) {
		c.Err = fmt.Errorf("chunk count mismatch have %d want %d", len(have), len(want))
		return c
	}
	for i := range have {
		if have[i] != want[i] {
			c.Mismatched = append(c.Mismatched, i)
		}
	}
	return c
}
