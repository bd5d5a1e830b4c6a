package fileformat

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/qrv0/gpstream/internal/gp"
	"github.com/qrv0/gpstream/internal/mean"
)

var dataSections = []uint32{TypeTrain, TypeQuery, TypeLength, TypeWeights}

// Meta is the JSON payload of the META section.
type Meta struct {
	FormatVersion int                      `json:"format_version"`
	NX            int                      `json:"nx"`
	NXStar        int                      `json:"nxstar"`
	Dim           int                      `json:"dim"`
	Sigma         float64                  `json:"sigma"`
	Mean          *mean.Spec               `json:"mean,omitempty"`
	ChecksumIndex map[string]ChecksumEntry `json:"checksum_index,omitempty"`
}

// WriteOptions controls section compression and checksum granularity.
type WriteOptions struct {
	Flags         uint32 // FlagCompZSTD or FlagCompLZ4, applied to float sections
	ChecksumChunk int    // bytes per hash, DefaultChecksumChunk when zero
}

func encodeFloats(v []float64) []byte {
	b := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(f))
	}
	return b
}

func decodeFloats(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("fileformat: float section of %d bytes is not a multiple of 8", len(b))
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v, nil
}

// WriteProblem validates p and stores it at path. ms describes p.Mean; its
// Params are written in place of p.MeanParams. A nil ms writes no mean.
func WriteProblem(path string, p gp.Problem, ms *mean.Spec, o WriteOptions) error {
	if ms != nil {
		f, err := ms.Build()
		if err != nil {
			return err
		}
		p.Mean, p.MeanParams = f, ms.Params
	} else {
		p.Mean, p.MeanParams = nil, nil
	}
	if err := p.Validate(); err != nil {
		return err
	}
	chunk := o.ChecksumChunk
	if chunk <= 0 {
		chunk = DefaultChecksumChunk
	}

	payloads := map[uint32][]byte{
		TypeTrain:   encodeFloats(p.X),
		TypeQuery:   encodeFloats(p.Xstar),
		TypeLength:  encodeFloats(p.LengthScales),
		TypeWeights: encodeFloats(p.Weights),
	}
	meta := Meta{
		FormatVersion: Version,
		NX:            p.NX,
		NXStar:        p.NXStar,
		Dim:           p.Dim,
		Sigma:         p.Sigma,
		Mean:          ms,
		ChecksumIndex: make(map[string]ChecksumEntry, len(payloads)),
	}
	for _, sec := range dataSections {
		meta.ChecksumIndex[strconv.FormatUint(uint64(sec), 10)] = newChecksumEntry(payloads[sec], chunk)
	}
	mb, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("fileformat: encode meta: %w", err)
	}

	w := NewWriter()
	w.AddSection(TypeMeta, mb, 0)
	for _, sec := range dataSections {
		w.AddSection(sec, payloads[sec], o.Flags)
	}
	return w.Write(path)
}

// Meta decodes the META section.
func (r *Reader) Meta() (Meta, error) {
	var m Meta
	b, err := r.SectionUncompressed(TypeMeta)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("fileformat: decode meta: %w", err)
	}
	return m, nil
}

// Problem decodes every section into a validated gp.Problem. The mean spec,
// if any, is returned alongside so callers can re-pack it.
func (r *Reader) Problem() (gp.Problem, *mean.Spec, error) {
	meta, err := r.Meta()
	if err != nil {
		return gp.Problem{}, nil, err
	}
	floats := make(map[uint32][]float64, len(dataSections))
	for _, sec := range dataSections {
		b, err := r.SectionUncompressed(sec)
		if err != nil {
			return gp.Problem{}, nil, err
		}
		if floats[sec], err = decodeFloats(b); err != nil {
			return gp.Problem{}, nil, fmt.Errorf("%s: %w", SectionName(sec), err)
		}
	}
	p := gp.NewProblem(floats[TypeTrain], floats[TypeQuery], floats[TypeLength], meta.Sigma, floats[TypeWeights], meta.NX, meta.NXStar, meta.Dim)
	if meta.Mean != nil {
		f, err := meta.Mean.Build()
		if err != nil {
			return gp.Problem{}, nil, err
		}
		p.Mean, p.MeanParams = f, meta.Mean.Params
	}
	if err := p.Validate(); err != nil {
		return gp.Problem{}, nil, err
	}
	return p, meta.Mean, nil
}

// ReadProblem opens path and decodes its problem.
func ReadProblem(path string) (gp.Problem, *mean.Spec, error) {
	r, err := Open(path)
	if err != nil {
		return gp.Problem{}, nil, err
	}
	defer r.Close()
	return r.Problem()
}
