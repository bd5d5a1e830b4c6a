package gp

import (
	"context"

	"github.com/qrv0/gpstream/internal/stream"
)

// PredictionReducer computes out[col] = sum_row k[row,col] * w[row] from a
// row-major m x n kernel stream in a single pass. It keeps one accumulator
// per column and decomposes each flat index as row = i / n, col = i % n.
type PredictionReducer struct {
	weights []float64
	m, n    int
	in      *stream.Channel[float64]
	seen    int
}

// NewPredictionReducer checks len(weights) == m before anything is consumed.
func NewPredictionReducer(weights []float64, m, n int, in *stream.Channel[float64]) (*PredictionReducer, error) {
	if m <= 0 || n <= 0 {
		return nil, stageErr("reducer", "init", ErrDimensionMismatch, "m=%d n=%d must be positive", m, n)
	}
	if len(weights) != m {
		return nil, stageErr("reducer", "init", ErrDimensionMismatch, "%d weights for %d rows", len(weights), m)
	}
	return &PredictionReducer{weights: weights, m: m, n: n, in: in}, nil
}

// Run consumes exactly m*n elements and returns the n column sums. No
// partial result is returned on error.
func (r *PredictionReducer) Run(ctx context.Context) ([]float64, error) {
	total := r.m * r.n
	acc := make([]float64, r.n)
	for {
		v, ok, err := r.in.Pop(ctx)
		if err != nil {
			return nil, stageErr("reducer", "pop", err, "stopped after %d of %d elements", r.seen, total)
		}
		if !ok {
			break
		}
		if r.seen >= total {
			return nil, stageErr("reducer", "pop", ErrLengthMismatch, "input carries more than %d elements", total)
		}
		row, col := r.seen/r.n, r.seen%r.n
		acc[col] += v * r.weights[row]
		r.seen++
	}
	if r.seen != total {
		return nil, stageErr("reducer", "close", ErrChannelClosedPrematurely, "got %d of %d elements", r.seen, total)
	}
	return acc, nil
}

// Seen returns the number of elements consumed. Only meaningful after Run returns.
func (r *PredictionReducer) Seen() int { return r.seen }
