package gp

import (
	"context"

	"github.com/qrv0/gpstream/internal/kernel"
	"github.com/qrv0/gpstream/internal/stream"
)

// DistanceComputer emits the weighted squared distance between every
// training row and every query row, training index outer, query index inner.
// Downstream stages recover (i, j) from the flat position alone.
type DistanceComputer struct {
	x, xstar   []float64
	weights    []float64 // exp(l_d)
	nx, nxstar int
	dim        int
	out        *stream.Channel[float64]
	emitted    int
}

// NewDistanceComputer validates the problem shape and binds the output channel.
func NewDistanceComputer(p Problem, out *stream.Channel[float64]) (*DistanceComputer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &DistanceComputer{
		x:       p.X,
		xstar:   p.Xstar,
		weights: kernel.LengthWeights(p.LengthScales),
		nx:      p.NX,
		nxstar:  p.NXStar,
		dim:     p.Dim,
		out:     out,
	}, nil
}

// Run pushes nx*nxstar distances and closes the output. On failure the
// output is left open; the run context cancellation releases the consumer.
func (d *DistanceComputer) Run(ctx context.Context) error {
	dim := d.dim
	for i := 0; i < d.nx; i++ {
		xi := d.x[i*dim : (i+1)*dim]
		for j := 0; j < d.nxstar; j++ {
			r := kernel.WeightedSqDist(xi, d.xstar[j*dim:(j+1)*dim], d.weights)
			if err := d.out.Push(ctx, r); err != nil {
				return stageErr("distance", "push", err, "stopped at element %d of %d", d.emitted, d.nx*d.nxstar)
			}
			d.emitted++
		}
	}
	d.out.Close()
	return nil
}

// Emitted returns how many distances have been pushed so far. Only
// meaningful after Run returns.
func (d *DistanceComputer) Emitted() int { return d.emitted }
