package gp

import (
	"context"

	"github.com/qrv0/gpstream/internal/kernel"
	"github.com/qrv0/gpstream/internal/stream"
)

// KernelTransform maps each distance r to exp(-0.5 r) exp(sigma), keeping
// order and count. It holds no per-element state.
type KernelTransform struct {
	scale   float64
	count   int // declared stream length, or -1 when unknown
	in, out *stream.Channel[float64]
	seen    int
}

// NewKernelTransform binds the transform to its channels. A negative count
// disables the length check.
func NewKernelTransform(sigma float64, count int, in, out *stream.Channel[float64]) *KernelTransform {
	if count < 0 {
		count = -1
	}
	return &KernelTransform{scale: kernel.Scale(sigma), count: count, in: in, out: out}
}

// Run consumes the input until it is closed and drained, then closes the output.
func (k *KernelTransform) Run(ctx context.Context) error {
	for {
		r, ok, err := k.in.Pop(ctx)
		if err != nil {
			return stageErr("kernel", "pop", err, "stopped after %d elements", k.seen)
		}
		if !ok {
			break
		}
		if k.count >= 0 && k.seen >= k.count {
			return stageErr("kernel", "pop", ErrLengthMismatch, "input carries more than %d elements", k.count)
		}
		if err := k.out.Push(ctx, kernel.SquaredExponential(r, k.scale)); err != nil {
			return stageErr("kernel", "push", err, "stopped after %d elements", k.seen)
		}
		k.seen++
	}
	if k.count >= 0 && k.seen != k.count {
		return stageErr("kernel", "close", ErrChannelClosedPrematurely, "got %d of %d elements", k.seen, k.count)
	}
	k.out.Close()
	return nil
}

// Seen returns the number of elements transformed. Only meaningful after Run returns.
func (k *KernelTransform) Seen() int { return k.seen }
