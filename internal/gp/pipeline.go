// Package gp computes Gaussian Process predictive means.
//
// The streaming path runs three stages as goroutines joined by bounded
// channels:
//
//	DistanceComputer -> stream.Channel -> KernelTransform -> stream.Channel -> PredictionReducer
//
// PredictGP is the batch path. It materialises every intermediate matrix and
// serves as the reference the streaming path is checked against.
package gp

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/qrv0/gpstream/internal/metric"
	"github.com/qrv0/gpstream/internal/stream"
)

// State of a pipeline run.
type State int32

const (
	StateInit State = iota
	StateStreaming
	StateDrain
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateStreaming:
		return "STREAMING"
	case StateDrain:
		return "DRAIN"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	distanceCap int
	kernelCap   int
	logger      *slog.Logger
	metrics     *metric.Metrics
}

// WithCapacity sets the capacity of both channels.
func WithCapacity(n int) Option {
	return func(o *options) { o.distanceCap, o.kernelCap = n, n }
}

// WithDistanceCapacity sets the capacity of the distance -> kernel channel.
func WithDistanceCapacity(n int) Option {
	return func(o *options) { o.distanceCap = n }
}

// WithKernelCapacity sets the capacity of the kernel -> reducer channel.
func WithKernelCapacity(n int) Option {
	return func(o *options) { o.kernelCap = n }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records channel, stage and run metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Pipeline owns one streaming run: its two channels and three stage handles.
// A Pipeline runs at most once.
type Pipeline struct {
	problem Problem
	runID   string
	logger  *slog.Logger
	metrics *metric.Metrics

	distanceCh *stream.Channel[float64]
	kernelCh   *stream.Channel[float64]

	distance *DistanceComputer
	kernel   *KernelTransform
	reducer  *PredictionReducer

	state atomic.Int32
	ran   atomic.Bool
}

// NewPipeline validates p and wires the stages. Dimension errors are
// reported here, before any goroutine starts.
func NewPipeline(p Problem, opts ...Option) (*Pipeline, error) {
	o := options{distanceCap: stream.DefaultCapacity, kernelCap: stream.DefaultCapacity}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var chOpts []stream.Option
	if o.metrics != nil {
		chOpts = append(chOpts, stream.WithMetrics(o.metrics))
	}
	distanceCh, err := stream.New[float64]("distance", o.distanceCap, chOpts...)
	if err != nil {
		return nil, stageErr("distance", "init", err, "bad channel capacity")
	}
	kernelCh, err := stream.New[float64]("kernel", o.kernelCap, chOpts...)
	if err != nil {
		return nil, stageErr("kernel", "init", err, "bad channel capacity")
	}

	dc, err := NewDistanceComputer(p, distanceCh)
	if err != nil {
		return nil, err
	}
	rd, err := NewPredictionReducer(p.Weights, p.NX, p.NXStar, kernelCh)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	return &Pipeline{
		problem:    p,
		runID:      runID,
		logger:     o.logger.With("run_id", runID),
		metrics:    o.metrics,
		distanceCh: distanceCh,
		kernelCh:   kernelCh,
		distance:   dc,
		kernel:     NewKernelTransform(p.Sigma, p.Elements(), distanceCh, kernelCh),
		reducer:    rd,
	}, nil
}

// Run executes the three stages concurrently and returns the prediction
// vector. The first stage error cancels the others; that error is returned
// and no partial output escapes.
func (pl *Pipeline) Run(ctx context.Context) ([]float64, error) {
	if !pl.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}
	start := time.Now()
	pl.state.Store(int32(StateStreaming))
	pl.logger.Debug("pipeline started",
		"nx", pl.problem.NX, "nxstar", pl.problem.NXStar, "dim", pl.problem.Dim,
		"distance_capacity", pl.distanceCh.Cap(), "kernel_capacity", pl.kernelCh.Cap())

	var out []float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pl.observe("distance", func() (int, error) {
			err := pl.distance.Run(gctx)
			return pl.distance.Emitted(), err
		})
	})
	g.Go(func() error {
		return pl.observe("kernel", func() (int, error) {
			err := pl.kernel.Run(gctx)
			return pl.kernel.Seen(), err
		})
	})
	g.Go(func() error {
		return pl.observe("reducer", func() (int, error) {
			y, err := pl.reducer.Run(gctx)
			out = y
			return pl.reducer.Seen(), err
		})
	})

	if err := g.Wait(); err != nil {
		return nil, pl.fail(err, start)
	}

	pl.state.Store(int32(StateDrain))
	if err := pl.problem.addMean(out); err != nil {
		return nil, pl.fail(err, start)
	}

	pl.state.Store(int32(StateDone))
	if pl.metrics != nil {
		pl.metrics.Runs.WithLabelValues("stream", "ok").Inc()
	}
	pl.logger.Debug("pipeline finished", "elapsed", time.Since(start))
	return out, nil
}

func (pl *Pipeline) fail(err error, start time.Time) error {
	pl.state.Store(int32(StateFailed))
	if pl.metrics != nil {
		pl.metrics.Runs.WithLabelValues("stream", "failed").Inc()
	}
	attrs := []any{"error", err, "elapsed", time.Since(start)}
	var se *StageError
	if errors.As(err, &se) {
		attrs = append(attrs, "stage", se.Stage)
	}
	pl.logger.Warn("pipeline failed", attrs...)
	return err
}

func (pl *Pipeline) observe(stage string, run func() (int, error)) error {
	start := time.Now()
	n, err := run()
	if pl.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		pl.metrics.StageElements.WithLabelValues(stage).Add(float64(n))
		pl.metrics.StageDuration.WithLabelValues(stage, status).Observe(time.Since(start).Seconds())
	}
	return err
}

// State reports where the run is in INIT -> STREAMING -> DRAIN -> DONE, or FAILED.
func (pl *Pipeline) State() State { return State(pl.state.Load()) }

// RunID identifies the run in logs.
func (pl *Pipeline) RunID() string { return pl.runID }

func (pl *Pipeline) Distance() *DistanceComputer { return pl.distance }
func (pl *Pipeline) Kernel() *KernelTransform    { return pl.kernel }
func (pl *Pipeline) Reducer() *PredictionReducer { return pl.reducer }

// Channels returns the distance and kernel channels, for inspection.
func (pl *Pipeline) Channels() (distance, kernel *stream.Channel[float64]) {
	return pl.distanceCh, pl.kernelCh
}

// Predict runs p through a fresh streaming pipeline.
func Predict(ctx context.Context, p Problem, opts ...Option) ([]float64, error) {
	pl, err := NewPipeline(p, opts...)
	if err != nil {
		return nil, err
	}
	return pl.Run(ctx)
}

// PredictStream is the streaming entry point over flattened inputs. It is
// observably equivalent to PredictGP.
func PredictStream(ctx context.Context, x, xstar, lengthScales []float64, sigma float64, weights []float64, nx, nxstar, dim int, opts ...Option) ([]float64, error) {
	return Predict(ctx, NewProblem(x, xstar, lengthScales, sigma, weights, nx, nxstar, dim), opts...)
}
