// Package stream provides the bounded FIFO that connects pipeline stages.
//
// A Channel mirrors a fixed-depth hardware pipe: Push blocks while the
// channel is full, Pop blocks while it is empty and open, and Pop reports
// end-of-stream once the producer has closed the channel and every buffered
// element has been drained. Elements are delivered in push order and are
// never dropped.
//
// Only the producer closes a Channel. Consumers that need to abort a run
// cancel the context shared by all stages instead; every blocking call
// selects on that context, so cancellation unblocks both ends.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/qrv0/gpstream/internal/metric"
)

// DefaultCapacity is the depth of one hardware pipe.
const DefaultCapacity = 128

var (
	// ErrClosed is returned by Push after Close.
	ErrClosed = errors.New("stream: push on closed channel")
	// ErrAborted is returned when the run context is cancelled mid-operation.
	ErrAborted = errors.New("stream: aborted")
	// ErrCapacity is returned by New for a capacity below one.
	ErrCapacity = errors.New("stream: capacity must be at least 1")
)

// Channel is a bounded, ordered, closable queue of T.
type Channel[T any] struct {
	name string
	ch   chan T

	closeOnce sync.Once
	closed    atomic.Bool

	pushed atomic.Int64
	popped atomic.Int64

	pushedC prometheus.Counter
	poppedC prometheus.Counter
	fullC   prometheus.Counter
	depthG  prometheus.Gauge
}

// Option configures a Channel.
type Option func(*options)

type options struct {
	metrics *metric.Metrics
}

// WithMetrics records pushes, pops, full waits and depth under the channel name.
func WithMetrics(m *metric.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New creates a Channel holding at most capacity elements.
func New[T any](name string, capacity int, opts ...Option) (*Channel[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %s got %d", ErrCapacity, name, capacity)
	}
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	c := &Channel[T]{name: name, ch: make(chan T, capacity)}
	if o.metrics != nil {
		c.pushedC = o.metrics.ChannelPushed.WithLabelValues(name)
		c.poppedC = o.metrics.ChannelPopped.WithLabelValues(name)
		c.fullC = o.metrics.ChannelFull.WithLabelValues(name)
		c.depthG = o.metrics.ChannelDepth.WithLabelValues(name)
	}
	return c, nil
}

// Push appends v, blocking while the channel is full.
func (c *Channel[T]) Push(ctx context.Context, v T) error {
	if c.closed.Load() {
		return fmt.Errorf("%w: %s", ErrClosed, c.name)
	}
	select {
	case c.ch <- v:
	default:
		if c.fullC != nil {
			c.fullC.Inc()
		}
		select {
		case c.ch <- v:
		case <-ctx.Done():
			return fmt.Errorf("%w: push to %s: %w", ErrAborted, c.name, ctx.Err())
		}
	}
	c.pushed.Add(1)
	if c.pushedC != nil {
		c.pushedC.Inc()
		c.depthG.Set(float64(len(c.ch)))
	}
	return nil
}

// Pop removes the oldest element. ok is false once the channel is closed and
// drained; err is non-nil only when ctx is cancelled first.
func (c *Channel[T]) Pop(ctx context.Context) (v T, ok bool, err error) {
	select {
	case v, ok = <-c.ch:
	case <-ctx.Done():
		return v, false, fmt.Errorf("%w: pop from %s: %w", ErrAborted, c.name, ctx.Err())
	}
	if !ok {
		return v, false, nil
	}
	c.popped.Add(1)
	if c.poppedC != nil {
		c.poppedC.Inc()
		c.depthG.Set(float64(len(c.ch)))
	}
	return v, true, nil
}

// Close marks end-of-stream. Buffered elements remain poppable. Safe to call
// more than once; must only be called by the producer.
func (c *Channel[T]) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.ch)
	})
}

// Closed reports whether Close has been called.
func (c *Channel[T]) Closed() bool { return c.closed.Load() }

func (c *Channel[T]) Name() string  { return c.name }
func (c *Channel[T]) Cap() int      { return cap(c.ch) }
func (c *Channel[T]) Len() int      { return len(c.ch) }
func (c *Channel[T]) Pushed() int64 { return c.pushed.Load() }
func (c *Channel[T]) Popped() int64 { return c.popped.Load() }
