// Package metric exposes Prometheus collectors for pipeline runs.
//
// A single Metrics value is shared by every run that is handed it; series are
// split by channel or stage label rather than by run, so concurrent runs do
// not register duplicate collectors.
package metric

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gpstream"

// Metrics holds the collectors updated by channels and pipeline stages.
type Metrics struct {
	ChannelPushed *prometheus.CounterVec
	ChannelPopped *prometheus.CounterVec
	ChannelFull   *prometheus.CounterVec
	ChannelDepth  *prometheus.GaugeVec

	StageElements *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	Runs *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg returns unregistered collectors, which is handy in tests.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ChannelPushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "pushed_total",
			Help:      "Elements pushed into a stream channel",
		}, []string{"channel"}),
		ChannelPopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "popped_total",
			Help:      "Elements popped from a stream channel",
		}, []string{"channel"}),
		ChannelFull: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "full_total",
			Help:      "Pushes that found the channel full and had to wait",
		}, []string{"channel"}),
		ChannelDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "depth",
			Help:      "Elements buffered in a stream channel after the last operation",
		}, []string{"channel"}),
		StageElements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stage",
			Name:      "elements_total",
			Help:      "Elements emitted or consumed by a pipeline stage",
		}, []string{"stage"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stage",
			Name:      "duration_seconds",
			Help:      "Wall time of a pipeline stage",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		}, []string{"stage", "status"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Prediction runs by execution mode and result",
		}, []string{"mode", "result"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.ChannelPushed, m.ChannelPopped, m.ChannelFull, m.ChannelDepth,
		m.StageElements, m.StageDuration, m.Runs,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metric: register collector: %w", err)
		}
	}
	return m, nil
}
