package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Runs.WithLabelValues("stream", "ok").Inc()
	m.ChannelPushed.WithLabelValues("distance").Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("stream", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ChannelPushed.WithLabelValues("distance")))

	n, err := testutil.GatherAndCount(reg, "gpstream_runs_total", "gpstream_channel_pushed_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewTwiceOnSameRegistryFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestNewWithoutRegistry(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	require.NotNil(t, m.StageDuration)
}
