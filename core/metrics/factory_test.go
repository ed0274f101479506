package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drplan/core/factory"
	metrics "github.com/kilianp07/drplan/core/metrics"
	inframetrics "github.com/kilianp07/drplan/infra/metrics"
)

func TestNewMetricsSink_Prometheus(t *testing.T) {
	s, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}})
	require.NoError(t, err)
	assert.IsType(t, &inframetrics.PromSink{}, s)

	// A second sink reuses the collectors already on the default registerer.
	again, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}})
	require.NoError(t, err)
	assert.IsType(t, &inframetrics.PromSink{}, again)
}

func TestNewMetricsSink_InfluxUnreachableFallsBack(t *testing.T) {
	s, err := metrics.NewMetricsSink([]factory.ModuleConfig{{
		Type: "influx",
		Conf: map[string]any{"url": "http://127.0.0.1:1", "token": "t", "org": "grid", "bucket": "dr"},
	}})
	require.NoError(t, err)
	assert.Equal(t, metrics.NopSink{}, s)
}

func TestNewMetricsSink_Multi(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.Equal(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}, {Type: "nop"}})
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	require.True(t, ok, "expected MultiSink, got %T", s)
	require.Len(t, m.Sinks, 2)
	assert.IsType(t, &inframetrics.PromSink{}, m.Sinks[0])
}

func TestNewMetricsSink_UnknownType(t *testing.T) {
	_, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}, {Type: "statsd"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics sink 1")
	assert.Contains(t, err.Error(), "statsd")
}
