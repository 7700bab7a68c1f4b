package metrics

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingMetrics struct {
	NoopMetrics
}

func (failingMetrics) IncrementCounter(ctx context.Context, name string, value uint64) error {
	return errors.New("backend down")
}

func TestCollectionFansOut(t *testing.T) {
	ctx := context.Background()
	a := NewLogMetrics(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	b := NewLogMetrics(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	c := NewCollection(a)
	c.Add(b)
	require.Equal(t, 2, c.Len())

	require.NoError(t, c.IncrementCounter(ctx, MetricLiquidityAdded, 2))
	require.NoError(t, c.IncrementCounter(ctx, MetricLiquidityAdded, 3))
	require.NoError(t, c.UpdateGauge(ctx, MetricShareSupply, 600))

	for _, m := range []*LogMetrics{a, b} {
		assert.Equal(t, uint64(5), m.counters[MetricLiquidityAdded])
		assert.Equal(t, float64(600), m.gauges[MetricShareSupply])
	}
}

func TestCollectionKeepsRecordingPastFailingBackend(t *testing.T) {
	healthy := NewLogMetrics(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	c := NewCollection(&failingMetrics{}, healthy, &failingMetrics{})

	err := c.IncrementCounter(context.Background(), MetricOperationsFailed, 1)
	assert.EqualError(t, err, "backend down\nbackend down")
	assert.Equal(t, uint64(1), healthy.counters[MetricOperationsFailed])

	assert.NoError(t, c.UpdateGauge(context.Background(), MetricShareSupply, 1))
}

func TestLogMetricsHistogramSummary(t *testing.T) {
	m := NewLogMetrics(nil)
	ctx := context.Background()

	assert.Zero(t, m.Summary(MetricOperationDurationMillis).Mean())
	for _, v := range []float64{4, 1, 7} {
		require.NoError(t, m.RecordHistogram(ctx, MetricOperationDurationMillis, v))
	}

	s := m.Summary(MetricOperationDurationMillis)
	assert.Equal(t, uint64(3), s.Count)
	assert.Equal(t, float64(1), s.Min)
	assert.Equal(t, float64(7), s.Max)
	assert.Equal(t, float64(4), s.Mean())
}

func TestLogMetricsFlush(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMetrics(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()

	require.NoError(t, m.UpdateGauge(ctx, MetricQuoteVaultLamports, 1000))
	require.NoError(t, m.Flush(ctx))
	assert.True(t, strings.Contains(buf.String(), "metrics flush"))
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics("reserve", reg)
	ctx := context.Background()

	require.NoError(t, m.IncrementCounter(ctx, MetricLiquidityAdded, 1))
	require.NoError(t, m.IncrementCounter(ctx, MetricLiquidityAdded, 2))
	require.NoError(t, m.UpdateGauge(ctx, MetricBaseVaultAmount, 6000))
	require.NoError(t, m.RecordHistogram(ctx, MetricOperationDurationMillis, 1.5))

	assert.Equal(t, float64(3), testutil.ToFloat64(m.counters[MetricLiquidityAdded]))
	assert.Equal(t, float64(6000), testutil.ToFloat64(m.gauges[MetricBaseVaultAmount]))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, m.Shutdown(ctx))
	count, err = testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPrometheusMetricsRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewPrometheusMetrics("reserve", reg)
	second := NewPrometheusMetrics("reserve", reg)
	ctx := context.Background()

	require.NoError(t, first.UpdateGauge(ctx, MetricShareSupply, 1))
	assert.Error(t, second.UpdateGauge(ctx, MetricShareSupply, 2))
}

func TestNoopMetricsAcceptsEverything(t *testing.T) {
	ctx := context.Background()
	c := NewCollection(NewNoopMetrics())

	require.NoError(t, c.Initialize(ctx))
	require.NoError(t, c.IncrementCounter(ctx, MetricLiquidityAdded, 1))
	require.NoError(t, c.UpdateGauge(ctx, MetricShareSupply, 1))
	require.NoError(t, c.RecordHistogram(ctx, MetricOperationDurationMillis, 1))
	require.NoError(t, c.Flush(ctx))
	require.NoError(t, c.Shutdown(ctx))
}
