// Package metrics collects operational metrics of the reserve program.
//
// Every pool operation counts its attempts and failures and records its latency;
// after each committed operation the program publishes the vault balances and share
// supply of the touched pool as gauges. Backends are combined through a Collection.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
)

// Metric names used by the reserve program.
const (
	MetricPoolsInitialized        = "pools_initialized"
	MetricLiquidityAdded          = "liquidity_added"
	MetricLiquidityRemoved        = "liquidity_removed"
	MetricOperationsFailed        = "operations_failed"
	MetricOperationDurationMillis = "operation_duration_milliseconds"
	MetricNativeDeposited         = "native_deposited_lamports"
	MetricNativeWithdrawn         = "native_withdrawn_lamports"
	MetricQuoteVaultLamports      = "quote_vault_lamports"
	MetricBaseVaultAmount         = "base_vault_amount"
	MetricShareSupply             = "share_supply"
	MetricEventsProcessed         = "events_processed"
	MetricEventsFailed            = "events_failed"
	MetricEventsStored            = "events_stored"
)

// Metrics is a metrics backend.
type Metrics interface {
	Initialize(ctx context.Context) error
	Flush(ctx context.Context) error
	Shutdown(ctx context.Context) error

	// UpdateGauge sets a value that can go up or down, like a vault balance.
	UpdateGauge(ctx context.Context, name string, value float64) error

	// IncrementCounter adds to a value that only grows, like completed deposits.
	IncrementCounter(ctx context.Context, name string, value uint64) error

	// RecordHistogram observes one sample of a distribution, like an operation latency.
	RecordHistogram(ctx context.Context, name string, value float64) error
}

// Collection fans every call out to its backends. A failing backend does not keep the
// others from recording; their errors are joined.
type Collection struct {
	mu      sync.RWMutex
	metrics []Metrics
}

// NewCollection creates a Collection over metrics.
func NewCollection(metrics ...Metrics) *Collection {
	return &Collection{metrics: metrics}
}

// Add registers another backend.
func (c *Collection) Add(m Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = append(c.metrics, m)
}

// Len returns the number of backends.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.metrics)
}

func (c *Collection) each(fn func(m Metrics) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []error
	for _, m := range c.metrics {
		if err := fn(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Collection) Initialize(ctx context.Context) error {
	return c.each(func(m Metrics) error { return m.Initialize(ctx) })
}

func (c *Collection) Flush(ctx context.Context) error {
	return c.each(func(m Metrics) error { return m.Flush(ctx) })
}

func (c *Collection) Shutdown(ctx context.Context) error {
	return c.each(func(m Metrics) error { return m.Shutdown(ctx) })
}

func (c *Collection) UpdateGauge(ctx context.Context, name string, value float64) error {
	return c.each(func(m Metrics) error { return m.UpdateGauge(ctx, name, value) })
}

func (c *Collection) IncrementCounter(ctx context.Context, name string, value uint64) error {
	return c.each(func(m Metrics) error { return m.IncrementCounter(ctx, name, value) })
}

func (c *Collection) RecordHistogram(ctx context.Context, name string, value float64) error {
	return c.each(func(m Metrics) error { return m.RecordHistogram(ctx, name, value) })
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics { return &NoopMetrics{} }

func (*NoopMetrics) Initialize(context.Context) error                       { return nil }
func (*NoopMetrics) Flush(context.Context) error                            { return nil }
func (*NoopMetrics) Shutdown(context.Context) error                         { return nil }
func (*NoopMetrics) UpdateGauge(context.Context, string, float64) error     { return nil }
func (*NoopMetrics) IncrementCounter(context.Context, string, uint64) error { return nil }
func (*NoopMetrics) RecordHistogram(context.Context, string, float64) error { return nil }

// Summary aggregates the samples of one histogram.
type Summary struct {
	Count uint64  `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func (s *Summary) observe(v float64) {
	if s.Count == 0 {
		s.Min, s.Max = v, v
	} else {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Count++
	s.Sum += v
}

// Mean returns the average sample, or 0 without samples.
func (s Summary) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// LogMetrics keeps metrics in memory and writes them to a slog logger on Flush.
type LogMetrics struct {
	logger *slog.Logger

	mu         sync.Mutex
	gauges     map[string]float64
	counters   map[string]uint64
	histograms map[string]*Summary
}

// NewLogMetrics creates a LogMetrics writing to logger, or to slog.Default() if nil.
func NewLogMetrics(logger *slog.Logger) *LogMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMetrics{
		logger:     logger,
		gauges:     make(map[string]float64),
		counters:   make(map[string]uint64),
		histograms: make(map[string]*Summary),
	}
}

func (l *LogMetrics) Initialize(ctx context.Context) error {
	l.logger.Debug("metrics initialized")
	return nil
}

// Flush logs the current value of every metric.
func (l *LogMetrics) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	histograms := make(map[string]Summary, len(l.histograms))
	for name, s := range l.histograms {
		histograms[name] = *s
	}
	l.logger.Info("metrics flush",
		"gauges", l.gauges,
		"counters", l.counters,
		"histograms", histograms,
	)
	return nil
}

func (l *LogMetrics) Shutdown(ctx context.Context) error {
	l.logger.Debug("metrics shutdown")
	return nil
}

func (l *LogMetrics) UpdateGauge(ctx context.Context, name string, value float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gauges[name] = value
	return nil
}

func (l *LogMetrics) IncrementCounter(ctx context.Context, name string, value uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counters[name] += value
	return nil
}

func (l *LogMetrics) RecordHistogram(ctx context.Context, name string, value float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.histograms[name]
	if !ok {
		s = &Summary{}
		l.histograms[name] = s
	}
	s.observe(value)
	return nil
}

// Summary returns the aggregate of histogram name.
func (l *LogMetrics) Summary(name string) Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.histograms[name]; ok {
		return *s
	}
	return Summary{}
}
