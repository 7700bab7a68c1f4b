package metrics

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics exports metrics through a Prometheus registerer. Collectors are
// created and registered the first time a name is used.
type PrometheusMetrics struct {
	namespace  string
	registerer prometheus.Registerer

	mu         sync.Mutex
	gauges     map[string]prometheus.Gauge
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

// NewPrometheusMetrics creates a PrometheusMetrics registering into registerer.
// If registerer is nil, prometheus.DefaultRegisterer is used.
func NewPrometheusMetrics(namespace string, registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &PrometheusMetrics{
		namespace:  namespace,
		registerer: registerer,
		gauges:     make(map[string]prometheus.Gauge),
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
	}
}

func (p *PrometheusMetrics) Initialize(ctx context.Context) error { return nil }
func (p *PrometheusMetrics) Flush(ctx context.Context) error      { return nil }

// Shutdown unregisters every collector created so far.
func (p *PrometheusMetrics) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for name, g := range p.gauges {
		p.registerer.Unregister(g)
		delete(p.gauges, name)
	}
	for name, c := range p.counters {
		p.registerer.Unregister(c)
		delete(p.counters, name)
	}
	for name, h := range p.histograms {
		p.registerer.Unregister(h)
		delete(p.histograms, name)
	}
	return nil
}

func (p *PrometheusMetrics) UpdateGauge(ctx context.Context, name string, value float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	g, ok := p.gauges[name]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{Namespace: p.namespace, Name: name})
		if err := p.register(g); err != nil {
			return err
		}
		p.gauges[name] = g
	}
	g.Set(value)
	return nil
}

func (p *PrometheusMetrics) IncrementCounter(ctx context.Context, name string, value uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.counters[name]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{Namespace: p.namespace, Name: name + "_total"})
		if err := p.register(c); err != nil {
			return err
		}
		p.counters[name] = c
	}
	c.Add(float64(value))
	return nil
}

func (p *PrometheusMetrics) RecordHistogram(ctx context.Context, name string, value float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.histograms[name]
	if !ok {
		h = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      name,
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		})
		if err := p.register(h); err != nil {
			return err
		}
		p.histograms[name] = h
	}
	h.Observe(value)
	return nil
}

func (p *PrometheusMetrics) register(c prometheus.Collector) error {
	if err := p.registerer.Register(c); err != nil {
		return fmt.Errorf("failed to register metric: %w", err)
	}
	return nil
}
