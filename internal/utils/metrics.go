// internal/utils/metrics.go
package utils

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector collects application metrics
type MetricsCollector struct {
	counters   map[string]*int64
	gauges     map[string]*int64
	histograms map[string]*Histogram

	mu sync.RWMutex
}

// Histogram tracks count, sum, min and max of observed values
type Histogram struct {
	count int64
	sum   int64
	min   int64
	max   int64
	mu    sync.Mutex
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// GetMetricsCollector returns the global metrics collector
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsCollector()
	})
	return globalMetrics
}

// NewMetricsCollector creates an isolated collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]*int64),
		gauges:     make(map[string]*int64),
		histograms: make(map[string]*Histogram),
	}
}

// cell returns the value slot for name, creating it under the write lock on first use
func (m *MetricsCollector) cell(set map[string]*int64, name string) *int64 {
	m.mu.RLock()
	v, ok := set[name]
	m.mu.RUnlock()
	if ok {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok = set[name]; !ok {
		v = new(int64)
		set[name] = v
	}
	return v
}

// IncrementCounter increments a counter by one
func (m *MetricsCollector) IncrementCounter(name string) {
	m.AddCounter(name, 1)
}

// AddCounter adds a value to a counter
func (m *MetricsCollector) AddCounter(name string, value int64) {
	atomic.AddInt64(m.cell(m.counters, name), value)
}

// GetCounterValue returns the current counter value
func (m *MetricsCollector) GetCounterValue(name string) int64 {
	m.mu.RLock()
	v, ok := m.counters[name]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(v)
}

// SetGauge sets a gauge
func (m *MetricsCollector) SetGauge(name string, value int64) {
	atomic.StoreInt64(m.cell(m.gauges, name), value)
}

// IncGauge increments a gauge
func (m *MetricsCollector) IncGauge(name string) {
	atomic.AddInt64(m.cell(m.gauges, name), 1)
}

// DecGauge decrements a gauge
func (m *MetricsCollector) DecGauge(name string) {
	atomic.AddInt64(m.cell(m.gauges, name), -1)
}

// GetGauge returns the current gauge value
func (m *MetricsCollector) GetGauge(name string) int64 {
	m.mu.RLock()
	v, ok := m.gauges[name]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(v)
}

// RecordHistogram records a value in a histogram
func (m *MetricsCollector) RecordHistogram(name string, value int64) {
	m.mu.RLock()
	h, ok := m.histograms[name]
	m.mu.RUnlock()

	if !ok {
		m.mu.Lock()
		if h, ok = m.histograms[name]; !ok {
			h = &Histogram{min: value, max: value}
			m.histograms[name] = h
		}
		m.mu.Unlock()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	if value < h.min {
		h.min = value
	}
	if value > h.max {
		h.max = value
	}
}

// GetMetrics returns a snapshot of all metrics
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for name, v := range m.counters {
		counters[name] = atomic.LoadInt64(v)
	}

	gauges := make(map[string]int64, len(m.gauges))
	for name, v := range m.gauges {
		gauges[name] = atomic.LoadInt64(v)
	}

	histograms := make(map[string]map[string]int64, len(m.histograms))
	for name, h := range m.histograms {
		h.mu.Lock()
		histograms[name] = map[string]int64{
			"count": h.count,
			"sum":   h.sum,
			"min":   h.min,
			"max":   h.max,
		}
		h.mu.Unlock()
	}

	return map[string]interface{}{
		"counters":   counters,
		"gauges":     gauges,
		"histograms": histograms,
	}
}

// StoryboardMetrics records service-level metrics for storyboard generation
type StoryboardMetrics struct {
	metrics *MetricsCollector
	logger  *Logger
}

// NewStoryboardMetrics creates metrics bound to the global collector and logger
func NewStoryboardMetrics() *StoryboardMetrics {
	return &StoryboardMetrics{
		metrics: GetMetricsCollector(),
		logger:  GetLogger(),
	}
}

// NewStoryboardMetricsWith binds metrics to an explicit collector and logger
func NewStoryboardMetricsWith(collector *MetricsCollector, logger *Logger) *StoryboardMetrics {
	return &StoryboardMetrics{metrics: collector, logger: logger}
}

// Collector exposes the underlying collector
func (sm *StoryboardMetrics) Collector() *MetricsCollector {
	return sm.metrics
}

// RecordAPIRequest records metrics for an API request
func (sm *StoryboardMetrics) RecordAPIRequest(endpoint, method string, statusCode int, duration time.Duration) {
	sm.metrics.IncrementCounter("api_requests_total")
	sm.metrics.IncrementCounter("api_requests_" + method + "_" + endpoint)
	sm.metrics.RecordHistogram("api_response_time_ms", duration.Milliseconds())
	sm.metrics.IncrementCounter(fmt.Sprintf("api_responses_%dxx", statusCode/100))

	sm.logger.Debug("API request completed", map[string]interface{}{
		"endpoint": endpoint,
		"method":   method,
		"status":   statusCode,
		"duration": duration.Milliseconds(),
	})
}

// RecordGeneration records one generated storyboard
func (sm *StoryboardMetrics) RecordGeneration(shots, transitions, repaired int, duration time.Duration) {
	sm.metrics.IncrementCounter("storyboards_generated_total")
	sm.metrics.AddCounter("shots_generated_total", int64(shots))
	sm.metrics.AddCounter("transitions_generated_total", int64(transitions))
	sm.metrics.AddCounter("transitions_repaired_total", int64(repaired))
	sm.metrics.RecordHistogram("generation_time_ms", duration.Milliseconds())
}

// RecordFormat records a platform formatting request
func (sm *StoryboardMetrics) RecordFormat(platform string) {
	sm.metrics.IncrementCounter("platform_format_total")
	sm.metrics.IncrementCounter("platform_format_" + platform)
}

// RecordError records an error metric
func (sm *StoryboardMetrics) RecordError(errorType, component string) {
	sm.metrics.IncrementCounter("errors_total")
	sm.metrics.IncrementCounter("errors_" + errorType)
	sm.metrics.IncrementCounter("errors_" + component)

	sm.logger.Error("Error recorded", map[string]interface{}{
		"type":      errorType,
		"component": component,
	})
}

// StartMetricsCollection periodically logs a metrics summary until ctx is done
func (sm *StoryboardMetrics) StartMetricsCollection(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sm.logger.Info("Periodic metrics report", map[string]interface{}{
					"metrics": sm.metrics.GetMetrics(),
				})
			}
		}
	}()
}
