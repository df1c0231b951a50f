// Package metrics provides a process-local collector for pipeline
// counters, operation timings, and gauges. Stages record cache hits,
// vector search latency, and embedding calls; the summary is surfaced
// through the CLI and the HTTP server at the end of a run.
package metrics

import (
	"sync"
	"time"
)

// TimerSummary aggregates the recorded samples for one named operation.
type TimerSummary struct {
	Count   int     `json:"count"`
	TotalMS float64 `json:"total_ms"`
	AvgMS   float64 `json:"avg_ms"`
	MinMS   float64 `json:"min_ms"`
	MaxMS   float64 `json:"max_ms"`
}

// Summary is a point-in-time snapshot of every metric the collector holds.
type Summary struct {
	Counters map[string]int64        `json:"counters"`
	Timers   map[string]TimerSummary `json:"timers"`
	Gauges   map[string]float64      `json:"gauges"`
}

// Collector accumulates counters, timer samples, and gauges. All methods
// are safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	counters map[string]int64
	timers   map[string][]float64
	gauges   map[string]float64
}

func NewCollector() *Collector {
	return &Collector{
		counters: make(map[string]int64),
		timers:   make(map[string][]float64),
		gauges:   make(map[string]float64),
	}
}

// Increment adds delta to the named counter, creating it at zero first.
func (c *Collector) Increment(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters[name] += delta
}

// RecordTime appends a duration sample for the named operation.
func (c *Collector) RecordTime(name string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timers[name] = append(c.timers[name], float64(d.Milliseconds()))
}

// Time runs fn and records its wall-clock duration under name.
func (c *Collector) Time(name string, fn func()) {
	start := time.Now()
	fn()
	c.RecordTime(name, time.Since(start))
}

// SetGauge records the latest value for the named gauge.
func (c *Collector) SetGauge(name string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gauges[name] = value
}

// Counter returns the current value of the named counter.
func (c *Collector) Counter(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counters[name]
}

// Snapshot summarizes every counter, timer, and gauge the collector
// has accumulated since creation or the last Reset.
func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{
		Counters: make(map[string]int64, len(c.counters)),
		Timers:   make(map[string]TimerSummary, len(c.timers)),
		Gauges:   make(map[string]float64, len(c.gauges)),
	}

	for name, v := range c.counters {
		s.Counters[name] = v
	}
	for name, v := range c.gauges {
		s.Gauges[name] = v
	}
	for name, samples := range c.timers {
		if len(samples) == 0 {
			continue
		}

		summary := TimerSummary{
			Count: len(samples),
			MinMS: samples[0],
			MaxMS: samples[0],
		}
		for _, ms := range samples {
			summary.TotalMS += ms
			if ms < summary.MinMS {
				summary.MinMS = ms
			}
			if ms > summary.MaxMS {
				summary.MaxMS = ms
			}
		}
		summary.AvgMS = summary.TotalMS / float64(summary.Count)
		s.Timers[name] = summary
	}

	return s
}

// Reset discards all accumulated values.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters = make(map[string]int64)
	c.timers = make(map[string][]float64)
	c.gauges = make(map[string]float64)
}

// TrackCacheAccess records a cache lookup outcome for the named cache.
func (c *Collector) TrackCacheAccess(cache string, hit bool) {
	if hit {
		c.Increment(cache+".cache.hits", 1)
	} else {
		c.Increment(cache+".cache.misses", 1)
	}
}

// TrackVectorSearch records one vector query and its latency, and whether
// it produced a usable match.
func (c *Collector) TrackVectorSearch(d time.Duration, matched bool) {
	c.Increment("vector.searches", 1)
	if matched {
		c.Increment("vector.matches", 1)
	}
	c.RecordTime("vector.search", d)
}

// TrackEmbedding records one embedding API call covering n texts.
func (c *Collector) TrackEmbedding(d time.Duration, n int) {
	c.Increment("embedding.calls", 1)
	c.Increment("embedding.texts", int64(n))
	c.RecordTime("embedding.call", d)
}

var (
	defaultMu        sync.RWMutex
	defaultCollector = NewCollector()
)

// Default returns the process-wide collector.
func Default() *Collector {
	defaultMu.RLock()
	defer defaultMu.RUnlock()

	return defaultCollector
}

// SetDefault replaces the process-wide collector, returning the previous
// one. Intended for tests.
func SetDefault(c *Collector) *Collector {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	prev := defaultCollector
	defaultCollector = c
	return prev
}
