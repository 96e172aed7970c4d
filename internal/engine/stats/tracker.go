// Package stats accumulates cache and loader metrics.
package stats

import (
	"maps"
	"sync"
	"time"

	"go.trai.ch/skybox/internal/core/ports"
)

// Counters is a snapshot of the tracked metrics.
type Counters struct {
	Hits      uint64
	Misses    uint64
	Loads     uint64
	Failures  uint64
	Evictions uint64
	Latency   map[string]time.Duration
}

// Tracker implements ports.MetricsSink by counting events in memory.
type Tracker struct {
	mu       sync.Mutex
	counters Counters
}

var _ ports.MetricsSink = (*Tracker)(nil)

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		counters: Counters{Latency: make(map[string]time.Duration)},
	}
}

// CacheHit counts a foreground cache hit.
func (t *Tracker) CacheHit(string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters.Hits++
}

// CacheMiss counts a foreground cache miss.
func (t *Tracker) CacheMiss(string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters.Misses++
}

// LoadStarted is a no-op; loads are counted when they settle.
func (t *Tracker) LoadStarted(string) {}

// LoadFinished records the latency of successful loads and counts failures.
func (t *Tracker) LoadFinished(key string, elapsed time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		t.counters.Failures++
		return
	}
	t.counters.Loads++
	t.counters.Latency[key] = elapsed
}

// Evicted counts an eviction.
func (t *Tracker) Evicted(string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters.Evictions++
}

// CurrentChanged is a no-op; the apply gate owns the current key.
func (t *Tracker) CurrentChanged(string, string) {}

// Snapshot returns a copy of the counters.
func (t *Tracker) Snapshot() Counters {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.counters
	c.Latency = maps.Clone(t.counters.Latency)
	return c
}

// Reset clears every counter.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters = Counters{Latency: make(map[string]time.Duration)}
}
