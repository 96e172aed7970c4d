package stats

import (
	"time"

	"go.trai.ch/skybox/internal/core/ports"
)

// Multi fans every event out to each sink in order.
type Multi []ports.MetricsSink

var _ ports.MetricsSink = Multi(nil)

// NewMulti builds a Multi, skipping nil sinks.
func NewMulti(sinks ...ports.MetricsSink) Multi {
	out := make(Multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// CacheHit implements ports.MetricsSink.
func (m Multi) CacheHit(key string) {
	for _, s := range m {
		s.CacheHit(key)
	}
}

// CacheMiss implements ports.MetricsSink.
func (m Multi) CacheMiss(key string) {
	for _, s := range m {
		s.CacheMiss(key)
	}
}

// LoadStarted implements ports.MetricsSink.
func (m Multi) LoadStarted(key string) {
	for _, s := range m {
		s.LoadStarted(key)
	}
}

// LoadFinished implements ports.MetricsSink.
func (m Multi) LoadFinished(key string, elapsed time.Duration, err error) {
	for _, s := range m {
		s.LoadFinished(key, elapsed, err)
	}
}

// Evicted implements ports.MetricsSink.
func (m Multi) Evicted(key string) {
	for _, s := range m {
		s.Evicted(key)
	}
}

// CurrentChanged implements ports.MetricsSink.
func (m Multi) CurrentChanged(prev, next string) {
	for _, s := range m {
		s.CurrentChanged(prev, next)
	}
}

// Nop discards every event.
type Nop struct{}

var _ ports.MetricsSink = Nop{}

func (Nop) CacheHit(string)                           {}
func (Nop) CacheMiss(string)                          {}
func (Nop) LoadStarted(string)                        {}
func (Nop) LoadFinished(string, time.Duration, error) {}
func (Nop) Evicted(string)                            {}
func (Nop) CurrentChanged(string, string)             {}
