package ports

import "time"

// MetricsSink observes cache and loader events. Implementations must be
// safe for concurrent use and must not block.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type MetricsSink interface {
	// CacheHit is called when a foreground request is served from the cache.
	CacheHit(key string)
	// CacheMiss is called when a foreground request is not in the cache.
	CacheMiss(key string)
	// LoadStarted is called when a fetch is issued.
	LoadStarted(key string)
	// LoadFinished is called when a fetch settles. err is nil on success.
	LoadFinished(key string, elapsed time.Duration, err error)
	// Evicted is called when an entry is removed to make room.
	Evicted(key string)
	// CurrentChanged is called when the applied key changes.
	CurrentChanged(prev, next string)
}
