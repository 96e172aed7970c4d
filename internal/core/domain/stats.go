package domain

import "time"

// Stats is a snapshot of cache and loader activity.
type Stats struct {
	CachedCount int
	CachedKeys  []string
	CurrentKey  string
	// PerKeyLoadLatency holds the duration of the latest successful load per key.
	PerKeyLoadLatency map[string]time.Duration
	// CacheHitRate is Hits / (Hits + Misses), or zero before any request.
	CacheHitRate float64

	Hits      uint64
	Misses    uint64
	Loads     uint64
	Failures  uint64
	Evictions uint64
}

// HitRate computes hits / (hits + misses).
func HitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
