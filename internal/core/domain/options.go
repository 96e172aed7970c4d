package domain

import "time"

// Default option values.
const (
	DefaultCapacity         = 3
	DefaultPrefetchDelay    = 2 * time.Second
	DefaultFetchConcurrency = FaceCount
	DefaultFetchTimeout     = 30 * time.Second
)

// Options configure the cache and load coordinator.
type Options struct {
	// Capacity is the maximum number of resident cache entries.
	Capacity int
	// EnableCache keeps decoded resources resident. When false every request
	// is a fresh fetch; concurrent requests are still deduplicated.
	EnableCache bool
	// EnablePrefetch warms the cache in the background after each apply.
	EnablePrefetch bool
	// PrefetchDelay is the wait between an apply and the prefetch walk.
	PrefetchDelay time.Duration
	// FetchConcurrency bounds the faces fetched concurrently per resource.
	FetchConcurrency int
	// FetchTimeout bounds a single resource fetch.
	FetchTimeout time.Duration
}

// DefaultOptions returns the default configuration: a small cache, no prefetch.
func DefaultOptions() Options {
	return Options{
		Capacity:         DefaultCapacity,
		EnableCache:      true,
		EnablePrefetch:   false,
		PrefetchDelay:    DefaultPrefetchDelay,
		FetchConcurrency: DefaultFetchConcurrency,
		FetchTimeout:     DefaultFetchTimeout,
	}
}

// Normalize clamps invalid values to their defaults.
func (o Options) Normalize() Options {
	if o.Capacity < 1 {
		o.Capacity = DefaultCapacity
	}
	if o.PrefetchDelay < 0 {
		o.PrefetchDelay = DefaultPrefetchDelay
	}
	if o.FetchConcurrency < 1 {
		o.FetchConcurrency = DefaultFetchConcurrency
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	return o
}

// Config is the loaded configuration.
type Config struct {
	// Path is the configuration file the values were read from.
	Path         string
	Table        *DefinitionTable
	Options      Options
	Capabilities Capabilities
}

// ConfigFileName is the name of the configuration file discovered by walking
// up from the working directory.
const ConfigFileName = "skybox.yaml"
