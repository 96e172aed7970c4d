package domain

import "time"

// Resource is an opaque decoded resource ready to be applied to a consuming
// context. Only the cache that owns it may call Dispose.
type Resource interface {
	// Dispose releases the decoded data. Calling it twice is an error.
	Dispose() error
}

// Tunable is implemented by resources that adjust display parameters from
// the consuming context's capabilities after a successful decode.
type Tunable interface {
	Tune(caps Capabilities)
}

// Sized is implemented by resources that can report their resident size.
type Sized interface {
	SizeBytes() int64
}

// Handle lends a decoded resource to callers. The empty handle (NoneKey, nil
// resource) represents "no resource".
type Handle struct {
	Key      string
	Resource Resource
}

// EmptyHandle returns the handle for NoneKey.
func EmptyHandle() Handle {
	return Handle{Key: NoneKey}
}

// IsEmpty reports whether the handle carries no resource.
func (h Handle) IsEmpty() bool {
	return h.Resource == nil
}

// CacheEntry is a point-in-time snapshot of a cached handle and its recency
// metadata.
type CacheEntry struct {
	Key           string
	Handle        Handle
	InsertedAt    time.Time
	LastAppliedAt time.Time
	LastUsedAt    time.Time
	// Seq is the monotonically increasing insertion sequence.
	Seq uint64
}

// Recency returns the most recent of the entry's timestamps.
func (e CacheEntry) Recency() time.Time {
	t := e.InsertedAt
	if e.LastUsedAt.After(t) {
		t = e.LastUsedAt
	}
	if e.LastAppliedAt.After(t) {
		t = e.LastAppliedAt
	}
	return t
}

// Capabilities are tuning hints describing the consuming context.
type Capabilities struct {
	// MaxTextureSize is the largest supported face edge in pixels.
	MaxTextureSize int
	// MaxAnisotropy is the highest supported anisotropic filtering level.
	MaxAnisotropy int
}

// Safe fallbacks when no capability provider is available.
const (
	DefaultMaxTextureSize = 2048
	DefaultMaxAnisotropy  = 1
)

// DefaultCapabilities returns conservative capabilities.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		MaxTextureSize: DefaultMaxTextureSize,
		MaxAnisotropy:  DefaultMaxAnisotropy,
	}
}

// Normalize replaces non-positive fields with their defaults.
func (c Capabilities) Normalize() Capabilities {
	if c.MaxTextureSize <= 0 {
		c.MaxTextureSize = DefaultMaxTextureSize
	}
	if c.MaxAnisotropy <= 0 {
		c.MaxAnisotropy = DefaultMaxAnisotropy
	}
	return c
}

// ApplyHints carries metadata alongside a handle being applied.
type ApplyHints struct {
	DisplayName string
	Previous    string
}
