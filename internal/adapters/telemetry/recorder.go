// Package telemetry records cache and loader activity as OpenTelemetry spans.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies the tracer.
const InstrumentationName = "go.trai.ch/skybox"

// Span and event names.
const (
	SpanSession = "skybox.session"
	SpanLoad    = "skybox.load"

	EventHit     = "cache.hit"
	EventMiss    = "cache.miss"
	EventEvict   = "cache.evict"
	EventCurrent = "current.changed"
)

// Attribute keys.
const (
	AttrKey       = attribute.Key("skybox.key")
	AttrPrevious  = attribute.Key("skybox.previous")
	AttrElapsedMS = attribute.Key("skybox.load.elapsed_ms")
)

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Recorder implements ports.MetricsSink. Each load is a span under a session
// span; hits, misses, evictions and current changes are session events.
type Recorder struct {
	tracer   trace.Tracer
	provider trace.TracerProvider
	bridge   *Bridge

	mu      sync.Mutex
	ctx     context.Context
	session trace.Span
	loads   map[string]trace.Span
	closed  bool
}

// NewRecorder starts a session span on tp. bridge may be nil.
func NewRecorder(tp trace.TracerProvider, bridge *Bridge) *Recorder {
	tracer := tp.Tracer(InstrumentationName)
	ctx, session := tracer.Start(context.Background(), SpanSession)
	return &Recorder{
		tracer:   tracer,
		provider: tp,
		bridge:   bridge,
		ctx:      ctx,
		session:  session,
		loads:    make(map[string]trace.Span),
	}
}

// SetVerbose toggles logging of finished loads.
func (r *Recorder) SetVerbose(v bool) {
	if r.bridge != nil {
		r.bridge.SetEnabled(v)
	}
}

func (r *Recorder) event(name string, attrs ...attribute.KeyValue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.session.AddEvent(name, trace.WithAttributes(attrs...))
}

// CacheHit records a hit event.
func (r *Recorder) CacheHit(key string) {
	r.event(EventHit, AttrKey.String(key))
}

// CacheMiss records a miss event.
func (r *Recorder) CacheMiss(key string) {
	r.event(EventMiss, AttrKey.String(key))
}

// Evicted records an eviction event.
func (r *Recorder) Evicted(key string) {
	r.event(EventEvict, AttrKey.String(key))
}

// CurrentChanged records the change of the applied key.
func (r *Recorder) CurrentChanged(prev, next string) {
	r.event(EventCurrent, AttrPrevious.String(prev), AttrKey.String(next))
}

// LoadStarted opens a load span for key.
func (r *Recorder) LoadStarted(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if prev, ok := r.loads[key]; ok {
		prev.End()
	}
	_, span := r.tracer.Start(r.ctx, SpanLoad, trace.WithAttributes(AttrKey.String(key)))
	r.loads[key] = span
}

// LoadFinished ends the load span for key.
func (r *Recorder) LoadFinished(key string, elapsed time.Duration, err error) {
	r.mu.Lock()
	span, ok := r.loads[key]
	delete(r.loads, key)
	r.mu.Unlock()
	if !ok {
		return
	}

	span.SetAttributes(AttrElapsedMS.Int64(elapsed.Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Shutdown ends open spans and shuts the provider down. It is idempotent.
func (r *Recorder) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	for key, span := range r.loads {
		span.SetStatus(codes.Error, "abandoned")
		span.End()
		delete(r.loads, key)
	}
	r.session.End()
	r.mu.Unlock()

	if s, ok := r.provider.(shutdowner); ok {
		return s.Shutdown(ctx)
	}
	return nil
}
