package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/skybox/internal/core/ports"
)

// Bridge implements sdktrace.SpanProcessor and reports finished load spans
// to the logger while enabled.
type Bridge struct {
	logger  ports.Logger
	enabled atomic.Bool
}

// NewBridge returns a disabled Bridge.
func NewBridge(logger ports.Logger) *Bridge {
	return &Bridge{logger: logger}
}

// SetEnabled toggles reporting.
func (b *Bridge) SetEnabled(v bool) {
	b.enabled.Store(v)
}

// OnStart does nothing.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd logs successful load spans.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !b.enabled.Load() || s.Name() != SpanLoad {
		return
	}
	if s.Status().Code == codes.Error {
		return
	}

	var key string
	for _, attr := range s.Attributes() {
		if attr.Key == AttrKey {
			key = attr.Value.AsString()
		}
	}
	elapsed := s.EndTime().Sub(s.StartTime()).Round(time.Millisecond)
	b.logger.Info(fmt.Sprintf("loaded %s in %s", key, elapsed))
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
