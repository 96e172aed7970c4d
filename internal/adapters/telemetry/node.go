package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/skybox/internal/adapters/logger" //nolint:depguard // Wired in node
	"go.trai.ch/skybox/internal/core/ports"
)

// NodeID is the unique identifier for the telemetry Graft node.
const NodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[*Recorder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Recorder, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			bridge := NewBridge(log)
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(bridge))
			otel.SetTracerProvider(tp)

			return NewRecorder(tp, bridge), nil
		},
	})
}
