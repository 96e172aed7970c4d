package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/skybox/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/skybox/internal/adapters/fetch"     //nolint:depguard // Wired in app layer
	"go.trai.ch/skybox/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/skybox/internal/adapters/preview"   //nolint:depguard // Wired in app layer
	"go.trai.ch/skybox/internal/adapters/scene"     //nolint:depguard // Wired in app layer
	"go.trai.ch/skybox/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/skybox/internal/core/ports"
)

const (
	// FactoryNodeID is the unique identifier for the App factory Graft node.
	FactoryNodeID graft.ID = "app.factory"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// Factory Node
	graft.Register(graft.Node[*Factory]{
		ID:        FactoryNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			fetch.NodeID,
			scene.NodeID,
			preview.NodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: runFactoryNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			FactoryNodeID,
			logger.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runFactoryNode(ctx context.Context) (*Factory, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	fetcher, err := graft.Dep[ports.Fetcher](ctx)
	if err != nil {
		return nil, err
	}

	sc, err := graft.Dep[*scene.Scene](ctx)
	if err != nil {
		return nil, err
	}

	previewer, err := graft.Dep[ports.Previewer](ctx)
	if err != nil {
		return nil, err
	}

	recorder, err := graft.Dep[*telemetry.Recorder](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return NewFactory(loader, fetcher, sc, previewer, recorder, log).
		WithCloser(recorder.Shutdown), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	factory, err := graft.Dep[*Factory](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		Factory: factory,
		Logger:  log,
	}, nil
}
