package app

import (
	"context"

	"go.trai.ch/skybox/internal/core/domain"
	"go.trai.ch/skybox/internal/core/ports"
	"go.trai.ch/zerr"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	Factory *Factory
	Logger  ports.Logger
}

// Scene is the consuming context: it applies handles and describes itself.
type Scene interface {
	ports.Applier
	ports.CapabilityProvider
	SetCapabilities(caps domain.Capabilities)
}

// OpenOptions select the configuration file and override its options.
type OpenOptions struct {
	// ConfigPath is the configuration file. Empty discovers skybox.yaml.
	ConfigPath string
	// Capacity overrides the cache capacity when positive.
	Capacity int
	// Prefetch enables prefetching regardless of the configuration.
	Prefetch bool
	// NoCache disables the cache regardless of the configuration.
	NoCache bool
	// Verbose logs every completed load.
	Verbose bool
}

type verboseSetter interface {
	SetVerbose(v bool)
}

func (o OpenOptions) apply(opts domain.Options) domain.Options {
	if o.Capacity > 0 {
		opts.Capacity = o.Capacity
	}
	if o.Prefetch {
		opts.EnablePrefetch = true
	}
	if o.NoCache {
		opts.EnableCache = false
	}
	return opts
}

// Factory loads configuration and assembles Apps from the wired adapters.
type Factory struct {
	configLoader ports.ConfigLoader
	fetcher      ports.Fetcher
	scene        Scene
	previewer    ports.Previewer
	recorder     ports.MetricsSink
	logger       ports.Logger
	closers      []func(context.Context) error
}

// NewFactory creates a Factory. recorder may be nil.
func NewFactory(
	loader ports.ConfigLoader,
	fetcher ports.Fetcher,
	scene Scene,
	previewer ports.Previewer,
	recorder ports.MetricsSink,
	log ports.Logger,
) *Factory {
	return &Factory{
		configLoader: loader,
		fetcher:      fetcher,
		scene:        scene,
		previewer:    previewer,
		recorder:     recorder,
		logger:       log,
	}
}

// WithCloser registers a function run when an opened App is disposed.
func (f *Factory) WithCloser(fn func(context.Context) error) *Factory {
	f.closers = append(f.closers, fn)
	return f
}

// Open loads the configuration and returns a ready App along with the
// configuration it was built from.
func (f *Factory) Open(opts OpenOptions) (*App, *domain.Config, error) {
	cfg, err := f.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to load configuration")
	}

	f.scene.SetCapabilities(cfg.Capabilities)

	var sinks []ports.MetricsSink
	if f.recorder != nil {
		sinks = append(sinks, f.recorder)
		if v, ok := f.recorder.(verboseSetter); ok {
			v.SetVerbose(opts.Verbose)
		}
	}

	a := New(Config{
		Table:        cfg.Table,
		Options:      opts.apply(cfg.Options),
		Fetcher:      f.fetcher,
		Applier:      f.scene,
		Capabilities: f.scene,
		Previewer:    f.previewer,
		Logger:       f.logger,
		Sinks:        sinks,
		Closers:      f.closers,
	})
	return a, cfg, nil
}

// Reload reads the configuration again and returns its options with the same
// overrides applied. Definition changes are reported but not applied.
func (f *Factory) Reload(opts OpenOptions, table *domain.DefinitionTable) (domain.Options, error) {
	cfg, err := f.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return domain.Options{}, zerr.Wrap(err, "failed to reload configuration")
	}

	if !sameKeys(cfg.Table, table) && f.logger != nil {
		f.logger.Warn("environment definitions changed; restart to apply them")
	}
	f.scene.SetCapabilities(cfg.Capabilities)
	return opts.apply(cfg.Options), nil
}

func sameKeys(a, b *domain.DefinitionTable) bool {
	ka, kb := a.Keys(), b.Keys()
	if len(ka) != len(kb) {
		return false
	}
	for i := range ka {
		da, _ := a.Lookup(ka[i])
		db, ok := b.Lookup(ka[i])
		if !ok || ka[i] != kb[i] || da.DisplayName != db.DisplayName || da.Priority != db.Priority {
			return false
		}
		for j := range da.Locations {
			if da.Locations[j] != db.Locations[j] {
				return false
			}
		}
	}
	return true
}
