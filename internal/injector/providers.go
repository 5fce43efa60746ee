package injector

import (
	"fmt"

	"github.com/google/wire"

	"github.com/zeusync/behave/internal/config"
	"github.com/zeusync/behave/internal/core/blackboard"
	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/events/bus"
	"github.com/zeusync/behave/internal/core/graph"
	"github.com/zeusync/behave/internal/core/observability/log"
	"github.com/zeusync/behave/internal/driver"
)

// ProviderSet builds everything the CLI needs from a Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideEventBus,
	ProvideStores,
	ProvideGraphRegistry,
	ProvideRunner,
	wire.Struct(new(App), "*"),
)

// App is the assembled application.
type App struct {
	Config config.Config
	Log    *log.Logger
	Bus    bus.EventBus
	Stores *blackboard.Registry
	Graph  *graph.Registry
	Runner *driver.Runner
}

func ProvideLogger(cfg config.Config) (*log.Logger, func()) {
	l := log.NewWithOutputs(cfg.LogLevel(), cfg.Log.Outputs...)
	return l, func() { _ = l.Sync() }
}

func ProvideEventBus() bus.EventBus { return bus.New() }

func ProvideStores(l log.Log) *blackboard.Registry {
	return blackboard.NewRegistryWithLogger(l.Named("blackboard"))
}

func ProvideGraphRegistry(l log.Log) *graph.Registry {
	return graph.NewRegistry(graph.WithLogger(l.Named("graph")))
}

func ProvideRunner(cfg config.Config, l log.Log) *driver.Runner {
	return driver.New(driver.Options{
		Interval:  cfg.FrameInterval(),
		Workers:   cfg.Driver.Workers,
		MaxFrames: cfg.Driver.MaxFrames,
	}, l)
}

// LoadTree builds the document at path against the app's stores, bus and
// logger, applying the configured run mode override.
func (a *App) LoadTree(path string) (*bt.Tree, error) {
	doc, err := graph.Load(path)
	if err != nil {
		return nil, err
	}
	opts := []bt.TreeOption{
		bt.WithRegistry(a.Stores),
		bt.WithEventBus(a.Bus),
		bt.WithTreeLogger(a.Log),
	}
	if mode, set, err := a.Config.RunMode(); err != nil {
		return nil, err
	} else if set {
		opts = append(opts, bt.WithRunMode(mode))
	}
	tree, err := doc.Build(a.Graph, opts...)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", path, err)
	}
	return tree, nil
}
