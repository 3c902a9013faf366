package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/events/bus"
	"github.com/zeusync/intersim/internal/core/observability/log"
	"github.com/zeusync/intersim/internal/core/simulation"
	"github.com/zeusync/intersim/internal/runner"
	"github.com/zeusync/intersim/internal/server"
)

// App is the wired process graph used by cmd/server.
type App struct {
	Config     *config.Config
	Log        log.Log
	Bus        bus.EventBus
	Simulation *simulation.Simulation
	Runner     *runner.Runner
	Server     *server.Server
}

var ProviderSet = wire.NewSet(
	wire.FieldsOf(new(*config.Config), "World", "Runner", "Server", "Log"),
	ProvideLogger,
	ProvideBus,
	ProvideSimulation,
	ProvideRunner,
	wire.Bind(new(server.Feed), new(*runner.Runner)),
	ProvideServer,
)

func ProvideLogger(cfg config.Log) (log.Log, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return log.Provide(level), nil
}

// ProvideBus builds the shared bus with a logging observer. The cleanup detaches the observer.
func ProvideBus(logger log.Log) (bus.EventBus, func()) {
	events := bus.New()
	obs := bus.NewLogObserver(logger)
	events.AddObserver(obs)
	return events, func() { events.RemoveObserver(obs) }
}

func ProvideSimulation(world config.World, logger log.Log, events bus.EventBus) (*simulation.Simulation, error) {
	return simulation.New(&world, simulation.WithLogger(logger), simulation.WithBus(events))
}

func ProvideRunner(sim *simulation.Simulation, cfg config.Runner, logger log.Log, events bus.EventBus) *runner.Runner {
	return runner.New(sim, cfg, runner.WithLogger(logger), runner.WithBus(events))
}

func ProvideServer(feed server.Feed, events bus.EventBus, cfg config.Server, logger log.Log) *server.Server {
	return server.New(feed, events, cfg, logger)
}
