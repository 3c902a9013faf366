package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/events/bus"
	"github.com/zeusync/intersim/internal/core/models"
	"github.com/zeusync/intersim/internal/core/simulation"
	"github.com/zeusync/intersim/internal/runner"
)

const frameInterval = time.Second / 30

// arrowOrigins maps arrow keys to the approach a vehicle enters from: the arrow is its direction of travel.
var arrowOrigins = map[tcell.Key]models.Approach{
	tcell.KeyUp:    models.South,
	tcell.KeyDown:  models.North,
	tcell.KeyLeft:  models.East,
	tcell.KeyRight: models.West,
}

var errQuit = errors.New("quit")

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	autoSpawn := flag.Float64("auto-spawn", -1, "per-tick random spawn probability, overrides the config file")
	flag.Parse()

	counts, err := run(*configPath, *autoSpawn)
	if err != nil {
		fmt.Fprintln(os.Stderr, "viewer:", err)
		os.Exit(1)
	}
	fmt.Printf("spawned %d, passed %d, collided %d\n", counts.Spawned, counts.Passed, counts.Collided)
}

func run(configPath string, autoSpawn float64) (simulation.Counts, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return simulation.Counts{}, err
		}
		cfg = loaded
	}
	if autoSpawn >= 0 {
		cfg.Runner.AutoSpawn = autoSpawn
	}
	if err := cfg.Validate(); err != nil {
		return simulation.Counts{}, err
	}

	events := bus.New()
	sim, err := simulation.New(&cfg.World, simulation.WithBus(events))
	if err != nil {
		return simulation.Counts{}, err
	}
	r := runner.New(sim, cfg.Runner, runner.WithBus(events))

	screen, err := tcell.NewScreen()
	if err != nil {
		return simulation.Counts{}, err
	}
	if err := screen.Init(); err != nil {
		return simulation.Counts{}, err
	}
	screen.SetStyle(styleDefault)
	screen.HideCursor()

	v := newView(screen, cfg.World)
	if _, err := events.Subscribe(simulation.EventVehicleCollided, v.onCollided); err != nil {
		screen.Fini()
		return simulation.Counts{}, err
	}
	if _, err := events.Subscribe(runner.EventSpawnRejected, func(e bus.Event) error {
		if rej, ok := e.Data().(runner.Rejection); ok {
			v.setStatus("%s to %s rejected: %s", rej.From, rej.To, rej.Reason)
		}
		return nil
	}); err != nil {
		screen.Fini()
		return simulation.Counts{}, err
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return r.Run(ctx) })
	g.Go(func() error { return render(ctx, v, r) })
	g.Go(func() error { return handleInput(ctx, screen, v, r, runner.NewRandomSpawner(cfg.Runner.Seed, 1)) })

	// PollEvent only returns once the screen is finalized.
	finalized := make(chan struct{})
	go func() {
		defer close(finalized)
		<-ctx.Done()
		screen.Fini()
	}()

	err = g.Wait()
	<-finalized
	if errors.Is(err, errQuit) {
		err = nil
	}
	return r.Latest().Counts, err
}

func render(ctx context.Context, v *view, r *runner.Runner) error {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			v.draw(r.Latest())
		}
	}
}

func handleInput(ctx context.Context, screen tcell.Screen, v *view, r *runner.Runner, pick *runner.RandomSpawner) error {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return nil
		}

		switch ev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			if origin, ok := arrowOrigins[ev.Key()]; ok {
				requestSpawn(v, r, origin, pick.Except(origin))
				continue
			}

			switch {
			case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
				return errQuit
			case ev.Key() != tcell.KeyRune:
			case ev.Rune() == 'q', ev.Rune() == 'Q':
				return errQuit
			case ev.Rune() == 'r':
				req := pick.Pair()
				requestSpawn(v, r, req.From, req.To)
			case ev.Rune() == 'd':
				v.debug.Store(!v.debug.Load())
			}
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func requestSpawn(v *view, r *runner.Runner, from, to models.Approach) {
	if err := r.RequestSpawn(from, to); err != nil {
		v.setStatus("%s to %s: %v", from, to, err)
		return
	}
	v.setStatus("%s to %s queued", from, to)
}
