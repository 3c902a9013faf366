package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/observability/log"
	"github.com/zeusync/intersim/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address, overrides the config file")
	autoSpawn := flag.Float64("auto-spawn", -1, "per-tick random spawn probability, overrides the config file")
	flag.Parse()

	if err := run(*configPath, *addr, *autoSpawn); err != nil {
		fmt.Fprintln(os.Stderr, "intersim:", err)
		os.Exit(1)
	}
}

func run(configPath, addr string, autoSpawn float64) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.ListenAddr = addr
	}
	if autoSpawn >= 0 {
		cfg.Runner.AutoSpawn = autoSpawn
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.Runner.Run(ctx)
	})

	g.Go(func() error {
		if err := app.Server.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return app.Server.Stop(shutdownCtx)
	})

	err = g.Wait()

	counts := app.Runner.Latest().Counts
	app.Log.Info("Intersim stopped",
		log.Uint64("spawned", counts.Spawned),
		log.Uint64("passed", counts.Passed),
		log.Uint64("collided", counts.Collided),
	)

	return err
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
