package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/events/bus"
	"github.com/zeusync/intersim/internal/core/observability/log"
	"github.com/zeusync/intersim/internal/core/simulation"
	"github.com/zeusync/intersim/internal/runner"
)

// Summary is the outcome of one headless run.
type Summary struct {
	Ticks     int     `json:"ticks"`
	Seed      string  `json:"seed"`
	AutoSpawn float64 `json:"auto_spawn"`

	Spawned  uint64 `json:"spawned"`
	Passed   uint64 `json:"passed"`
	Collided uint64 `json:"collided"`
	Active   int    `json:"active"`

	PassedPerMinute float64 `json:"passed_per_minute"`
	AvgActive       float64 `json:"avg_active"`
	MaxActive       int     `json:"max_active"`

	AvgWaitTicks   float64 `json:"avg_wait_ticks"`
	MaxWaitTicks   uint64  `json:"max_wait_ticks"`
	AvgTravelTicks float64 `json:"avg_travel_ticks"`
	MaxTravelTicks uint64  `json:"max_travel_ticks"`

	Runtime        string  `json:"runtime"`
	TicksPerSecond float64 `json:"ticks_per_second"`
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	ticks := flag.Int("ticks", 36_000, "number of ticks to simulate")
	autoSpawn := flag.Float64("auto-spawn", 0.05, "per-tick random spawn probability")
	seed := flag.String("seed", "", "random seed, overrides the config file")
	asJSON := flag.Bool("json", false, "print the summary as JSON")
	level := flag.String("log-level", "warn", "log level")
	flag.Parse()

	if err := run(os.Stdout, *configPath, *ticks, *autoSpawn, *seed, *asJSON, *level); err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}
}

func run(out io.Writer, configPath string, ticks int, autoSpawn float64, seed string, asJSON bool, level string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Runner.AutoSpawn = autoSpawn
	if seed != "" {
		cfg.Runner.Seed = seed
	}
	cfg.Log.Level = level
	if err := cfg.Validate(); err != nil {
		return err
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	logger := log.New(lvl).With(log.String("component", "bench"))

	summary, err := benchmark(cfg, ticks, logger)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return writeText(out, summary)
}

func benchmark(cfg *config.Config, ticks int, logger log.Log) (Summary, error) {
	events := bus.New()
	sim, err := simulation.New(&cfg.World, simulation.WithBus(events), simulation.WithLogger(logger))
	if err != nil {
		return Summary{}, err
	}
	r := runner.New(sim, cfg.Runner, runner.WithBus(events), runner.WithLogger(logger))

	var activeTotal, activeMax int
	if _, err := events.Subscribe(runner.EventTickCompleted, func(e bus.Event) error {
		snap := e.Data().(simulation.Snapshot)
		activeTotal += snap.Counts.Active
		activeMax = max(activeMax, snap.Counts.Active)
		return nil
	}); err != nil {
		return Summary{}, err
	}

	logger.Info("Benchmark started", log.Int("ticks", ticks), log.Float64("auto_spawn", cfg.Runner.AutoSpawn))
	start := time.Now()
	counts := r.RunTicks(ticks)
	elapsed := time.Since(start)
	logger.Info("Benchmark completed", log.Duration("runtime", elapsed))

	stats := sim.Stats()
	s := Summary{
		Ticks:          ticks,
		Seed:           cfg.Runner.Seed,
		AutoSpawn:      cfg.Runner.AutoSpawn,
		Spawned:        counts.Spawned,
		Passed:         counts.Passed,
		Collided:       counts.Collided,
		Active:         counts.Active,
		MaxActive:      activeMax,
		AvgWaitTicks:   stats.WaitTicksAvg,
		MaxWaitTicks:   stats.WaitTicksMax,
		AvgTravelTicks: stats.TravelTicksAvg,
		MaxTravelTicks: stats.TravelTicksMax,
		Runtime:        elapsed.Round(time.Millisecond).String(),
	}
	if ticks > 0 {
		s.AvgActive = float64(activeTotal) / float64(ticks)
		minutes := float64(ticks) / float64(cfg.Runner.TickRate) / 60
		s.PassedPerMinute = float64(counts.Passed) / minutes
	}
	if elapsed > 0 {
		s.TicksPerSecond = float64(ticks) / elapsed.Seconds()
	}
	return s, nil
}

func writeText(out io.Writer, s Summary) error {
	_, err := fmt.Fprintf(out,
		"ticks %d (seed %q, auto-spawn %.3f)\n"+
			"spawned %d  passed %d  collided %d  still active %d\n"+
			"throughput %.2f vehicles/min  active avg %.1f max %d\n"+
			"wait ticks avg %.1f max %d\n"+
			"travel ticks avg %.1f max %d\n"+
			"runtime %s (%.0f ticks/s)\n",
		s.Ticks, s.Seed, s.AutoSpawn,
		s.Spawned, s.Passed, s.Collided, s.Active,
		s.PassedPerMinute, s.AvgActive, s.MaxActive,
		s.AvgWaitTicks, s.MaxWaitTicks,
		s.AvgTravelTicks, s.MaxTravelTicks,
		s.Runtime, s.TicksPerSecond,
	)
	return err
}
