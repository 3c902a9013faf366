package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/events/bus"
	"github.com/zeusync/intersim/internal/core/models"
	"github.com/zeusync/intersim/internal/core/observability/log"
	"github.com/zeusync/intersim/internal/core/route"
	"github.com/zeusync/intersim/internal/core/simulation"
)

var (
	ErrQueueFull = errors.New("spawn queue is full")
	ErrCooldown  = errors.New("spawn cooldown active")
)

const (
	EventSpawnRejected = "spawn.rejected"
	// EventTickCompleted carries the simulation.Snapshot taken right after the tick.
	EventTickCompleted = "tick.completed"
)

const eventSource = "runner"

// Request asks for one vehicle on the (From, To) route.
type Request struct {
	From models.Approach `json:"from"`
	To   models.Approach `json:"to"`
}

// Rejection is the payload of spawn.rejected.
type Rejection struct {
	Request
	Tick   uint64 `json:"tick"`
	Reason string `json:"reason"`
}

// Spawner proposes at most one automatic spawn per tick.
type Spawner interface {
	Next(tick uint64) (Request, bool)
}

// Runner drives a Simulation tick by tick. The goroutine calling Run or RunTicks is the only one
// touching the simulation; other goroutines talk to it through RequestSpawn and Latest.
type Runner struct {
	sim      *simulation.Simulation
	routes   *route.Table
	cfg      config.Runner
	cooldown uint64

	queue   chan Request
	spawner Spawner

	spawned   bool
	lastSpawn uint64

	bus bus.EventBus
	log log.Log

	mu     sync.RWMutex
	latest simulation.Snapshot
}

type Option func(*Runner)

func WithBus(b bus.EventBus) Option {
	return func(r *Runner) { r.bus = b }
}

func WithLogger(l log.Log) Option {
	return func(r *Runner) { r.log = l }
}

// WithSpawner overrides the random spawner derived from config.Runner.AutoSpawn.
func WithSpawner(s Spawner) Option {
	return func(r *Runner) { r.spawner = s }
}

func New(sim *simulation.Simulation, cfg config.Runner, opts ...Option) *Runner {
	r := &Runner{
		sim:      sim,
		routes:   sim.Routes(),
		cfg:      cfg,
		cooldown: cfg.CooldownTicks(),
		queue:    make(chan Request, max(cfg.QueueSize, 1)),
		log:      log.NewNop(),
	}
	if cfg.AutoSpawn > 0 {
		r.spawner = NewRandomSpawner(cfg.Seed, cfg.AutoSpawn)
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(log.String("component", "runner"))
	r.latest = sim.Snapshot()

	return r
}

// RequestSpawn validates the pair and queues it for the next tick. It never blocks.
func (r *Runner) RequestSpawn(from, to models.Approach) error {
	if err := r.routes.Validate(from, to); err != nil {
		return err
	}

	select {
	case r.queue <- Request{From: from, To: to}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Latest returns the snapshot published after the most recent tick.
func (r *Runner) Latest() simulation.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Run steps the simulation at the configured tick rate until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	interval := r.cfg.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.Info("Runner started", log.Duration("interval", interval), log.Uint64("cooldown_ticks", r.cooldown))

	for {
		select {
		case <-ctx.Done():
			counts := r.sim.Counts()
			r.log.Info("Runner stopped",
				log.Uint64("tick", r.sim.Tick()),
				log.Uint64("spawned", counts.Spawned),
				log.Uint64("passed", counts.Passed),
				log.Uint64("collided", counts.Collided),
			)
			return nil
		case <-ticker.C:
			r.Tick()
		}
	}
}

// RunTicks steps n ticks without pacing and returns the resulting counts.
func (r *Runner) RunTicks(n int) simulation.Counts {
	for i := 0; i < n; i++ {
		r.Tick()
	}
	return r.sim.Counts()
}

// Tick applies queued and automatic spawns, steps the simulation once and publishes the snapshot.
func (r *Runner) Tick() simulation.Report {
	r.drain()

	if r.spawner != nil && r.ready() {
		if req, ok := r.spawner.Next(r.sim.Tick()); ok {
			r.spawn(req)
		}
	}

	report := r.sim.Step()
	snap := r.sim.Snapshot()

	r.mu.Lock()
	r.latest = snap
	r.mu.Unlock()

	r.publish(EventTickCompleted, snap)

	return report
}

func (r *Runner) drain() {
	for {
		select {
		case req := <-r.queue:
			r.spawn(req)
		default:
			return
		}
	}
}

// ready reports whether the cooldown since the last spawn has elapsed.
func (r *Runner) ready() bool {
	return !r.spawned || r.sim.Tick()-r.lastSpawn >= r.cooldown
}

func (r *Runner) spawn(req Request) {
	tick := r.sim.Tick()
	if !r.ready() {
		r.reject(req, ErrCooldown)
		return
	}

	v, err := r.sim.Spawn(req.From, req.To)
	if err != nil {
		r.reject(req, err)
		return
	}

	r.spawned = true
	r.lastSpawn = tick
	r.log.Debug("Spawn accepted", log.String("id", v.ID()), log.Uint64("tick", tick))
}

func (r *Runner) reject(req Request, err error) {
	r.log.Debug("Spawn rejected",
		log.Stringer("from", req.From),
		log.Stringer("to", req.To),
		log.Error(err),
	)
	r.publish(EventSpawnRejected, Rejection{Request: req, Tick: r.sim.Tick(), Reason: err.Error()})
}

func (r *Runner) publish(eventType string, data any) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(bus.NewEvent(eventType, eventSource, data, nil)); err != nil {
		r.log.Warn("Event handler failed", log.String("event", eventType), log.Error(err))
	}
}
