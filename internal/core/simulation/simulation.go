package simulation

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/events/bus"
	"github.com/zeusync/intersim/internal/core/models"
	"github.com/zeusync/intersim/internal/core/observability/log"
	"github.com/zeusync/intersim/internal/core/route"
	"github.com/zeusync/intersim/internal/core/signal"
	"github.com/zeusync/intersim/internal/core/vehicle"
)

// Sprites is the stock catalog of render tags.
var Sprites = []string{
	"bmw", "raptor", "landcruiser", "landcruiser2", "raptor2", "suv",
	"suv2", "mustang2", "camaro", "camaro2", "challenger2", "challenger3",
}

// Simulation owns the signals and the live vehicle set. It is not safe for concurrent use:
// a single driver goroutine calls Spawn and Step.
type Simulation struct {
	world   config.World
	routes  *route.Table
	signals []*signal.Signal

	vehicles []*vehicle.Vehicle
	peers    []vehicle.Peer

	tick   uint64
	counts Counts
	stats  Stats

	log     log.Log
	bus     bus.EventBus
	newID   func() string
	sprites []string
}

type Option func(*Simulation)

func WithLogger(l log.Log) Option {
	return func(s *Simulation) { s.log = l }
}

// WithBus publishes vehicle and signal events on b.
func WithBus(b bus.EventBus) Option {
	return func(s *Simulation) { s.bus = b }
}

// WithIDGenerator replaces the uuid based vehicle IDs.
func WithIDGenerator(f func() string) Option {
	return func(s *Simulation) { s.newID = f }
}

func WithSprites(tags []string) Option {
	return func(s *Simulation) { s.sprites = tags }
}

// New validates world and builds the route table and the signal set.
func New(world *config.World, opts ...Option) (*Simulation, error) {
	if err := world.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	routes, err := route.NewTable(world.Routes)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		world:   *world,
		routes:  routes,
		signals: signal.NewSet(world.Signals),
		log:     log.NewNop(),
		newID:   uuid.NewString,
		sprites: Sprites,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(log.String("component", "simulation"))

	return s, nil
}

// Spawn places a vehicle at the entry of the (origin, destination) route. An unknown or
// same-approach pair returns route.ErrInvalidRoute and creates nothing.
func (s *Simulation) Spawn(origin, destination models.Approach) (*vehicle.Vehicle, error) {
	r, err := s.routes.Lookup(origin, destination)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	v, err := vehicle.New(id, r.Entry, r.Waypoints, &s.world,
		vehicle.WithSprite(s.spriteFor(id)),
		vehicle.WithTurn(r.Turn),
	)
	if err != nil {
		return nil, fmt.Errorf("spawn %s to %s: %w", origin, destination, err)
	}

	s.vehicles = append(s.vehicles, v)
	s.counts.Spawned++
	s.counts.Active = len(s.vehicles)

	s.log.Debug("Vehicle spawned",
		log.String("id", id),
		log.Stringer("from", origin),
		log.Stringer("to", destination),
		log.Stringer("turn", r.Turn),
	)
	s.publish(EventVehicleSpawned, viewOf(v))

	return v, nil
}

func (s *Simulation) spriteFor(id string) string {
	if len(s.sprites) == 0 {
		return ""
	}
	return s.sprites[xxhash.Sum64String(id)%uint64(len(s.sprites))]
}

// Report lists what changed during one Step.
type Report struct {
	Tick     uint64
	Flipped  []models.Approach
	Finished []string
	Collided []string
}

// Step advances the world by one tick: signals first, then every vehicle decides against the
// same pre-tick peer views, then Finished and Collided vehicles are removed.
func (s *Simulation) Step() Report {
	s.tick++
	report := Report{Tick: s.tick}

	var flipped []*signal.Signal
	for _, sg := range s.signals {
		if sg.Advance() {
			flipped = append(flipped, sg)
			report.Flipped = append(report.Flipped, sg.Approach())
		}
	}

	s.peers = s.peers[:0]
	for _, v := range s.vehicles {
		s.peers = append(s.peers, v.Peer())
	}

	for _, v := range s.vehicles {
		v.Decide(s.peers, s.signals)
	}

	var removed []*vehicle.Vehicle
	kept := s.vehicles[:0]
	for _, v := range s.vehicles {
		switch v.Status() {
		case models.StatusFinished:
			s.counts.Passed++
			s.stats.record(v)
			report.Finished = append(report.Finished, v.ID())
			removed = append(removed, v)
		case models.StatusCollided:
			s.counts.Collided++
			report.Collided = append(report.Collided, v.ID())
			removed = append(removed, v)
		default:
			kept = append(kept, v)
		}
	}
	clear(s.vehicles[len(kept):])
	s.vehicles = kept
	s.counts.Active = len(kept)

	var events []bus.Event
	for _, sg := range flipped {
		s.log.Debug("Signal changed", log.Stringer("approach", sg.Approach()), log.Stringer("state", sg.State()), log.Uint64("tick", s.tick))
		events = append(events, s.event(EventSignalChanged, signalViewOf(sg)))
	}
	for _, v := range removed {
		eventType := EventVehicleFinished
		if v.Status() == models.StatusCollided {
			eventType = EventVehicleCollided
		}
		s.log.Debug("Vehicle removed", log.String("id", v.ID()), log.Stringer("status", v.Status()), log.Uint64("age", v.Age()))
		events = append(events, s.event(eventType, viewOf(v)))
	}
	if s.bus != nil && len(events) > 0 {
		if err := s.bus.PublishBatch(events...); err != nil {
			s.log.Warn("Event handler failed", log.Uint64("tick", s.tick), log.Error(err))
		}
	}

	return report
}

func (s *Simulation) event(eventType string, data any) bus.Event {
	return bus.NewEvent(eventType, eventSource, data, map[string]any{"tick": s.tick})
}

func (s *Simulation) publish(eventType string, data any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(s.event(eventType, data)); err != nil {
		s.log.Warn("Event handler failed", log.String("event", eventType), log.Error(err))
	}
}

// Snapshot copies the current state. The result shares nothing with the simulation.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:     s.tick,
		Junction: s.world.Junction,
		Vehicles: make([]VehicleView, 0, len(s.vehicles)),
		Signals:  make([]SignalView, 0, len(s.signals)),
		Counts:   s.counts,
		Stats:    s.stats,
	}
	for _, v := range s.vehicles {
		snap.Vehicles = append(snap.Vehicles, viewOf(v))
	}
	for _, sg := range s.signals {
		snap.Signals = append(snap.Signals, signalViewOf(sg))
	}
	return snap
}

func (s *Simulation) Tick() uint64              { return s.tick }
func (s *Simulation) Counts() Counts            { return s.counts }
func (s *Simulation) Stats() Stats              { return s.stats }
func (s *Simulation) Routes() *route.Table      { return s.routes }
func (s *Simulation) World() config.World       { return s.world }
func (s *Simulation) Signals() []*signal.Signal { return s.signals }

// Vehicles returns the live vehicles in spawn order.
func (s *Simulation) Vehicles() []*vehicle.Vehicle {
	return append([]*vehicle.Vehicle(nil), s.vehicles...)
}
