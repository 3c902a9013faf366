package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/events/bus"
	"github.com/zeusync/intersim/internal/core/models"
	"github.com/zeusync/intersim/internal/core/route"
	"github.com/zeusync/intersim/internal/core/simulation"
)

func newRunner(t *testing.T, mutate func(*config.Runner), opts ...Option) *Runner {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg.Runner)
	}
	sim, err := simulation.New(&cfg.World)
	require.NoError(t, err)
	return New(sim, cfg.Runner, opts...)
}

type fixedSpawner struct{ calls int }

func (f *fixedSpawner) Next(uint64) (Request, bool) {
	f.calls++
	return Request{From: models.South, To: models.North}, true
}

func TestRequestSpawnValidatesRoute(t *testing.T) {
	r := newRunner(t, nil)

	err := r.RequestSpawn(models.West, models.West)
	assert.ErrorIs(t, err, route.ErrInvalidRoute)

	r.RunTicks(1)
	assert.Zero(t, r.Latest().Counts.Spawned)
}

func TestRequestSpawnQueueFull(t *testing.T) {
	r := newRunner(t, func(c *config.Runner) { c.QueueSize = 1 })

	require.NoError(t, r.RequestSpawn(models.North, models.South))
	assert.ErrorIs(t, r.RequestSpawn(models.East, models.West), ErrQueueFull)
}

func TestCooldownRejectsBurst(t *testing.T) {
	b := bus.New()
	var rejected []Rejection
	_, err := b.Subscribe(EventSpawnRejected, func(e bus.Event) error {
		rejected = append(rejected, e.Data().(Rejection))
		return nil
	})
	require.NoError(t, err)

	r := newRunner(t, nil, WithBus(b))
	cooldown := int(config.Default().Runner.CooldownTicks())
	require.Positive(t, cooldown)

	require.NoError(t, r.RequestSpawn(models.North, models.South))
	require.NoError(t, r.RequestSpawn(models.East, models.West))
	r.RunTicks(1)

	assert.Equal(t, uint64(1), r.Latest().Counts.Spawned)
	require.Len(t, rejected, 1)
	assert.Equal(t, models.East, rejected[0].From)
	assert.Equal(t, ErrCooldown.Error(), rejected[0].Reason)

	r.RunTicks(cooldown - 2)
	require.NoError(t, r.RequestSpawn(models.East, models.West))
	r.RunTicks(1)
	assert.Equal(t, uint64(1), r.Latest().Counts.Spawned)
	assert.Len(t, rejected, 2)

	require.NoError(t, r.RequestSpawn(models.East, models.West))
	r.RunTicks(1)
	assert.Equal(t, uint64(2), r.Latest().Counts.Spawned)
}

func TestSpawnerWaitsForCooldown(t *testing.T) {
	spawner := &fixedSpawner{}
	r := newRunner(t, nil, WithSpawner(spawner))
	cooldown := config.Default().Runner.CooldownTicks()

	counts := r.RunTicks(int(cooldown) * 3)
	assert.Equal(t, uint64(3), counts.Spawned)
	assert.Equal(t, 3, spawner.calls)
}

func TestTickPublishesSnapshot(t *testing.T) {
	b := bus.New()
	var ticks []uint64
	_, err := b.Subscribe(EventTickCompleted, func(e bus.Event) error {
		ticks = append(ticks, e.Data().(simulation.Snapshot).Tick)
		return nil
	})
	require.NoError(t, err)

	r := newRunner(t, nil, WithBus(b))
	assert.Zero(t, r.Latest().Tick)

	r.RunTicks(3)
	assert.Equal(t, []uint64{1, 2, 3}, ticks)
	assert.Equal(t, uint64(3), r.Latest().Tick)
	assert.Len(t, r.Latest().Signals, 4)
}

func TestRunStopsOnCancel(t *testing.T) {
	b := bus.New()
	var ticks atomic.Int64
	_, err := b.Subscribe(EventTickCompleted, func(bus.Event) error {
		ticks.Add(1)
		return nil
	})
	require.NoError(t, err)

	r := newRunner(t, func(c *config.Runner) { c.TickRate = 1000 }, WithBus(b))
	require.NoError(t, r.RequestSpawn(models.South, models.West))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return ticks.Load() >= 5 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}

	latest := r.Latest()
	assert.Positive(t, latest.Tick)
	assert.Equal(t, uint64(1), latest.Counts.Spawned)
}

func TestAutoSpawnFromConfig(t *testing.T) {
	r := newRunner(t, func(c *config.Runner) { c.AutoSpawn = 1 })
	cooldown := config.Default().Runner.CooldownTicks()

	counts := r.RunTicks(int(cooldown) + 1)
	assert.Equal(t, uint64(2), counts.Spawned)
}
