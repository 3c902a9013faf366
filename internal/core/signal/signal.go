package signal

import (
	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/geometry"
	"github.com/zeusync/intersim/internal/core/models"
)

// Signal is the traffic light guarding one approach. It is mutated only by its own Advance.
type Signal struct {
	approach models.Approach
	position geometry.Point
	state    models.SignalState
	elapsed  int
	period   int
}

// New creates a signal that flips every period ticks.
func New(approach models.Approach, position geometry.Point, state models.SignalState, period int) *Signal {
	if period <= 0 {
		period = 1
	}
	return &Signal{
		approach: approach,
		position: position,
		state:    state,
		period:   period,
	}
}

// NewSet creates one signal per approach. The initial-green axis starts Green and the other axis Red;
// sharing one period keeps the two axes in opposition without any cross-signal coordination.
func NewSet(cfg config.Signals) []*Signal {
	out := make([]*Signal, 0, 4)
	for _, a := range models.All() {
		state := models.Red
		if cfg.InitialGreen.Contains(a) {
			state = models.Green
		}
		out = append(out, New(a, cfg.Positions.Get(a), state, cfg.Period))
	}
	return out
}

// Advance counts one tick and flips the state when the period is reached.
// It reports whether the state changed.
func (s *Signal) Advance() bool {
	s.elapsed++
	if s.elapsed < s.period {
		return false
	}
	s.elapsed = 0
	s.state = s.state.Flip()
	return true
}

func (s *Signal) Approach() models.Approach { return s.approach }
func (s *Signal) Position() geometry.Point  { return s.position }
func (s *Signal) State() models.SignalState { return s.state }
func (s *Signal) Green() bool               { return s.state == models.Green }
func (s *Signal) Elapsed() int              { return s.elapsed }
func (s *Signal) Period() int               { return s.period }

// Area is the square around the signal used to latch approaching vehicles.
func (s *Signal) Area(size int) geometry.Rect {
	return geometry.FromCenter(s.position, size, size)
}

// Find returns the signal at position, or nil.
func Find(signals []*Signal, position geometry.Point) *Signal {
	for _, s := range signals {
		if s.position == position {
			return s
		}
	}
	return nil
}
