package config

import (
	"errors"
	"fmt"

	"github.com/zeusync/intersim/internal/core/models"
)

// RoutePoints is the number of points per route: the entry point and two waypoints.
const RoutePoints = 3

// Validate checks the whole configuration and reports every problem found.
func (c *Config) Validate() error {
	var problems []error
	if err := c.World.Validate(); err != nil {
		problems = append(problems, err)
	}

	r := c.Runner
	if r.TickRate <= 0 {
		problems = append(problems, fmt.Errorf("runner.tick_rate must be positive, got %d", r.TickRate))
	}
	if r.SpawnCooldown < 0 {
		problems = append(problems, fmt.Errorf("runner.spawn_cooldown must not be negative"))
	}
	if r.QueueSize <= 0 {
		problems = append(problems, fmt.Errorf("runner.queue_size must be positive, got %d", r.QueueSize))
	}
	if r.AutoSpawn < 0 || r.AutoSpawn > 1 {
		problems = append(problems, fmt.Errorf("runner.auto_spawn must be within [0,1], got %v", r.AutoSpawn))
	}

	if c.Server.ListenAddr == "" {
		problems = append(problems, fmt.Errorf("server.listen_addr is required"))
	}
	if c.Server.SnapshotBuffer <= 0 {
		problems = append(problems, fmt.Errorf("server.snapshot_buffer must be positive"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error", "":
	default:
		problems = append(problems, fmt.Errorf("log.level %q is unknown", c.Log.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(problems...))
	}
	return nil
}

// Validate checks the world geometry, kinematics and route set.
func (w *World) Validate() error {
	var problems []error

	if w.Junction.Empty() {
		problems = append(problems, fmt.Errorf("world.junction must have an area"))
	}

	s := w.Signals
	if s.Period <= 0 {
		problems = append(problems, fmt.Errorf("signals.period must be positive, got %d", s.Period))
	}
	if s.DetectionSize <= 0 {
		problems = append(problems, fmt.Errorf("signals.detection_size must be positive, got %d", s.DetectionSize))
	}
	if s.InitialGreen != AxisNorthSouth && s.InitialGreen != AxisEastWest {
		problems = append(problems, fmt.Errorf("signals.initial_green %q is unknown", s.InitialGreen))
	}

	k := w.Kinematics
	for name, v := range map[string]int{
		"base_velocity": k.BaseVelocity,
		"slow_velocity": k.SlowVelocity,
		"turn_velocity": k.TurnVelocity,
	} {
		if v < MinSpeed {
			problems = append(problems, fmt.Errorf("kinematics.%s must be at least %d, got %d", name, MinSpeed, v))
		}
	}
	if k.SlowVelocity > k.BaseVelocity || k.TurnVelocity > k.BaseVelocity {
		problems = append(problems, fmt.Errorf("kinematics: slow and turn velocity must not exceed base velocity"))
	}
	if k.SafeDistance < 0 || k.DetectionOffset < 0 {
		problems = append(problems, fmt.Errorf("kinematics: safe_distance and detection_offset must not be negative"))
	}
	if k.NearFactor <= 0 || k.FarFactor <= k.NearFactor {
		problems = append(problems, fmt.Errorf("kinematics: need 0 < near_factor < far_factor"))
	}

	if w.Footprint.Width <= 0 || w.Footprint.Length <= 0 {
		problems = append(problems, fmt.Errorf("footprint must be positive"))
	}

	if err := ValidateRoutes(w.Routes); err != nil {
		problems = append(problems, err)
	}

	return errors.Join(problems...)
}

// ValidateRoutes requires exactly one route per ordered pair of different approaches.
func ValidateRoutes(routes []Route) error {
	type pair struct{ from, to models.Approach }
	seen := make(map[pair]struct{}, len(routes))
	var problems []error

	for i, r := range routes {
		if !r.From.Valid() || !r.To.Valid() {
			problems = append(problems, fmt.Errorf("route %d: unknown approach", i))
			continue
		}
		if r.From == r.To {
			problems = append(problems, fmt.Errorf("route %d: %s to itself", i, r.From))
			continue
		}
		if len(r.Points) != RoutePoints {
			problems = append(problems, fmt.Errorf("route %s->%s: need %d points, got %d", r.From, r.To, RoutePoints, len(r.Points)))
		}
		p := pair{r.From, r.To}
		if _, dup := seen[p]; dup {
			problems = append(problems, fmt.Errorf("route %s->%s defined twice", r.From, r.To))
		}
		seen[p] = struct{}{}
	}

	for _, from := range models.All() {
		for _, to := range models.All() {
			if from == to {
				continue
			}
			if _, ok := seen[pair{from, to}]; !ok {
				problems = append(problems, fmt.Errorf("route %s->%s missing", from, to))
			}
		}
	}

	return errors.Join(problems...)
}
