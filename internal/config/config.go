package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/intersim/internal/core/geometry"
	"github.com/zeusync/intersim/internal/core/models"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// MinSpeed is the slowest velocity that still moves on a diagonal once steps are truncated to whole units.
const MinSpeed = 2

// Config is the full process configuration.
type Config struct {
	World  World  `yaml:"world" json:"world"`
	Runner Runner `yaml:"runner" json:"runner"`
	Server Server `yaml:"server" json:"server"`
	Log    Log    `yaml:"log" json:"log"`
}

// World is the immutable geometry and kinematics shared by every simulation entity.
// It is built once and never mutated while a simulation runs.
type World struct {
	Junction   geometry.Rect `yaml:"junction" json:"junction"`
	Signals    Signals       `yaml:"signals" json:"signals"`
	Kinematics Kinematics    `yaml:"kinematics" json:"kinematics"`
	Footprint  Footprint     `yaml:"footprint" json:"footprint"`
	Routes     []Route       `yaml:"routes" json:"routes"`
}

// PerApproach holds one value for each approach.
type PerApproach[T any] struct {
	North T `yaml:"north" json:"north"`
	South T `yaml:"south" json:"south"`
	East  T `yaml:"east" json:"east"`
	West  T `yaml:"west" json:"west"`
}

// Get returns the value stored for a.
func (p PerApproach[T]) Get(a models.Approach) T {
	switch a {
	case models.North:
		return p.North
	case models.South:
		return p.South
	case models.East:
		return p.East
	default:
		return p.West
	}
}

// Axis names a pair of opposing approaches.
type Axis string

const (
	AxisNorthSouth Axis = "north_south"
	AxisEastWest   Axis = "east_west"
)

// Contains reports whether a belongs to the axis.
func (x Axis) Contains(a models.Approach) bool {
	if x == AxisEastWest {
		return !a.Vertical()
	}
	return a.Vertical()
}

// Signals configures the four traffic lights.
type Signals struct {
	// Positions also mark where each approach's gating starts.
	Positions     PerApproach[geometry.Point] `yaml:"positions" json:"positions"`
	Period        int                         `yaml:"period" json:"period"`
	InitialGreen  Axis                        `yaml:"initial_green" json:"initial_green"`
	DetectionSize int                         `yaml:"detection_size" json:"detection_size"`
}

// Kinematics holds the discrete velocities and detection-zone shape.
type Kinematics struct {
	BaseVelocity    int     `yaml:"base_velocity" json:"base_velocity"`
	SlowVelocity    int     `yaml:"slow_velocity" json:"slow_velocity"`
	TurnVelocity    int     `yaml:"turn_velocity" json:"turn_velocity"`
	SafeDistance    int     `yaml:"safe_distance" json:"safe_distance"`
	DetectionOffset int     `yaml:"detection_offset" json:"detection_offset"`
	NearFactor      float64 `yaml:"near_factor" json:"near_factor"`
	FarFactor       float64 `yaml:"far_factor" json:"far_factor"`
}

// Footprint is the vehicle size when travelling north-south. It is swapped on the east-west axis.
type Footprint struct {
	Width  int `yaml:"width" json:"width"`
	Length int `yaml:"length" json:"length"`
}

// Route is one polyline: the entry point followed by the waypoints.
type Route struct {
	From   models.Approach  `yaml:"from" json:"from"`
	To     models.Approach  `yaml:"to" json:"to"`
	Points []geometry.Point `yaml:"points" json:"points"`
}

// Runner configures the per-tick driver.
type Runner struct {
	TickRate      int           `yaml:"tick_rate" json:"tick_rate"`
	SpawnCooldown time.Duration `yaml:"spawn_cooldown" json:"spawn_cooldown"`
	QueueSize     int           `yaml:"queue_size" json:"queue_size"`
	// AutoSpawn is the chance of a random spawn on every tick the cooldown allows one. Zero disables it.
	AutoSpawn float64 `yaml:"auto_spawn" json:"auto_spawn"`
	Seed      string  `yaml:"seed" json:"seed"`
}

// CooldownTicks converts the spawn cooldown to whole ticks, rounding up.
func (r Runner) CooldownTicks() uint64 {
	if r.TickRate <= 0 || r.SpawnCooldown <= 0 {
		return 0
	}
	return uint64(math.Ceil(r.SpawnCooldown.Seconds() * float64(r.TickRate)))
}

// TickInterval is the wall-clock duration of one tick.
func (r Runner) TickInterval() time.Duration {
	if r.TickRate <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(r.TickRate)
}

// Server configures the snapshot feed.
type Server struct {
	ListenAddr     string        `yaml:"listen_addr" json:"listen_addr"`
	SnapshotBuffer int           `yaml:"snapshot_buffer" json:"snapshot_buffer"`
	WriteTimeout   time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

type Log struct {
	Level string `yaml:"level" json:"level"`
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	return LoadYAML(f)
}

// LoadYAML decodes YAML from r on top of Default and validates the result.
func LoadYAML(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
