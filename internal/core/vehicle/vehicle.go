package vehicle

import (
	"errors"
	"math"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/geometry"
	"github.com/zeusync/intersim/internal/core/models"
	"github.com/zeusync/intersim/internal/core/signal"
)

var ErrNoWaypoints = errors.New("vehicle needs at least one waypoint")

// Peer is the read-only view of another vehicle taken before a tick starts.
type Peer struct {
	ID     string
	Hitbox geometry.Rect
	Near   geometry.Rect
	Far    geometry.Rect
	Status models.Status
	Facing models.Approach
}

// Vehicle owns its geometry, kinematic state and discrete status. Only its own Decide mutates it.
type Vehicle struct {
	id    string
	world *config.World

	hitbox geometry.Rect
	near   geometry.Rect
	far    geometry.Rect

	facing    models.Approach
	velocity  int
	waypoints []geometry.Point
	status    models.Status

	// tracked is the signal latched on approach; nil before latching and after junction entry.
	tracked *signal.Signal

	sprite string
	turn   models.Turn

	age       uint64
	waitTicks uint64
}

type Option func(*Vehicle)

// WithSprite attaches an opaque render tag. No decision depends on it.
func WithSprite(tag string) Option {
	return func(v *Vehicle) { v.sprite = tag }
}

// WithTurn records the route classification for renderers.
func WithTurn(t models.Turn) Option {
	return func(v *Vehicle) { v.turn = t }
}

// New places a vehicle at entry, facing its first waypoint. The waypoint slice is copied.
func New(id string, entry geometry.Point, waypoints []geometry.Point, world *config.World, opts ...Option) (*Vehicle, error) {
	if len(waypoints) == 0 {
		return nil, ErrNoWaypoints
	}

	v := &Vehicle{
		id:        id,
		world:     world,
		velocity:  world.Kinematics.BaseVelocity,
		waypoints: append([]geometry.Point(nil), waypoints...),
		status:    models.StatusMoving,
		turn:      models.TurnNone,
	}
	for _, opt := range opts {
		opt(v)
	}

	dx, dy := delta(entry, waypoints[0])
	v.facing = facingFor(dx, dy)
	v.hitbox = v.oriented(entry)
	v.near, v.far = v.zones(entry, dx, dy, v.hitbox)

	return v, nil
}

func (v *Vehicle) ID() string                    { return v.id }
func (v *Vehicle) Hitbox() geometry.Rect         { return v.hitbox }
func (v *Vehicle) Near() geometry.Rect           { return v.near }
func (v *Vehicle) Far() geometry.Rect            { return v.far }
func (v *Vehicle) Facing() models.Approach       { return v.facing }
func (v *Vehicle) Velocity() int                 { return v.velocity }
func (v *Vehicle) Status() models.Status         { return v.status }
func (v *Vehicle) Sprite() string                { return v.sprite }
func (v *Vehicle) Turn() models.Turn             { return v.turn }
func (v *Vehicle) Remaining() int                { return len(v.waypoints) }
func (v *Vehicle) TrackedSignal() *signal.Signal { return v.tracked }

// Age is the number of decisions taken so far.
func (v *Vehicle) Age() uint64 { return v.age }

// WaitTicks counts decisions that ended in Waiting.
func (v *Vehicle) WaitTicks() uint64 { return v.waitTicks }

// Waypoints returns a copy of the remaining waypoints, front first.
func (v *Vehicle) Waypoints() []geometry.Point {
	return append([]geometry.Point(nil), v.waypoints...)
}

// Peer returns the view other vehicles read during the next tick.
func (v *Vehicle) Peer() Peer {
	return Peer{
		ID:     v.id,
		Hitbox: v.hitbox,
		Near:   v.near,
		Far:    v.far,
		Status: v.status,
		Facing: v.facing,
	}
}

// InJunction reports whether the hitbox overlaps the junction region.
func (v *Vehicle) InJunction() bool {
	return v.hitbox.Intersects(v.world.Junction)
}

// oriented builds the footprint centered on c, long side along the facing axis.
func (v *Vehicle) oriented(c geometry.Point) geometry.Rect {
	fp := v.world.Footprint
	box := geometry.FromCenter(c, fp.Width, fp.Length)
	if v.facing.Vertical() {
		return box
	}
	return box.Swapped()
}

// zones projects the near and far detection rectangles ahead of center along (dx, dy),
// shifted sideways by the detection offset.
func (v *Vehicle) zones(center geometry.Point, dx, dy float64, box geometry.Rect) (near, far geometry.Rect) {
	k := v.world.Kinematics

	angle := math.Atan2(dy, dx)
	cos, sin := math.Cos(angle), math.Sin(angle)
	px, py := -sin, cos

	extent := box.W
	if v.facing.Vertical() {
		extent = box.H
	}
	w, h := box.W+k.SafeDistance, box.H+k.SafeDistance

	project := func(factor float64) geometry.Rect {
		d := float64(extent) * factor
		x := float64(center.X) + d*cos + float64(k.DetectionOffset)*px
		y := float64(center.Y) + d*sin + float64(k.DetectionOffset)*py
		return geometry.FromCenter(geometry.Pt(int(math.Round(x)), int(math.Round(y))), w, h)
	}
	return project(k.NearFactor), project(k.FarFactor)
}

// step moves center toward the target by speed, truncating each axis to whole units.
func (v *Vehicle) step(center geometry.Point, dx, dy, distance float64, speed int) geometry.Rect {
	mx := int(dx / distance * float64(speed))
	my := int(dy / distance * float64(speed))
	return v.oriented(center.Add(mx, my))
}

func delta(from, to geometry.Point) (dx, dy float64) {
	return float64(to.X - from.X), float64(to.Y - from.Y)
}

// facingFor names the approach a vehicle moving along (dx, dy) comes from.
// Equal magnitudes fall to the vertical branch.
func facingFor(dx, dy float64) models.Approach {
	if math.Abs(dx) > math.Abs(dy) {
		if dx <= 0 {
			return models.East
		}
		return models.West
	}
	if dy <= 0 {
		return models.South
	}
	return models.North
}
