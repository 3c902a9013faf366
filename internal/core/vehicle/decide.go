package vehicle

import (
	"math"

	"github.com/zeusync/intersim/internal/core/geometry"
	"github.com/zeusync/intersim/internal/core/models"
	"github.com/zeusync/intersim/internal/core/signal"
)

// Decide advances the vehicle by one tick against the pre-tick peer views and the current signals,
// stores the resulting status and returns it. Peers carrying the vehicle's own ID are ignored.
// Collided and Finished are terminal: later calls return them unchanged.
func (v *Vehicle) Decide(peers []Peer, signals []*signal.Signal) models.Status {
	if v.status.Terminal() {
		return v.status
	}
	v.age++

	if len(v.waypoints) == 0 {
		return v.set(models.StatusFinished)
	}

	// Overlap is judged on pre-tick boxes, so both parties of a crash see it in the same tick.
	for i := range peers {
		if peers[i].ID != v.id && v.hitbox.Intersects(peers[i].Hitbox) {
			return v.set(models.StatusCollided)
		}
	}

	entered := v.InJunction()
	if entered {
		v.tracked = nil
	} else if v.stoppedBySignal(signals) {
		return v.wait()
	}

	k := v.world.Kinematics
	target := v.waypoints[0]
	center := v.hitbox.Center()
	dx, dy := delta(center, target)
	v.facing = facingFor(dx, dy)

	speed := v.velocity
	if entered {
		speed = min(speed, k.TurnVelocity)
	}

	distance := math.Hypot(dx, dy)
	if distance < float64(speed) {
		v.hitbox = v.oriented(target)
		v.waypoints = v.waypoints[1:]
		if len(v.waypoints) == 0 {
			return v.set(models.StatusFinished)
		}
		v.velocity = k.BaseVelocity
		return v.set(models.StatusMoving)
	}

	candidate := v.step(center, dx, dy, distance, speed)
	v.near, v.far = v.zones(center, dx, dy, candidate)

	commit := speed
	for i := range peers {
		p := &peers[i]
		if p.ID == v.id {
			continue
		}

		if (v.far.Intersects(p.Far) || v.far.Intersects(p.Near)) && p.Status != models.StatusSlowing {
			v.velocity = k.SlowVelocity
			v.hitbox = candidate
			return v.set(models.StatusSlowing)
		}

		if entered {
			continue
		}

		nearHit := v.near.Intersects(p.Hitbox)
		if !nearHit && !v.far.Intersects(p.Near) && !v.far.Intersects(p.Hitbox) {
			continue
		}
		if p.Status == models.StatusWaiting && models.HasPriority(v.facing, p.Facing) && !nearHit {
			commit = min(commit, k.SlowVelocity)
			continue
		}
		return v.wait()
	}

	if commit != speed {
		candidate = v.step(center, dx, dy, distance, commit)
	}
	v.hitbox = candidate
	v.velocity = k.BaseVelocity
	return v.set(models.StatusMoving)
}

// stoppedBySignal latches the signal guarding the current facing once it is in range and reports
// whether that latched signal is red. A latched signal is never swapped for another one.
func (v *Vehicle) stoppedBySignal(signals []*signal.Signal) bool {
	left := v.world.Signals.Positions.Get(v.facing)

	if v.tracked == nil {
		if s := signal.Find(signals, left); s != nil {
			size := v.world.Signals.DetectionSize
			if geometry.FromCenter(v.hitbox.Center(), size, size).Intersects(s.Area(size)) {
				v.tracked = s
			}
		}
	}

	return v.tracked != nil && v.tracked.Position() == left && !v.tracked.Green()
}

func (v *Vehicle) wait() models.Status {
	v.waitTicks++
	return v.set(models.StatusWaiting)
}

func (v *Vehicle) set(s models.Status) models.Status {
	v.status = s
	return s
}
