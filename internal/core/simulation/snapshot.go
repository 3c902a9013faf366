package simulation

import (
	"github.com/zeusync/intersim/internal/core/geometry"
	"github.com/zeusync/intersim/internal/core/models"
	"github.com/zeusync/intersim/internal/core/signal"
	"github.com/zeusync/intersim/internal/core/vehicle"
)

// Snapshot is a self-contained copy of the render-facing state after a tick.
type Snapshot struct {
	Tick     uint64        `json:"tick"`
	Junction geometry.Rect `json:"junction"`
	Vehicles []VehicleView `json:"vehicles"`
	Signals  []SignalView  `json:"signals"`
	Counts   Counts        `json:"counts"`
	Stats    Stats         `json:"stats"`
}

type VehicleView struct {
	ID        string          `json:"id"`
	Hitbox    geometry.Rect   `json:"hitbox"`
	Near      geometry.Rect   `json:"near"`
	Far       geometry.Rect   `json:"far"`
	Facing    models.Approach `json:"facing"`
	Status    models.Status   `json:"status"`
	Velocity  int             `json:"velocity"`
	Sprite    string          `json:"sprite"`
	Turn      models.Turn     `json:"turn"`
	Remaining int             `json:"remaining"`
	Age       uint64          `json:"age"`
	WaitTicks uint64          `json:"wait_ticks"`
}

type SignalView struct {
	Approach models.Approach    `json:"approach"`
	Position geometry.Point     `json:"position"`
	State    models.SignalState `json:"state"`
	Elapsed  int                `json:"elapsed"`
}

func viewOf(v *vehicle.Vehicle) VehicleView {
	return VehicleView{
		ID:        v.ID(),
		Hitbox:    v.Hitbox(),
		Near:      v.Near(),
		Far:       v.Far(),
		Facing:    v.Facing(),
		Status:    v.Status(),
		Velocity:  v.Velocity(),
		Sprite:    v.Sprite(),
		Turn:      v.Turn(),
		Remaining: v.Remaining(),
		Age:       v.Age(),
		WaitTicks: v.WaitTicks(),
	}
}

func signalViewOf(s *signal.Signal) SignalView {
	return SignalView{
		Approach: s.Approach(),
		Position: s.Position(),
		State:    s.State(),
		Elapsed:  s.Elapsed(),
	}
}

// Counts are running totals since the simulation started.
type Counts struct {
	Spawned  uint64 `json:"spawned"`
	Passed   uint64 `json:"passed"`
	Collided uint64 `json:"collided"`
	Active   int    `json:"active"`
}

// Stats aggregate the age and waiting time of vehicles that finished their route.
type Stats struct {
	TravelTicksTotal uint64  `json:"travel_ticks_total"`
	TravelTicksMax   uint64  `json:"travel_ticks_max"`
	TravelTicksAvg   float64 `json:"travel_ticks_avg"`
	WaitTicksTotal   uint64  `json:"wait_ticks_total"`
	WaitTicksMax     uint64  `json:"wait_ticks_max"`
	WaitTicksAvg     float64 `json:"wait_ticks_avg"`
	samples          uint64
}

func (s *Stats) record(v *vehicle.Vehicle) {
	s.samples++
	s.TravelTicksTotal += v.Age()
	s.TravelTicksMax = max(s.TravelTicksMax, v.Age())
	s.WaitTicksTotal += v.WaitTicks()
	s.WaitTicksMax = max(s.WaitTicksMax, v.WaitTicks())
	s.TravelTicksAvg = float64(s.TravelTicksTotal) / float64(s.samples)
	s.WaitTicksAvg = float64(s.WaitTicksTotal) / float64(s.samples)
}
