package config

import (
	"time"

	"github.com/zeusync/intersim/internal/core/geometry"
	"github.com/zeusync/intersim/internal/core/models"
)

// Lane coordinates of the default 1080x1080 plan: two one-way lanes per road under right-hand traffic.
const (
	borderNear = -40
	borderFar  = 1120
	laneLow    = 490
	laneMid    = 540
	laneHigh   = 590
)

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		World: DefaultWorld(),
		Runner: Runner{
			TickRate:      60,
			SpawnCooldown: 450 * time.Millisecond,
			QueueSize:     64,
			AutoSpawn:     0,
			Seed:          "intersim",
		},
		Server: Server{
			ListenAddr:     "127.0.0.1:8080",
			SnapshotBuffer: 8,
			WriteTimeout:   5 * time.Second,
		},
		Log: Log{Level: "info"},
	}
}

// DefaultWorld returns the stock junction geometry.
func DefaultWorld() World {
	return World{
		Junction: geometry.Rect{X: 470, Y: 470, W: 140, H: 140},
		Signals: Signals{
			Positions: PerApproach[geometry.Point]{
				North: geometry.Pt(470, 470),
				South: geometry.Pt(610, 610),
				East:  geometry.Pt(610, 470),
				West:  geometry.Pt(470, 610),
			},
			Period:        200,
			InitialGreen:  AxisNorthSouth,
			DetectionSize: 100,
		},
		Kinematics: Kinematics{
			BaseVelocity:    4,
			SlowVelocity:    2,
			TurnVelocity:    2,
			SafeDistance:    40,
			DetectionOffset: 10,
			NearFactor:      1.4,
			FarFactor:       2.8,
		},
		Footprint: Footprint{Width: 32, Length: 45},
		Routes:    DefaultRoutes(),
	}
}

// DefaultRoutes returns the twelve polylines of the stock plan.
func DefaultRoutes() []Route {
	pts := func(xy ...int) []geometry.Point {
		out := make([]geometry.Point, 0, len(xy)/2)
		for i := 0; i+1 < len(xy); i += 2 {
			out = append(out, geometry.Pt(xy[i], xy[i+1]))
		}
		return out
	}

	return []Route{
		// southbound lane
		{From: models.North, To: models.South, Points: pts(laneLow, borderNear, laneLow, laneLow, laneLow, borderFar)},
		{From: models.North, To: models.East, Points: pts(laneLow, borderNear, laneLow, laneMid, borderFar, laneHigh)},
		{From: models.North, To: models.West, Points: pts(laneLow, borderNear, laneLow, laneLow, borderNear, laneLow)},

		// northbound lane
		{From: models.South, To: models.North, Points: pts(laneHigh, borderFar, laneHigh, laneHigh, laneHigh, borderNear)},
		{From: models.South, To: models.East, Points: pts(laneHigh, borderFar, laneHigh, laneHigh, borderFar, laneHigh)},
		{From: models.South, To: models.West, Points: pts(laneHigh, borderFar, laneHigh, laneLow, borderNear, laneLow)},

		// westbound lane
		{From: models.East, To: models.West, Points: pts(borderFar, laneLow, laneLow, laneLow, borderNear, laneLow)},
		{From: models.East, To: models.North, Points: pts(borderFar, laneLow, laneHigh, laneLow, laneHigh, borderNear)},
		{From: models.East, To: models.South, Points: pts(borderFar, laneLow, laneMid, laneLow, laneMid, borderFar)},

		// eastbound lane
		{From: models.West, To: models.East, Points: pts(borderNear, laneHigh, laneHigh, laneHigh, borderFar, laneHigh)},
		{From: models.West, To: models.North, Points: pts(borderNear, laneHigh, laneMid, laneHigh, laneLow, borderNear)},
		{From: models.West, To: models.South, Points: pts(borderNear, laneHigh, laneMid, laneHigh, laneLow, borderFar)},
	}
}
