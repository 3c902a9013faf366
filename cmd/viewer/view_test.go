package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/events/bus"
	"github.com/zeusync/intersim/internal/core/geometry"
	"github.com/zeusync/intersim/internal/core/models"
	"github.com/zeusync/intersim/internal/core/simulation"
)

func newTestView(t *testing.T) (*view, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(108, 56)
	t.Cleanup(screen.Fini)
	return newView(screen, config.DefaultWorld()), screen
}

func TestCellProjection(t *testing.T) {
	v, _ := newTestView(t)
	require.Equal(t, 1080, v.plane)

	col, row := v.cell(geometry.Pt(540, 540))
	assert.Equal(t, 54, col)
	assert.Equal(t, headerRows+27, row)

	col, row = v.cell(geometry.Pt(0, 0))
	assert.Equal(t, 0, col)
	assert.Equal(t, headerRows, row)

	p := v.point(54, headerRows+27)
	assert.InDelta(t, 545, p.X, 10)
	assert.InDelta(t, 550, p.Y, 20)
}

func TestDrawVehicleGlyphs(t *testing.T) {
	v, screen := newTestView(t)

	snap := simulation.Snapshot{
		Vehicles: []simulation.VehicleView{{
			ID:     "a",
			Hitbox: geometry.FromCenter(geometry.Pt(490, 200), 32, 45),
			Facing: models.North,
			Status: models.StatusMoving,
			Turn:   models.TurnLeft,
		}},
		Signals: []simulation.SignalView{{
			Approach: models.North,
			Position: geometry.Pt(470, 470),
			State:    models.Green,
		}},
	}
	v.draw(snap)

	col, row := v.cell(geometry.Pt(490, 200))
	r, _, style, _ := screen.GetContent(col, row)
	assert.Equal(t, 'v', r)
	fg, _, _ := style.Decompose()
	assert.Equal(t, tcell.ColorYellow, fg)

	col, row = v.cell(geometry.Pt(470, 470))
	r, _, style, _ = screen.GetContent(col, row)
	assert.Equal(t, '●', r)
	fg, _, _ = style.Decompose()
	assert.Equal(t, tcell.ColorLime, fg)
}

func TestCrashMarkersExpire(t *testing.T) {
	v, screen := newTestView(t)

	event := bus.NewEvent(simulation.EventVehicleCollided, "test", simulation.VehicleView{
		Hitbox: geometry.FromCenter(geometry.Pt(540, 300), 32, 45),
	}, map[string]any{"tick": uint64(10)})
	require.NoError(t, v.onCollided(event))

	col, row := v.cell(geometry.Pt(540, 300))
	cornerCol, cornerRow := v.cell(geometry.Pt(540-28, 300-34))

	v.draw(simulation.Snapshot{Tick: 10})
	r, _, _, _ := screen.GetContent(col, row)
	assert.Equal(t, 'X', r)
	r, _, _, _ = screen.GetContent(cornerCol, cornerRow)
	assert.Equal(t, '*', r)

	v.draw(simulation.Snapshot{Tick: 10 + crashTicks + 1})
	r, _, _, _ = screen.GetContent(col, row)
	assert.NotEqual(t, 'X', r)
	assert.Empty(t, v.crashes)
}
