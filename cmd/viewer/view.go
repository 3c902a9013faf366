package main

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/events/bus"
	"github.com/zeusync/intersim/internal/core/geometry"
	"github.com/zeusync/intersim/internal/core/models"
	"github.com/zeusync/intersim/internal/core/simulation"
)

// headerRows are reserved above the map for counters and key help.
const headerRows = 2

// crashTicks is how long a removed collided vehicle stays marked on the map.
const crashTicks = 90

// crashMargin pads the crash outline around the vehicle footprint.
const crashMargin = 12

var (
	styleDefault  = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleHeader   = styleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleHelp     = styleDefault.Foreground(tcell.ColorGray)
	styleRoad     = styleDefault.Background(tcell.ColorDarkSlateGray)
	styleJunction = styleDefault.Background(tcell.ColorDimGray)
	styleZone     = styleDefault.Foreground(tcell.ColorMediumVioletRed)
	styleCrash    = styleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorRed).Bold(true)

	turnStyles = map[models.Turn]tcell.Style{
		models.TurnStraight: styleRoad.Foreground(tcell.ColorWhite).Bold(true),
		models.TurnLeft:     styleRoad.Foreground(tcell.ColorYellow).Bold(true),
		models.TurnRight:    styleRoad.Foreground(tcell.ColorAqua).Bold(true),
	}

	// facingGlyphs point in the direction of travel, which is away from the facing approach.
	facingGlyphs = map[models.Approach]rune{
		models.North: 'v',
		models.South: '^',
		models.East:  '<',
		models.West:  '>',
	}
)

type crash struct {
	area  geometry.Rect
	until uint64
}

// view renders snapshots onto a terminal screen.
type view struct {
	screen tcell.Screen
	world  config.World
	plane  int

	debug atomic.Bool

	mu      sync.Mutex
	crashes []crash
	status  string
}

func newView(screen tcell.Screen, world config.World) *view {
	j := world.Junction
	return &view{
		screen: screen,
		world:  world,
		plane:  2 * (j.X + j.W/2),
	}
}

// onCollided remembers where a vehicle crashed. It runs on the runner goroutine.
func (v *view) onCollided(e bus.Event) error {
	vv, ok := e.Data().(simulation.VehicleView)
	if !ok {
		return nil
	}
	tick, _ := e.Metadata()["tick"].(uint64)

	v.mu.Lock()
	v.crashes = append(v.crashes, crash{area: vv.Hitbox.Inflate(crashMargin), until: tick + crashTicks})
	v.mu.Unlock()
	return nil
}

func (v *view) setStatus(format string, args ...any) {
	v.mu.Lock()
	v.status = fmt.Sprintf(format, args...)
	v.mu.Unlock()
}

// cell maps a plane point to a screen cell.
func (v *view) cell(p geometry.Point) (int, int) {
	w, h := v.screen.Size()
	rows := max(h-headerRows, 1)
	return p.X * w / v.plane, headerRows + p.Y*rows/v.plane
}

// point maps the center of a screen cell back to the plane.
func (v *view) point(col, row int) geometry.Point {
	w, h := v.screen.Size()
	rows := max(h-headerRows, 1)
	return geometry.Pt((2*col+1)*v.plane/(2*max(w, 1)), (2*(row-headerRows)+1)*v.plane/(2*rows))
}

func (v *view) draw(snap simulation.Snapshot) {
	v.screen.Clear()

	v.drawHeader(snap)
	v.drawRoads()
	for _, s := range snap.Signals {
		v.drawSignal(s)
	}
	if v.debug.Load() {
		for _, vv := range snap.Vehicles {
			v.outline(vv.Far, '·', styleZone)
			v.outline(vv.Near, '∙', styleZone)
		}
	}
	for _, vv := range snap.Vehicles {
		v.drawVehicle(vv)
	}
	v.drawCrashes(snap.Tick)

	v.screen.Show()
}

func (v *view) drawHeader(snap simulation.Snapshot) {
	c := snap.Counts
	line := fmt.Sprintf(" tick %d  active %d  spawned %d  passed %d  collided %d  avg wait %.1f",
		snap.Tick, c.Active, c.Spawned, c.Passed, c.Collided, snap.Stats.WaitTicksAvg)
	drawText(v.screen, 0, 0, line, styleHeader)

	v.mu.Lock()
	status := v.status
	v.mu.Unlock()

	help := " arrows spawn  r random  d zones  q quit"
	if status != "" {
		help += "  | " + status
	}
	drawText(v.screen, 0, 1, help, styleHelp)
}

func (v *view) drawRoads() {
	w, h := v.screen.Size()
	j := v.world.Junction
	for row := headerRows; row < h; row++ {
		for col := 0; col < w; col++ {
			p := v.point(col, row)
			inX := p.X >= j.X && p.X < j.Right()
			inY := p.Y >= j.Y && p.Y < j.Bottom()
			switch {
			case inX && inY:
				v.screen.SetContent(col, row, ' ', nil, styleJunction)
			case inX || inY:
				v.screen.SetContent(col, row, ' ', nil, styleRoad)
			}
		}
	}
}

func (v *view) drawSignal(s simulation.SignalView) {
	style := styleDefault.Foreground(tcell.ColorRed).Bold(true)
	if s.State == models.Green {
		style = styleDefault.Foreground(tcell.ColorLime).Bold(true)
	}
	col, row := v.cell(s.Position)
	v.screen.SetContent(col, row, '●', nil, style)
}

func (v *view) drawVehicle(vv simulation.VehicleView) {
	style, ok := turnStyles[vv.Turn]
	if !ok {
		style = turnStyles[models.TurnStraight]
	}
	switch vv.Status {
	case models.StatusWaiting:
		style = style.Background(tcell.ColorMaroon)
	case models.StatusSlowing:
		style = style.Background(tcell.ColorOlive)
	}

	glyph := facingGlyphs[vv.Facing]
	c0, r0 := v.cell(geometry.Pt(vv.Hitbox.X, vv.Hitbox.Y))
	c1, r1 := v.cell(geometry.Pt(vv.Hitbox.Right()-1, vv.Hitbox.Bottom()-1))
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			v.screen.SetContent(col, row, glyph, nil, style)
		}
	}
}

func (v *view) outline(r geometry.Rect, glyph rune, style tcell.Style) {
	if r.Empty() {
		return
	}
	c0, r0 := v.cell(geometry.Pt(r.X, r.Y))
	c1, r1 := v.cell(geometry.Pt(r.Right()-1, r.Bottom()-1))
	for col := c0; col <= c1; col++ {
		v.screen.SetContent(col, r0, glyph, nil, style)
		v.screen.SetContent(col, r1, glyph, nil, style)
	}
	for row := r0; row <= r1; row++ {
		v.screen.SetContent(c0, row, glyph, nil, style)
		v.screen.SetContent(c1, row, glyph, nil, style)
	}
}

func (v *view) drawCrashes(tick uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	kept := v.crashes[:0]
	for _, c := range v.crashes {
		if c.until < tick {
			continue
		}
		kept = append(kept, c)
		v.outline(c.area, '*', styleCrash)
		col, row := v.cell(c.area.Center())
		v.screen.SetContent(col, row, 'X', nil, styleCrash)
	}
	v.crashes = kept
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}
