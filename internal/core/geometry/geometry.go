package geometry

import "math"

// Integer plane helpers in screen coordinates: x grows east, y grows south.

// Point is a position on the plane.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func Pt(x, y int) Point { return Point{X: x, Y: y} }

// Add translates p by (dx, dy).
func (p Point) Add(dx, dy int) Point { return Point{X: p.X + dx, Y: p.Y + dy} }

// Distance computes the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}

// Rect is an axis-aligned rectangle stored by its top-left corner.
type Rect struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// FromCenter builds a w x h rectangle whose Center is c.
func FromCenter(c Point, w, h int) Rect {
	return Rect{X: c.X - w/2, Y: c.Y - h/2, W: w, H: h}
}

// Right returns the x-coordinate just past the right edge.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the y-coordinate just past the bottom edge.
func (r Rect) Bottom() int { return r.Y + r.H }

// Center returns the anchor FromCenter was given.
func (r Rect) Center() Point { return Point{X: r.X + r.W/2, Y: r.Y + r.H/2} }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Intersects reports a positive-area overlap. Touching edges and empty rectangles never intersect.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	if r.X >= o.Right() || o.X >= r.Right() {
		return false
	}
	if r.Y >= o.Bottom() || o.Y >= r.Bottom() {
		return false
	}
	return true
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Inflate grows r by d on every side, keeping its center.
func (r Rect) Inflate(d int) Rect {
	return FromCenter(r.Center(), r.W+2*d, r.H+2*d)
}

// Swapped returns r rotated a quarter turn about its center.
func (r Rect) Swapped() Rect {
	return FromCenter(r.Center(), r.H, r.W)
}
