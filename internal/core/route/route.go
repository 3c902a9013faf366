package route

import (
	"errors"
	"fmt"

	"github.com/zeusync/intersim/internal/config"
	"github.com/zeusync/intersim/internal/core/geometry"
	"github.com/zeusync/intersim/internal/core/models"
)

// ErrInvalidRoute is returned for same-approach pairs and pairs without a polyline.
var ErrInvalidRoute = errors.New("invalid route")

// Route is a resolved polyline.
type Route struct {
	From      models.Approach
	To        models.Approach
	Entry     geometry.Point
	Waypoints []geometry.Point
	Turn      models.Turn
}

type key struct{ from, to models.Approach }

// Table maps (origin, destination) pairs to polylines. It is immutable after construction
// and safe for concurrent lookups.
type Table struct {
	routes map[key]Route
}

// NewTable validates the route set and indexes it.
func NewTable(routes []config.Route) (*Table, error) {
	if err := config.ValidateRoutes(routes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoute, err)
	}

	t := &Table{routes: make(map[key]Route, len(routes))}
	for _, r := range routes {
		waypoints := make([]geometry.Point, len(r.Points)-1)
		copy(waypoints, r.Points[1:])
		t.routes[key{r.From, r.To}] = Route{
			From:      r.From,
			To:        r.To,
			Entry:     r.Points[0],
			Waypoints: waypoints,
			Turn:      models.TurnOf(r.From, r.To),
		}
	}
	return t, nil
}

// Lookup returns the entry point and waypoint tail for a pair. The returned waypoints are a
// fresh copy owned by the caller.
func (t *Table) Lookup(origin, destination models.Approach) (Route, error) {
	if origin == destination {
		return Route{}, fmt.Errorf("%w: %s to %s", ErrInvalidRoute, origin, destination)
	}
	r, ok := t.routes[key{origin, destination}]
	if !ok {
		return Route{}, fmt.Errorf("%w: %s to %s is not defined", ErrInvalidRoute, origin, destination)
	}
	r.Waypoints = append([]geometry.Point(nil), r.Waypoints...)
	return r, nil
}

// Validate reports whether a pair can be looked up without building the route.
func (t *Table) Validate(origin, destination models.Approach) error {
	_, err := t.Lookup(origin, destination)
	return err
}

// Pairs lists every defined (origin, destination) pair in approach order.
func (t *Table) Pairs() [][2]models.Approach {
	out := make([][2]models.Approach, 0, len(t.routes))
	for _, from := range models.All() {
		for _, to := range models.All() {
			if _, ok := t.routes[key{from, to}]; ok {
				out = append(out, [2]models.Approach{from, to})
			}
		}
	}
	return out
}
