package models

import (
	"fmt"
	"strings"
)

// Approach is the compass direction a vehicle travels from when it enters the junction.
// It also names a signal and a vehicle's current facing.
type Approach uint8

const (
	North Approach = iota
	South
	East
	West
)

var approachNames = [...]string{
	North: "north",
	South: "south",
	East:  "east",
	West:  "west",
}

// All returns the four approaches in declaration order.
func All() []Approach {
	return []Approach{North, South, East, West}
}

func (a Approach) String() string {
	if int(a) < len(approachNames) {
		return approachNames[a]
	}
	return fmt.Sprintf("approach(%d)", uint8(a))
}

// Valid reports whether a is one of the four declared approaches.
func (a Approach) Valid() bool {
	return a <= West
}

// Opposite returns the approach across the junction.
func (a Approach) Opposite() Approach {
	switch a {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	default:
		return East
	}
}

// Vertical reports whether travel from a runs along the north-south axis.
func (a Approach) Vertical() bool {
	return a == North || a == South
}

// ParseApproach accepts the lower-case name or its first letter.
func ParseApproach(s string) (Approach, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, nil
	case "south", "s":
		return South, nil
	case "east", "e":
		return East, nil
	case "west", "w":
		return West, nil
	}
	return 0, fmt.Errorf("unknown approach %q", s)
}

func (a Approach) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("unknown approach %d", uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *Approach) UnmarshalText(text []byte) error {
	parsed, err := ParseApproach(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// HasPriority reports whether a vehicle facing a may pass a waiting vehicle facing b.
// South may pass a waiting East, East a waiting North, North a waiting West and West a waiting South.
// The relation is never symmetric, so two mutually blocked vehicles cannot both claim it.
func HasPriority(a, b Approach) bool {
	switch {
	case a == South && b == East,
		a == East && b == North,
		a == North && b == West,
		a == West && b == South:
		return true
	}
	return false
}
