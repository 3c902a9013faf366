package models

// Turn classifies a route under right-hand traffic.
type Turn uint8

const (
	TurnStraight Turn = iota
	TurnLeft
	TurnRight
	TurnNone
)

func (t Turn) String() string {
	switch t {
	case TurnStraight:
		return "straight"
	case TurnLeft:
		return "left"
	case TurnRight:
		return "right"
	default:
		return "none"
	}
}

func (t Turn) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// rightExit maps an origin to the approach reached by turning right.
var rightExit = map[Approach]Approach{
	North: West,
	South: East,
	East:  North,
	West:  South,
}

// TurnOf classifies the movement from origin to destination. Same-approach pairs are TurnNone.
func TurnOf(origin, destination Approach) Turn {
	switch {
	case origin == destination:
		return TurnNone
	case destination == origin.Opposite():
		return TurnStraight
	case rightExit[origin] == destination:
		return TurnRight
	default:
		return TurnLeft
	}
}
