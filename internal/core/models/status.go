package models

import "fmt"

// Status is the discrete outcome of a vehicle's last decision.
type Status uint8

const (
	StatusMoving Status = iota
	StatusSlowing
	StatusWaiting
	StatusCollided
	StatusFinished
)

var statusNames = [...]string{
	StatusMoving:   "moving",
	StatusSlowing:  "slowing",
	StatusWaiting:  "waiting",
	StatusCollided: "collided",
	StatusFinished: "finished",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Terminal reports whether the vehicle leaves the simulation after this status.
func (s Status) Terminal() bool {
	return s == StatusCollided || s == StatusFinished
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SignalState is the colour shown by a signal.
type SignalState uint8

const (
	Red SignalState = iota
	Green
)

func (s SignalState) String() string {
	if s == Green {
		return "green"
	}
	return "red"
}

// Flip returns the other state.
func (s SignalState) Flip() SignalState {
	if s == Green {
		return Red
	}
	return Green
}

func (s SignalState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
