package bus

import "errors"

var (
	ErrNilHandler       = errors.New("event handler is nil")
	ErrInvalidEventType = errors.New("event type must be non-empty and not a wildcard")
)
