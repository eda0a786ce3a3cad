package paths

import "errors"

var (
	// ErrInvalidState is returned when the deprecated checkout-dir slot is
	// read before it has been written.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnknownRoot is returned when a root name has not been registered.
	ErrUnknownRoot = errors.New("unknown root")
)
