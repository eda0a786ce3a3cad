package placeholder

import "errors"

var (
	// ErrUnresolved is returned by Result when called on a placeholder
	// that has not rendered for the current step.
	ErrUnresolved = errors.New("placeholder not resolved")

	// ErrParse is returned when an output placeholder's backing file or
	// captured stream cannot be parsed into its declared type.
	ErrParse = errors.New("placeholder result parse failed")
)
