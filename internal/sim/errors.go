package sim

import "errors"

var (
	// ErrExpectationMismatch marks a recording that differs from its
	// golden file.
	ErrExpectationMismatch = errors.New("sim: expectation mismatch")
	// ErrBadTest marks a test-authoring error rather than a recipe bug.
	ErrBadTest = errors.New("sim: bad test")
)
