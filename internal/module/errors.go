package module

import "errors"

var (
	// ErrCycle is returned when a module's DEPS form a cycle.
	ErrCycle = errors.New("module: dependency cycle")
	// ErrMissingModule is returned when a DEPS entry names a module
	// RecipeDeps cannot resolve.
	ErrMissingModule = errors.New("module: unknown module")
	// ErrApiFactory is wrapped around any module's ApiFactory failure.
	ErrApiFactory = errors.New("module: api factory failed")
	// ErrInitialize is wrapped around any module's Initialize hook failure.
	ErrInitialize = errors.New("module: initialize hook failed")
)
