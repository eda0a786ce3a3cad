package step

import "errors"

var (
	// ErrStartFailed is set as the exception reason when the child
	// process could not even be started (not a step failure; the
	// engine treats this as infra failure regardless of infra_step).
	ErrStartFailed = errors.New("failed to start step process")

	// ErrNoMockData marks a simulated step that had no StepTestData to
	// replay: a test-authoring error, not a recipe outcome. The
	// simulation harness flags it as a bad test rather than a failure
	// of the recipe under test.
	ErrNoMockData = errors.New("no mock data supplied")
)
