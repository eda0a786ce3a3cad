package step

import (
	"context"
	"time"

	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/placeholder"
	"github.com/cruciblehq/crecipe/internal/stream"
)

// Carries everything a Runner needs beyond the step itself: the
// effective parent environment and scope overrides to layer on top of
// it, the active deadline/grace period, and the sink and result set to
// report into.
type Options struct {
	BaseEnv        []string          // Parent process environment, "k=v" entries.
	ScopeOverrides map[string]string // Highest-precedence overrides from the active concurrency scope.
	Deadline       time.Time         // Zero means no deadline.
	GracePeriod    time.Duration
	Cwd            string // Scope working directory, used when the step does not set its own.
	Sink           stream.Sink
	Results        *placeholder.ResultSet

	// StepTestData, when non-nil, supplies the mocked result for this
	// step in place of the step's own StepTestData closure. The engine
	// uses it to thread per-test-case mocks through without mutating
	// the shared manifest.Step literal.
	StepTestData func() manifest.StepTestData
}

// Executes one step. It never returns an error; every failure
// mode of attempting to run a step is reported through the returned
// ExecutionResult.
type Runner interface {
	Run(ctx context.Context, s *manifest.Step, opts Options) ExecutionResult
}
