package engine

import (
	"fmt"
	"time"

	"github.com/cruciblehq/crecipe/internal/concurrency"
	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/placeholder"
	"github.com/cruciblehq/crecipe/internal/step"
	"github.com/cruciblehq/crecipe/internal/stream"
)

// The built-in "recipe_engine/step" module's API object: the
// only way recipe and module code runs a step.
type StepAPI struct {
	runner   step.Runner
	window   *presentationWindow
	sink     stream.Sink
	scope    *concurrency.Scope
	results  *placeholder.ResultSet
	baseEnv  []string
	testData map[string]func() manifest.StepTestData
}

func newStepAPI(runner step.Runner, window *presentationWindow, sink stream.Sink, scope *concurrency.Scope, results *placeholder.ResultSet, baseEnv []string, testData map[string]func() manifest.StepTestData) *StepAPI {
	return &StepAPI{runner: runner, window: window, sink: sink, scope: scope, results: results, baseEnv: baseEnv, testData: testData}
}

// WithDeadline, WithEnv, and WithCwd derive a StepAPI bound to a child
// scope. Steps run through the returned API inherit the refined context;
// a nested deadline never extends past the receiver's. The receiver
// itself is unchanged, so the refinement ends where the caller stops
// using the derived API.
func (a *StepAPI) WithDeadline(deadline time.Time) *StepAPI {
	return a.withScope(a.scope.WithDeadline(deadline))
}

func (a *StepAPI) WithEnv(overrides map[string]string) *StepAPI {
	return a.withScope(a.scope.WithEnv(overrides))
}

func (a *StepAPI) WithCwd(cwd string) *StepAPI {
	return a.withScope(a.scope.WithCwd(cwd))
}

func (a *StepAPI) withScope(scope *concurrency.Scope) *StepAPI {
	derived := *a
	derived.scope = scope
	return &derived
}

// Executes s and raises a typed error into the caller on anything
// but success: a *StepFailure, *StepInfraFailure, *Cancellation, or
// *PlaceholderFailure.
func (a *StepAPI) Run(s *manifest.Step) (*step.Data, error) {
	if len(s.Cmd) == 0 {
		return nil, fmt.Errorf("%w: %w: %q", ErrLoad, manifest.ErrEmptyCmd, s.Name)
	}

	// Per-test-case mocks are threaded through step.Options rather than
	// written onto s, which is shared across test cases.
	var testData func() manifest.StepTestData
	if s.StepTestData != nil {
		testData = s.StepTestData
	} else if gen, ok := a.testData[s.Name]; ok {
		testData = gen
	}

	presentation, err := a.window.Open(s.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	// Each step resolves into its own result set, so a value resolved by
	// an earlier step is never readable from a later step's data.
	results := placeholder.NewResultSet()

	result := a.runner.Run(a.scope.Context(), s, step.Options{
		BaseEnv:        a.baseEnv,
		ScopeOverrides: a.scope.EnvOverrides(),
		Deadline:       a.scope.Deadline(),
		GracePeriod:    a.scope.Grace(),
		Cwd:            a.scope.Cwd(),
		Sink:           a.sink,
		Results:        results,
		StepTestData:   testData,
	})

	if len(s.TriggerSpecs) > 0 {
		presentation.SetProperty("trigger_specs", s.TriggerSpecs)
	}

	data := &step.Data{
		Retcode:      result.Retcode,
		Presentation: presentation,
		Results:      results,
		TriggerSpecs: s.TriggerSpecs,
		Stdout:       streamResult(results, s.Stdout),
		Stderr:       streamResult(results, s.Stderr),
	}

	status, raised := classify(s, result)
	details := ""
	if raised != nil {
		details = raised.Error()
	}
	presentation.Finalize(status, details)

	return data, raised
}

// Looks up the resolved value of a stream-attached output
// placeholder (s.Stdout or s.Stderr) by identity. attached is nil, or
// any value not implementing placeholder.Placeholder, yields nil.
func streamResult(results *placeholder.ResultSet, attached any) any {
	ph, ok := attached.(placeholder.Placeholder)
	if !ok {
		return nil
	}
	v, _ := results.Get(ph.Identity())
	return v
}

// Translates a step's ExecutionResult into a terminal status
// and, for anything but success, the error the taxonomy says must be
// raised into user code.
func classify(s *manifest.Step, result step.ExecutionResult) (stream.Status, error) {
	switch {
	case result.WasTimeout:
		return stream.StatusCanceled, &Cancellation{Step: s.Name, WasTimeout: true}
	case result.WasCancelled:
		return stream.StatusCanceled, &Cancellation{Step: s.Name}
	case result.MissingMock:
		// A forgotten mock is a test-authoring error; carrying the
		// sentinel lets the simulation harness flag the test case as
		// bad instead of reporting a recipe infra failure.
		return stream.StatusInfraFailure, &StepInfraFailure{Step: s.Name, Reason: result.ExceptionReason, Err: step.ErrNoMockData}
	case result.HadException:
		// No exit code at all means the step never ran to completion:
		// a start or render failure, which is infra regardless of the
		// infra_step flag. With an exit code the exception came from
		// placeholder resolution after the process finished.
		if result.Retcode == nil {
			return stream.StatusInfraFailure, &StepInfraFailure{Step: s.Name, Reason: result.ExceptionReason}
		}
		return stream.StatusException, &PlaceholderFailure{Step: s.Name, Err: exceptionError(result.ExceptionReason)}
	case result.Retcode == nil:
		return stream.StatusInfraFailure, &StepInfraFailure{Step: s.Name, Reason: "step produced no exit code"}
	case s.OkRet.Allows(*result.Retcode):
		return stream.StatusSuccess, nil
	case s.InfraStep:
		return stream.StatusInfraFailure, &StepInfraFailure{Step: s.Name, Reason: retcodeReason(*result.Retcode)}
	default:
		return stream.StatusFailure, &StepFailure{Step: s.Name, Retcode: result.Retcode}
	}
}
