package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/cruciblehq/crecipe/internal/engine"
	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/paths"
	"github.com/cruciblehq/crecipe/internal/step"
	"github.com/cruciblehq/crecipe/internal/stream"
)

// Locates the directory holding golden expectation files for
// a recipe.
type ExpectDir func(recipeName string) string

// Drives every generated test case for a set of recipes against
// the engine in simulated mode, diffs the recorded step sequence
// against its golden file, and accumulates invocation coverage.
type Suite struct {
	Deps      manifest.RecipeDeps
	ExpectDir ExpectDir
	Coverage  *Coverage
}

// Returns a Suite with a fresh Coverage tracker.
func NewSuite(deps manifest.RecipeDeps, expectDir ExpectDir) *Suite {
	return &Suite{Deps: deps, ExpectDir: expectDir, Coverage: NewCoverage()}
}

// The result of running one TestSpec.
type Outcome struct {
	Recipe    string
	Name      string
	Recording *Recording
	RunErr    error // the recipe's own terminal error, if any; not a harness failure.
	Check     *Check
	Diff      string // non-empty: expectation mismatch
	Trained   bool
	BadTest   error // set when the test case itself is malformed, not the recipe under test
}

// Returns the failure that keeps this outcome from passing, or
// nil for a passing case.
func (o Outcome) Err() error {
	switch {
	case o.BadTest != nil:
		return o.BadTest
	case o.Check != nil && !o.Check.OK():
		return fmt.Errorf("%d assertion(s) failed", len(o.Check.Failures))
	case o.Diff != "" && !o.Trained:
		return fmt.Errorf("%w:\n%s", ErrExpectationMismatch, o.Diff)
	}
	return nil
}

// Reports whether this test case needs no attention: its
// post-process checks held, the exception expectation (if any) matched,
// and either it matched its golden file or was (re)trained.
func (o Outcome) Passed() bool {
	if o.BadTest != nil {
		return false
	}
	if o.Check != nil && !o.Check.OK() {
		return false
	}
	return o.Diff == "" || o.Trained
}

// Runs every TestSpec recipeName's GenTests yields. When
// train is true, mismatches are resolved by rewriting the golden file
// instead of being reported as failures.
func (s *Suite) RunRecipe(ctx context.Context, recipeName string, train bool) ([]Outcome, error) {
	recipe, ok := s.Deps.Recipe(recipeName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown recipe %q", ErrBadTest, recipeName)
	}
	if recipe.GenTestsFn == nil {
		return nil, fmt.Errorf("%w: recipe %q declares no GenTests", ErrBadTest, recipeName)
	}

	refs := recipe.GenTestsFn()
	s.Coverage.RecordGenTests(recipeName)

	outcomes := make([]Outcome, 0, len(refs))
	for _, ref := range refs {
		spec, ok := ref.(*TestSpec)
		if !ok {
			outcomes = append(outcomes, Outcome{
				Recipe:  recipeName,
				BadTest: fmt.Errorf("%w: GenTests yielded a %T, not *sim.TestSpec", ErrBadTest, ref),
			})
			continue
		}
		outcomes = append(outcomes, s.runOne(ctx, recipe, recipeName, spec, train))
	}
	return outcomes, nil
}

func (s *Suite) runOne(ctx context.Context, recipe *manifest.Recipe, recipeName string, spec *TestSpec, train bool) Outcome {
	out := Outcome{Recipe: recipeName, Name: spec.Name}

	fakeFS := spec.FakeFS
	if fakeFS == nil {
		fakeFS = paths.NewFakeFS()
	}
	reg := paths.NewFake(fakeFS, "/start", "/cache", "/cleanup", "/tmp")

	sink := stream.NewStructuredEmitter()

	targetRecipe := spec.RecipeName
	if targetRecipe == "" {
		targetRecipe = recipeName
	}

	runResult, runErr := engine.Run(ctx, s.Deps, engine.RunOptions{
		RecipeName:   targetRecipe,
		Properties:   spec.Properties,
		Env:          spec.Env,
		Runner:       step.NewSimRunner(),
		Sink:         sink,
		Simulated:    true,
		Paths:        reg,
		Platform:     engine.Platform(spec.Platform),
		StepTestData: spec.StepTestData,
	})
	if runResult == nil {
		// A load error aborted the run before any step executed: this
		// is the harness's own failure mode, distinct from a recipe
		// terminating with a non-success status.
		out.BadTest = fmt.Errorf("%w: %w", ErrBadTest, runErr)
		return out
	}
	s.Coverage.RecordRun(recipeName)
	s.Coverage.RecordModules(runResult.InvokedModules)

	recording := &Recording{Steps: sink.Steps(), Status: runResult.Status, Summary: runResult.Summary}
	out.Recording = recording
	out.RunErr = runErr

	// A step that ran without supplied mock data is a test-authoring
	// error, never a recipe outcome: flag it before any expectation or
	// hook handling can absorb it.
	if errors.Is(runErr, step.ErrNoMockData) {
		out.BadTest = fmt.Errorf("%w: %s: %w", ErrBadTest, spec.Name, runErr)
		return out
	}

	if spec.ExpectException {
		if runErr == nil {
			out.BadTest = fmt.Errorf("%w: %s: expected an exception but the recipe returned none", ErrBadTest, spec.Name)
			return out
		}
		if spec.ExceptionIs != nil && !errors.Is(runErr, spec.ExceptionIs) {
			out.BadTest = fmt.Errorf("%w: %s: expected error matching %v, got %v", ErrBadTest, spec.Name, spec.ExceptionIs, runErr)
			return out
		}
	}

	check := &Check{}
	drop := false
	for _, hook := range spec.PostProcess {
		if hook(check, recording) {
			drop = true
		}
	}
	out.Check = check

	if drop {
		return out
	}

	if s.ExpectDir == nil {
		return out
	}
	path := ExpectationPath(s.ExpectDir(recipeName), spec.Name)
	got := recording.ToExpectation()

	want, existed, err := ReadExpectation(path)
	if err != nil {
		out.BadTest = err
		return out
	}

	if !existed || Diff(got, want) != "" {
		if train {
			if err := WriteExpectation(path, got); err != nil {
				out.BadTest = err
				return out
			}
			out.Trained = true
			return out
		}
		if existed {
			out.Diff = Diff(got, want)
		} else {
			out.Diff = fmt.Sprintf("no expectation file at %s (run with --train to create it)", path)
		}
	}

	return out
}
