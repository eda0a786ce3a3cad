package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/cruciblehq/crecipe/internal/engine"
	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/step"
)

type fakeDeps struct {
	recipes map[string]*manifest.Recipe
	modules map[manifest.ModuleRef]*manifest.Module
}

func (f *fakeDeps) Repo(string) (manifest.RepoRef, bool) { return manifest.RepoRef{}, false }
func (f *fakeDeps) HomeRepo(manifest.ModuleRef) string { return "" }

func (f *fakeDeps) Recipe(name string) (*manifest.Recipe, bool) {
	r, ok := f.recipes[name]
	return r, ok
}

func (f *fakeDeps) Module(ref manifest.ModuleRef) (*manifest.Module, bool) {
	m, ok := f.modules[ref]
	return m, ok
}

func helloRecipe() *manifest.Recipe {
	say := &manifest.Step{Name: "say hello", Cmd: []any{"echo", "hello", "world"}}
	return &manifest.Recipe{
		Name: "hello",
		Deps: map[string]manifest.ModuleRef{"step": engine.StepModuleRef},
		RunFn: func(api manifest.DepsView, _, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*engine.StepAPI)
			if _, err := stepAPI.Run(say); err != nil {
				return manifest.RunResult{}, err
			}
			return manifest.RunResult{Status: "success"}, nil
		},
		GenTestsFn: func() []manifest.TestSpecRef {
			return []manifest.TestSpecRef{
				&TestSpec{
					Name:       "basic",
					RecipeName: "hello",
					StepTestData: map[string]func() manifest.StepTestData{
						"say hello": func() manifest.StepTestData {
							rc := 0
							return manifest.StepTestData{Retcode: &rc, StdoutLines: []string{"hello world"}}
						},
					},
				},
			}
		},
	}
}

func newHelloDeps() *fakeDeps {
	return &fakeDeps{recipes: map[string]*manifest.Recipe{"hello": helloRecipe()}}
}

func TestSuiteTrainThenRunYieldsNoDiff(t *testing.T) {
	dir := t.TempDir()
	expectDir := func(string) string { return dir }

	train := NewSuite(newHelloDeps(), expectDir)
	outcomes, err := train.RunRecipe(context.Background(), "hello", true)
	if err != nil {
		t.Fatalf("RunRecipe (train): %v", err)
	}
	if len(outcomes) != 1 || !outcomes[0].Trained {
		t.Fatalf("expected one trained outcome, got %+v", outcomes)
	}

	verify := NewSuite(newHelloDeps(), expectDir)
	outcomes, err = verify.RunRecipe(context.Background(), "hello", false)
	if err != nil {
		t.Fatalf("RunRecipe (verify): %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	out := outcomes[0]
	if !out.Passed() {
		t.Fatalf("expected the retrained expectation to match: diff=%q badTest=%v check=%v", out.Diff, out.BadTest, out.Check)
	}
}

func TestSuiteRecordsCoverage(t *testing.T) {
	dir := t.TempDir()
	suite := NewSuite(newHelloDeps(), func(string) string { return dir })

	if _, err := suite.RunRecipe(context.Background(), "hello", true); err != nil {
		t.Fatalf("RunRecipe: %v", err)
	}

	report := suite.Coverage.Report([]string{"hello"}, []manifest.ModuleRef{engine.StepModuleRef})
	if !report.Empty() {
		t.Fatalf("expected full coverage after running hello, got %+v", report)
	}
}

func TestSuiteUnknownRecipeIsBadTest(t *testing.T) {
	suite := NewSuite(&fakeDeps{recipes: map[string]*manifest.Recipe{}}, nil)
	if _, err := suite.RunRecipe(context.Background(), "missing", false); err == nil {
		t.Fatal("expected an error for an unknown recipe")
	}
}

func TestSuiteFlagsMissingMockAsBadTest(t *testing.T) {
	recipe := helloRecipe()
	// A test case that forgot to mock the step its recipe runs.
	recipe.GenTestsFn = func() []manifest.TestSpecRef {
		return []manifest.TestSpecRef{
			&TestSpec{Name: "forgot_mock", RecipeName: "hello"},
		}
	}
	deps := &fakeDeps{recipes: map[string]*manifest.Recipe{"hello": recipe}}

	suite := NewSuite(deps, nil)
	outcomes, err := suite.RunRecipe(context.Background(), "hello", false)
	if err != nil {
		t.Fatalf("RunRecipe: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	out := outcomes[0]
	if out.BadTest == nil || !errors.Is(out.BadTest, ErrBadTest) {
		t.Fatalf("got BadTest %v, want the forgotten mock flagged as a bad test", out.BadTest)
	}
	if !errors.Is(out.BadTest, step.ErrNoMockData) {
		t.Fatalf("got BadTest %v, want the ErrNoMockData cause preserved", out.BadTest)
	}
	if out.Passed() {
		t.Fatal("a test case with a forgotten mock must not pass")
	}
}
