package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/placeholder"
	"github.com/cruciblehq/crecipe/internal/stream"
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

type recordingSink struct {
	events []string
}

func (r *recordingSink) StepOpened(name string, cmd []string, env map[string]string, cwd string) {
	r.events = append(r.events, "step_opened:"+name)
}
func (r *recordingSink) StepLogLine(name, logName, line string) {
	r.events = append(r.events, "step_log_line:"+name+":"+line)
}
func (r *recordingSink) StepSetText(string, string)       {}
func (r *recordingSink) StepSetSummary(string, string)    {}
func (r *recordingSink) StepSetLink(string, string, string) {}
func (r *recordingSink) StepSetProperty(name, key string, _ any) {
	r.events = append(r.events, "step_set_property:"+name+":"+key)
}
func (r *recordingSink) StepClosed(name string, status stream.Status, details string) {
	r.events = append(r.events, "step_closed:"+name+":"+string(status))
}
func (r *recordingSink) RecipeEnded(status stream.Status, summary string) {
	r.events = append(r.events, "recipe_ended:"+string(status))
}

func TestRunScenarioAHello(t *testing.T) {
	helloStep := &manifest.Step{
		Name: "say hello",
		Cmd:  []any{"echo", "hello world"},
	}

	recipe := &manifest.Recipe{
		Name: "hello",
		Deps: map[string]manifest.ModuleRef{"step": StepModuleRef},
		RunFn: func(api manifest.DepsView, props, envProps any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*StepAPI)
			if _, err := stepAPI.Run(helloStep); err != nil {
				return manifest.RunResult{}, err
			}
			return manifest.RunResult{Status: "success"}, nil
		},
	}

	deps := &fakeDeps{
		recipes: map[string]*manifest.Recipe{"hello": recipe},
		modules: map[manifest.ModuleRef]*manifest.Module{},
	}
	sink := &recordingSink{}

	result, runErr := Run(context.Background(), deps, RunOptions{
		RecipeName: "hello",
		Sink:       sink,
	})
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	if result.Status != stream.StatusSuccess {
		t.Fatalf("got status %v, want success", result.Status)
	}

	want := []string{
		"step_opened:say hello",
		"step_log_line:say hello:hello world",
		"step_closed:say hello:success",
		"recipe_ended:success",
	}
	if len(sink.events) != len(want) {
		t.Fatalf("got events %v, want %v", sink.events, want)
	}
	for i := range want {
		if sink.events[i] != want[i] {
			t.Fatalf("event %d: got %q, want %q", i, sink.events[i], want[i])
		}
	}
}

func TestRunReportsUnknownRecipe(t *testing.T) {
	deps := &fakeDeps{recipes: map[string]*manifest.Recipe{}}
	_, err := Run(context.Background(), deps, RunOptions{RecipeName: "missing", Simulated: true})
	if err == nil {
		t.Fatal("expected error for unknown recipe")
	}
}

func TestRunRejectsOrphanStep(t *testing.T) {
	orphan := &manifest.Step{Name: "parent|child", Cmd: []any{"echo", "hi"}}

	recipe := &manifest.Recipe{
		Name: "orphan",
		Deps: map[string]manifest.ModuleRef{"step": StepModuleRef},
		RunFn: func(api manifest.DepsView, _, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*StepAPI)
			_, err := stepAPI.Run(orphan)
			return manifest.RunResult{}, err
		},
	}

	deps := &fakeDeps{
		recipes: map[string]*manifest.Recipe{"orphan": recipe},
		modules: map[manifest.ModuleRef]*manifest.Module{},
	}

	_, runErr := Run(context.Background(), deps, RunOptions{
		RecipeName: "orphan",
		Sink:       &recordingSink{},
	})
	if !errors.Is(runErr, ErrLoad) || !errors.Is(runErr, manifest.ErrOrphanStep) {
		t.Fatalf("got err %v, want wrapped ErrLoad and manifest.ErrOrphanStep", runErr)
	}
}

func TestRunAccumulatesModuleWarnings(t *testing.T) {
	warnMod := manifest.ModuleRef{Repo: "r", Name: "warn"}
	quietMod := manifest.ModuleRef{Repo: "r", Name: "quiet"}

	recipe := &manifest.Recipe{
		Name: "warns",
		Deps: map[string]manifest.ModuleRef{"warn": warnMod, "quiet": quietMod},
		RunFn: func(manifest.DepsView, any, any) (manifest.RunResult, error) {
			return manifest.RunResult{Status: "success"}, nil
		},
	}

	deps := &fakeDeps{
		recipes: map[string]*manifest.Recipe{"warns": recipe},
		modules: map[manifest.ModuleRef]*manifest.Module{
			warnMod: {
				Ref:      warnMod,
				Warnings: []string{"deprecated_api"},
				ApiFactory: func(manifest.DepsView, any, any, any, any) (any, error) {
					return struct{}{}, nil
				},
			},
			quietMod: {
				Ref: quietMod,
				ApiFactory: func(manifest.DepsView, any, any, any, any) (any, error) {
					return struct{}{}, nil
				},
			},
		},
	}

	result, runErr := Run(context.Background(), deps, RunOptions{
		RecipeName: "warns",
		Sink:       &recordingSink{},
	})
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	if len(result.Warnings) != 1 || result.Warnings[0] != "deprecated_api" {
		t.Fatalf("got warnings %v, want [deprecated_api]", result.Warnings)
	}
}

func TestRunPopulatesStepDataStdout(t *testing.T) {
	id := placeholder.Identity{Module: "step", Method: "stdout"}
	capture := &manifest.Step{
		Name:   "capture",
		Cmd:    []any{"echo", "hi"},
		Stdout: placeholder.NewStreamOutput(id),
	}

	var gotStdout any
	recipe := &manifest.Recipe{
		Name: "capture",
		Deps: map[string]manifest.ModuleRef{"step": StepModuleRef},
		RunFn: func(api manifest.DepsView, _, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*StepAPI)
			data, err := stepAPI.Run(capture)
			if err != nil {
				return manifest.RunResult{}, err
			}
			gotStdout = data.Stdout
			return manifest.RunResult{Status: "success"}, nil
		},
	}

	deps := &fakeDeps{
		recipes: map[string]*manifest.Recipe{"capture": recipe},
		modules: map[manifest.ModuleRef]*manifest.Module{},
	}

	retcode := 0
	_, runErr := Run(context.Background(), deps, RunOptions{
		RecipeName: "capture",
		Sink:       &recordingSink{},
		Simulated:  true,
		StepTestData: map[string]func() manifest.StepTestData{
			"capture": func() manifest.StepTestData {
				return manifest.StepTestData{
					Retcode:         &retcode,
					PlaceholderData: map[string]any{"stdout": []byte("captured")},
				}
			},
		},
	})
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	if gotStdout == nil || string(gotStdout.([]byte)) != "captured" {
		t.Fatalf("got StepData.Stdout %v, want %q", gotStdout, "captured")
	}
}

func TestRunTimedOutStepEndsCanceled(t *testing.T) {
	slow := &manifest.Step{Name: "sleep", Cmd: []any{"sleep", "60"}}

	recipe := &manifest.Recipe{
		Name: "timeout",
		Deps: map[string]manifest.ModuleRef{"step": StepModuleRef},
		RunFn: func(api manifest.DepsView, _, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*StepAPI)
			_, err := stepAPI.Run(slow)
			return manifest.RunResult{}, err
		},
	}

	deps := &fakeDeps{
		recipes: map[string]*manifest.Recipe{"timeout": recipe},
		modules: map[manifest.ModuleRef]*manifest.Module{},
	}
	sink := &recordingSink{}

	result, runErr := Run(context.Background(), deps, RunOptions{
		RecipeName: "timeout",
		Sink:       sink,
		Simulated:  true,
		StepTestData: map[string]func() manifest.StepTestData{
			"sleep": func() manifest.StepTestData {
				return manifest.StepTestData{WasTimeout: true}
			},
		},
	})

	var c *Cancellation
	if !errors.As(runErr, &c) || !c.WasTimeout {
		t.Fatalf("got err %v, want a timeout Cancellation", runErr)
	}
	if result.Status != stream.StatusCanceled {
		t.Fatalf("got status %v, want canceled", result.Status)
	}
	last := sink.events[len(sink.events)-1]
	if last != "recipe_ended:canceled" {
		t.Fatalf("got final event %q, want recipe_ended:canceled", last)
	}
}

func TestRunDiscriminatesInfraFailure(t *testing.T) {
	flaky := &manifest.Step{Name: "flaky", Cmd: []any{"flaky-tool"}, InfraStep: true}

	recipe := &manifest.Recipe{
		Name: "infra",
		Deps: map[string]manifest.ModuleRef{"step": StepModuleRef},
		RunFn: func(api manifest.DepsView, _, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*StepAPI)
			_, err := stepAPI.Run(flaky)
			return manifest.RunResult{}, err
		},
	}

	deps := &fakeDeps{
		recipes: map[string]*manifest.Recipe{"infra": recipe},
		modules: map[manifest.ModuleRef]*manifest.Module{},
	}

	retcode := 1
	result, runErr := Run(context.Background(), deps, RunOptions{
		RecipeName: "infra",
		Sink:       &recordingSink{},
		Simulated:  true,
		StepTestData: map[string]func() manifest.StepTestData{
			"flaky": func() manifest.StepTestData {
				return manifest.StepTestData{Retcode: &retcode}
			},
		},
	})

	var sif *StepInfraFailure
	var sf *StepFailure
	if !errors.As(runErr, &sif) {
		t.Fatalf("got err %v, want StepInfraFailure", runErr)
	}
	if errors.As(runErr, &sf) {
		t.Fatal("infra failure must not also match StepFailure")
	}
	if result.Status != stream.StatusInfraFailure {
		t.Fatalf("got status %v, want infra_failure", result.Status)
	}
}

func TestRunClosesPresentationWhenNextStepOpens(t *testing.T) {
	first := &manifest.Step{Name: "first", Cmd: []any{"echo", "1"}}
	second := &manifest.Step{Name: "second", Cmd: []any{"echo", "2"}}

	var closedErr error
	recipe := &manifest.Recipe{
		Name: "window",
		Deps: map[string]manifest.ModuleRef{"step": StepModuleRef},
		RunFn: func(api manifest.DepsView, _, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*StepAPI)
			data, err := stepAPI.Run(first)
			if err != nil {
				return manifest.RunResult{}, err
			}
			if err := data.Presentation.SetText("still open"); err != nil {
				return manifest.RunResult{}, err
			}
			if _, err := stepAPI.Run(second); err != nil {
				return manifest.RunResult{}, err
			}
			closedErr = data.Presentation.SetText("too late")
			return manifest.RunResult{Status: "success"}, nil
		},
	}

	deps := &fakeDeps{
		recipes: map[string]*manifest.Recipe{"window": recipe},
		modules: map[manifest.ModuleRef]*manifest.Module{},
	}

	retcode := 0
	mock := func() manifest.StepTestData { return manifest.StepTestData{Retcode: &retcode} }
	_, runErr := Run(context.Background(), deps, RunOptions{
		RecipeName:   "window",
		Sink:         &recordingSink{},
		Simulated:    true,
		StepTestData: map[string]func() manifest.StepTestData{"first": mock, "second": mock},
	})
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}
	if !errors.Is(closedErr, stream.ErrClosed) {
		t.Fatalf("got %v, want stream.ErrClosed once the next step opened", closedErr)
	}
}

func TestRunRejectsEmptyCmd(t *testing.T) {
	empty := &manifest.Step{Name: "empty", Cmd: nil}

	recipe := &manifest.Recipe{
		Name: "empty",
		Deps: map[string]manifest.ModuleRef{"step": StepModuleRef},
		RunFn: func(api manifest.DepsView, _, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*StepAPI)
			_, err := stepAPI.Run(empty)
			return manifest.RunResult{}, err
		},
	}

	deps := &fakeDeps{
		recipes: map[string]*manifest.Recipe{"empty": recipe},
		modules: map[manifest.ModuleRef]*manifest.Module{},
	}

	_, runErr := Run(context.Background(), deps, RunOptions{
		RecipeName: "empty",
		Sink:       &recordingSink{},
		Simulated:  true,
	})
	if !errors.Is(runErr, ErrLoad) || !errors.Is(runErr, manifest.ErrEmptyCmd) {
		t.Fatalf("got err %v, want wrapped ErrLoad and manifest.ErrEmptyCmd", runErr)
	}
}

func TestRunEmitsTriggerSpecsAndStepData(t *testing.T) {
	say := &manifest.Step{
		Name:         "say",
		Cmd:          []any{"echo", "hi"},
		TriggerSpecs: []manifest.TriggerSpec{manifest.TriggerSpec(`{"builder":"x"}`)},
	}

	var gotTriggerSpecs []manifest.TriggerSpec
	recipe := &manifest.Recipe{
		Name: "triggers",
		Deps: map[string]manifest.ModuleRef{"step": StepModuleRef},
		RunFn: func(api manifest.DepsView, _, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*StepAPI)
			data, err := stepAPI.Run(say)
			if err != nil {
				return manifest.RunResult{}, err
			}
			gotTriggerSpecs = data.TriggerSpecs
			return manifest.RunResult{Status: "success"}, nil
		},
	}

	deps := &fakeDeps{
		recipes: map[string]*manifest.Recipe{"triggers": recipe},
		modules: map[manifest.ModuleRef]*manifest.Module{},
	}
	sink := &recordingSink{}

	if _, runErr := Run(context.Background(), deps, RunOptions{RecipeName: "triggers", Sink: sink}); runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}

	if len(gotTriggerSpecs) != 1 {
		t.Fatalf("got StepData.TriggerSpecs %v, want 1 entry", gotTriggerSpecs)
	}

	found, emitted := false, false
	for _, e := range sink.events {
		if e == "step_opened:say" {
			found = true
		}
		if e == "step_set_property:say:trigger_specs" {
			emitted = true
		}
	}
	if !found {
		t.Fatal("expected step_opened event for say")
	}
	if !emitted {
		t.Fatal("expected a step_set_property event for say under the trigger_specs key")
	}
}

func TestStepAPIScopeDerivation(t *testing.T) {
	var fromDerived, fromOriginal map[string]string
	inner := &manifest.Step{Name: "inner", Cmd: []any{"env"}}
	outer := &manifest.Step{Name: "outer", Cmd: []any{"env"}}

	recipe := &manifest.Recipe{
		Name: "scoped",
		Deps: map[string]manifest.ModuleRef{"step": StepModuleRef},
		RunFn: func(api manifest.DepsView, _, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*StepAPI)
			scoped := stepAPI.WithEnv(map[string]string{"SCOPED": "yes"}).WithCwd("/scoped")
			if _, err := scoped.Run(inner); err != nil {
				return manifest.RunResult{}, err
			}
			if _, err := stepAPI.Run(outer); err != nil {
				return manifest.RunResult{}, err
			}
			return manifest.RunResult{Status: "success"}, nil
		},
	}

	deps := &fakeDeps{
		recipes: map[string]*manifest.Recipe{"scoped": recipe},
		modules: map[manifest.ModuleRef]*manifest.Module{},
	}

	sink := &envSink{}
	retcode := 0
	mock := func() manifest.StepTestData { return manifest.StepTestData{Retcode: &retcode} }
	_, runErr := Run(context.Background(), deps, RunOptions{
		RecipeName:   "scoped",
		Sink:         sink,
		Simulated:    true,
		StepTestData: map[string]func() manifest.StepTestData{"inner": mock, "outer": mock},
	})
	if runErr != nil {
		t.Fatalf("Run: %v", runErr)
	}

	fromDerived, fromOriginal = sink.envs["inner"], sink.envs["outer"]
	if fromDerived["SCOPED"] != "yes" {
		t.Fatalf("inner env %v, want the derived scope's override", fromDerived)
	}
	if _, leaked := fromOriginal["SCOPED"]; leaked {
		t.Fatal("the derived scope's override leaked into the original API")
	}
	if sink.cwds["inner"] != "/scoped" {
		t.Fatalf("inner cwd %q, want /scoped", sink.cwds["inner"])
	}
	if sink.cwds["outer"] == "/scoped" {
		t.Fatal("the derived cwd leaked into the original API")
	}
}

// Records the env and cwd each step_opened event carried, keyed
// by step name.
type envSink struct {
	recordingSink
	envs map[string]map[string]string
	cwds map[string]string
}

func (s *envSink) StepOpened(name string, cmd []string, env map[string]string, cwd string) {
	if s.envs == nil {
		s.envs = make(map[string]map[string]string)
		s.cwds = make(map[string]string)
	}
	s.envs[name] = env
	s.cwds[name] = cwd
	s.recordingSink.StepOpened(name, cmd, env, cwd)
}
