// Package demo registers a handful of recipes directly in Go. They
// exist to give the CLI something runnable out of the box and to
// exercise internal/sim's harness with real GenTests implementations;
// the actual per-module domain logic a production recipe repo would
// carry is out of this core's scope.
package demo

import (
	"context"
	"fmt"

	"github.com/cruciblehq/crecipe/internal/engine"
	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/placeholder"
	"github.com/cruciblehq/crecipe/internal/registry"
	"github.com/cruciblehq/crecipe/internal/sim"
	"github.com/cruciblehq/crecipe/internal/stream"
)

// Adds every demo recipe to reg.
func Register(reg *registry.Static) {
	reg.AddRecipe(hello())
	reg.AddRecipe(conditional())
	reg.AddRecipe(greeting())
	reg.AddRecipe(parallel())
	reg.AddRecipe(output())
}

// The simplest possible recipe: one step, one expected event sequence.
func hello() *manifest.Recipe {
	say := &manifest.Step{Name: "say hello", Cmd: []any{"echo", "hello", "world"}}

	return &manifest.Recipe{
		Name:     "hello",
		DepsList: []string{"recipe_engine/step"},
		RunFn: func(api manifest.DepsView, _, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*engine.StepAPI)
			if _, err := stepAPI.Run(say); err != nil {
				return manifest.RunResult{}, err
			}
			return manifest.RunResult{Status: "success"}, nil
		},
		GenTestsFn: func() []manifest.TestSpecRef {
			return []manifest.TestSpecRef{
				&sim.TestSpec{
					Name:       "basic",
					RecipeName: "hello",
					StepTestData: map[string]func() manifest.StepTestData{
						"say hello": func() manifest.StepTestData {
							rc := 0
							return manifest.StepTestData{Retcode: &rc, StdoutLines: []string{"hello world"}}
						},
					},
					PostProcess: []sim.PostProcessHook{
						func(c *sim.Check, rec *sim.Recording) bool {
							c.That("recipe status", rec.Status, stream.StatusSuccess)
							c.True("say hello ran", rec.Has("say hello"), map[string]any{"names": rec.Names()})
							return false
						},
					},
				},
			}
		},
	}
}

// A recipe with a step opted out of raising on
// failure via ok_ret="any", branching on its retcode.
func conditional() *manifest.Recipe {
	probe := &manifest.Step{
		Name:  "probe",
		Cmd:   []any{"exit-check"},
		OkRet: manifest.AnyRet(),
	}
	victory := &manifest.Step{Name: "victory", Cmd: []any{"echo", "victory"}}
	boring := &manifest.Step{Name: "boring", Cmd: []any{"echo", "boring"}}

	return &manifest.Recipe{
		Name:     "conditional",
		DepsList: []string{"recipe_engine/step"},
		RunFn: func(api manifest.DepsView, _, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*engine.StepAPI)
			data, err := stepAPI.Run(probe)
			if err != nil {
				return manifest.RunResult{}, err
			}
			branch := boring
			if data.Retcode != nil && *data.Retcode == 0 {
				branch = victory
			}
			if _, err := stepAPI.Run(branch); err != nil {
				return manifest.RunResult{}, err
			}
			return manifest.RunResult{Status: "success"}, nil
		},
		GenTestsFn: func() []manifest.TestSpecRef {
			caseFor := func(name string, retcode int) *sim.TestSpec {
				return &sim.TestSpec{
					Name:       name,
					RecipeName: "conditional",
					StepTestData: map[string]func() manifest.StepTestData{
						"probe": func() manifest.StepTestData {
							rc := retcode
							return manifest.StepTestData{Retcode: &rc}
						},
						"victory": zeroExit,
						"boring":  zeroExit,
					},
					PostProcess: []sim.PostProcessHook{
						func(c *sim.Check, rec *sim.Recording) bool {
							hasVictory, hasBoring := rec.Has("victory"), rec.Has("boring")
							c.True("exactly one branch ran", hasVictory != hasBoring, map[string]any{
								"victory": hasVictory, "boring": hasBoring,
							})
							return false
						},
					},
				}
			}
			return []manifest.TestSpecRef{
				caseFor("victory", 0),
				caseFor("boring", 1),
			}
		},
	}
}

// The recipe PROPERTIES schema for greeting.
type GreetingProperties struct {
	Target string `json:"target"`
}

// A recipe with a property-driven step argument.
func greeting() *manifest.Recipe {
	return &manifest.Recipe{
		Name:     "greeting",
		DepsList: []string{"recipe_engine/step"},
		PropertiesSchema: func() any {
			return &GreetingProperties{Target: "World"}
		},
		RunFn: func(api manifest.DepsView, props, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*engine.StepAPI)
			target := props.(*GreetingProperties).Target

			say := &manifest.Step{Name: "greet", Cmd: []any{"echo", greetingFor(target)}}
			if _, err := stepAPI.Run(say); err != nil {
				return manifest.RunResult{}, err
			}
			return manifest.RunResult{Status: "success"}, nil
		},
		GenTestsFn: func() []manifest.TestSpecRef {
			caseFor := func(name, target string) *sim.TestSpec {
				return &sim.TestSpec{
					Name:       name,
					RecipeName: "greeting",
					Properties: map[string]any{"target": target},
					StepTestData: map[string]func() manifest.StepTestData{
						"greet": func() manifest.StepTestData {
							return manifest.StepTestData{Retcode: intPtr(0), StdoutLines: []string{greetingFor(target)}}
						},
					},
				}
			}
			return []manifest.TestSpecRef{
				caseFor("bob", "Bob"),
				caseFor("darth_vader", "DarthVader"),
			}
		},
	}
}

// A recipe that forks two futures, each running one step,
// and joins them before finishing.
func parallel() *manifest.Recipe {
	stepA := &manifest.Step{Name: "job a", Cmd: []any{"echo", "a"}}
	stepB := &manifest.Step{Name: "job b", Cmd: []any{"echo", "b"}}

	return &manifest.Recipe{
		Name:     "parallel",
		DepsList: []string{"recipe_engine/step", "recipe_engine/futures"},
		RunFn: func(api manifest.DepsView, _, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*engine.StepAPI)
			futures := api["futures"].(*engine.FuturesAPI)

			for _, s := range []*manifest.Step{stepA, stepB} {
				futures.Spawn(func(context.Context) (any, error) {
					_, err := stepAPI.Run(s)
					return nil, err
				})
			}
			if err := futures.Wait(); err != nil {
				return manifest.RunResult{}, err
			}
			return manifest.RunResult{Status: "success"}, nil
		},
		GenTestsFn: func() []manifest.TestSpecRef {
			return []manifest.TestSpecRef{
				&sim.TestSpec{
					Name:       "both",
					RecipeName: "parallel",
					StepTestData: map[string]func() manifest.StepTestData{
						"job a": zeroExit,
						"job b": zeroExit,
					},
					PostProcess: []sim.PostProcessHook{
						func(c *sim.Check, rec *sim.Recording) bool {
							names := rec.Names()
							c.True("both jobs ran", rec.Has("job a") && rec.Has("job b"), map[string]any{"names": names})
							c.Eval("creation order preserved", "a < b", map[string]any{
								"a": indexOf(names, "job a"),
								"b": indexOf(names, "job b"),
							})
							return false
						},
					},
				},
			}
		},
	}
}

// The JSON payload output() expects its first step to write.
type testResults struct {
	NumPassed int `json:"num_passed"`
}

// A recipe whose first step writes a JSON result file through an
// output placeholder, and whose follow-up step is keyed on the parsed
// value.
func output() *manifest.Recipe {
	outID := placeholder.Identity{Module: "json", Method: "output"}

	return &manifest.Recipe{
		Name:     "output",
		DepsList: []string{"recipe_engine/step", "recipe_engine/path"},
		RunFn: func(api manifest.DepsView, _, _ any) (manifest.RunResult, error) {
			stepAPI := api["step"].(*engine.StepAPI)
			pathAPI := api["path"].(*engine.PathAPI)

			out := placeholder.NewJSONOutput(pathAPI.Registry(), pathAPI.Sim(), outID, func() any { return &testResults{} })
			write := &manifest.Step{Name: "write-json", Cmd: []any{"write-json", out}}
			data, err := stepAPI.Run(write)
			if err != nil {
				return manifest.RunResult{}, err
			}

			v, ok := data.Result(outID)
			if !ok {
				return manifest.RunResult{}, fmt.Errorf("write-json produced no parsed output")
			}
			results := v.(*testResults)

			report := &manifest.Step{
				Name: "report",
				Cmd:  []any{"echo", fmt.Sprintf("%d passed", results.NumPassed)},
			}
			if _, err := stepAPI.Run(report); err != nil {
				return manifest.RunResult{}, err
			}
			return manifest.RunResult{Status: "success"}, nil
		},
		GenTestsFn: func() []manifest.TestSpecRef {
			return []manifest.TestSpecRef{
				&sim.TestSpec{
					Name:       "passes",
					RecipeName: "output",
					StepTestData: map[string]func() manifest.StepTestData{
						"write-json": func() manifest.StepTestData {
							return manifest.StepTestData{
								Retcode:         intPtr(0),
								PlaceholderData: map[string]any{"output": &testResults{NumPassed: 791}},
							}
						},
						"report": zeroExit,
					},
					PostProcess: []sim.PostProcessHook{
						func(c *sim.Check, rec *sim.Recording) bool {
							v, ok := rec.ByName("report")
							if !c.True("report step ran", ok, map[string]any{"names": rec.Names()}) {
								return false
							}
							c.That("report is keyed on the parsed value", v.Cmd[1], "791 passed")
							return false
						},
					},
				},
			}
		},
	}
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// The recipe's own business logic, not an engine concern:
// "Bob" yields a friendly greeting, "DarthVader" gets threatened instead.
func greetingFor(target string) string {
	if target == "DarthVader" {
		return fmt.Sprintf("Die in a fire %s!", target)
	}
	return fmt.Sprintf("Hello %s", target)
}

func zeroExit() manifest.StepTestData { return manifest.StepTestData{Retcode: intPtr(0)} }

func intPtr(v int) *int { return &v }
