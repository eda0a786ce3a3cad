package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/cruciblehq/crecipe/internal/concurrency"
	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/module"
	"github.com/cruciblehq/crecipe/internal/paths"
	"github.com/cruciblehq/crecipe/internal/placeholder"
	"github.com/cruciblehq/crecipe/internal/properties"
	"github.com/cruciblehq/crecipe/internal/step"
	"github.com/cruciblehq/crecipe/internal/stream"
)

// Configures one recipe invocation.
type RunOptions struct {
	RecipeName string
	Properties map[string]any
	Env        []string

	Runner    step.Runner // nil selects RealRunner, or SimRunner when Simulated
	Sink      stream.Sink // nil selects a fresh StructuredEmitter
	Simulated bool

	// Paths, when nil, defaults to a real OS-backed registry (real runs)
	// or an empty fake one (simulated runs) rooted at synthetic names.
	Paths *paths.Registry

	Deadline time.Time
	Grace    time.Duration

	// Platform, when zero, defaults to the actual host for real runs and
	// to a fixed linux-64 host for simulated runs, so recordings are
	// host-independent.
	Platform Platform

	TestData module.TestDataLookup // consulted only when Simulated

	// StepTestData supplies mock ExecutionResult data keyed by step
	// name, for steps whose manifest.Step literal does not already
	// carry its own StepTestData closure. Consulted only by StepAPI.Run.
	StepTestData map[string]func() manifest.StepTestData
}

// The recipe's terminal outcome.
type RunResult struct {
	Status  stream.Status
	Summary string

	// InvokedModules is the module instantiation order actually built
	// for this run, for invocation-coverage reporting.
	InvokedModules []manifest.ModuleRef

	// Warnings collects, in module instantiation order, the warning
	// names attributed to every module actually reachable in this run's
	// dependency graph.
	Warnings []string
}

// Drives one recipe invocation end to end: resolve, bind, build the
// arena, call the recipe's RunFn, close the last presentation, and emit
// recipe_ended.
func Run(ctx context.Context, deps manifest.RecipeDeps, opts RunOptions) (*RunResult, error) {
	recipe, ok := deps.Recipe(opts.RecipeName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown recipe %q", ErrLoad, opts.RecipeName)
	}
	if recipe.RunFn == nil {
		return nil, fmt.Errorf("%w: recipe %q declares no run function", ErrLoad, opts.RecipeName)
	}

	runner := opts.Runner
	if runner == nil {
		if opts.Simulated {
			runner = step.NewSimRunner()
		} else {
			runner = step.NewRealRunner()
		}
	}
	sink := opts.Sink
	if sink == nil {
		sink = stream.NewStructuredEmitter()
	}

	scope := concurrency.NewScope(ctx, concurrency.Options{
		Deadline:  opts.Deadline,
		Grace:     opts.Grace,
		Simulated: opts.Simulated,
	})
	window := newPresentationWindow(sink)
	results := placeholder.NewResultSet()

	reg := opts.Paths
	if reg == nil {
		reg = defaultRegistry(opts.Simulated)
	}

	wrapped := &builtinDeps{
		inner:    deps,
		builtins: builtinModules(runner, window, sink, scope, results, opts.Env, opts.StepTestData, reg, defaultPlatform(opts.Platform, opts.Simulated), opts.Simulated),
	}

	order, recipeDeps, err := module.ResolveRecipe(wrapped, recipe)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	targets := make([]properties.Target, 0, len(order)+1)
	for _, m := range order {
		if m.PropertiesSchema == nil && m.GlobalPropertiesSchema == nil && m.EnvPropertiesSchema == nil {
			continue
		}
		targets = append(targets, properties.Target{
			Ref:                    m.Ref,
			PropertiesSchema:       m.PropertiesSchema,
			GlobalPropertiesSchema: m.GlobalPropertiesSchema,
			EnvPropertiesSchema:    m.EnvPropertiesSchema,
		})
	}
	targets = append(targets, properties.Target{
		PropertiesSchema:    recipe.PropertiesSchema,
		EnvPropertiesSchema: recipe.EnvPropertiesSchema,
	})

	bound, err := properties.Bind(opts.Properties, opts.Env, targets)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	lookup := func(ref manifest.ModuleRef) (props, global, env any) { return bound.For(ref) }
	arena, err := module.Build(order, lookup, opts.TestData, opts.Simulated)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	view, err := arena.View(recipeDeps)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	recipeProps, _, recipeEnvProps := bound.For(manifest.ModuleRef{})

	runResult, runErr := recipe.RunFn(view, recipeProps, recipeEnvProps)
	// Join any futures the recipe left unawaited before declaring the
	// run over; a straggler's failure still counts against the recipe.
	if werr := scope.Wait(); werr != nil && runErr == nil {
		runErr = werr
	}
	window.CloseCurrent()
	_ = reg.Cleanup()

	status, summary := finalize(runResult, runErr)
	sink.RecipeEnded(status, summary)

	invoked := make([]manifest.ModuleRef, len(order))
	var warnings []string
	seen := make(map[string]bool)
	for i, m := range order {
		invoked[i] = m.Ref
		for _, w := range m.Warnings {
			if seen[w] {
				continue
			}
			seen[w] = true
			warnings = append(warnings, w)
		}
	}

	return &RunResult{Status: status, Summary: summary, InvokedModules: invoked, Warnings: warnings}, runErr
}

// Fills in the platform a recipe observes when the caller did
// not configure one.
func defaultPlatform(p Platform, simulated bool) Platform {
	if p != (Platform{}) {
		return p
	}
	if simulated {
		return Platform{OS: "linux", Bits: 64, Arch: "intel"}
	}
	bits := 32
	if strconv.IntSize == 64 {
		bits = 64
	}
	return Platform{OS: runtime.GOOS, Bits: bits, Arch: runtime.GOARCH}
}

// Builds a path registry rooted at the real filesystem
// (for a real run) or an empty in-memory fake (for a simulated run),
// used when a caller does not supply its own via RunOptions.Paths.
func defaultRegistry(simulated bool) *paths.Registry {
	if simulated {
		return paths.NewFake(paths.NewFakeFS(), "/start", "/cache", "/cleanup", "/tmp")
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return paths.New(cwd, os.TempDir(), os.TempDir(), os.TempDir())
}

func finalize(result manifest.RunResult, err error) (stream.Status, string) {
	if err != nil {
		var sf *StepFailure
		var sif *StepInfraFailure
		var c *Cancellation
		var pf *PlaceholderFailure
		switch {
		case errors.As(err, &sf):
			return stream.StatusFailure, sf.Error()
		case errors.As(err, &sif):
			return stream.StatusInfraFailure, sif.Error()
		case errors.As(err, &c):
			return stream.StatusCanceled, c.Error()
		case errors.As(err, &pf):
			return stream.StatusException, pf.Error()
		default:
			return stream.StatusException, err.Error()
		}
	}
	if result.Status != "" {
		return stream.Status(result.Status), result.Summary
	}
	return stream.StatusSuccess, result.Summary
}
