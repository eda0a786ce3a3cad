package cli

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/cruciblehq/crecipe/internal/registry"
	"github.com/cruciblehq/crecipe/internal/sim"
)

// The `crecipe test` command group.
type TestCmd struct {
	Run   TestRunCmd   `cmd:"" help:"Run simulation tests; exit nonzero unless every case passes."`
	Train TestTrainCmd `cmd:"" help:"Run simulation tests, rewriting any golden file that differs."`
}

// Implements `crecipe test run [--filter regex] [--stop]`.
type TestRunCmd struct {
	Filter string `help:"Only run recipes whose name matches this regex." placeholder:"REGEX"`
	Stop   bool   `help:"Stop at the first failing test case."`
}

func (c *TestRunCmd) Run(ctx context.Context, deps *registry.Static, expectDir sim.ExpectDir) error {
	return runTests(ctx, deps, expectDir, c.Filter, c.Stop, false)
}

// Implements `crecipe test train [--filter regex]`.
type TestTrainCmd struct {
	Filter string `help:"Only run recipes whose name matches this regex." placeholder:"REGEX"`
}

func (c *TestTrainCmd) Run(ctx context.Context, deps *registry.Static, expectDir sim.ExpectDir) error {
	return runTests(ctx, deps, expectDir, c.Filter, false, true)
}

func runTests(ctx context.Context, deps *registry.Static, expectDir sim.ExpectDir, filter string, stop, train bool) error {
	re, err := compileFilter(filter)
	if err != nil {
		return err
	}

	suite := sim.NewSuite(deps, expectDir)

	var failed int
	var trained int
	for _, name := range sortedRecipeNames(deps) {
		if re != nil && !re.MatchString(name) {
			continue
		}

		outcomes, err := suite.RunRecipe(ctx, name, train)
		if err != nil {
			log.Error().Str("recipe", name).Err(err).Msg("could not run recipe test cases")
			failed++
			if stop {
				break
			}
			continue
		}

		for _, out := range outcomes {
			logOutcome(name, out)
			if out.Trained {
				trained++
			}
			if !out.Passed() {
				failed++
				if stop {
					break
				}
			}
		}
		if stop && failed > 0 {
			break
		}
	}

	report := suite.Coverage.Report(deps.RecipeNames(), deps.ModuleRefs())
	if !report.Empty() {
		log.Warn().
			Strs("uncalled_recipes", report.UncalledRecipes).
			Int("uncalled_modules", len(report.UncalledModules)).
			Msg("invocation coverage gap")
	}

	if trained > 0 {
		log.Info().Int("count", trained).Msg("golden expectations trained")
	}
	if failed > 0 {
		return fmt.Errorf("%d test case(s) failed", failed)
	}
	if !train && !report.Empty() {
		return fmt.Errorf("invocation coverage incomplete: %d recipe(s), %d module(s) uncalled", len(report.UncalledRecipes), len(report.UncalledModules))
	}
	return nil
}

func logOutcome(recipe string, out sim.Outcome) {
	ev := log.Info()
	if !out.Passed() {
		ev = log.Error()
	}
	ev = ev.Str("recipe", recipe).Str("case", out.Name)
	if out.BadTest != nil {
		ev.Err(out.BadTest).Msg("bad test")
		return
	}
	if out.Check != nil && !out.Check.OK() {
		for _, f := range out.Check.Failures {
			log.Error().Str("recipe", recipe).Str("case", out.Name).Str("failure", f.String()).Msg("assertion failed")
		}
	}
	if out.Diff != "" {
		ev.Str("diff", out.Diff).Msg("expectation mismatch")
		return
	}
	if out.Trained {
		ev.Msg("trained")
		return
	}
	ev.Msg("passed")
}

func compileFilter(filter string) (*regexp.Regexp, error) {
	if filter == "" {
		return nil, nil
	}
	re, err := regexp.Compile(filter)
	if err != nil {
		return nil, fmt.Errorf("--filter: %w", err)
	}
	return re, nil
}

func sortedRecipeNames(deps *registry.Static) []string {
	names := deps.RecipeNames()
	sort.Strings(names)
	return names
}
