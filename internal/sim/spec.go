package sim

import (
	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/paths"
)

// Describes the simulated host a TestSpec pretends to run on.
// The zero value means the engine's deterministic simulation default
// (linux-64).
type Platform struct {
	OS   string
	Bits int
	Arch string
}

// Inspects (and may filter) the recorded step sequence
// before it is compared against the golden expectation file. Returning
// drop=true discards the expectation comparison for this spec entirely
// (the hook took full responsibility for asserting on the recording).
type PostProcessHook func(c *Check, steps *Recording) (drop bool)

// Is one test case a recipe's GenTests yields.
type TestSpec struct {
	Name       string
	RecipeName string

	Properties map[string]any
	Env        []string

	StepTestData map[string]func() manifest.StepTestData

	FakeFS   *paths.FakeFS
	Platform Platform

	PostProcess []PostProcessHook

	ExpectException bool
	ExceptionIs     error // checked with errors.Is against the run's returned error
}
