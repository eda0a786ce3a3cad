package sim

import (
	"sort"
	"sync"

	"github.com/cruciblehq/crecipe/internal/manifest"
)

// Tracks invocation coverage across a `test run` pass: which
// recipe entry points and which modules were actually exercised by at
// least one test case. This approximates a full line-coverage bar with
// the simplification recorded in DESIGN.md: line-level tracking needs
// compiler instrumentation this repo cannot run.
type Coverage struct {
	mu               sync.Mutex
	recipesRun       map[string]bool
	recipesGenTested map[string]bool
	modulesInvoked   map[manifest.ModuleRef]bool
}

// Returns an empty coverage tracker.
func NewCoverage() *Coverage {
	return &Coverage{
		recipesRun:       make(map[string]bool),
		recipesGenTested: make(map[string]bool),
		modulesInvoked:   make(map[manifest.ModuleRef]bool),
	}
}

// Marks recipe as having had its RunFn invoked at least once.
func (c *Coverage) RecordRun(recipe string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recipesRun[recipe] = true
}

// Marks recipe as having had its GenTestsFn invoked.
func (c *Coverage) RecordGenTests(recipe string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recipesGenTested[recipe] = true
}

// Marks every ref in refs as instantiated during some run.
func (c *Coverage) RecordModules(refs []manifest.ModuleRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ref := range refs {
		c.modulesInvoked[ref] = true
	}
}

// The uncalled-entry-point summary Coverage.Report produces.
type Report struct {
	UncalledRecipes []string
	UncalledModules []manifest.ModuleRef
}

// Reports whether every named recipe and module was exercised.
func (r Report) Empty() bool {
	return len(r.UncalledRecipes) == 0 && len(r.UncalledModules) == 0
}

// Compares what was actually invoked against the universe of
// recipe names and module refs the caller declares should be covered,
// and returns the uncalled set, sorted for stable output.
func (c *Coverage) Report(recipes []string, modules []manifest.ModuleRef) Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rep Report
	for _, name := range recipes {
		if !c.recipesRun[name] {
			rep.UncalledRecipes = append(rep.UncalledRecipes, name)
		}
	}
	for _, ref := range modules {
		if !c.modulesInvoked[ref] {
			rep.UncalledModules = append(rep.UncalledModules, ref)
		}
	}
	sort.Strings(rep.UncalledRecipes)
	sort.Slice(rep.UncalledModules, func(i, j int) bool {
		return rep.UncalledModules[i].String() < rep.UncalledModules[j].String()
	})
	return rep
}
