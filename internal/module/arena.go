package module

import (
	"fmt"

	"github.com/cruciblehq/crecipe/internal/manifest"
)

// Supplies a module's bound PROPERTIES, GLOBAL_PROPERTIES,
// and ENV_PROPERTIES messages (as produced by internal/properties).
type PropsLookup func(ref manifest.ModuleRef) (props, global, env any)

// Supplies a module's recorded test data for simulation
// runs, or nil when a module carries none.
type TestDataLookup func(ref manifest.ModuleRef) any

// One constructed module: its api singleton and, under
// simulation, the test api object attached as a side channel.
type Instance struct {
	API     any
	TestAPI any // non-nil only under simulation, for modules declaring a TestApiFactory.
}

// The set of instantiated module singletons, keyed by
// ModuleRef, built in dependency order so that every module's DEPS are
// already present by the time it is constructed.
type Arena map[manifest.ModuleRef]*Instance

// Instantiates every module in order (which must already be in
// dependency-first order, e.g. from Resolve) into an Arena. Every
// module's ApiFactory runs regardless of mode; under simulation a
// module's TestApiFactory additionally runs and its result is attached
// to the instance as a side channel.
func Build(order []*manifest.Module, lookup PropsLookup, testData TestDataLookup, sim bool) (Arena, error) {
	arena := make(Arena, len(order))

	for _, m := range order {
		view := make(manifest.DepsView, len(m.Deps))
		for alias, ref := range m.Deps {
			inst, ok := arena[ref]
			if !ok {
				return nil, fmt.Errorf("%w: %s depends on unbuilt %s", ErrMissingModule, m.Ref, ref)
			}
			view[alias] = inst.API
		}

		props, global, env := lookup(m.Ref)
		var td any
		if testData != nil {
			td = testData(m.Ref)
		}
		api, err := m.ApiFactory(view, props, global, env, td)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrApiFactory, m.Ref, err)
		}

		inst := &Instance{API: api}
		if sim && m.TestApiFactory != nil {
			inst.TestAPI = m.TestApiFactory(view)
		}
		arena[m.Ref] = inst
	}

	for _, m := range order {
		if m.Initialize == nil {
			continue
		}
		if err := m.Initialize(arena[m.Ref].API); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInitialize, m.Ref, err)
		}
	}

	return arena, nil
}

// Builds a DepsView over aliases into arena, for use by the entry
// recipe's own DEPS (which are not themselves a Module).
func (a Arena) View(deps map[string]manifest.ModuleRef) (manifest.DepsView, error) {
	view := make(manifest.DepsView, len(deps))
	for alias, ref := range deps {
		inst, ok := a[ref]
		if !ok {
			return nil, fmt.Errorf("%w: recipe depends on unbuilt %s", ErrMissingModule, ref)
		}
		view[alias] = inst.API
	}
	return view, nil
}

// Returns the side-channel test api attached to ref's instance,
// if this arena was built under simulation and the module declared one.
func (a Arena) TestAPI(ref manifest.ModuleRef) (any, bool) {
	inst, ok := a[ref]
	if !ok || inst.TestAPI == nil {
		return nil, false
	}
	return inst.TestAPI, true
}
