package module

import (
	"fmt"
	"maps"
	"sort"

	"github.com/cruciblehq/crecipe/internal/manifest"
)

// Expands the entry recipe's DEPS (bare names against the
// recipe's home repo, "repo/name" entries as written) and walks the
// transitive closure they reach. It returns the instantiation order
// plus the recipe's expanded alias map, which the engine uses to build
// the recipe's own deps view.
func ResolveRecipe(deps manifest.RecipeDeps, recipe *manifest.Recipe) ([]*manifest.Module, map[string]manifest.ModuleRef, error) {
	roots, err := expandDeps(recipe.DepsList, recipe.Deps, deps.HomeRepo(manifest.ModuleRef{}))
	if err != nil {
		return nil, nil, fmt.Errorf("recipe %s: %w", recipe.Name, err)
	}
	order, err := Resolve(deps, roots)
	if err != nil {
		return nil, nil, err
	}
	return order, roots, nil
}

// Merges a raw list-form DEPS declaration into the typed alias map: a
// bare entry resolves against home, a qualified "repo/name" entry does
// not, and either is aliased under the dependency's own module name.
func expandDeps(list []string, typed map[string]manifest.ModuleRef, home string) (map[string]manifest.ModuleRef, error) {
	if len(list) == 0 {
		return typed, nil
	}
	merged := make(map[string]manifest.ModuleRef, len(typed)+len(list))
	maps.Copy(merged, typed)
	for _, entry := range list {
		ref := manifest.ParseDepEntry(entry, home)
		if existing, ok := merged[ref.Name]; ok && existing != ref {
			return nil, fmt.Errorf("%w: DEPS alias %q bound to both %s and %s", manifest.ErrMalformedManifest, ref.Name, existing, ref)
		}
		merged[ref.Name] = ref
	}
	return merged, nil
}

// Walks the transitive DEPS closure reachable from roots and
// returns it in a deterministic dependency-first order: every module
// appears after all modules it depends on, and modules with no
// ordering constraint between them are tie-broken by (repo, name) so
// the same manifest always instantiates in the same order.
func Resolve(deps manifest.RecipeDeps, roots map[string]manifest.ModuleRef) ([]*manifest.Module, error) {
	modules := make(map[manifest.ModuleRef]*manifest.Module)
	var collect func(ref manifest.ModuleRef) error
	collect = func(ref manifest.ModuleRef) error {
		if _, ok := modules[ref]; ok {
			return nil
		}
		m, ok := deps.Module(ref)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingModule, ref)
		}
		// Bare DepsList entries resolve against the module's own repo.
		// The merged map is written back so the arena's later view
		// construction observes the expanded aliases; expansion is
		// deterministic, so revisiting the same module is idempotent.
		merged, err := expandDeps(m.DepsList, m.Deps, m.Ref.Repo)
		if err != nil {
			return fmt.Errorf("module %s: %w", m.Ref, err)
		}
		m.Deps = merged
		modules[ref] = m
		for _, dep := range m.Deps {
			if err := collect(dep); err != nil {
				return err
			}
		}
		return nil
	}

	refs := make([]manifest.ModuleRef, 0, len(roots))
	for _, ref := range roots {
		refs = append(refs, ref)
	}
	sortRefs(refs)
	for _, ref := range refs {
		if err := collect(ref); err != nil {
			return nil, err
		}
	}

	return topoSort(modules)
}

func topoSort(modules map[manifest.ModuleRef]*manifest.Module) ([]*manifest.Module, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[manifest.ModuleRef]int, len(modules))
	order := make([]*manifest.Module, 0, len(modules))

	all := make([]manifest.ModuleRef, 0, len(modules))
	for ref := range modules {
		all = append(all, ref)
	}
	sortRefs(all)

	var visit func(ref manifest.ModuleRef) error
	visit = func(ref manifest.ModuleRef) error {
		switch color[ref] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("%w: %s", ErrCycle, ref)
		}
		color[ref] = gray

		m := modules[ref]
		deps := make([]manifest.ModuleRef, 0, len(m.Deps))
		for _, dep := range m.Deps {
			deps = append(deps, dep)
		}
		sortRefs(deps)
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}

		color[ref] = black
		order = append(order, m)
		return nil
	}

	for _, ref := range all {
		if err := visit(ref); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func sortRefs(refs []manifest.ModuleRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Repo != refs[j].Repo {
			return refs[i].Repo < refs[j].Repo
		}
		return refs[i].Name < refs[j].Name
	})
}
