package registry

import "github.com/cruciblehq/crecipe/internal/manifest"

// An in-memory [manifest.RecipeDeps] built from Go-native
// module and recipe declarations rather than fetched from pinned repos.
// Producing a RecipeDeps from cloned repositories at pinned revisions is
// explicitly out of this core's scope; Static is the seam an
// embedding binary uses to register the modules and recipes it ships
// with, matching the rule that recipes are programs in the host
// language, not a DSL interpreter.
type Static struct {
	repos    map[string]manifest.RepoRef
	modules  map[manifest.ModuleRef]*manifest.Module
	recipes  map[string]*manifest.Recipe
	homeRepo string

	overrides map[string]string
}

// Returns an empty Static registry whose bare (unqualified) DEPS
// entries resolve against homeRepo.
func New(homeRepo string) *Static {
	return &Static{
		repos:    make(map[string]manifest.RepoRef),
		modules:  make(map[manifest.ModuleRef]*manifest.Module),
		recipes:  make(map[string]*manifest.Recipe),
		homeRepo: homeRepo,
	}
}

// Registers a RepoRef by name.
func (s *Static) AddRepo(ref manifest.RepoRef) { s.repos[ref.Name] = ref }

// Registers a module under its own Ref.
func (s *Static) AddModule(m *manifest.Module) { s.modules[m.Ref] = m }

// Registers an entry recipe by name.
func (s *Static) AddRecipe(r *manifest.Recipe) { s.recipes[r.Name] = r }

// Rebinds repoName to resolve from localPath instead of its
// pinned revision, per the CLI's "-O name=path" flag. The
// resolved path is descriptive only here, since fetching from it is out
// of this core's scope; it is recorded so a loader layer built on top of
// Static can act on it.
func (s *Static) Override(repoName, localPath string) {
	if s.overrides == nil {
		s.overrides = make(map[string]string)
	}
	s.overrides[repoName] = localPath
}

// Reports whether repoName has an active -O override and, if
// so, the local path it was rebound to.
func (s *Static) Overridden(repoName string) (string, bool) {
	path, ok := s.overrides[repoName]
	return path, ok
}

func (s *Static) Repo(name string) (manifest.RepoRef, bool) {
	ref, ok := s.repos[name]
	return ref, ok
}

func (s *Static) Module(ref manifest.ModuleRef) (*manifest.Module, bool) {
	m, ok := s.modules[ref]
	return m, ok
}

func (s *Static) Recipe(name string) (*manifest.Recipe, bool) {
	r, ok := s.recipes[name]
	return r, ok
}

func (s *Static) HomeRepo(manifest.ModuleRef) string { return s.homeRepo }

// Returns every registered recipe's name, for `test run`'s
// default (unfiltered) recipe set and for Coverage reporting.
func (s *Static) RecipeNames() []string {
	names := make([]string, 0, len(s.recipes))
	for name := range s.recipes {
		names = append(names, name)
	}
	return names
}

// Returns every registered module's ref, for Coverage
// reporting's universe of expected invocations.
func (s *Static) ModuleRefs() []manifest.ModuleRef {
	refs := make([]manifest.ModuleRef, 0, len(s.modules))
	for ref := range s.modules {
		refs = append(refs, ref)
	}
	return refs
}
