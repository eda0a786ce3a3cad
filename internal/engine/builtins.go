package engine

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cruciblehq/crecipe/internal/concurrency"
	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/paths"
	"github.com/cruciblehq/crecipe/internal/placeholder"
	"github.com/cruciblehq/crecipe/internal/step"
	"github.com/cruciblehq/crecipe/internal/stream"
)

// StepModuleRef, FuturesModuleRef, PathModuleRef, and PlatformModuleRef
// name the built-in modules the engine supplies regardless of what the
// repo manifest declares: every recipe can depend on them without a
// recipes.cfg entry.
var (
	StepModuleRef     = manifest.ModuleRef{Repo: "recipe_engine", Name: "step"}
	FuturesModuleRef  = manifest.ModuleRef{Repo: "recipe_engine", Name: "futures"}
	PathModuleRef     = manifest.ModuleRef{Repo: "recipe_engine", Name: "path"}
	PlatformModuleRef = manifest.ModuleRef{Repo: "recipe_engine", Name: "platform"}
)

// The built-in "recipe_engine/path" module's API object: the
// path registry algebra, plus the registry/sim-mode handle placeholder
// constructors need.
type PathAPI struct {
	reg *paths.Registry
	sim bool
}

// Returns the underlying path registry, for placeholder
// constructors (internal/placeholder) that need it directly.
func (p *PathAPI) Registry() *paths.Registry { return p.reg }

// Reports whether this run is simulated, so placeholder
// constructors pick the deterministic temp-naming scheme.
func (p *PathAPI) Sim() bool { return p.sim }

func (p *PathAPI) Root(name string) (string, error) { return p.reg.Root(name) }
func (p *PathAPI) Join(root string, segs ...string) (string, error) {
	return p.reg.Join(root, segs...)
}
func (p *PathAPI) Exists(path string) bool               { return p.reg.Exists(path) }
func (p *PathAPI) ReadDir(path string) ([]string, error) { return p.reg.ReadDir(path) }
func (p *PathAPI) MkdirTemp(root, pattern string) (string, error) {
	return p.reg.MkdirTemp(root, pattern)
}
func (p *PathAPI) CreateTemp(root, pattern string) (string, error) {
	return p.reg.CreateTemp(root, pattern)
}
func (p *PathAPI) RegisterRoot(name, path string) { p.reg.RegisterRoot(name, path) }

// CheckoutDir and SetCheckoutDir pass through to the deprecated scoped
// slot; new recipe code should prefer an
// explicit module resource_dir instead.
func (p *PathAPI) CheckoutDir() (string, error) { return p.reg.CheckoutDir() }
func (p *PathAPI) SetCheckoutDir(path string)   { p.reg.SetCheckoutDir(path) }

// The host a recipe believes it runs on. Real runs report the
// actual OS and architecture; simulated runs report whatever the test
// specification configured.
type Platform struct {
	OS   string
	Bits int
	Arch string
}

// The built-in "recipe_engine/platform" module's API object.
type PlatformAPI struct {
	platform Platform
}

func (p *PlatformAPI) Name() string { return p.platform.OS }
func (p *PlatformAPI) Bits() int    { return p.platform.Bits }
func (p *PlatformAPI) Arch() string { return p.platform.Arch }

// Reports whether the platform is Windows, the one case where
// callers routinely branch (path separators, executable suffixes,
// CTRL_BREAK instead of SIGTERM).
func (p *PlatformAPI) IsWin() bool { return p.platform.OS == "windows" }

// Renders "os-bits" (e.g. "linux-64"), the conventional
// short form used in step names and cache keys.
func (p *PlatformAPI) String() string {
	return p.platform.OS + "-" + strconv.Itoa(p.platform.Bits)
}

// The built-in "recipe_engine/futures" module's API
// object: structured concurrency for recipe code.
type FuturesAPI struct {
	scope *concurrency.Scope

	mu      sync.Mutex
	futures []*concurrency.Future
}

// Launches fn within the recipe's scope and returns a handle to
// its eventual result.
func (f *FuturesAPI) Spawn(fn func(ctx context.Context) (any, error)) *concurrency.Future {
	fut := concurrency.Go(f.scope, fn)
	f.mu.Lock()
	f.futures = append(f.futures, fut)
	f.mu.Unlock()
	return fut
}

// Blocks until every future spawned so far has resolved, and
// reports the first error among them, if any. Unlike joining the whole
// scope, this leaves the scope itself live, so the recipe can keep
// running steps afterwards.
func (f *FuturesAPI) Wait() error {
	f.mu.Lock()
	pending := make([]*concurrency.Future, len(f.futures))
	copy(pending, f.futures)
	f.mu.Unlock()

	var firstErr error
	for _, fut := range pending {
		if _, err := fut.Await(f.scope.Context()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Suspends the calling future for d, or until the recipe scope is
// cancelled.
func (f *FuturesAPI) Sleep(d time.Duration) error {
	return concurrency.Sleep(f.scope.Context(), d)
}

func builtinModules(runner step.Runner, window *presentationWindow, sink stream.Sink, scope *concurrency.Scope, results *placeholder.ResultSet, baseEnv []string, stepTestData map[string]func() manifest.StepTestData, reg *paths.Registry, platform Platform, sim bool) map[manifest.ModuleRef]*manifest.Module {
	return map[manifest.ModuleRef]*manifest.Module{
		StepModuleRef: {
			Ref: StepModuleRef,
			ApiFactory: func(manifest.DepsView, any, any, any, any) (any, error) {
				return newStepAPI(runner, window, sink, scope, results, baseEnv, stepTestData), nil
			},
		},
		FuturesModuleRef: {
			Ref: FuturesModuleRef,
			ApiFactory: func(manifest.DepsView, any, any, any, any) (any, error) {
				return &FuturesAPI{scope: scope}, nil
			},
		},
		PathModuleRef: {
			Ref: PathModuleRef,
			ApiFactory: func(manifest.DepsView, any, any, any, any) (any, error) {
				return &PathAPI{reg: reg, sim: sim}, nil
			},
		},
		PlatformModuleRef: {
			Ref: PlatformModuleRef,
			ApiFactory: func(manifest.DepsView, any, any, any, any) (any, error) {
				return &PlatformAPI{platform: platform}, nil
			},
		},
	}
}

// Overlays the engine's built-in modules on top of the repo
// manifest's own RecipeDeps, so recipes can reference "recipe_engine/step"
// and its siblings without those ever appearing in a recipes.cfg.
type builtinDeps struct {
	inner    manifest.RecipeDeps
	builtins map[manifest.ModuleRef]*manifest.Module
}

func (b *builtinDeps) Repo(name string) (manifest.RepoRef, bool)   { return b.inner.Repo(name) }
func (b *builtinDeps) Recipe(name string) (*manifest.Recipe, bool) { return b.inner.Recipe(name) }
func (b *builtinDeps) HomeRepo(ref manifest.ModuleRef) string      { return b.inner.HomeRepo(ref) }

func (b *builtinDeps) Module(ref manifest.ModuleRef) (*manifest.Module, bool) {
	if m, ok := b.builtins[ref]; ok {
		return m, true
	}
	return b.inner.Module(ref)
}
