package manifest

// Constructs a fresh zero-value pointer to a properties message,
// ready for the property binder to decode into. A nil Schema means the
// corresponding message is not declared.
type Schema func() any

// Exposes a module's declared dependencies to its api_factory,
// keyed by local alias. Each value is the dependency's already-constructed
// api object.
type DepsView map[string]any

// Constructs a module's api object. props, globalProps, and
// envProps are nil when the module does not declare the corresponding
// schema; testData is non-nil only when the recipe is running under
// simulation.
type ApiFactory func(deps DepsView, props, globalProps, envProps any, testData any) (any, error)

// Constructs the side-channel test api object attached
// during simulation runs.
type TestApiFactory func(deps DepsView) any

// A leaf in the dependency graph.
type Module struct {
	Ref ModuleRef

	// DepsList is the list-form DEPS declaration: each entry is either a
	// bare module name ("step", resolved against this module's own repo)
	// or a qualified "repo/name". The resolver expands entries with
	// ParseDepEntry and merges them into Deps under the dependency's own
	// name before the graph is walked.
	DepsList []string

	// Deps is the dict-form DEPS declaration, mapping a chosen local
	// alias to an already-qualified dependency ("DEPS = {\"s\": \"step\"}"
	// may rebind a dependency away from its own name).
	Deps map[string]ModuleRef

	PropertiesSchema       Schema
	GlobalPropertiesSchema Schema // Deprecated; still in use by some modules, kept for compatibility.
	EnvPropertiesSchema    Schema

	ApiFactory     ApiFactory
	TestApiFactory TestApiFactory

	// Initialize, when declared, runs once per module instance after
	// every module in the recipe's dependency graph has been
	// constructed, in the same topological order construction used. At
	// that point api (the value ApiFactory/TestApiFactory returned for
	// this module) may freely call any of its own dependencies, which
	// construction order alone cannot guarantee.
	Initialize func(api any) error

	// Paths bound at load time.
	ResourceDir string
	ModuleDir   string
	RepoRoot    string

	// Warnings this module's declaration attributes to any caller that
	// depends on it. Propagation to an external warning service is out of
	// scope; only declaration and attribution are modeled here.
	Warnings []string
}

// Has the same shape as a Module for dependency-resolution
// purposes, but is never injected into another module's DepsView.
type Recipe struct {
	Name string

	// DepsList and Deps mirror Module's two DEPS declaration forms; bare
	// DepsList entries resolve against the recipe's home repo.
	DepsList []string
	Deps     map[string]ModuleRef

	PropertiesSchema    Schema
	EnvPropertiesSchema Schema

	RunFn      func(api DepsView, props, envProps any) (RunResult, error)
	GenTestsFn func() []TestSpecRef
}

// The structured outcome a recipe's RunFn may return in
// place of relying on inferred status from step failures.
type RunResult struct {
	Status  string
	Summary string
}

// An opaque handle to a simulation test specification; the
// concrete type lives in internal/sim to avoid a manifest -> sim import
// cycle (sim already depends on manifest for Step/Module shapes).
type TestSpecRef any
