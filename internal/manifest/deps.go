package manifest

// The resolved view of a recipe program that the core
// consumes. Producing it (cloning repos at pinned revisions, walking
// recipe_modules/ directories, compiling PROPERTIES schemas) is out of
// scope; the core only reads from this interface.
type RecipeDeps interface {
	// Repo returns the RepoRef for a loaded repo by name.
	Repo(name string) (RepoRef, bool)

	// Module returns the Module declared at ref, loaded from its
	// recipe_modules/<name>/ directory.
	Module(ref ModuleRef) (*Module, bool)

	// Recipe returns the named entry recipe (dotted path under recipes/).
	Recipe(name string) (*Recipe, bool)

	// HomeRepo is the repo a bare (unqualified) DEPS entry resolves
	// against: the repo owning the module or recipe doing the
	// referencing.
	HomeRepo(ref ModuleRef) string
}
