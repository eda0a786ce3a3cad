package manifest

import "fmt"

// Identifies one source of modules and recipes. Pins are
// immutable for the duration of one recipe run.
type RepoRef struct {
	Name           string // Project ID, e.g. "crecipe" or "my-infra".
	URL            string // VCS fetch URL.
	Branch         string // Branch the pin was taken from.
	PinnedRevision string // Immutable commit the run is locked to.
	RecipesPath    string // In-repo location of recipes/ and recipe_modules/; "" means repo root.
}

// Globally identifies a module. A module exists in exactly one
// repo; references from other repos use the qualified "repo/name" form.
type ModuleRef struct {
	Repo string
	Name string
}

// Renders the qualified form "repo/name", or the bare name when
// Repo is empty (same-repo reference, not yet resolved against an entry
// recipe's own repo).
func (r ModuleRef) String() string {
	if r.Repo == "" {
		return r.Name
	}
	return fmt.Sprintf("%s/%s", r.Repo, r.Name)
}

// Splits a DEPS entry into a ModuleRef. A bare name ("step")
// resolves against homeRepo; a qualified name ("other_repo/step") does
// not.
func ParseDepEntry(entry, homeRepo string) ModuleRef {
	for i := 0; i < len(entry); i++ {
		if entry[i] == '/' {
			return ModuleRef{Repo: entry[:i], Name: entry[i+1:]}
		}
	}
	return ModuleRef{Repo: homeRepo, Name: entry}
}
