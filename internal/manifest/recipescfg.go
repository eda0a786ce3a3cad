package manifest

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// The decoded form of a repository's infra/config/recipes.cfg
// manifest.
type RecipesCfg struct {
	APIVersion  int             `toml:"api_version"`
	RepoName    string          `toml:"repo_name"` // aka project_id
	RecipesPath string          `toml:"recipes_path"`
	Deps        []RecipesCfgDep `toml:"deps"`
}

// Is one entry of recipes.cfg's deps list: a pinned
// dependency on another repo of recipes. Every repo must declare one
// pinned dependency on the engine's own repo.
type RecipesCfgDep struct {
	Name     string `toml:"name"`
	URL      string `toml:"url"`
	Branch   string `toml:"branch"`
	Revision string `toml:"revision"`
}

// Parses the TOML-encoded contents of a recipes.cfg file.
func DecodeRecipesCfg(data []byte) (*RecipesCfg, error) {
	var cfg RecipesCfg
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedManifest, err)
	}
	if cfg.RepoName == "" {
		return nil, fmt.Errorf("%w: missing repo_name", ErrMalformedManifest)
	}
	return &cfg, nil
}

// Converts the manifest's own repo identity into a [RepoRef],
// given the revision this repo was actually checked out at.
func (c *RecipesCfg) RepoRef(url, branch, checkedOutRevision string) RepoRef {
	return RepoRef{
		Name:           c.RepoName,
		URL:            url,
		Branch:         branch,
		PinnedRevision: checkedOutRevision,
		RecipesPath:    c.RecipesPath,
	}
}

// Converts one deps entry into the [RepoRef] it pins.
func (d RecipesCfgDep) DepRepoRef() RepoRef {
	return RepoRef{
		Name:           d.Name,
		URL:            d.URL,
		Branch:         d.Branch,
		PinnedRevision: d.Revision,
	}
}
