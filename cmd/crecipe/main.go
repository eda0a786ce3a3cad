package main

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/cruciblehq/crecipe/internal"
	"github.com/cruciblehq/crecipe/internal/cli"
	"github.com/cruciblehq/crecipe/internal/demo"
	"github.com/cruciblehq/crecipe/internal/registry"
)

// Runs the crecipe engine: builds the Go-native demo registry, wires it
// into the CLI command tree, and executes the selected subcommand.
//
// Recipes in this build are registered directly in Go (internal/demo)
// rather than fetched from pinned repositories, since repository
// fetching is out of this core's scope. A production embedder
// would substitute its own registry.Static population here.
func main() {
	log.Debug().Str("version", internal.VersionString()).Msg("build")
	log.Debug().Int("pid", os.Getpid()).Str("cwd", cwd()).Strs("args", os.Args).Msg("crecipe is running")

	reg := registry.New("demo")
	demo.Register(reg)

	if err := cli.Execute(reg, expectDir); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// Locates golden expectation files for a recipe: one
// "<recipe>.expected/" directory per recipe, adjacent to the recipe
// registrations under testdata/.
func expectDir(name string) string {
	return filepath.Join("testdata", name+".expected")
}

func cwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "(unknown)"
	}
	return cwd
}
