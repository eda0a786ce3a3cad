package cli

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cruciblehq/crecipe/internal"
	"github.com/cruciblehq/crecipe/internal/registry"
	"github.com/cruciblehq/crecipe/internal/sim"
)

// RootCmd is the top-level command tree, parsed by kong.
var RootCmd struct {
	Quiet    bool              `short:"q" help:"Suppress informational output."`
	Verbose  bool              `short:"v" help:"Enable verbose output."`
	Debug    bool              `short:"d" help:"Enable debug output."`
	Override map[string]string `short:"O" placeholder:"NAME=PATH" help:"Override a repo's resolved path for local development."`

	Run     RunCmd     `cmd:"" help:"Execute one recipe."`
	Test    TestCmd    `cmd:"" help:"Simulation test runner."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Fetch      StubCmd `cmd:"" help:"Clone pinned recipe repos (not part of this core)." hidden:""`
	Bundle     StubCmd `cmd:"" help:"Zip a self-contained recipe tree (not part of this core)." hidden:""`
	Doc        StubCmd `cmd:"" help:"Regenerate per-recipe READMEs (not part of this core)." hidden:""`
	Lint       StubCmd `cmd:"" help:"Lint recipe sources (not part of this core)." hidden:""`
	Analyze    StubCmd `cmd:"" help:"Static analysis over recipe sources (not part of this core)." hidden:""`
	ManualRoll StubCmd `cmd:"" name:"manual_roll" help:"Interactively bump a pinned dependency (not part of this core)." hidden:""`
	Autoroll   StubCmd `cmd:"" help:"Automatically bump pinned dependencies (not part of this core)." hidden:""`
}

// Parses os.Args, configures logging, and runs the selected
// subcommand against deps (the registered recipes and modules) and
// expectDir (where `test run`/`test train` look for golden files).
func Execute(deps *registry.Static, expectDir sim.ExpectDir) error {
	ctx := context.Background()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("A recipe execution engine: runs and simulation-tests CI recipes."),
		kong.UsageOnError(),
		kong.Vars{"version": internal.VersionString()},
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(deps),
		kong.Bind(expectDir),
	)

	configureLogger()
	for name, path := range RootCmd.Override {
		deps.Override(name, path)
	}

	return kongCtx.Run()
}

// Sets the global zerolog level from CLI flags and the
// build-time linker-flag defaults.
func configureLogger() {
	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()
	verbose := RootCmd.Verbose || internal.IsVerbose()

	level := zerolog.InfoLevel
	switch {
	case debug:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.WarnLevel
	case verbose:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !isatty(os.Stderr)})
}

func isatty(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
