package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming under XDG base paths.
	engineName = "crecipe"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Well-known root names understood by [Registry.Root].
const (
	RootStartDir = "start_dir" // Directory the recipe was invoked from.
	RootCache    = "cache"     // Shared, recipe-run-spanning cache directory.
	RootCleanup  = "cleanup"   // Scratch directory wiped at recipe end.
	RootTmpBase  = "tmp_base"  // Parent directory for MkdirTemp/CreateTemp.
)

// Path to the directory for runtime files (relay sockets, PID files).
//
//	Linux:   $XDG_RUNTIME_DIR/crecipe or /run/user/<uid>/crecipe
//	macOS:   ~/Library/Caches/crecipe/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, engineName)
	}
	return filepath.Join(xdg.CacheHome, engineName, "run")
}

// Default path to the Unix domain socket used by the structured stream
// emitter to relay step events to an external consumer.
func Socket() string {
	return filepath.Join(Runtime(), engineName+".sock")
}

// Default path to the PID file written by a running relay.
func PIDFile() string {
	return filepath.Join(Runtime(), engineName+".pid")
}
