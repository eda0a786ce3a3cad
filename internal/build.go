// Package internal carries build-time metadata and default logging
// modes, both injected through linker flags by the release pipeline.
package internal

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Name identifies the binary for usage text, logging, and version strings.
const Name = "crecipe"

// Set via -ldflags; left empty (or "false") on local builds.
var (
	version   = ""
	stage     = ""
	gitCommit = ""

	rawQuiet   = "false"
	rawDebug   = "false"
	rawVerbose = "false"
)

// Reports whether quiet mode was baked into this build.
func IsQuiet() bool { return flagBool(rawQuiet) }

// Reports whether debug logging was baked into this build.
func IsDebug() bool { return flagBool(rawDebug) }

// Reports whether verbose logging was baked into this build.
func IsVerbose() bool { return flagBool(rawVerbose) }

func flagBool(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

// Renders the detailed version for `crecipe version` and startup
// logging: "<version>+<stage> <commit> [<arch>]", with the "+<stage>"
// part omitted for builds cut from the main branch. A build missing any
// of the three linker-flag values reports "(local)" instead.
func VersionString() string {
	v := strings.TrimSpace(version)
	s := strings.TrimSpace(stage)
	c := strings.TrimSpace(gitCommit)
	if v == "" || s == "" || c == "" {
		return "(local)"
	}

	v = strings.TrimPrefix(strings.ToLower(v), "v")
	suffix := ""
	if s = strings.ToLower(s); s != "main" {
		suffix = "+" + s
	}
	return fmt.Sprintf("%s%s %s [%s]", v, suffix, c, runtime.GOARCH)
}
