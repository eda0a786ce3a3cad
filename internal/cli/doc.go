// Package cli implements crecipe's command-line surface: the
// entry tool's run/test subcommands over the module resolver and engine,
// plus thin stubs for the out-of-core fetch/bundle/doc/lint/analyze/
// manual_roll/autoroll commands.
package cli
