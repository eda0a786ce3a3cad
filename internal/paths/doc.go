// Package paths implements the recipe engine's path registry.
//
// A [Registry] names abstract roots (start_dir, cache, cleanup, tmp_base,
// and a resource_dir per module) and resolves them to absolute
// filesystem paths. All step I/O and placeholder materialization goes
// through a Registry rather than touching os directly, so that the same
// recipe code runs unmodified against a real filesystem or, in simulation
// mode, against an in-memory [FS] whose contents a test configures.
//
// Platform base directories (cache, runtime) follow XDG conventions on
// Linux and platform-native conventions elsewhere, using the engine name
// "crecipe" as the subdirectory under each base path.
package paths
