// Package placeholder implements the input/output placeholder
// protocol: typed command-argument stand-ins that materialize into
// files or captured streams before a step runs, and parse into typed
// values once it ends.
package placeholder
