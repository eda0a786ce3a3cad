// Package sim implements the simulation harness: it drives
// a recipe's generated test specifications against the engine with a
// mock step runner and fake filesystem, captures the emitted event
// sequence, and compares it against golden expectation files. It also
// tracks invocation coverage across a test run.
package sim
