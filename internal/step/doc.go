// Package step implements the step runner: materializes
// placeholders, spawns (or simulates) one subprocess per step, streams
// its output to a sink, enforces deadlines, and reports a
// non-raising [ExecutionResult].
package step
