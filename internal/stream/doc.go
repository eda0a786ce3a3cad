// Package stream implements the step lifecycle event sink:
// an append-only bus accepting step-opened, log, presentation, and
// recipe-ended events, with two interchangeable back-ends (a textual
// annotation emitter and a structured, socket-relayed emitter) that
// must produce the same observable event sequence for identical inputs.
package stream
