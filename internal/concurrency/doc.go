// Package concurrency implements the structured-concurrency core: scopes
// that carry their deadline, grace period, env overrides, and working
// directory as context values, and futures launched through a tracked
// errgroup so a child's failure cancels its siblings. Under simulation,
// future resumption is serialized through a deterministic scheduler so
// recorded runs are bit-reproducible.
package concurrency
