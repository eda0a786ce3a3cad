// Package engine implements the top-level recipe driver: it
// resolves the module DAG, binds properties, builds the module arena,
// calls into the recipe's Run function, and emits the terminal
// recipe_ended event. It also translates step.ExecutionResult values
// into a typed error taxonomy recipe code can discriminate with errors.As.
package engine
