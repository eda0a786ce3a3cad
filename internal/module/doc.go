// Package module resolves a recipe's transitive DEPS graph into a
// deterministic instantiation order and builds the singleton arena of
// module API instances the recipe and its dependencies run against.
package module
