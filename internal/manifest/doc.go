// Package manifest implements the recipe engine's data model:
// repositories, modules, recipes, and steps, plus decoding of the
// repository manifest file (recipes.cfg).
//
// Types here are the static, load-time shape of a recipe program. The
// dynamic, per-run shape (constructed api objects, bound properties,
// live step state) belongs to [internal/module], [internal/properties],
// and [internal/step].
package manifest
