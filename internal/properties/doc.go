// Package properties implements the property binder: it
// decodes the raw input property tree and the process environment into
// typed message instances per module/recipe schema.
package properties
