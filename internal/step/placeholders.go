package step

import (
	"fmt"

	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/placeholder"
)

// Expands a step's Cmd into a flat argv, rendering any
// placeholder in place. It returns every placeholder
// encountered so the caller can resolve and clean them up once the step
// ends.
func renderArgs(cmd []any, stepName string) ([]string, []placeholder.Placeholder, error) {
	var argv []string
	var phs []placeholder.Placeholder

	for _, arg := range cmd {
		switch v := arg.(type) {
		case string:
			argv = append(argv, v)
		case placeholder.Placeholder:
			rendered, err := v.Render(stepName)
			if err != nil {
				return nil, phs, fmt.Errorf("%w: %s: %w", placeholder.ErrParse, v.Identity().Key(), err)
			}
			argv = append(argv, rendered...)
			phs = append(phs, v)
		default:
			return nil, phs, fmt.Errorf("unsupported cmd argument type %T", arg)
		}
	}

	return argv, phs, nil
}

// Looks up the pre-supplied mock value for a placeholder identity
// from a step's test data, if any.
func mockFor(data *manifest.StepTestData, id placeholder.Identity) any {
	if data == nil || data.PlaceholderData == nil {
		return nil
	}
	key := id.Method
	if id.Subname != "" {
		key += "." + id.Subname
	}
	return data.PlaceholderData[key]
}

// Resolves every tracked placeholder's result into
// results, then unconditionally releases it. The first resolution error
// encountered is returned after every placeholder has been given a
// chance to clean up.
func resolvePlaceholders(phs []placeholder.Placeholder, results *placeholder.ResultSet, testData *manifest.StepTestData, success bool) error {
	var firstErr error
	for _, ph := range phs {
		id := ph.Identity()
		val, err := ph.Result(mockFor(testData, id))
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if err == nil && results != nil {
			results.Set(id, val)
		}
		ph.Cleanup(success)
	}
	return firstErr
}
