package step

import (
	"os"
	"strings"

	"github.com/cruciblehq/crecipe/internal/manifest"
)

// Layers additions, then PATH-like prefixes/suffixes, then
// scope overrides on top of base, matching the runner contract's
// environment computation order.
func effectiveEnv(base []string, s *manifest.Step, scopeOverrides map[string]string) []string {
	env := envMap(base)

	for k, v := range s.EnvAdditions {
		env[k] = v
	}
	for k, parts := range s.EnvPrefixes {
		env[k] = strings.Join(append(parts, env[k]), string(os.PathListSeparator))
	}
	for k, parts := range s.EnvSuffixes {
		env[k] = strings.Join(append([]string{env[k]}, parts...), string(os.PathListSeparator))
	}
	for k, v := range scopeOverrides {
		env[k] = v
	}

	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	return result
}

func envMap(entries []string) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		if k, v, ok := strings.Cut(e, "="); ok {
			m[k] = v
		}
	}
	return m
}
