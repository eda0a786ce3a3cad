package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cruciblehq/crecipe/internal/engine"
	"github.com/cruciblehq/crecipe/internal/registry"
	"github.com/cruciblehq/crecipe/internal/stream"
)

// Implements `crecipe run <recipe> [key=value...] [--properties-file path]`.
// Exit code 0 on success, non-zero on any other terminal status.
type RunCmd struct {
	Recipe         string   `arg:"" help:"Name of the recipe to run."`
	Properties     []string `arg:"" help:"key=value property overrides, JSON-decoded when possible."`
	PropertiesFile string   `help:"Path to a JSON properties file." placeholder:"PATH"`
}

func (c *RunCmd) Run(ctx context.Context, deps *registry.Static) error {
	tree, err := c.buildProperties()
	if err != nil {
		return fmt.Errorf("decode properties: %w", err)
	}

	sink := stream.NewStructuredEmitter()
	result, runErr := engine.Run(ctx, deps, engine.RunOptions{
		RecipeName: c.Recipe,
		Properties: tree,
		Env:        os.Environ(),
		Sink:       sink,
	})
	if result == nil {
		return fmt.Errorf("load %q: %w", c.Recipe, runErr)
	}

	for _, v := range sink.Steps() {
		log.Info().Str("step", v.Name).Str("status", string(v.Status)).Msg("step finished")
	}
	for _, w := range result.Warnings {
		log.Warn().Str("recipe", c.Recipe).Msg(w)
	}
	log.Info().Str("status", string(result.Status)).Str("summary", result.Summary).Msg("recipe finished")

	if result.Status != stream.StatusSuccess {
		if runErr != nil {
			return runErr
		}
		return fmt.Errorf("recipe %q ended with status %s", c.Recipe, result.Status)
	}
	return nil
}

// Merges --properties-file (a full JSON tree) with
// positional key=value arguments.
func (c *RunCmd) buildProperties() (map[string]any, error) {
	tree := make(map[string]any)

	if c.PropertiesFile != "" {
		data, err := os.ReadFile(c.PropertiesFile)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	}

	for _, kv := range c.Properties {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("malformed property %q, want key=value", kv)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw // not valid JSON: treat as a plain string.
		}
		tree[key] = value
	}

	return tree, nil
}
