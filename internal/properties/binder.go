package properties

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/cruciblehq/crecipe/internal/manifest"
)

// Names one schema to decode into: either the entry recipe (Ref is
// the zero value) or a module.
type Target struct {
	Ref                    manifest.ModuleRef
	PropertiesSchema       manifest.Schema
	GlobalPropertiesSchema manifest.Schema
	EnvPropertiesSchema    manifest.Schema
}

// Holds every decoded properties message, keyed by the target's
// ModuleRef (the zero ModuleRef is the entry recipe).
type Bound struct {
	Properties       map[manifest.ModuleRef]any
	GlobalProperties map[manifest.ModuleRef]any
	EnvProperties    map[manifest.ModuleRef]any
}

// Returns the decoded messages for ref, or nil where the
// corresponding schema was not declared.
func (b *Bound) For(ref manifest.ModuleRef) (props, global, env any) {
	return b.Properties[ref], b.GlobalProperties[ref], b.EnvProperties[ref]
}

// Decodes tree (the JSON-shaped input property tree) and env (raw
// "k=v" process environment entries) into every declared target schema.
func Bind(tree map[string]any, env []string, targets []Target) (*Bound, error) {
	dollarKeys, topKeys := splitTree(tree)
	envView := uppercasedEnv(env)

	bound := &Bound{
		Properties:       make(map[manifest.ModuleRef]any),
		GlobalProperties: make(map[manifest.ModuleRef]any),
		EnvProperties:    make(map[manifest.ModuleRef]any),
	}

	for _, t := range targets {
		if t.PropertiesSchema != nil {
			dest := t.PropertiesSchema()
			if t.Ref == (manifest.ModuleRef{}) {
				// The recipe's own PROPERTIES come from the shared
				// top-level namespace (step 4), not a $-prefixed key.
				if err := decode(topKeys, dest, false); err != nil {
					return nil, fmt.Errorf("recipe properties: %w", err)
				}
			} else {
				key := "$" + t.Ref.String()
				src, _ := dollarKeys[key].(map[string]any)
				if err := decode(src, dest, true); err != nil {
					return nil, fmt.Errorf("%s properties: %w", key, err)
				}
			}
			bound.Properties[t.Ref] = dest
		}

		if t.GlobalPropertiesSchema != nil {
			dest := t.GlobalPropertiesSchema()
			if err := decode(topKeys, dest, false); err != nil {
				return nil, fmt.Errorf("%s global properties: %w", t.Ref, err)
			}
			bound.GlobalProperties[t.Ref] = dest
		}

		if t.EnvPropertiesSchema != nil {
			dest := t.EnvPropertiesSchema()
			if err := decode(envView, dest, false); err != nil {
				return nil, fmt.Errorf("%s env properties: %w", t.Ref, err)
			}
			bound.EnvProperties[t.Ref] = dest
		}
	}

	return bound, nil
}

// Separates the raw property tree into its "$"-prefixed
// (module-namespaced) keys and its top-level keys.
func splitTree(tree map[string]any) (dollarKeys, topKeys map[string]any) {
	dollarKeys = make(map[string]any)
	topKeys = make(map[string]any)
	for k, v := range tree {
		if strings.HasPrefix(k, "$") {
			dollarKeys[k] = v
		} else {
			topKeys[k] = v
		}
	}
	return dollarKeys, topKeys
}

// Builds a view over process environment entries with
// every key uppercased, as ENV_PROPERTIES decoding requires.
func uppercasedEnv(env []string) map[string]any {
	view := make(map[string]any, len(env))
	for _, e := range env {
		k, v, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		view[strings.ToUpper(k)] = v
	}
	return view
}

func decode(src map[string]any, dest any, errorUnused bool) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      errorUnused,
		WeaklyTypedInput: true,
		Result:           dest,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(src); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}
