package properties

import (
	"errors"
	"testing"

	"github.com/cruciblehq/crecipe/internal/manifest"
)

type greeterProps struct {
	Name string `json:"name"`
}

type greeterGlobalProps struct {
	Verbose bool `json:"verbose"`
}

type recipeProps struct {
	Target string `json:"target"`
}

type greeterEnvProps struct {
	Home string `json:"home"`
}

func TestBindSplitsDollarAndTopKeys(t *testing.T) {
	ref := manifest.ModuleRef{Repo: "recipe_engine", Name: "greeter"}
	tree := map[string]any{
		"$recipe_engine/greeter": map[string]any{"name": "ada"},
		"verbose":                true,
		"target":                 "staging",
	}

	bound, err := Bind(tree, nil, []Target{
		{
			Ref:                    ref,
			PropertiesSchema:       func() any { return &greeterProps{} },
			GlobalPropertiesSchema: func() any { return &greeterGlobalProps{} },
		},
		{
			PropertiesSchema: func() any { return &recipeProps{} },
		},
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	props, global, _ := bound.For(ref)
	if got := props.(*greeterProps).Name; got != "ada" {
		t.Fatalf("module properties name = %q, want ada", got)
	}
	if got := global.(*greeterGlobalProps).Verbose; !got {
		t.Fatal("expected global properties verbose = true")
	}

	recipe, _, _ := bound.For(manifest.ModuleRef{})
	if got := recipe.(*recipeProps).Target; got != "staging" {
		t.Fatalf("recipe properties target = %q, want staging", got)
	}
}

func TestBindRejectsUnknownModuleField(t *testing.T) {
	ref := manifest.ModuleRef{Repo: "recipe_engine", Name: "greeter"}
	tree := map[string]any{
		"$recipe_engine/greeter": map[string]any{"name": "ada", "bogus": 1},
	}

	_, err := Bind(tree, nil, []Target{
		{Ref: ref, PropertiesSchema: func() any { return &greeterProps{} }},
	})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("got err %v, want ErrDecode", err)
	}
}

func TestBindToleratesUnknownDollarKeys(t *testing.T) {
	ref := manifest.ModuleRef{Repo: "recipe_engine", Name: "greeter"}
	tree := map[string]any{
		"$recipe_engine/greeter":   map[string]any{"name": "ada"},
		"$recipe_engine/unrelated": map[string]any{"anything": "goes"},
	}

	_, err := Bind(tree, nil, []Target{
		{Ref: ref, PropertiesSchema: func() any { return &greeterProps{} }},
	})
	if err != nil {
		t.Fatalf("unexpected error for unreferenced $-key: %v", err)
	}
}

func TestBindEnvPropertiesUppercasesKeys(t *testing.T) {
	ref := manifest.ModuleRef{Repo: "recipe_engine", Name: "greeter"}
	env := []string{"home=/root", "UNRELATED=x"}

	bound, err := Bind(nil, env, []Target{
		{Ref: ref, EnvPropertiesSchema: func() any { return &greeterEnvProps{} }},
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	_, _, envProps := bound.For(ref)
	if got := envProps.(*greeterEnvProps).Home; got != "/root" {
		t.Fatalf("env properties home = %q, want /root", got)
	}
}

func TestBindMissingFieldUsesSchemaDefault(t *testing.T) {
	ref := manifest.ModuleRef{Repo: "recipe_engine", Name: "greeter"}

	bound, err := Bind(map[string]any{}, nil, []Target{
		{Ref: ref, PropertiesSchema: func() any { return &greeterProps{Name: "default"} }},
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	props, _, _ := bound.For(ref)
	if got := props.(*greeterProps).Name; got != "default" {
		t.Fatalf("name = %q, want default (schema default preserved)", got)
	}
}
