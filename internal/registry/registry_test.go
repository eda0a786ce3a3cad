package registry

import (
	"testing"

	"github.com/cruciblehq/crecipe/internal/manifest"
)

func TestStaticRecipeRoundTrip(t *testing.T) {
	reg := New("demo")

	recipe := &manifest.Recipe{Name: "hello"}
	reg.AddRecipe(recipe)

	got, ok := reg.Recipe("hello")
	if !ok || got != recipe {
		t.Fatalf("Recipe(hello) = %v, %v", got, ok)
	}
	if _, ok := reg.Recipe("missing"); ok {
		t.Fatal("expected ok=false for an unregistered recipe")
	}
}

func TestStaticModuleRoundTrip(t *testing.T) {
	reg := New("demo")
	ref := manifest.ModuleRef{Repo: "recipe_engine", Name: "step"}
	m := &manifest.Module{Ref: ref}
	reg.AddModule(m)

	got, ok := reg.Module(ref)
	if !ok || got != m {
		t.Fatalf("Module(%v) = %v, %v", ref, got, ok)
	}
}

func TestStaticHomeRepo(t *testing.T) {
	reg := New("demo")
	if got := reg.HomeRepo(manifest.ModuleRef{}); got != "demo" {
		t.Fatalf("HomeRepo() = %q, want %q", got, "demo")
	}
}

func TestStaticOverride(t *testing.T) {
	reg := New("demo")
	if _, ok := reg.Overridden("demo"); ok {
		t.Fatal("expected no override before one is set")
	}
	reg.Override("demo", "/local/demo")
	path, ok := reg.Overridden("demo")
	if !ok || path != "/local/demo" {
		t.Fatalf("Overridden(demo) = %q, %v", path, ok)
	}
}

func TestStaticRecipeNamesAndModuleRefs(t *testing.T) {
	reg := New("demo")
	reg.AddRecipe(&manifest.Recipe{Name: "hello"})
	reg.AddRecipe(&manifest.Recipe{Name: "conditional"})
	ref := manifest.ModuleRef{Repo: "recipe_engine", Name: "step"}
	reg.AddModule(&manifest.Module{Ref: ref})

	names := reg.RecipeNames()
	if len(names) != 2 {
		t.Fatalf("got %v, want 2 names", names)
	}
	refs := reg.ModuleRefs()
	if len(refs) != 1 || refs[0] != ref {
		t.Fatalf("got %v, want [%v]", refs, ref)
	}
}
