package step

import (
	"context"
	"testing"

	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/placeholder"
)

func TestSimRunnerReplaysMockData(t *testing.T) {
	retcode := 0
	s := &manifest.Step{
		Name: "say hello",
		Cmd:  []any{"echo", "hello", "world"},
		StepTestData: func() manifest.StepTestData {
			return manifest.StepTestData{Retcode: &retcode}
		},
	}

	r := NewSimRunner()
	result := r.Run(context.Background(), s, Options{Results: placeholder.NewResultSet()})

	if result.HadException {
		t.Fatalf("unexpected exception: %s", result.ExceptionReason)
	}
	if result.Retcode == nil || *result.Retcode != 0 {
		t.Fatalf("got retcode %v, want 0", result.Retcode)
	}
}

func TestSimRunnerResolvesAttachedStreamOutput(t *testing.T) {
	retcode := 0
	id := placeholder.Identity{Module: "step", Method: "stdout"}
	stdout := placeholder.NewStreamOutput(id)
	s := &manifest.Step{
		Name:   "capture",
		Cmd:    []any{"echo", "hi"},
		Stdout: stdout,
		StepTestData: func() manifest.StepTestData {
			return manifest.StepTestData{
				Retcode:         &retcode,
				PlaceholderData: map[string]any{"stdout": []byte("mocked output")},
			}
		},
	}

	results := placeholder.NewResultSet()
	r := NewSimRunner()
	result := r.Run(context.Background(), s, Options{Results: results})
	if result.HadException {
		t.Fatalf("unexpected exception: %s", result.ExceptionReason)
	}

	got, ok := results.Get(id)
	if !ok {
		t.Fatal("expected stdout placeholder to resolve into results")
	}
	if string(got.([]byte)) != "mocked output" {
		t.Fatalf("got %q, want %q", got, "mocked output")
	}
}

func TestSimRunnerRequiresMockData(t *testing.T) {
	s := &manifest.Step{Name: "no mock", Cmd: []any{"echo", "hi"}}

	r := NewSimRunner()
	result := r.Run(context.Background(), s, Options{Results: placeholder.NewResultSet()})

	if !result.HadException {
		t.Fatal("expected exception when no mock data is supplied")
	}
	if !result.MissingMock {
		t.Fatal("a forgotten mock must be marked MissingMock, not a plain exception")
	}
}
