package sim

import (
	"path/filepath"
	"testing"

	"github.com/cruciblehq/crecipe/internal/stream"
)

func TestExpectationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := ExpectationPath(dir, "basic")

	if _, existed, err := ReadExpectation(path); err != nil || existed {
		t.Fatalf("ReadExpectation on a missing file: existed=%v err=%v", existed, err)
	}

	rec := &Recording{
		Steps: []*stream.StepView{
			{Name: "say hello", Status: stream.StatusSuccess, Logs: []stream.LogEntry{{Name: "stdout", Lines: []string{"hello world"}}}},
		},
		Status: stream.StatusSuccess,
	}
	want := rec.ToExpectation()

	if err := WriteExpectation(path, want); err != nil {
		t.Fatalf("WriteExpectation: %v", err)
	}

	got, existed, err := ReadExpectation(path)
	if err != nil || !existed {
		t.Fatalf("ReadExpectation after write: existed=%v err=%v", existed, err)
	}
	if diff := Diff(got, want); diff != "" {
		t.Fatalf("round trip changed the expectation: %s", diff)
	}
}

func TestWriteExpectationIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "basic.json")

	exp := Expectation{Result: ExpectedResult{Status: stream.StatusSuccess}}
	if err := WriteExpectation(path, exp); err != nil {
		t.Fatalf("WriteExpectation: %v", err)
	}

	entries, err := filepath.Glob(filepath.Join(dir, "nested", ".expectation-*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}

func TestDiffEmptyForEqualExpectations(t *testing.T) {
	exp := Expectation{Result: ExpectedResult{Status: stream.StatusSuccess, Summary: "ok"}}
	if diff := Diff(exp, exp); diff != "" {
		t.Fatalf("expected no diff, got %s", diff)
	}
}
