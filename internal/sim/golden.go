package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/cruciblehq/crecipe/internal/stream"
)

// The golden record of one test case's emitted step
// sequence: an ordered array of step-view objects plus a terminal
// result.
type Expectation struct {
	Steps  []ExpectedStep `json:"steps"`
	Result ExpectedResult `json:"result"`
}

// The normalized, comparable form of a [stream.StepView].
type ExpectedStep struct {
	Name          string             `json:"name"`
	Cmd           []string           `json:"cmd,omitempty"`
	Env           map[string]string  `json:"env,omitempty"`
	Cwd           string             `json:"cwd,omitempty"`
	Status        stream.Status      `json:"status"`
	Text          string             `json:"text,omitempty"`
	Summary       string             `json:"summary,omitempty"`
	Logs          []stream.LogEntry  `json:"logs,omitempty"`
	Links         []stream.LinkEntry `json:"links,omitempty"`
	Properties    map[string]any     `json:"properties,omitempty"`
	StatusDetails string             `json:"status_details,omitempty"`
}

// The terminal object an expectation file carries
// after its step array.
type ExpectedResult struct {
	Status  stream.Status `json:"status"`
	Summary string        `json:"summary,omitempty"`
}

// Normalizes a Recording into the comparable,
// golden-file-ready form.
func (r *Recording) ToExpectation() Expectation {
	exp := Expectation{
		Steps:  make([]ExpectedStep, len(r.Steps)),
		Result: ExpectedResult{Status: r.Status, Summary: r.Summary},
	}
	for i, v := range r.Steps {
		exp.Steps[i] = ExpectedStep{
			Name:          v.Name,
			Cmd:           v.Cmd,
			Env:           v.Env,
			Cwd:           v.Cwd,
			Status:        v.Status,
			Text:          v.Text,
			Summary:       v.Summary,
			Logs:          v.Logs,
			Links:         v.Links,
			Properties:    v.Properties,
			StatusDetails: v.StatusDetails,
		}
	}
	return exp
}

// Returns the path of the golden file for test caseName of recipeName,
// rooted at dir (typically "<recipe path>.expected").
func ExpectationPath(dir, caseName string) string {
	return filepath.Join(dir, caseName+".json")
}

// Loads and decodes the golden file at path. A missing file is
// reported as an empty Expectation with ok=false, so a first
// "--train" run can create it rather than erroring.
func ReadExpectation(path string) (Expectation, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Expectation{}, false, nil
	}
	if err != nil {
		return Expectation{}, false, err
	}
	var exp Expectation
	if err := json.Unmarshal(data, &exp); err != nil {
		return Expectation{}, false, fmt.Errorf("%w: %s: %w", ErrBadTest, path, err)
	}
	return exp, true, nil
}

// Atomically writes exp to path: write to a temp file in the same
// directory, then os.Rename over the target.
func WriteExpectation(path string, exp Expectation) error {
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".expectation-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// Compares got against want and returns a human-readable diff, or ""
// if they are equal. A nil and an empty map or slice compare equal, since
// the golden file's JSON encoding does not distinguish them.
func Diff(got, want Expectation) string {
	return cmp.Diff(want, got, cmpopts.EquateEmpty())
}
