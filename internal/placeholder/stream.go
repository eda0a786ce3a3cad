package placeholder

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// An output placeholder attached to a step's stdout or
// stderr rather than a temp-file argument. The step runner
// tees the captured stream into Buf instead of splicing a path into the
// command vector, so Render returns no arguments.
type StreamOutput struct {
	id  Identity
	Buf bytes.Buffer

	json     bool
	target   func() any
	resolved bool
}

// Returns a raw-bytes stream-attached output placeholder.
func NewStreamOutput(id Identity) *StreamOutput {
	return &StreamOutput{id: id}
}

// Returns a stream-attached output placeholder that
// parses the captured stream as JSON into a pointer constructed by
// target.
func NewJSONStreamOutput(id Identity, target func() any) *StreamOutput {
	return &StreamOutput{id: id, json: true, target: target}
}

func (p *StreamOutput) Identity() Identity { return p.id }

// Returns no arguments: this placeholder attaches to a captured
// stream, not a command-line argument.
func (p *StreamOutput) Render(string) ([]string, error) { return nil, nil }

func (p *StreamOutput) Cleanup(bool) {}

func (p *StreamOutput) Result(mock any) (any, error) {
	if mock != nil {
		p.resolved = true
		return mock, nil
	}
	p.resolved = true
	if !p.json {
		return p.Buf.Bytes(), nil
	}
	dest := p.target()
	if err := json.Unmarshal(p.Buf.Bytes(), dest); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, p.id.Key(), err)
	}
	return dest, nil
}
