package placeholder

import (
	"fmt"

	"github.com/cruciblehq/crecipe/internal/paths"
)

// An input placeholder that materializes fixed byte content
// into a temp file before the step, and renders that file's path as its
// single command argument.
type TextInput struct {
	id   Identity
	reg  *paths.Registry
	sim  bool
	data []byte

	path string
}

// Returns a TextInput placeholder carrying data.
func NewTextInput(reg *paths.Registry, sim bool, id Identity, data []byte) *TextInput {
	return &TextInput{id: id, reg: reg, sim: sim, data: data}
}

func (p *TextInput) Identity() Identity { return p.id }

func (p *TextInput) Render(stepName string) ([]string, error) {
	path, err := tempPath(p.reg, p.sim, stepName, p.id)
	if err != nil {
		return nil, err
	}
	if err := p.reg.WriteFile(path, p.data); err != nil {
		return nil, err
	}
	p.path = path
	return []string{path}, nil
}

func (p *TextInput) Cleanup(bool) {
	if p.path != "" {
		p.reg.Remove(p.path)
	}
}

// Returns the content the input placeholder was constructed with,
// for callers that want to inspect what was passed to the step.
func (p *TextInput) Result(mock any) (any, error) {
	if mock != nil {
		return mock, nil
	}
	return p.data, nil
}

// An output placeholder that renders a fresh temp-file path
// as its command argument, then reads that file's raw bytes as its
// result once the step ends.
type TextOutput struct {
	id  Identity
	reg *paths.Registry
	sim bool

	path     string
	resolved bool
}

// Returns a TextOutput placeholder.
func NewTextOutput(reg *paths.Registry, sim bool, id Identity) *TextOutput {
	return &TextOutput{id: id, reg: reg, sim: sim}
}

func (p *TextOutput) Identity() Identity { return p.id }

func (p *TextOutput) Render(stepName string) ([]string, error) {
	path, err := tempPath(p.reg, p.sim, stepName, p.id)
	if err != nil {
		return nil, err
	}
	p.path = path
	return []string{path}, nil
}

func (p *TextOutput) Cleanup(bool) {
	if p.path != "" {
		p.reg.Remove(p.path)
	}
}

func (p *TextOutput) Result(mock any) (any, error) {
	if mock != nil {
		p.resolved = true
		return mock, nil
	}
	if p.path == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnresolved, p.id.Key())
	}
	data, err := p.reg.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, p.id.Key(), err)
	}
	p.resolved = true
	return data, nil
}
