package placeholder

import (
	"encoding/json"
	"fmt"

	"github.com/cruciblehq/crecipe/internal/paths"
)

// An input placeholder that marshals a Go value to JSON and
// materializes it as the step's input file.
type JSONInput struct {
	inner *TextInput
	value any
}

// Returns a JSONInput placeholder carrying value.
func NewJSONInput(reg *paths.Registry, sim bool, id Identity, value any) (*JSONInput, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, id.Key(), err)
	}
	return &JSONInput{inner: NewTextInput(reg, sim, id, data), value: value}, nil
}

func (p *JSONInput) Identity() Identity                   { return p.inner.Identity() }
func (p *JSONInput) Render(step string) ([]string, error) { return p.inner.Render(step) }
func (p *JSONInput) Cleanup(success bool)                 { p.inner.Cleanup(success) }

func (p *JSONInput) Result(mock any) (any, error) {
	if mock != nil {
		return mock, nil
	}
	return p.value, nil
}

// An output placeholder that parses the step's output file
// as JSON into target, a pointer to the destination type.
type JSONOutput struct {
	inner  *TextOutput
	target func() any // constructs a fresh destination pointer per Result call
}

// Returns a JSONOutput placeholder. target constructs a
// fresh pointer to decode into; it is called once per Result.
func NewJSONOutput(reg *paths.Registry, sim bool, id Identity, target func() any) *JSONOutput {
	return &JSONOutput{inner: NewTextOutput(reg, sim, id), target: target}
}

func (p *JSONOutput) Identity() Identity                   { return p.inner.Identity() }
func (p *JSONOutput) Render(step string) ([]string, error) { return p.inner.Render(step) }
func (p *JSONOutput) Cleanup(success bool)                 { p.inner.Cleanup(success) }

func (p *JSONOutput) Result(mock any) (any, error) {
	if mock != nil {
		return mock, nil
	}
	raw, err := p.inner.Result(nil)
	if err != nil {
		return nil, err
	}
	dest := p.target()
	if err := json.Unmarshal(raw.([]byte), dest); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, p.Identity().Key(), err)
	}
	return dest, nil
}
