package step

import (
	"fmt"
	"sync"

	"github.com/cruciblehq/crecipe/internal/stream"
)

// The mutable handle recipe code uses to adjust a step's
// status, text, logs, links, and output properties. It remains
// writable until the next step opens or the recipe ends, after which
// every setter returns [stream.ErrClosed] instead of writing into limbo.
//
// The step_closed event is emitted once, at the later of Close and
// Finalize: in the common sequential case the step finalizes first and
// the event fires when the next step opens; under concurrent futures a
// sibling's open can close a still-running step's window, and the event
// then fires when that step's own run finalizes its status.
type Presentation struct {
	mu       sync.Mutex
	name     string
	sink     stream.Sink
	status   stream.Status
	details  string
	readonly bool
	final    bool
	emitted  bool
}

// Returns an open handle for the step named name,
// forwarding every write to sink.
func NewPresentation(name string, sink stream.Sink) *Presentation {
	return &Presentation{name: name, sink: sink, status: stream.StatusSuccess}
}

// Records the terminal status the engine derived from the step's
// ExecutionResult. Recipe code may still override it through SetStatus
// while the handle remains writable. Only the first call takes effect.
func (p *Presentation) Finalize(status stream.Status, details string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.final {
		return
	}
	p.status, p.details, p.final = status, details, true
	p.maybeEmit()
}

// Marks the handle read-only. Idempotent.
func (p *Presentation) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readonly = true
	p.maybeEmit()
}

func (p *Presentation) maybeEmit() {
	if p.emitted || !p.readonly || !p.final {
		return
	}
	p.emitted = true
	p.sink.StepClosed(p.name, p.status, p.details)
}

// Returns the status step_closed carries (or will carry).
func (p *Presentation) Status() stream.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Presentation) guard() error {
	if p.readonly {
		return fmt.Errorf("%w: %s", stream.ErrClosed, p.name)
	}
	return nil
}

// Overrides the status the step_closed event will carry.
func (p *Presentation) SetStatus(status stream.Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.guard(); err != nil {
		return err
	}
	p.status = status
	return nil
}

// Overrides the status_details the step_closed event will carry.
func (p *Presentation) SetStatusDetails(details string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.guard(); err != nil {
		return err
	}
	p.details = details
	return nil
}

func (p *Presentation) SetText(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.guard(); err != nil {
		return err
	}
	p.sink.StepSetText(p.name, text)
	return nil
}

func (p *Presentation) SetSummary(summary string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.guard(); err != nil {
		return err
	}
	p.sink.StepSetSummary(p.name, summary)
	return nil
}

func (p *Presentation) SetLink(name, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.guard(); err != nil {
		return err
	}
	p.sink.StepSetLink(p.name, name, url)
	return nil
}

func (p *Presentation) SetProperty(key string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.guard(); err != nil {
		return err
	}
	p.sink.StepSetProperty(p.name, key, value)
	return nil
}
