package engine

import (
	"fmt"
	"sync"

	"github.com/cruciblehq/crecipe/internal/manifest"
	"github.com/cruciblehq/crecipe/internal/step"
	"github.com/cruciblehq/crecipe/internal/stream"
)

// Enforces the "writable until the next step or
// recipe end" rule: opening a new step's presentation
// closes whichever presentation was previously open.
type presentationWindow struct {
	sink stream.Sink

	mu      sync.Mutex
	current *step.Presentation
	opened  map[string]bool
}

func newPresentationWindow(sink stream.Sink) *presentationWindow {
	return &presentationWindow{sink: sink, opened: map[string]bool{}}
}

// Closes any presentation left open from a prior step and returns a
// fresh, writable one for name. Fails with manifest.ErrOrphanStep if
// name nests under a parent that has never itself been opened.
func (w *presentationWindow) Open(name string) (*step.Presentation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if parent, ok := (manifest.Step{Name: name}).ParentName(); ok && !w.opened[parent] {
		return nil, fmt.Errorf("%w: %q", manifest.ErrOrphanStep, name)
	}

	if w.current != nil {
		w.current.Close()
	}
	w.current = step.NewPresentation(name, w.sink)
	w.opened[name] = true
	return w.current, nil
}

// Closes whatever presentation is still open, run at
// recipe end.
func (w *presentationWindow) CloseCurrent() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current != nil {
		w.current.Close()
		w.current = nil
	}
}
