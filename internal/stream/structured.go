package stream

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Maintains an in-memory, append-only step-presentation
// tree and, when a [Relay] is attached, replicates every event to it as a
// JSON envelope for an external log-streaming service to consume.
type StructuredEmitter struct {
	mu    sync.Mutex
	order []string
	steps map[string]*StepView
	relay *Relay
}

// Returns an emitter with no attached relay; events
// are recorded in memory only. Use [StructuredEmitter.Attach] to also
// replicate them to a relay.
func NewStructuredEmitter() *StructuredEmitter {
	return &StructuredEmitter{steps: make(map[string]*StepView)}
}

// Wires a relay so every subsequent event is also broadcast to it.
func (e *StructuredEmitter) Attach(relay *Relay) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.relay = relay
}

// Returns the recorded step views in the order their step_opened
// events arrived.
func (e *StructuredEmitter) Steps() []*StepView {
	e.mu.Lock()
	defer e.mu.Unlock()
	views := make([]*StepView, len(e.order))
	for i, name := range e.order {
		views[i] = e.steps[name]
	}
	return views
}

func (e *StructuredEmitter) relayEvent(kind EventKind, step string, payload any) {
	if e.relay == nil {
		return
	}
	data, err := EncodeEvent(kind, step, payload)
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("failed to encode relay event")
		return
	}
	e.relay.Broadcast(data)
}

func (e *StructuredEmitter) StepOpened(name string, cmd []string, env map[string]string, cwd string) {
	e.mu.Lock()
	e.steps[name] = newStepView(name, cmd, env, cwd)
	e.order = append(e.order, name)
	e.mu.Unlock()

	e.relayEvent(EventStepOpened, name, map[string]any{"cmd": cmd, "env": env, "cwd": cwd})
}

func (e *StructuredEmitter) StepLogLine(name, logName, line string) {
	e.mu.Lock()
	if v, ok := e.steps[name]; ok {
		v.appendLog(logName, line)
	}
	e.mu.Unlock()

	e.relayEvent(EventStepLogLine, name, map[string]any{"log": logName, "line": line})
}

func (e *StructuredEmitter) StepSetText(name, text string) {
	e.mu.Lock()
	if v, ok := e.steps[name]; ok {
		v.Text = text
	}
	e.mu.Unlock()

	e.relayEvent(EventStepSetText, name, map[string]any{"text": text})
}

func (e *StructuredEmitter) StepSetSummary(name, summary string) {
	e.mu.Lock()
	if v, ok := e.steps[name]; ok {
		v.Summary = summary
	}
	e.mu.Unlock()

	e.relayEvent(EventStepSetSummary, name, map[string]any{"summary": summary})
}

func (e *StructuredEmitter) StepSetLink(name, linkName, url string) {
	e.mu.Lock()
	if v, ok := e.steps[name]; ok {
		v.setLink(linkName, url)
	}
	e.mu.Unlock()

	e.relayEvent(EventStepSetLink, name, map[string]any{"link": linkName, "url": url})
}

func (e *StructuredEmitter) StepSetProperty(name, key string, value any) {
	e.mu.Lock()
	if v, ok := e.steps[name]; ok {
		v.Properties[key] = value
	}
	e.mu.Unlock()

	e.relayEvent(EventStepSetProperty, name, map[string]any{"key": key, "value": value})
}

func (e *StructuredEmitter) StepClosed(name string, status Status, details string) {
	e.mu.Lock()
	if v, ok := e.steps[name]; ok {
		v.Status = status
		v.StatusDetails = details
		v.Closed = true
	}
	e.mu.Unlock()

	e.relayEvent(EventStepClosed, name, map[string]any{"status": status, "details": details})
}

func (e *StructuredEmitter) RecipeEnded(status Status, summary string) {
	e.relayEvent(EventRecipeEnded, "", map[string]any{"status": status, "summary": summary})
}
