package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Interleaves "@@@sentinel@@@" commands with a step's
// captured stdout stream, the textual wire format consumed by log
// viewers that predate structured build presentation.
type AnnotationEmitter struct {
	mu sync.Mutex
	w  io.Writer
}

// Returns an emitter writing sentinels and step log
// lines to w.
func NewAnnotationEmitter(w io.Writer) *AnnotationEmitter {
	return &AnnotationEmitter{w: w}
}

func (e *AnnotationEmitter) sentinel(cmd string, fields map[string]any) {
	payload, _ := json.Marshal(fields)
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintf(e.w, "@@@%s %s@@@\n", cmd, payload)
}

func (e *AnnotationEmitter) StepOpened(name string, cmd []string, env map[string]string, cwd string) {
	e.sentinel("step_opened", map[string]any{"name": name, "cmd": cmd, "env": env, "cwd": cwd})
}

func (e *AnnotationEmitter) StepLogLine(name, logName, line string) {
	e.mu.Lock()
	fmt.Fprintln(e.w, line)
	e.mu.Unlock()
	e.sentinel("step_log_line", map[string]any{"name": name, "log": logName})
}

func (e *AnnotationEmitter) StepSetText(name, text string) {
	e.sentinel("step_set_text", map[string]any{"name": name, "text": text})
}

func (e *AnnotationEmitter) StepSetSummary(name, summary string) {
	e.sentinel("step_set_summary", map[string]any{"name": name, "summary": summary})
}

func (e *AnnotationEmitter) StepSetLink(name, linkName, url string) {
	e.sentinel("step_set_link", map[string]any{"name": name, "link": linkName, "url": url})
}

func (e *AnnotationEmitter) StepSetProperty(name, key string, value any) {
	e.sentinel("step_set_property", map[string]any{"name": name, "key": key, "value": value})
}

func (e *AnnotationEmitter) StepClosed(name string, status Status, details string) {
	e.sentinel("step_closed", map[string]any{"name": name, "status": status, "details": details})
}

func (e *AnnotationEmitter) RecipeEnded(status Status, summary string) {
	e.sentinel("recipe_ended", map[string]any{"status": status, "summary": summary})
}
