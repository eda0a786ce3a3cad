package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Names one of the eight step lifecycle events the sink accepts.
type EventKind string

const (
	EventStepOpened      EventKind = "step_opened"
	EventStepLogLine     EventKind = "step_log_line"
	EventStepSetText     EventKind = "step_set_text"
	EventStepSetSummary  EventKind = "step_set_summary"
	EventStepSetLink     EventKind = "step_set_link"
	EventStepSetProperty EventKind = "step_set_property"
	EventStepClosed      EventKind = "step_closed"
	EventRecipeEnded     EventKind = "recipe_ended"
)

// The newline-delimited JSON envelope relayed over the
// structured emitter's Unix socket to an external consumer.
type Event struct {
	Kind    EventKind       `json:"kind"`
	Step    string          `json:"step,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Marshals kind/step/payload into a newline-terminated JSON
// envelope suitable for writing directly to a relay connection.
func EncodeEvent(kind EventKind, step string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	data, err := json.Marshal(Event{Kind: kind, Step: step, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return append(data, '\n'), nil
}

// Parses one newline-delimited JSON envelope.
func DecodeEvent(line []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(bytes.TrimSpace(line), &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return ev, nil
}
