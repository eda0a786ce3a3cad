package stream

import (
	"bytes"
	"strings"
	"testing"
)

func TestAnnotationEmitterInterleavesLogAndSentinel(t *testing.T) {
	var buf bytes.Buffer
	e := NewAnnotationEmitter(&buf)

	e.StepOpened("say hello", []string{"echo", "hello", "world"}, nil, "")
	e.StepLogLine("say hello", "stdout", "hello world")
	e.StepClosed("say hello", StatusSuccess, "")

	out := buf.String()
	if !strings.Contains(out, "hello world") {
		t.Fatalf("expected captured log line in output, got %q", out)
	}
	if !strings.Contains(out, "@@@step_opened ") {
		t.Fatalf("expected step_opened sentinel, got %q", out)
	}
	if !strings.Contains(out, "@@@step_closed ") {
		t.Fatalf("expected step_closed sentinel, got %q", out)
	}
}
