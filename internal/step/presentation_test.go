package step

import (
	"errors"
	"testing"

	"github.com/cruciblehq/crecipe/internal/stream"
)

type closeSink struct {
	recordingSink
	closes []string
}

func (c *closeSink) StepClosed(name string, status stream.Status, details string) {
	c.closes = append(c.closes, name+":"+string(status))
}

func TestPresentationEmitsAtLaterOfFinalizeAndClose(t *testing.T) {
	sink := &closeSink{}
	p := NewPresentation("compile", sink)

	p.Finalize(stream.StatusFailure, "retcode 1")
	if len(sink.closes) != 0 {
		t.Fatalf("step_closed emitted before Close: %v", sink.closes)
	}

	// Recipe code may still override the engine's status while the
	// window is open.
	if err := p.SetStatus(stream.StatusWarning); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	p.Close()
	p.Close() // idempotent
	if len(sink.closes) != 1 || sink.closes[0] != "compile:warning" {
		t.Fatalf("got closes %v, want [compile:warning]", sink.closes)
	}
}

func TestPresentationCloseBeforeFinalizeDefersEmission(t *testing.T) {
	sink := &closeSink{}
	p := NewPresentation("compile", sink)

	// A concurrent sibling opened the next step while this one was
	// still running.
	p.Close()
	if len(sink.closes) != 0 {
		t.Fatalf("step_closed emitted before the step finalized: %v", sink.closes)
	}

	p.Finalize(stream.StatusCanceled, "timed out")
	if len(sink.closes) != 1 || sink.closes[0] != "compile:canceled" {
		t.Fatalf("got closes %v, want [compile:canceled]", sink.closes)
	}
}

func TestPresentationRejectsWritesAfterClose(t *testing.T) {
	p := NewPresentation("compile", &closeSink{})
	p.Close()

	if err := p.SetText("late"); !errors.Is(err, stream.ErrClosed) {
		t.Fatalf("SetText after close: got %v, want stream.ErrClosed", err)
	}
	if err := p.SetStatus(stream.StatusFailure); !errors.Is(err, stream.ErrClosed) {
		t.Fatalf("SetStatus after close: got %v, want stream.ErrClosed", err)
	}
	if err := p.SetLink("log", "https://example.com"); !errors.Is(err, stream.ErrClosed) {
		t.Fatalf("SetLink after close: got %v, want stream.ErrClosed", err)
	}
}
