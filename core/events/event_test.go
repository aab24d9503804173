package events

import (
	"testing"

	"carbonmarket/core/types"
)

type testEvent struct {
	kind  string
	attrs map[string]string
}

func (e testEvent) EventType() string { return e.kind }

func (e testEvent) Event() *types.Event {
	return &types.Event{Type: e.kind, Attributes: e.attrs}
}

type bareEvent string

func (e bareEvent) EventType() string { return string(e) }

func TestMultiFansOutAndSkipsNil(t *testing.T) {
	first := &Recorder{}
	second := &Recorder{}
	multi := Multi{first, nil, NoopEmitter{}, second}

	multi.Emit(bareEvent("a"))
	multi.Emit(bareEvent("b"))

	for i, rec := range []*Recorder{first, second} {
		got := rec.Types()
		if len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Fatalf("recorder %d: unexpected types %v", i, got)
		}
	}
}

func TestRecorderRecordsAreCloned(t *testing.T) {
	rec := &Recorder{}
	attrs := map[string]string{"id": "01"}
	rec.Emit(testEvent{kind: "x", attrs: attrs})
	rec.Emit(bareEvent("y"))
	rec.Emit(nil)

	records := rec.Records()
	if len(records) != 1 {
		t.Fatalf("expected one payload record, got %d", len(records))
	}
	records[0].Attributes["id"] = "mutated"
	if attrs["id"] != "01" {
		t.Fatalf("Records must return cloned attributes")
	}
	if len(rec.Events()) != 2 {
		t.Fatalf("nil events must not be recorded")
	}

	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Fatalf("expected reset recorder to be empty")
	}
}
