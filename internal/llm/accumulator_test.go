package llm

import (
	"strings"
	"testing"
)

func TestAccumulatorReassemblesSplitArguments(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(ToolCallFragment{Index: 0, ID: "call_1", Name: "check_stock", ArgsChunk: `{"med`})
	acc.Add(ToolCallFragment{Index: 0, ArgsChunk: `_id":"med_001"}`})
	acc.Finish()

	ready := acc.Ready()
	if len(ready) != 1 {
		t.Fatalf("expected 1 ready call, got %d", len(ready))
	}
	buf := ready[0]
	if buf.ID != "call_1" || buf.Name != "check_stock" {
		t.Fatalf("unexpected buffer identity: %+v", buf)
	}
	if buf.Args() != `{"med_id":"med_001"}` {
		t.Fatalf("unexpected args: %q", buf.Args())
	}
}

func TestAccumulatorInterleavedIndexes(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(ToolCallFragment{Index: 1, ID: "call_b", Name: "second", ArgsChunk: `{"b"`})
	acc.Add(ToolCallFragment{Index: 0, ID: "call_a", Name: "first", ArgsChunk: `{"a"`})
	acc.Add(ToolCallFragment{Index: 1, ArgsChunk: `:2}`})
	acc.Add(ToolCallFragment{Index: 0, ArgsChunk: `:1}`})
	acc.Finish()

	ready := acc.Ready()
	if len(ready) != 2 {
		t.Fatalf("expected 2 ready calls, got %d", len(ready))
	}
	if ready[0].Name != "first" || ready[1].Name != "second" {
		t.Fatalf("ready calls out of declaration order: %s, %s", ready[0].Name, ready[1].Name)
	}
	if ready[0].Args() != `{"a":1}` || ready[1].Args() != `{"b":2}` {
		t.Fatalf("interleaved fragments crossed buffers: %q, %q", ready[0].Args(), ready[1].Args())
	}
}

func TestAccumulatorFirstIdentityWins(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(ToolCallFragment{Index: 0, ID: "call_first", Name: "original"})
	acc.Add(ToolCallFragment{Index: 0, ID: "call_second", Name: "impostor"})
	acc.Finish()

	buf := acc.Ready()[0]
	if buf.ID != "call_first" || buf.Name != "original" {
		t.Fatalf("later fragments overwrote identity: %+v", buf)
	}
}

func TestAccumulatorGeneratesMissingID(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(ToolCallFragment{Index: 0, Name: "check_stock", ArgsChunk: `{}`})
	acc.Finish()

	buf := acc.Ready()[0]
	if !strings.HasPrefix(buf.ID, "call_") || len(buf.ID) <= len("call_") {
		t.Fatalf("expected generated id, got %q", buf.ID)
	}
}

func TestAccumulatorSurfacesNamelessCalls(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(ToolCallFragment{Index: 0, ID: "call_1", ArgsChunk: `{"query":"x"}`})
	acc.Add(ToolCallFragment{Index: 1})

	orphaned := acc.Finish()
	if len(orphaned) != 1 || orphaned[0].ID != "call_1" {
		t.Fatalf("expected the args-without-name buffer surfaced, got %v", orphaned)
	}
	if orphaned[0].State() != BufferFailed {
		t.Fatalf("unexpected orphan state %v", orphaned[0].State())
	}

	if len(acc.Ready()) != 0 {
		t.Fatal("a call without a name must never become ready")
	}
	if acc.Len() != 2 {
		t.Fatalf("expected both buffers still tracked, got %d", acc.Len())
	}
	if again := acc.Finish(); len(again) != 0 {
		t.Fatalf("duplicate finish re-reported the orphan: %v", again)
	}
}

func TestDuplicateFinishDoesNotRearm(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(ToolCallFragment{Index: 0, ID: "call_1", Name: "check_stock", ArgsChunk: `{}`})
	acc.Finish()

	buf := acc.Ready()[0]
	if !buf.MarkResolved() {
		t.Fatal("first resolve should succeed")
	}

	acc.Finish()
	if len(acc.Ready()) != 0 {
		t.Fatal("a resolved buffer must not return to ready")
	}
	if buf.MarkResolved() {
		t.Fatal("second resolve must be rejected")
	}
	if buf.MarkFailed() {
		t.Fatal("fail after resolve must be rejected")
	}
}

func TestMarkFailedIsTerminal(t *testing.T) {
	buf := &CallBuffer{ID: "call_1", Name: "check_stock"}
	if !buf.MarkFailed() {
		t.Fatal("first fail should succeed")
	}
	if buf.MarkResolved() {
		t.Fatal("resolve after fail must be rejected")
	}
	if buf.State() != BufferFailed {
		t.Fatalf("unexpected state %v", buf.State())
	}
}
