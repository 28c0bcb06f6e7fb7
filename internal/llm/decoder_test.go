package llm

import (
	"io"
	"strings"
	"testing"
)

func decodeAll(t *testing.T, raw string) []StreamEvent {
	t.Helper()
	dec := NewDecoder(strings.NewReader(raw))
	var events []StreamEvent
	for {
		event, err := dec.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatal(err)
		}
		events = append(events, event)
	}
}

func TestDecodeTextDeltas(t *testing.T) {
	raw := "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n" +
		"data: [DONE]\n\n"

	events := decodeAll(t, raw)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}
	if events[0].Type != StreamTextDelta || events[0].Text != "Hel" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Text != "lo" {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
	if events[2].Type != StreamFinish || events[2].FinishReason != "stop" {
		t.Fatalf("unexpected finish event: %+v", events[2])
	}
}

func TestDecodeToolCallFragments(t *testing.T) {
	raw := "data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"id\":\"call_1\",\"function\":{\"name\":\"check_stock\",\"arguments\":\"{\\\"med\"}}]}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"_id\\\":\\\"med_001\\\"}\"}}]}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"tool_calls\"}]}\n\n" +
		"data: [DONE]\n\n"

	events := decodeAll(t, raw)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	first := events[0]
	if first.Type != StreamToolCall {
		t.Fatalf("unexpected event type %v", first.Type)
	}
	if first.Fragment.ID != "call_1" || first.Fragment.Name != "check_stock" {
		t.Fatalf("unexpected fragment: %+v", first.Fragment)
	}

	second := events[1]
	if second.Fragment.ID != "" || second.Fragment.Name != "" {
		t.Fatalf("continuation fragment should carry no identity: %+v", second.Fragment)
	}
	if first.Fragment.ArgsChunk+second.Fragment.ArgsChunk != `{"med_id":"med_001"}` {
		t.Fatalf("fragments do not reassemble: %q + %q", first.Fragment.ArgsChunk, second.Fragment.ArgsChunk)
	}
}

func TestDecodeMalformedFrameContinues(t *testing.T) {
	raw := "data: {not json}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n" +
		"data: [DONE]\n\n"

	events := decodeAll(t, raw)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != StreamDecodeError || events[0].Err == nil {
		t.Fatalf("expected decode error event, got %+v", events[0])
	}
	if events[1].Type != StreamTextDelta || events[1].Text != "ok" {
		t.Fatalf("decoding should continue past bad frames, got %+v", events[1])
	}
}

func TestDecodeInlineErrorFrame(t *testing.T) {
	raw := "data: {\"error\":{\"message\":\"model overloaded\"}}\n\n" +
		"data: [DONE]\n\n"

	events := decodeAll(t, raw)
	if len(events) != 1 || events[0].Type != StreamDecodeError {
		t.Fatalf("expected one decode error event, got %+v", events)
	}
	if events[0].Err.Error() != "model overloaded" {
		t.Fatalf("unexpected error text: %v", events[0].Err)
	}
}

func TestDecodeStringErrorFrame(t *testing.T) {
	raw := "data: {\"error\":\"quota exceeded\"}\n\n" +
		"data: [DONE]\n\n"

	events := decodeAll(t, raw)
	if len(events) != 1 || events[0].Err.Error() != "quota exceeded" {
		t.Fatalf("expected string-form error, got %+v", events)
	}
}

func TestDecodeIgnoresNonDataLines(t *testing.T) {
	raw := ": keep-alive\n\n" +
		"event: message\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n" +
		"data: [DONE]\n\n"

	events := decodeAll(t, raw)
	if len(events) != 1 || events[0].Text != "x" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestDecodeEOFWithoutSentinel(t *testing.T) {
	raw := "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n"

	events := decodeAll(t, raw)
	if len(events) != 1 || events[0].Text != "partial" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestDecodeCRLFFrames(t *testing.T) {
	raw := "data: {\"choices\":[{\"delta\":{\"content\":\"win\"}}]}\r\n\r\n" +
		"data: [DONE]\r\n\r\n"

	events := decodeAll(t, raw)
	if len(events) != 1 || events[0].Text != "win" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestDecodeTextAndToolInOneChunk(t *testing.T) {
	raw := "data: {\"choices\":[{\"delta\":{\"content\":\"Checking\",\"tool_calls\":[{\"index\":0,\"id\":\"call_9\",\"function\":{\"name\":\"check_stock\",\"arguments\":\"{}\"}}]}}]}\n\n" +
		"data: [DONE]\n\n"

	events := decodeAll(t, raw)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != StreamTextDelta || events[1].Type != StreamToolCall {
		t.Fatalf("unexpected order: %+v", events)
	}
}
