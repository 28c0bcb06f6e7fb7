package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIProviderStream(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Error(err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\n")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL, "test-key", "gpt-4o-mini")
	src, err := provider.Stream(context.Background(), Request{
		Messages: []Message{
			SystemText("you are a pharmacy assistant"),
			UserText("hello"),
		},
		Tools: []ToolSpec{{
			Name:        "check_stock",
			Description: "Check stock",
			Schema:      map[string]any{"type": "object"},
		}},
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	event, err := src.Next()
	if err != nil || event.Text != "hi" {
		t.Fatalf("unexpected first event: %+v, %v", event, err)
	}
	event, err = src.Next()
	if err != nil || event.FinishReason != "stop" {
		t.Fatalf("unexpected finish event: %+v, %v", event, err)
	}
	if _, err := src.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}

	if !captured.Stream {
		t.Fatal("request must ask for streaming")
	}
	if captured.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", captured.Model)
	}
	if captured.ToolChoice != "auto" || len(captured.Tools) != 1 {
		t.Fatalf("tools not forwarded: %+v", captured)
	}
	if captured.Temperature == nil || *captured.Temperature != 0.3 {
		t.Fatalf("temperature not forwarded: %+v", captured.Temperature)
	}
}

func TestOpenAIProviderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL, "wrong", "gpt-4o-mini")
	if _, err := provider.Stream(context.Background(), Request{Messages: []Message{UserText("hi")}}); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestOpenAIProviderUnreachable(t *testing.T) {
	provider := NewOpenAIProvider("http://127.0.0.1:1", "", "gpt-4o-mini")
	if _, err := provider.Stream(context.Background(), Request{Messages: []Message{UserText("hi")}}); err == nil {
		t.Fatal("expected a transport error")
	}
}

func TestBuildChatMessagesRoundTrip(t *testing.T) {
	messages := buildChatMessages([]Message{
		SystemText("sys"),
		UserText("question"),
		{
			Role:    RoleAssistant,
			Content: "",
			ToolCalls: []ToolCall{{
				ID:        "call_1",
				Name:      "check_stock",
				Arguments: json.RawMessage(`{"med_id":"med_001"}`),
			}},
		},
		ToolResultMessage("call_1", `{"success":true}`),
	})

	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	assistant := messages[2]
	if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].Type != "function" {
		t.Fatalf("unexpected assistant tool calls: %+v", assistant.ToolCalls)
	}
	if assistant.ToolCalls[0].Function.Arguments != `{"med_id":"med_001"}` {
		t.Fatalf("unexpected arguments: %q", assistant.ToolCalls[0].Function.Arguments)
	}
	tool := messages[3]
	if tool.Role != "tool" || tool.ToolCallID != "call_1" {
		t.Fatalf("unexpected tool message: %+v", tool)
	}
}

func TestRequestedModelOverridesConfigured(t *testing.T) {
	if got := chooseModel("gpt-4o", "gpt-4o-mini"); got != "gpt-4o" {
		t.Fatalf("unexpected model %q", got)
	}
	if got := chooseModel("", "gpt-4o-mini"); got != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", got)
	}
}
