package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// httpClientTimeout bounds a full streamed completion, not individual reads.
const httpClientTimeout = 10 * time.Minute

var defaultHTTPClient = &http.Client{
	Timeout: httpClientTimeout,
}

// OpenAIProvider speaks the OpenAI-compatible chat completions streaming
// protocol against any conforming backend.
type OpenAIProvider struct {
	baseURL string
	apiKey  string
	model   string
}

func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

func (p *OpenAIProvider) Name() string {
	return fmt.Sprintf("openai (%s)", p.model)
}

// Wire shapes of the outbound chat completion request.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Stream issues one streamed completion request. The response body is decoded
// incrementally; the caller owns the returned source and must close it.
func (p *OpenAIProvider) Stream(ctx context.Context, req Request) (EventSource, error) {
	messages := buildChatMessages(req.Messages)
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	chatReq := chatRequest{
		Model:    chooseModel(req.Model, p.model),
		Messages: messages,
		Tools:    buildChatTools(req.Tools),
		Stream:   true,
	}
	if len(chatReq.Tools) > 0 {
		chatReq.ToolChoice = "auto"
	}
	if req.Temperature > 0 {
		v := req.Temperature
		chatReq.Temperature = &v
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := defaultHTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat completions request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("chat completions error (status %d): %s", resp.StatusCode, string(errBody))
	}

	return &decodedSource{decoder: NewDecoder(resp.Body), body: resp.Body}, nil
}

// decodedSource adapts an HTTP response body into an EventSource.
type decodedSource struct {
	decoder *Decoder
	body    io.ReadCloser
}

func (s *decodedSource) Next() (StreamEvent, error) { return s.decoder.Next() }
func (s *decodedSource) Close() error               { return s.body.Close() }

func buildChatMessages(messages []Message) []chatMessage {
	result := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem, RoleUser:
			result = append(result, chatMessage{Role: string(msg.Role), Content: msg.Content})
		case RoleAssistant:
			out := chatMessage{Role: "assistant", Content: msg.Content}
			for _, call := range msg.ToolCalls {
				tc := chatToolCall{ID: call.ID, Type: "function"}
				tc.Function.Name = call.Name
				tc.Function.Arguments = string(call.Arguments)
				out.ToolCalls = append(out.ToolCalls, tc)
			}
			result = append(result, out)
		case RoleTool:
			result = append(result, chatMessage{
				Role:       "tool",
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		}
	}
	return result
}

func buildChatTools(specs []ToolSpec) []chatTool {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]chatTool, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Schema,
			},
		})
	}
	return tools
}

func chooseModel(requested, configured string) string {
	if requested != "" {
		return requested
	}
	return configured
}
