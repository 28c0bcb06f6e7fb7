package llm

import (
	"context"
	"encoding/json"
)

// Role identifies a message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a conversation sent to the model backend.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall // assistant messages that requested tool invocations
	ToolCallID string     // tool messages: the call this result answers
}

// ToolCall is a fully assembled model-requested tool invocation.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolSpec describes a callable tool as offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Request represents the conversation state for one model turn.
type Request struct {
	Model       string
	Messages    []Message
	Tools       []ToolSpec
	Temperature float64
}

// Provider streams raw model output as decoded StreamEvents.
type Provider interface {
	Name() string
	Stream(ctx context.Context, req Request) (EventSource, error)
}

// EventSource yields decoded stream events until io.EOF.
type EventSource interface {
	Next() (StreamEvent, error)
	Close() error
}

// StreamEventType tags decoded model stream events.
type StreamEventType string

const (
	StreamTextDelta   StreamEventType = "text_delta"
	StreamToolCall    StreamEventType = "tool_call_fragment"
	StreamFinish      StreamEventType = "finish"
	StreamDecodeError StreamEventType = "decode_error"
)

// ToolCallFragment is a partial chunk of a tool call delivered during streaming.
// ID and Name may only be present on the first fragment for an index.
type ToolCallFragment struct {
	Index     int
	ID        string
	Name      string
	ArgsChunk string
}

// StreamEvent is one decoded event from the model byte stream.
type StreamEvent struct {
	Type         StreamEventType
	Text         string
	Fragment     ToolCallFragment
	FinishReason string
	Err          error // StreamDecodeError only
}

// EventType describes outbound engine events.
type EventType string

const (
	EventTextDelta    EventType = "text_delta"
	EventToolExecuted EventType = "tool_executed"
	EventDone         EventType = "done"
	EventError        EventType = "error"
)

// Event is a streamed engine output update, consumed by the re-emitter.
type Event struct {
	Type EventType
	Text string

	// EventToolExecuted fields
	ToolCallID string
	ToolName   string
	ToolInput  map[string]any

	Err error
}

// Stream yields engine events until io.EOF.
type Stream interface {
	Recv() (Event, error)
	Close() error
}

func SystemText(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

func UserText(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// ToolResultMessage creates the tool message appended to the conversation
// for a completed call. Content carries the serialized result payload.
func ToolResultMessage(id string, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: id}
}
