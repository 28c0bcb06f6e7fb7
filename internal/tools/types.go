// Package tools implements the tool registry, argument resolution and
// validation, and the lookup tool handlers offered to the model.
package tools

import (
	"context"
	"fmt"
)

// Error kinds produced while turning a streamed call into an executed tool.
// All of them convert to a structured result; none aborts the turn.
const (
	ErrKindMalformedArguments = "malformed_arguments"
	ErrKindMissingRequired    = "missing_required_argument"
	ErrKindInvalidArgument    = "invalid_argument"
	ErrKindUnknownTool        = "unknown_tool"
	ErrKindToolTimeout        = "tool_timeout"
	ErrKindHandlerError       = "handler_error"
)

// Inference rules for supplying omitted arguments from request context.
const (
	InferLanguage = "language"
	InferUserID   = "user_id"
)

// Param declares one tool parameter.
type Param struct {
	Name        string
	Type        string // "string", "integer", "number", "boolean"
	Description string
	Required    bool
	Enum        []string
	Infer       string // inference rule, empty for none
}

// Schema is a tool's declared contract, loaded once at startup.
type Schema struct {
	Name        string
	Description string
	Params      []Param
}

// JSONSchema renders the wire-format parameter schema offered to the model.
func (s Schema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Params))
	var required []string
	for _, p := range s.Params {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			enum := make([]any, len(p.Enum))
			for i, v := range p.Enum {
				enum[i] = v
			}
			prop["enum"] = enum
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Result is a handler outcome: an opaque payload for the model plus a
// localized message for the end user. Domain-level misses (nothing found,
// upstream unavailable) are still results, with Success false and a stable
// code in Err; they feed back into the conversation rather than abort it.
type Result struct {
	Success bool
	Err     string // stable domain error code, empty unless the call failed
	Payload map[string]any
	Message string
}

// HandlerError is a typed handler failure carrying a stable code and a
// localized user-facing message. Raw internal detail never reaches clients.
type HandlerError struct {
	Code    string
	Message string
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler error (%s)", e.Code)
}

// Handler executes one tool. Implementations must be side-effect isolated
// from the conversation loop and honor ctx cancellation on blocking lookups.
type Handler interface {
	Schema() Schema
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// RequestContext carries the per-request values available to inference rules.
type RequestContext struct {
	Language string // resolved request language
	UserID   string // authenticated identity, empty when anonymous
}

// PendingCall is a reassembled tool call awaiting resolution.
type PendingCall struct {
	ID       string
	Name     string
	ArgsText string
}

// ResolvedCall is a parsed, inferred, validated call ready for dispatch.
// Immutable once produced.
type ResolvedCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Failure describes why a call could not be resolved or validated.
type Failure struct {
	Kind       string
	Param      string // missing_required_argument, invalid_argument
	Constraint string // invalid_argument
}
