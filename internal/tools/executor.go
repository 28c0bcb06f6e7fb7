package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/pharmassist/pharmassist/internal/i18n"
)

// Outcome is the structured result of one tool call, produced exactly once
// per resolved call, failures included. The loop appends its Content to the
// conversation and the re-emitter surfaces the execution notice.
type Outcome struct {
	ID        string
	Name      string
	Success   bool
	Payload   map[string]any
	Message   string // localized user-facing message
	ErrorKind string // empty on success
	Args      map[string]any
}

// Content serializes the outcome for the tool message sent back to the model.
func (o Outcome) Content() string {
	body := make(map[string]any, len(o.Payload)+3)
	for k, v := range o.Payload {
		body[k] = v
	}
	body["success"] = o.Success
	if o.ErrorKind != "" {
		body["error"] = o.ErrorKind
	}
	if o.Message != "" {
		body["message"] = o.Message
	}
	data, err := json.Marshal(body)
	if err != nil {
		return `{"success":false,"error":"internal_error"}`
	}
	return string(data)
}

// Executor routes validated calls to their registered handlers and
// normalizes every failure into an Outcome so the conversation loop can
// always proceed to the next model turn.
type Executor struct {
	registry *Registry
	timeout  time.Duration
	log      *slog.Logger
}

func NewExecutor(registry *Registry, timeout time.Duration, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{registry: registry, timeout: timeout, log: log}
}

// Execute invokes the handler for a resolved call. Lookups are blocking
// calls to external collaborators and are bounded by the per-call timeout;
// exceeding it yields a tool_timeout outcome rather than hanging the turn.
func (e *Executor) Execute(ctx context.Context, call ResolvedCall, rctx RequestContext) Outcome {
	handler, ok := e.registry.Lookup(call.Name)
	if !ok {
		e.log.Error("unknown tool dispatched", "tool", call.Name, "call_id", call.ID)
		return e.failure(call.ID, call.Name, call.Args, &Failure{Kind: ErrKindUnknownTool}, rctx.Language)
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	result, err := handler.Execute(callCtx, call.Args)
	if err != nil {
		return e.executionFailure(call, err, rctx.Language)
	}

	e.log.Info("tool executed", "tool", call.Name, "call_id", call.ID, "success", result.Success)
	return Outcome{
		ID:        call.ID,
		Name:      call.Name,
		Success:   result.Success,
		Payload:   result.Payload,
		Message:   result.Message,
		ErrorKind: result.Err,
		Args:      call.Args,
	}
}

// FailureOutcome converts a resolution or validation failure into an Outcome
// for a call whose handler was never invoked.
func (e *Executor) FailureOutcome(call PendingCall, f *Failure, lang string) Outcome {
	var args map[string]any
	if parsed, err := parseArgs(call.ArgsText); err == nil {
		args = parsed
	}
	return e.failure(call.ID, call.Name, args, f, lang)
}

func (e *Executor) executionFailure(call ResolvedCall, err error, lang string) Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		e.log.Warn("tool timed out", "tool", call.Name, "call_id", call.ID)
		return e.failure(call.ID, call.Name, call.Args, &Failure{Kind: ErrKindToolTimeout}, lang)
	}

	var handlerErr *HandlerError
	if errors.As(err, &handlerErr) {
		e.log.Warn("tool failed", "tool", call.Name, "call_id", call.ID, "code", handlerErr.Code)
		return Outcome{
			ID:        call.ID,
			Name:      call.Name,
			Payload:   map[string]any{"code": handlerErr.Code},
			Message:   handlerErr.Message,
			ErrorKind: ErrKindHandlerError,
			Args:      call.Args,
		}
	}

	e.log.Error("tool failed unexpectedly", "tool", call.Name, "call_id", call.ID, "err", err)
	return Outcome{
		ID:        call.ID,
		Name:      call.Name,
		Message:   i18n.Get("errors", "internal_error", lang, nil),
		ErrorKind: ErrKindHandlerError,
		Args:      call.Args,
	}
}

func (e *Executor) failure(id, name string, args map[string]any, f *Failure, lang string) Outcome {
	e.log.Warn("tool call rejected",
		"tool", name, "call_id", id, "kind", f.Kind, "param", f.Param)
	return Outcome{
		ID:        id,
		Name:      name,
		Message:   failureMessage(name, f, lang),
		ErrorKind: f.Kind,
		Args:      args,
	}
}

// missingParamKeys maps tool/parameter pairs to their tool-specific
// localized prompts. Anything unmapped falls back to the generic message.
var missingParamKeys = map[string]struct{ cat, key string }{
	"check_stock/med_id":           {"inventory", "missing_med_id"},
	"get_handling_warnings/med_id": {"handling", "missing_med_id"},
	"get_medication_info/query":    {"medication", "missing_query"},
	"resolve_medication_id/name":   {"medication", "missing_name"},
	"search_by_ingredient/ingredient": {"medication", "missing_ingredient"},
	"find_nearest_pharmacy/zip_code":  {"pharmacy", "missing_location"},
	"find_nearest_pharmacy/city":      {"pharmacy", "missing_location"},
	"get_user_prescriptions/user_id":  {"prescription", "missing_user"},
}

func failureMessage(tool string, f *Failure, lang string) string {
	switch f.Kind {
	case ErrKindMissingRequired:
		if m, ok := missingParamKeys[tool+"/"+f.Param]; ok {
			return i18n.Get(m.cat, m.key, lang, nil)
		}
		return i18n.Get("errors", "missing_required_argument", lang, i18n.Args{"param": f.Param})
	case ErrKindInvalidArgument:
		return i18n.Get("errors", "invalid_argument", lang, i18n.Args{
			"param":      f.Param,
			"constraint": f.Constraint,
		})
	case ErrKindMalformedArguments:
		return i18n.Get("errors", "malformed_arguments", lang, nil)
	case ErrKindToolTimeout:
		return i18n.Get("errors", "tool_timeout", lang, nil)
	case ErrKindUnknownTool:
		return i18n.Get("errors", "unknown_tool", lang, nil)
	default:
		return i18n.Get("errors", "internal_error", lang, nil)
	}
}
