// Package agent drives the conversation loop: it streams model output,
// reassembles and executes tool calls, feeds results back, and re-emits a
// clean event stream for the client.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/pharmassist/pharmassist/internal/i18n"
	"github.com/pharmassist/pharmassist/internal/llm"
	"github.com/pharmassist/pharmassist/internal/safety"
	"github.com/pharmassist/pharmassist/internal/tools"
)

const defaultMaxTurns = 6

// Request is one user turn entering the loop.
type Request struct {
	Model       string
	Temperature float64
	Messages    []llm.Message
	Context     tools.RequestContext
}

// Options tunes an Engine.
type Options struct {
	MaxTurns int
	Logger   *slog.Logger

	// OnToolExecuted is invoked once per executed call, successes and
	// failures alike. Used for per-user usage accounting.
	OnToolExecuted func(toolName string)
}

// Engine orchestrates provider calls and tool execution.
type Engine struct {
	provider llm.Provider
	registry *tools.Registry
	executor *tools.Executor
	guard    *safety.Guard
	log      *slog.Logger
	maxTurns int

	onToolExecuted func(string)
}

func NewEngine(provider llm.Provider, registry *tools.Registry, executor *tools.Executor, guard *safety.Guard, opts Options) *Engine {
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		provider:       provider,
		registry:       registry,
		executor:       executor,
		guard:          guard,
		log:            log,
		maxTurns:       maxTurns,
		onToolExecuted: opts.OnToolExecuted,
	}
}

// Run executes the loop for one request. The returned stream yields text
// deltas and tool execution notices, then EventDone; the only fatal errors
// are an unreachable backend and context cancellation.
func (e *Engine) Run(ctx context.Context, req Request) llm.Stream {
	return llm.NewEventStream(ctx, func(ctx context.Context, events chan<- llm.Event) error {
		return e.runLoop(ctx, req, events)
	})
}

// turnOutcome collects what one model turn produced.
type turnOutcome struct {
	text          string
	calls         []*llm.CallBuffer
	finishReason  string
	safetyBlocked bool
}

func (e *Engine) runLoop(ctx context.Context, req Request, events chan<- llm.Event) error {
	messages := req.Messages

	for attempt := 0; attempt < e.maxTurns; attempt++ {
		// A client disconnect cancels the context; never start another
		// model call after that.
		if err := ctx.Err(); err != nil {
			return err
		}

		src, err := e.provider.Stream(ctx, llm.Request{
			Model:       req.Model,
			Messages:    messages,
			Tools:       e.registry.Specs(),
			Temperature: req.Temperature,
		})
		if err != nil {
			e.log.Error("model backend unreachable", "provider", e.provider.Name(), "err", err)
			return fmt.Errorf("%s: %w", i18n.Get("errors", "backend_unreachable", req.Context.Language, nil), err)
		}

		turn, err := e.consumeTurn(src, req.Context.Language, events)
		src.Close()
		if err != nil {
			return err
		}

		if turn.safetyBlocked {
			events <- llm.Event{Type: llm.EventDone}
			return nil
		}

		if len(turn.calls) == 0 {
			e.log.Info("turn finished", "attempt", attempt, "finish_reason", turn.finishReason)
			events <- llm.Event{Type: llm.EventDone}
			return nil
		}

		if attempt == e.maxTurns-1 {
			// Budget spent with the model still asking for tools. Surface a
			// localized fallback instead of an opaque failure.
			e.log.Warn("turn budget exceeded", "max_turns", e.maxTurns)
			events <- llm.Event{
				Type: llm.EventTextDelta,
				Text: i18n.Get("errors", "turn_budget_exceeded", req.Context.Language, nil),
			}
			events <- llm.Event{Type: llm.EventDone}
			return nil
		}

		outcomes := e.executeCalls(ctx, turn.calls, req.Context)

		// Notices go out in declaration order regardless of completion order.
		for _, out := range outcomes {
			events <- llm.Event{
				Type:       llm.EventToolExecuted,
				ToolCallID: out.ID,
				ToolName:   out.Name,
				ToolInput:  out.Args,
			}
			if e.onToolExecuted != nil {
				e.onToolExecuted(out.Name)
			}
		}

		messages = append(messages, assistantTurnMessage(turn))
		for _, out := range outcomes {
			messages = append(messages, llm.ToolResultMessage(out.ID, out.Content()))
		}
	}

	// Unreachable: the budget fallback on the final attempt returns inside
	// the loop whenever calls are still pending.
	return fmt.Errorf("conversation loop ended unexpectedly")
}

// consumeTurn drains one model stream: text deltas are forwarded as they
// arrive, tool call fragments are reassembled, decode errors are skipped.
// The safety guard runs over the accumulated text; the first violation
// replaces the rest of the response with a localized refusal.
func (e *Engine) consumeTurn(src llm.EventSource, lang string, events chan<- llm.Event) (turnOutcome, error) {
	acc := llm.NewAccumulator()
	var text strings.Builder
	var turn turnOutcome

	for {
		event, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return turn, err
		}

		switch event.Type {
		case llm.StreamTextDelta:
			if turn.safetyBlocked {
				continue
			}
			text.WriteString(event.Text)
			if reason := e.guard.Check(text.String()); reason != "" {
				e.log.Warn("response blocked", "reason", reason)
				refusal := safety.RefusalMessage(reason, lang)
				events <- llm.Event{Type: llm.EventTextDelta, Text: refusal}
				text.Reset()
				text.WriteString(refusal)
				turn.safetyBlocked = true
				continue
			}
			events <- llm.Event{Type: llm.EventTextDelta, Text: event.Text}

		case llm.StreamToolCall:
			acc.Add(event.Fragment)

		case llm.StreamFinish:
			turn.finishReason = event.FinishReason
			e.logOrphans(acc.Finish())

		case llm.StreamDecodeError:
			// Malformed frames are dropped; the stream carries on.
			e.log.Warn("skipping undecodable stream frame", "err", event.Err)
		}
	}

	// A stream that ends without a finish frame still settles its calls.
	e.logOrphans(acc.Finish())

	turn.text = text.String()
	turn.calls = acc.Ready()
	return turn, nil
}

// logOrphans records argument text that arrived without a tool name. Such a
// call can never be dispatched, but the loss must show up in the trace.
func (e *Engine) logOrphans(orphans []*llm.CallBuffer) {
	for _, buf := range orphans {
		e.log.Warn("dropping tool call arguments without a name",
			"call_id", buf.ID, "index", buf.Index)
	}
}

// executeCalls resolves and runs a turn's calls concurrently, then returns
// the outcomes re-sorted into declaration order. Each buffer reaches a
// terminal state exactly once; a failed sibling never blocks the others.
func (e *Engine) executeCalls(ctx context.Context, calls []*llm.CallBuffer, rctx tools.RequestContext) []tools.Outcome {
	outcomes := make([]tools.Outcome, len(calls))

	var wg sync.WaitGroup
	for i, buf := range calls {
		wg.Add(1)
		go func(idx int, buf *llm.CallBuffer) {
			defer wg.Done()
			outcomes[idx] = e.executeCall(ctx, buf, rctx)
		}(i, buf)
	}
	wg.Wait()

	return outcomes
}

func (e *Engine) executeCall(ctx context.Context, buf *llm.CallBuffer, rctx tools.RequestContext) tools.Outcome {
	pending := tools.PendingCall{ID: buf.ID, Name: buf.Name, ArgsText: buf.Args()}

	resolved, failure := e.registry.Resolve(pending, rctx)
	if failure != nil {
		buf.MarkFailed()
		return e.executor.FailureOutcome(pending, failure, rctx.Language)
	}

	if !buf.MarkResolved() {
		// Already terminal: a duplicate finish signal must not run the
		// handler twice.
		return tools.Outcome{ID: buf.ID, Name: buf.Name, Args: resolved.Args}
	}

	return e.executor.Execute(ctx, resolved, rctx)
}

// assistantTurnMessage rebuilds the assistant message for the transcript:
// the turn's text plus the tool calls it declared, echoing the model's own
// argument text where it was valid JSON.
func assistantTurnMessage(turn turnOutcome) llm.Message {
	msg := llm.Message{Role: llm.RoleAssistant, Content: turn.text}
	for _, buf := range turn.calls {
		args := buf.Args()
		if args == "" || !json.Valid([]byte(args)) {
			args = "{}"
		}
		msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
			ID:        buf.ID,
			Name:      buf.Name,
			Arguments: json.RawMessage(args),
		})
	}
	return msg
}
