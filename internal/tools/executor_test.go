package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSuccess(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&staticHandler{
		schema: Schema{Name: "echo", Params: []Param{}},
		execute: func(_ context.Context, args map[string]any) (*Result, error) {
			return &Result{Success: true, Payload: map[string]any{"echoed": true}, Message: "done"}, nil
		},
	}))
	e := NewExecutor(r, time.Second, nil)

	out := e.Execute(context.Background(), ResolvedCall{ID: "call_1", Name: "echo", Args: map[string]any{}}, RequestContext{Language: "en"})
	assert.True(t, out.Success)
	assert.Empty(t, out.ErrorKind)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.Content()), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["echoed"])
	assert.Equal(t, "done", body["message"])
}

func TestExecuteDomainFailure(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&staticHandler{
		schema: Schema{Name: "find", Params: []Param{}},
		execute: func(_ context.Context, _ map[string]any) (*Result, error) {
			return &Result{Err: "not_found", Message: "nothing here"}, nil
		},
	}))
	e := NewExecutor(r, time.Second, nil)

	out := e.Execute(context.Background(), ResolvedCall{ID: "call_1", Name: "find", Args: map[string]any{}}, RequestContext{Language: "en"})
	assert.False(t, out.Success)
	assert.Equal(t, "not_found", out.ErrorKind)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.Content()), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "not_found", body["error"])
}

func TestExecuteTimeout(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&staticHandler{
		schema: Schema{Name: "slow", Params: []Param{}},
		execute: func(ctx context.Context, _ map[string]any) (*Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}))
	e := NewExecutor(r, 10*time.Millisecond, nil)

	out := e.Execute(context.Background(), ResolvedCall{ID: "call_1", Name: "slow", Args: map[string]any{}}, RequestContext{Language: "en"})
	assert.False(t, out.Success)
	assert.Equal(t, ErrKindToolTimeout, out.ErrorKind)
	assert.NotEmpty(t, out.Message)
}

func TestExecuteHandlerError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&staticHandler{
		schema: Schema{Name: "broken", Params: []Param{}},
		execute: func(_ context.Context, _ map[string]any) (*Result, error) {
			return nil, &HandlerError{Code: "search_failed", Message: "upstream exploded"}
		},
	}))
	e := NewExecutor(r, time.Second, nil)

	out := e.Execute(context.Background(), ResolvedCall{ID: "call_1", Name: "broken", Args: map[string]any{}}, RequestContext{Language: "en"})
	assert.Equal(t, ErrKindHandlerError, out.ErrorKind)
	assert.Equal(t, "search_failed", out.Payload["code"])
	assert.Equal(t, "upstream exploded", out.Message)
}

func TestExecuteUnexpectedError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&staticHandler{
		schema: Schema{Name: "panicky", Params: []Param{}},
		execute: func(_ context.Context, _ map[string]any) (*Result, error) {
			return nil, errors.New("nil pointer somewhere")
		},
	}))
	e := NewExecutor(r, time.Second, nil)

	out := e.Execute(context.Background(), ResolvedCall{ID: "call_1", Name: "panicky", Args: map[string]any{}}, RequestContext{Language: "en"})
	assert.Equal(t, ErrKindHandlerError, out.ErrorKind)
	// internal detail never leaks into the user-facing message
	assert.NotContains(t, out.Message, "nil pointer")
}

func TestFailureOutcomeLocalizedMessages(t *testing.T) {
	e := NewExecutor(NewRegistry(), time.Second, nil)

	out := e.FailureOutcome(
		PendingCall{ID: "call_1", Name: "check_stock", ArgsText: `{}`},
		&Failure{Kind: ErrKindMissingRequired, Param: "med_id"},
		"he",
	)
	assert.Equal(t, ErrKindMissingRequired, out.ErrorKind)
	assert.NotEmpty(t, out.Message)

	out = e.FailureOutcome(
		PendingCall{ID: "call_2", Name: "lookup_item", ArgsText: `{"a":`},
		&Failure{Kind: ErrKindMalformedArguments},
		"en",
	)
	assert.Equal(t, ErrKindMalformedArguments, out.ErrorKind)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.Content()), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, ErrKindMalformedArguments, body["error"])
}
