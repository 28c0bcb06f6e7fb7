package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticHandler is a scripted handler for registry and resolver tests.
type staticHandler struct {
	schema  Schema
	execute func(ctx context.Context, args map[string]any) (*Result, error)
}

func (h *staticHandler) Schema() Schema { return h.schema }

func (h *staticHandler) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	if h.execute == nil {
		return &Result{Success: true}, nil
	}
	return h.execute(ctx, args)
}

func lookupSchema() Schema {
	return Schema{
		Name:        "lookup_item",
		Description: "test lookup",
		Params: []Param{
			{Name: "query", Type: "string", Description: "item to look up", Required: true},
			{Name: "limit", Type: "integer", Description: "max results"},
			{Name: "lang", Type: "string", Description: "language", Enum: []string{"en", "he", "ru", "ar"}, Infer: InferLanguage},
			{Name: "user_id", Type: "string", Description: "user", Infer: InferUserID},
		},
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(&staticHandler{schema: lookupSchema()}))
	return r
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Register(&staticHandler{schema: lookupSchema()})
	assert.Error(t, err)
}

func TestSpecsSortedByName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&staticHandler{schema: Schema{Name: "zeta", Params: []Param{}}}))
	require.NoError(t, r.Register(&staticHandler{schema: Schema{Name: "alpha", Params: []Param{}}}))

	specs := r.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "alpha", specs[0].Name)
	assert.Equal(t, "zeta", specs[1].Name)
}

func TestResolveInfersOmittedArguments(t *testing.T) {
	r := newTestRegistry(t)
	rctx := RequestContext{Language: "he", UserID: "USER003"}

	resolved, failure := r.Resolve(PendingCall{ID: "call_1", Name: "lookup_item", ArgsText: `{"query":"aspirin"}`}, rctx)
	require.Nil(t, failure)
	assert.Equal(t, "he", resolved.Args["lang"])
	assert.Equal(t, "USER003", resolved.Args["user_id"])
}

func TestResolveNeverFabricatesIdentity(t *testing.T) {
	r := newTestRegistry(t)

	resolved, failure := r.Resolve(PendingCall{Name: "lookup_item", ArgsText: `{"query":"aspirin"}`}, RequestContext{Language: "en"})
	require.Nil(t, failure)
	_, present := resolved.Args["user_id"]
	assert.False(t, present)
}

func TestResolveKeepsExplicitOverInferred(t *testing.T) {
	r := newTestRegistry(t)
	rctx := RequestContext{Language: "he", UserID: "USER003"}

	resolved, failure := r.Resolve(PendingCall{Name: "lookup_item", ArgsText: `{"query":"aspirin","lang":"ru"}`}, rctx)
	require.Nil(t, failure)
	assert.Equal(t, "ru", resolved.Args["lang"])
}

func TestResolveFailures(t *testing.T) {
	r := newTestRegistry(t)
	rctx := RequestContext{Language: "en"}

	tests := []struct {
		name     string
		call     PendingCall
		wantKind string
		wantParam string
	}{
		{
			name:     "unknown tool",
			call:     PendingCall{Name: "no_such_tool", ArgsText: `{}`},
			wantKind: ErrKindUnknownTool,
		},
		{
			name:     "malformed arguments",
			call:     PendingCall{Name: "lookup_item", ArgsText: `{"query":`},
			wantKind: ErrKindMalformedArguments,
		},
		{
			name:      "missing required",
			call:      PendingCall{Name: "lookup_item", ArgsText: `{}`},
			wantKind:  ErrKindMissingRequired,
			wantParam: "query",
		},
		{
			name:      "empty required",
			call:      PendingCall{Name: "lookup_item", ArgsText: `{"query":""}`},
			wantKind:  ErrKindMissingRequired,
			wantParam: "query",
		},
		{
			name:      "wrong type",
			call:      PendingCall{Name: "lookup_item", ArgsText: `{"query":"aspirin","limit":"ten"}`},
			wantKind:  ErrKindInvalidArgument,
			wantParam: "limit",
		},
		{
			name:      "fractional integer",
			call:      PendingCall{Name: "lookup_item", ArgsText: `{"query":"aspirin","limit":1.5}`},
			wantKind:  ErrKindInvalidArgument,
			wantParam: "limit",
		},
		{
			name:      "enum violation",
			call:      PendingCall{Name: "lookup_item", ArgsText: `{"query":"aspirin","lang":"fr"}`},
			wantKind:  ErrKindInvalidArgument,
			wantParam: "lang",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, failure := r.Resolve(tt.call, rctx)
			require.NotNil(t, failure)
			assert.Equal(t, tt.wantKind, failure.Kind)
			if tt.wantParam != "" {
				assert.Equal(t, tt.wantParam, failure.Param)
			}
		})
	}
}

func TestResolveEmptyArgsTextStillInfers(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&staticHandler{schema: Schema{
		Name:   "whoami",
		Params: []Param{{Name: "user_id", Type: "string", Required: true, Infer: InferUserID}},
	}}))

	resolved, failure := r.Resolve(PendingCall{Name: "whoami", ArgsText: ""}, RequestContext{UserID: "USER001"})
	require.Nil(t, failure)
	assert.Equal(t, "USER001", resolved.Args["user_id"])

	_, failure = r.Resolve(PendingCall{Name: "whoami", ArgsText: ""}, RequestContext{})
	require.NotNil(t, failure)
	assert.Equal(t, ErrKindMissingRequired, failure.Kind)
	assert.Equal(t, "user_id", failure.Param)
}

func TestResolveToleratesExtraArguments(t *testing.T) {
	r := newTestRegistry(t)

	resolved, failure := r.Resolve(PendingCall{Name: "lookup_item", ArgsText: `{"query":"aspirin","verbose":true}`}, RequestContext{})
	require.Nil(t, failure)
	assert.Equal(t, true, resolved.Args["verbose"])
}
