package tools

import "encoding/json"

// Resolve parses a pending call's accumulated argument text, fills inferable
// omissions from request context, and checks the result against the tool's
// declared contract. The returned failure, if any, names the first violated
// constraint; the handler is never invoked for a failed call.
func (r *Registry) Resolve(call PendingCall, rctx RequestContext) (ResolvedCall, *Failure) {
	reg, ok := r.byName[call.Name]
	if !ok {
		// Model output is untrusted even though only registered schemas
		// were offered to it.
		return ResolvedCall{}, &Failure{Kind: ErrKindUnknownTool}
	}

	args, err := parseArgs(call.ArgsText)
	if err != nil {
		return ResolvedCall{}, &Failure{Kind: ErrKindMalformedArguments}
	}

	inferArgs(reg.schema, args, rctx)

	for _, p := range reg.schema.Params {
		if !p.Required {
			continue
		}
		if v, present := args[p.Name]; !present || v == nil || v == "" {
			return ResolvedCall{}, &Failure{Kind: ErrKindMissingRequired, Param: p.Name}
		}
	}

	if failure := validateArgs(reg, args); failure != nil {
		return ResolvedCall{}, failure
	}

	return ResolvedCall{ID: call.ID, Name: call.Name, Args: args}, nil
}

// parseArgs decodes the accumulated argument text. Empty text means the
// model declared a call without arguments; that parses to an empty mapping
// so inference rules still get a chance to fill it.
func parseArgs(text string) (map[string]any, error) {
	if text == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(text), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// inferArgs applies each parameter's inference rule when the model omitted
// the value. The language rule always supplies a value; the identity rule
// only fills in an authenticated user and never fabricates one.
func inferArgs(schema Schema, args map[string]any, rctx RequestContext) {
	for _, p := range schema.Params {
		if _, present := args[p.Name]; present {
			continue
		}
		switch p.Infer {
		case InferLanguage:
			if rctx.Language != "" {
				args[p.Name] = rctx.Language
			}
		case InferUserID:
			if rctx.UserID != "" {
				args[p.Name] = rctx.UserID
			}
		}
	}
}
