package tools

import (
	"fmt"
	"strings"
)

// validateArgs checks resolved arguments against the declared contract.
// Pure and side-effect free: no handler call, no shared state mutation.
// Declared parameter types and enums are checked explicitly so failures can
// name the exact parameter and constraint; the compiled JSON schema runs
// afterwards as a structural catch-all.
func validateArgs(reg *registration, args map[string]any) *Failure {
	for _, p := range reg.schema.Params {
		v, present := args[p.Name]
		if !present {
			continue
		}
		if !typeMatches(p.Type, v) {
			return &Failure{
				Kind:       ErrKindInvalidArgument,
				Param:      p.Name,
				Constraint: fmt.Sprintf("expected %s", p.Type),
			}
		}
		if len(p.Enum) > 0 {
			s, _ := v.(string)
			if !contains(p.Enum, s) {
				return &Failure{
					Kind:       ErrKindInvalidArgument,
					Param:      p.Name,
					Constraint: fmt.Sprintf("must be one of %s", strings.Join(p.Enum, ", ")),
				}
			}
		}
	}

	if reg.compiled != nil {
		if err := reg.compiled.Validate(args); err != nil {
			return &Failure{
				Kind:       ErrKindInvalidArgument,
				Param:      "arguments",
				Constraint: err.Error(),
			}
		}
	}
	return nil
}

// typeMatches checks a decoded JSON value against a declared parameter type.
func typeMatches(declared string, v any) bool {
	switch declared {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "number":
		_, ok := v.(float64)
		return ok
	case "integer":
		f, ok := v.(float64)
		return ok && f == float64(int64(f))
	default:
		return true
	}
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
