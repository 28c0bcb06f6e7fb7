package tools

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/pharmassist/pharmassist/internal/llm"
)

// Registry maps tool names to handlers and their compiled schemas. It is
// built once at startup and read-only afterwards; no reflection-based
// dispatch, just an explicit registration table.
type Registry struct {
	byName map[string]*registration
}

type registration struct {
	handler  Handler
	schema   Schema
	compiled *jsonschema.Resolved
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*registration)}
}

// Register adds a handler, compiling its parameter schema for validation.
func (r *Registry) Register(h Handler) error {
	schema := h.Schema()
	if schema.Name == "" {
		return fmt.Errorf("tool schema has no name")
	}
	if _, exists := r.byName[schema.Name]; exists {
		return fmt.Errorf("tool already registered: %s", schema.Name)
	}
	compiled, err := compileSchema(schema.JSONSchema())
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", schema.Name, err)
	}
	r.byName[schema.Name] = &registration{handler: h, schema: schema, compiled: compiled}
	return nil
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	reg, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return reg.handler, true
}

// SchemaFor returns the declared contract for a registered tool.
func (r *Registry) SchemaFor(name string) (Schema, bool) {
	reg, ok := r.byName[name]
	if !ok {
		return Schema{}, false
	}
	return reg.schema, true
}

// Specs returns the wire specs of all registered tools, sorted by name.
func (r *Registry) Specs() []llm.ToolSpec {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]llm.ToolSpec, 0, len(names))
	for _, name := range names {
		reg := r.byName[name]
		specs = append(specs, llm.ToolSpec{
			Name:        reg.schema.Name,
			Description: reg.schema.Description,
			Schema:      reg.schema.JSONSchema(),
		})
	}
	return specs
}

// compileSchema turns a raw schema map into a resolved validator.
func compileSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}
