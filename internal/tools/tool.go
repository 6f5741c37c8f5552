// Package tools provides the assistant's tool definitions and registration.
//
// # Architecture
//
// Each tool is built with NewTool, which captures a typed handler twice: once
// as a Genkit registration closure (so the model can call it with full schema
// information) and once as a type-erased handler (so test doubles can execute
// tools without a live model). Toolsets group related tools and carry their
// dependencies; nothing in this package uses package-level state.
//
// Tools reach per-turn values (owner identity, selected model, the client
// event stream) through the request context, never through globals.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Tool is one model-callable operation. Construct with NewTool.
type Tool struct {
	name        string
	description string

	// register defines the tool on a Genkit instance with its typed schema.
	register func(g *genkit.Genkit)

	// handler is the type-erased execution path used outside Genkit.
	handler func(tc *ai.ToolContext, input any) (any, error)
}

// Name returns the tool's unique identifier.
func (t *Tool) Name() string { return t.name }

// Description returns the text the model uses to decide when to call the tool.
func (t *Tool) Description() string { return t.description }

// NewTool creates a tool with type-safe input and output handling.
//
// Type safety is guaranteed at compile time via generics; type erasure is
// performed internally so heterogeneous tools can share a registry. The
// erased path accepts either the typed input directly or a JSON-compatible
// value (Genkit passes map[string]any).
func NewTool[In, Out any](
	name string,
	description string,
	handler func(tc *ai.ToolContext, input In) (Out, error),
) *Tool {
	var zeroIn In

	erased := func(tc *ai.ToolContext, input any) (any, error) {
		if typed, ok := input.(In); ok {
			return handler(tc, typed)
		}

		jsonBytes, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal input: %w", err)
		}
		var typed In
		if err := json.Unmarshal(jsonBytes, &typed); err != nil {
			return nil, fmt.Errorf("invalid input type: expected %T, got %T (unmarshal error: %w)", zeroIn, input, err)
		}
		return handler(tc, typed)
	}

	return &Tool{
		name:        name,
		description: description,
		register: func(g *genkit.Genkit) {
			genkit.DefineTool(g, name, description, handler)
		},
		handler: erased,
	}
}

// Registry is an immutable collection of tools. Build it once at startup with
// NewRegistry; lookups are safe for concurrent use.
type Registry struct {
	order []string
	byName map[string]*Tool
}

// NewRegistry builds a registry from the given tools.
// Duplicate names are a wiring bug and panic.
func NewRegistry(tools ...*Tool) *Registry {
	byName := make(map[string]*Tool, len(tools))
	order := make([]string, 0, len(tools))
	for _, t := range tools {
		if _, dup := byName[t.name]; dup {
			panic("tools: duplicate tool name " + t.name)
		}
		byName[t.name] = t
		order = append(order, t.name)
	}
	return &Registry{order: order, byName: byName}
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Lookup returns the named tool.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Register defines every tool on the given Genkit instance.
func (r *Registry) Register(g *genkit.Genkit) {
	for _, name := range r.order {
		r.byName[name].register(g)
	}
}

// Execute runs the named tool outside Genkit. Test doubles standing in for
// the model use this path; input may be the typed input or JSON-compatible.
func (r *Registry) Execute(ctx context.Context, name string, input any) (any, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("tool %q is not registered", name)
	}
	return t.handler(&ai.ToolContext{Context: ctx}, input)
}
