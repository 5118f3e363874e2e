// Package tools provides the retrieval tools offered to the model and the
// registry that dispatches the model's tool requests.
//
// Tool failures the model can recover from (unknown tool, malformed input,
// unresolvable course, empty results) are rendered as result text, not
// returned as errors: the text flows back to the model, which explains the
// situation to the user.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
)

// Tool is one retrieval capability. Execute returns the rendered result
// text and the sources backing it; sources travel with the return value so
// nothing about a previous query lingers in the tool.
type Tool interface {
	Name() string

	// Execute runs the tool against raw input as decoded from the model's
	// tool request.
	Execute(ctx context.Context, input any) (string, []course.Source)

	// Attach registers the tool's schema and handler with Genkit so the
	// model sees its definition.
	Attach(g *genkit.Genkit) ai.Tool
}

// Registry maps tool names to implementations and holds the Genkit
// references handed to the model. Registration happens once at startup;
// afterwards the registry is read-only and safe for concurrent use.
type Registry struct {
	tools  map[string]Tool
	refs   []ai.ToolRef
	logger log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Register adds a tool and attaches it to Genkit. Registering the same name
// twice is a wiring bug and fails.
func (r *Registry) Register(g *genkit.Genkit, t Tool) error {
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	r.refs = append(r.refs, t.Attach(g))
	return nil
}

// Refs returns the Genkit tool references in registration order, for
// offering the tools on a model call.
func (r *Registry) Refs() []ai.ToolRef {
	return r.refs
}

// Execute dispatches a tool request by name. An unknown name is a
// recoverable condition and is rendered as text.
func (r *Registry) Execute(ctx context.Context, name string, input any) (string, []course.Source) {
	t, ok := r.tools[name]
	if !ok {
		r.logger.Warn("model requested unknown tool", "tool", name)
		return fmt.Sprintf("Tool '%s' not found", name), nil
	}
	return t.Execute(ctx, input)
}

// decodeInput converts the loosely typed tool request input into the tool's
// input struct via a JSON round trip.
func decodeInput[T any](input any) (T, error) {
	var out T
	raw, err := json.Marshal(input)
	if err != nil {
		return out, fmt.Errorf("encoding tool input: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding tool input: %w", err)
	}
	return out, nil
}
