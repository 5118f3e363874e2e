package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// ScriptedModel provides ordered canned responses for testing multi-pass
// generation flows. Unlike a pattern-matched mock, responses are consumed
// from a queue: the first call gets the first step, the second call the
// second step, and so on. This mirrors how a tool-using conversation
// advances even though the user message never changes.
//
// Every received request is recorded so tests can assert on the messages
// and tool definitions each pass saw.
//
// Thread-safe for concurrent use.
type ScriptedModel struct {
	mu       sync.Mutex
	steps    []scriptStep
	requests []*ai.ModelRequest
}

type scriptStep struct {
	parts []*ai.Part
	err   error
}

// NewScriptedModel creates an empty scripted model. Enqueue steps before
// generating; a call with no step remaining fails the generation.
func NewScriptedModel() *ScriptedModel {
	return &ScriptedModel{}
}

// EnqueueText adds a plain text response step.
func (m *ScriptedModel) EnqueueText(text string) {
	m.enqueue(scriptStep{parts: []*ai.Part{ai.NewTextPart(text)}})
}

// EnqueueToolRequests adds a response step carrying one or more tool
// requests, the way a model asks for tool execution.
func (m *ScriptedModel) EnqueueToolRequests(reqs ...*ai.ToolRequest) {
	parts := make([]*ai.Part, 0, len(reqs))
	for _, tr := range reqs {
		parts = append(parts, &ai.Part{
			Kind:        ai.PartToolRequest,
			ToolRequest: tr,
		})
	}
	m.enqueue(scriptStep{parts: parts})
}

// EnqueueError adds a step that fails the model call.
func (m *ScriptedModel) EnqueueError(err error) {
	m.enqueue(scriptStep{err: err})
}

func (m *ScriptedModel) enqueue(s scriptStep) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, s)
}

// Requests returns a copy of all requests received so far.
func (m *ScriptedModel) Requests() []*ai.ModelRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]*ai.ModelRequest, len(m.requests))
	copy(cp, m.requests)
	return cp
}

// Register registers the scripted model with Genkit under
// "mock/scripted-model" and returns the model reference.
func (m *ScriptedModel) Register(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, "mock/scripted-model", &ai.ModelOptions{
		Label: "Scripted Test Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			Tools:      true,
			SystemRole: true,
		},
	}, m.generate)
}

// ModelName is the provider-qualified name Register uses.
const ModelName = "mock/scripted-model"

func (m *ScriptedModel) generate(_ context.Context, req *ai.ModelRequest, _ ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	if len(m.steps) == 0 {
		m.mu.Unlock()
		return nil, errors.New("scripted model: no steps remaining")
	}
	step := m.steps[0]
	m.steps = m.steps[1:]
	m.mu.Unlock()

	if step.err != nil {
		return nil, step.err
	}

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: step.parts,
		},
	}, nil
}
