// Package rag orchestrates answer generation: a first model call that may
// request retrieval tools, explicit tool execution, and a second model call
// that folds the tool results into the final answer.
package rag

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
)

// ToolRunner is the tool surface the orchestrator depends on. Refs are the
// definitions offered to the model; Execute dispatches one tool request and
// returns the rendered result text plus its sources.
type ToolRunner interface {
	Refs() []ai.ToolRef
	Execute(ctx context.Context, name string, input any) (string, []course.Source)
}

// Config holds the generation parameters.
type Config struct {
	// ModelName is the provider-qualified model, e.g. "googleai/gemini-2.5-flash".
	ModelName string

	// Temperature for both passes. Zero keeps answers grounded.
	Temperature float64

	// MaxTokens caps the answer length per pass.
	MaxTokens int

	// RateLimiter throttles model calls proactively. Nil installs a
	// default of 10 req/s with burst 30.
	RateLimiter *rate.Limiter
}

// Orchestrator runs the two-pass generation protocol.
//
// First pass: system prompt (with session history folded in), the user
// query, and the tool definitions. If the model answers directly, that
// answer is final and no retrieval happens. If it requests tools, every
// request is executed in order and the transcript, extended with the
// model's request message and the tool results, goes into a second pass
// with no tools offered. The second pass is therefore always the last:
// retrieval is bounded at one round per query.
//
// Only infrastructure failures (the model call itself) return an error.
// Tool-level failures arrive as result text and flow into the second pass.
type Orchestrator struct {
	g       *genkit.Genkit
	tools   ToolRunner
	cfg     Config
	limiter *rate.Limiter
	logger  log.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(g *genkit.Genkit, tools ToolRunner, cfg Config, logger log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.NewNop()
	}
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}
	return &Orchestrator{
		g:       g,
		tools:   tools,
		cfg:     cfg,
		limiter: limiter,
		logger:  logger,
	}
}

// Answer generates the answer for a query, given the session's formatted
// history ("" when none). The returned sources back the answer and are
// empty when no retrieval happened.
func (o *Orchestrator) Answer(ctx context.Context, query, history string) (string, []course.Source, error) {
	system := buildSystem(history)
	messages := []*ai.Message{ai.NewUserMessage(ai.NewTextPart(query))}

	first, err := o.generate(ctx, system, messages, true)
	if err != nil {
		return "", nil, fmt.Errorf("first model call: %w", err)
	}

	requests := first.ToolRequests()
	if len(requests) == 0 {
		return first.Text(), nil, nil
	}

	// Execute every requested invocation in order; each one independently.
	// Results become one tool message appended to the in-flight transcript,
	// never to the session history.
	parts := make([]*ai.Part, 0, len(requests))
	var sources []course.Source
	for _, req := range requests {
		text, srcs := o.tools.Execute(ctx, req.Name, req.Input)
		parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   req.Name,
			Ref:    req.Ref,
			Output: text,
		}))
		sources = append(sources, srcs...)
	}

	messages = append(messages, first.Message, &ai.Message{
		Role:    ai.RoleTool,
		Content: parts,
	})

	second, err := o.generate(ctx, system, messages, false)
	if err != nil {
		return "", nil, fmt.Errorf("second model call: %w", err)
	}

	o.logger.Debug("answered with retrieval",
		"tool_calls", len(requests),
		"sources", len(sources))
	return second.Text(), dedupeSources(sources), nil
}

// generate performs one model call. Tools are offered only when withTools
// is set, and tool requests are returned to the caller instead of being
// dispatched by the framework.
func (o *Orchestrator) generate(ctx context.Context, system string, messages []*ai.Message, withTools bool) (*ai.ModelResponse, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	opts := []ai.GenerateOption{
		ai.WithSystem(system),
		ai.WithMessages(messages...),
		ai.WithModelName(o.cfg.ModelName),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(o.cfg.Temperature)),
			MaxOutputTokens: int32(o.cfg.MaxTokens),
		}),
	}
	if withTools {
		opts = append(opts,
			ai.WithTools(o.tools.Refs()...),
			ai.WithReturnToolRequests(true),
		)
	}

	return genkit.Generate(ctx, o.g, opts...)
}

// dedupeSources removes duplicates while preserving first-seen order.
func dedupeSources(sources []course.Source) []course.Source {
	seen := make(map[course.Source]bool, len(sources))
	out := sources[:0]
	for _, s := range sources {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
