package llm

import (
	"context"

	"ai-docpilot-be/pkg/toolstream"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// ToolDefinition describes one callable tool in a provider-agnostic
// format. Parameters is a JSON-schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// ToolCapableProvider is a backend that can stream tool calls.
// Fragments are emitted strictly in arrival order. A nil return means
// the stream ended cleanly; any error means it broke mid-way and the
// consumer must discard partial state. emit returning an error cancels
// the stream.
type ToolCapableProvider interface {
	LLMProvider

	StreamToolCalls(ctx context.Context, history []Message, tools []ToolDefinition, emit func(toolstream.Fragment) error, options ...Option) error
}
