package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"ai-docpilot-be/pkg/llm"
	"ai-docpilot-be/pkg/toolstream"
)

type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// Ensure OpenAIProvider implements ToolCapableProvider
var _ llm.ToolCapableProvider = &OpenAIProvider{}

// NewOpenAIProvider talks to the OpenAI API or any compatible endpoint
// (set baseURL for routers and self-hosted gateways).
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := &llm.Options{
		Model:       p.model,
		Temperature: 0.7,
	}
	for _, o := range options {
		o(opts)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    convertMessages(history),
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices from openai api")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

// StreamToolCalls opens a streaming completion with tools attached and
// emits every tool-call delta as a fragment, untouched: reassembly is
// the consumer's job. Text deltas are dropped; analysis passes speak
// through tools only.
func (p *OpenAIProvider) StreamToolCalls(ctx context.Context, history []llm.Message, tools []llm.ToolDefinition, emit func(toolstream.Fragment) error, options ...llm.Option) error {
	opts := &llm.Options{
		Model:       p.model,
		Temperature: 0.7,
	}
	for _, o := range options {
		o(opts)
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    convertMessages(history),
		Tools:       convertTools(tools),
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
		Stream:      true,
	})
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream recv: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		choice := resp.Choices[0]
		for _, tc := range choice.Delta.ToolCalls {
			// Index is only set on streamed deltas; a delta without one
			// belongs to no call.
			if tc.Index == nil {
				continue
			}
			frag := toolstream.Fragment{
				Index:          *tc.Index,
				Name:           tc.Function.Name,
				ArgumentsChunk: tc.Function.Arguments,
			}
			if err := emit(frag); err != nil {
				return err
			}
		}

		if choice.FinishReason != "" {
			return nil
		}
	}
}

func convertMessages(history []llm.Message) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, len(history))
	for i, m := range history {
		role := m.Role
		if role == "model" {
			role = "assistant"
		}
		msgs[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		}
	}
	return msgs
}

func convertTools(tools []llm.ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return out
}
