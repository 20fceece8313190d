package factory

import (
	"fmt"

	"ai-docpilot-be/pkg/llm"
	"ai-docpilot-be/pkg/llm/huggingface"
	"ai-docpilot-be/pkg/llm/ollama"
	"ai-docpilot-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai":
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

// NewToolProvider resolves a backend that can stream tool calls; the
// document analysis pipeline requires one. HuggingFace routing stays
// chat-only.
func NewToolProvider(providerType, modelName, baseURL, apiKey string) (llm.ToolCapableProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai":
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("LLM provider %s cannot stream tool calls", providerType)
	}
}
