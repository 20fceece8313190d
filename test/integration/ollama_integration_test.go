package integration

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"ai-docpilot-be/pkg/analysis"
	"ai-docpilot-be/pkg/llm"
	"ai-docpilot-be/pkg/llm/ollama"
	"ai-docpilot-be/pkg/toolstream"

	"github.com/stretchr/testify/assert"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llama3"
)

func ollamaConfig(t *testing.T) (string, string) {
	t.Helper()

	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = defaultOllamaModel
	}

	// Skip fast when no local Ollama is listening
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/tags")
	if err != nil {
		t.Skipf("Skipping Ollama integration test: %s not reachable (%v)", baseURL, err)
	}
	resp.Body.Close()

	return baseURL, model
}

func TestOllamaGenerate(t *testing.T) {
	baseURL, model := ollamaConfig(t)
	provider := ollama.NewOllamaProvider(baseURL, model)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	reply, err := provider.Generate(ctx, "Reply with the single word: pong", llm.WithTemperature(0))
	assert.NoError(t, err)
	assert.NotEmpty(t, reply)
	t.Logf("Ollama replied: %q", reply)
}

func TestOllamaStreamToolCalls(t *testing.T) {
	baseURL, model := ollamaConfig(t)
	provider := ollama.NewOllamaProvider(baseURL, model)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	prompt := analysis.NewPromptBuilder("The quick brown fox jump over the lazy dog. It happen every day.").Build()

	var fragments []toolstream.Fragment
	err := provider.StreamToolCalls(ctx,
		[]llm.Message{{Role: "user", Content: prompt}},
		analysis.Tools(),
		func(f toolstream.Fragment) error {
			fragments = append(fragments, f)
			return nil
		},
		llm.WithTemperature(0),
	)
	assert.NoError(t, err)

	// Small local models may decline to call tools; only assert shape
	// when fragments did arrive.
	if len(fragments) == 0 {
		t.Log("Model emitted no tool calls; skipping aggregation assertions")
		return
	}

	agg := toolstream.NewAggregator()
	for _, f := range fragments {
		assert.NoError(t, agg.Feed(f))
	}
	calls, corrupt, err := agg.Finalize()
	assert.NoError(t, err)
	t.Logf("Aggregated %d calls (%d corrupt)", len(calls), len(corrupt))

	for _, c := range calls {
		assert.True(t,
			strings.HasPrefix(c.Name, "create_") || strings.HasPrefix(c.Name, "insert_"),
			"unexpected tool name %q", c.Name)
	}
}
