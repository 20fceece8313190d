package integration

import (
	"context"
	"fmt"
	"testing"

	"ai-docpilot-be/pkg/analysis"
	"ai-docpilot-be/pkg/anchor"
	"ai-docpilot-be/pkg/diagram"
	"ai-docpilot-be/pkg/lexical"
	"ai-docpilot-be/pkg/llm"
	"ai-docpilot-be/pkg/suggestion"
	"ai-docpilot-be/pkg/toolstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockToolStreamer replays a scripted fragment sequence, standing in for
// a live model stream so the whole pipeline runs without a network.
type mockToolStreamer struct {
	fragments []toolstream.Fragment
	failAfter int // emit this many fragments then break the stream; 0 = never
}

func (m *mockToolStreamer) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", fmt.Errorf("mock: chat not scripted")
}

func (m *mockToolStreamer) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "", fmt.Errorf("mock: generate not scripted")
}

func (m *mockToolStreamer) StreamToolCalls(ctx context.Context, history []llm.Message, tools []llm.ToolDefinition, emit func(toolstream.Fragment) error, options ...llm.Option) error {
	for i, f := range m.fragments {
		if m.failAfter > 0 && i == m.failAfter {
			return fmt.Errorf("mock: connection dropped")
		}
		if err := emit(f); err != nil {
			return err
		}
	}
	return nil
}

const pipelineDoc = `{"root":{"type":"root","version":1,"children":[
	{"type":"paragraph","version":1,"children":[
		{"type":"text","version":1,"text":"First, plug in "},
		{"type":"text","version":1,"format":1,"text":"the device"},
		{"type":"text","version":1,"text":" and wait."}]},
	{"type":"paragraph","version":1,"children":[{"type":"text","version":1,"text":"The wizard walks you threw the rest."}]}
]}}`

func TestAnalysisPipelineEndToEnd(t *testing.T) {
	doc, err := lexical.NewDocument(pipelineDoc)
	require.NoError(t, err)

	provider := &mockToolStreamer{fragments: []toolstream.Fragment{
		{Index: 0, Name: suggestion.ToolCreateSuggestion, ArgumentsChunk: `{"id":"a1","severity":"high","paragraph":1,"descri`},
		{Index: 0, ArgumentsChunk: `ption":"Vague","originalText":"the device","replaceTo":"the router","confidence":0.9}`},
		{Index: 1, Name: suggestion.ToolCreateSuggestion, ArgumentsChunk: `{"id":"a2","severity":"medium","paragraph":1,"description":"Vague","originalText":"the  Device","replaceTo":"the router","confidence":0.6}`},
		{Index: 2, Name: suggestion.ToolInsertDiagram, ArgumentsChunk: `{"insertAfterText":"and wait.","diagramSyntax":"flowchart TD\nA-->B","diagramType":"flowchart"}`},
		// Truncated arguments: must be repaired, not dropped
		{Index: 3, Name: suggestion.ToolCreateSuggestion, ArgumentsChunk: `{"description":"Typo","originalText":"walks you threw","replaceTo":"walks you through","confidence":0.95`},
	}}

	engine := analysis.NewEngine(provider, nil)
	batch, err := engine.Analyze(context.Background(), analysis.Pass{
		Agent:   "test",
		History: []llm.Message{{Role: "user", Content: analysis.NewPromptBuilder(doc.PlainText()).Build()}},
	})
	require.NoError(t, err)

	assert.Len(t, batch.Suggestions, 3)
	assert.Len(t, batch.Diagrams, 1)
	assert.Equal(t, 1, batch.Repaired)
	assert.Empty(t, batch.Discarded)

	// Merge collapses the duplicate pair, keeps the high-confidence fields
	merged := suggestion.Merge(batch.Suggestions, doc.PlainText())
	require.Len(t, merged, 2)
	assert.Equal(t, "a1", merged[0].Id)
	assert.Equal(t, []string{"a1", "a2"}, merged[0].MergedIds)
	assert.Equal(t, suggestion.SeverityHigh, merged[0].Severity)

	// Apply the top suggestion against the live tree
	a := anchor.Resolve(merged[0].OriginalText, doc)
	require.NotNil(t, a)
	_, err = doc.ReplaceRange(a.From, a.To, merged[0].ReplaceTo)
	require.NoError(t, err)
	assert.Contains(t, doc.PlainText(), "plug in the router and wait.")

	// Diagram insertion resolves against the mutated document
	results, err := diagram.InsertBatch(doc, batch.Diagrams)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Inserted)
	assert.True(t, results[0].ExactMatch)
}

func TestAnalysisPipelineStreamDropDiscardsPartials(t *testing.T) {
	provider := &mockToolStreamer{
		fragments: []toolstream.Fragment{
			{Index: 0, Name: suggestion.ToolCreateSuggestion, ArgumentsChunk: `{"originalText":"x"`},
			{Index: 0, ArgumentsChunk: `,"replaceTo":"y","description":"d"}`},
		},
		failAfter: 1,
	}

	engine := analysis.NewEngine(provider, nil)
	batch, err := engine.Analyze(context.Background(), analysis.Pass{Agent: "test"})
	assert.Error(t, err)
	assert.Nil(t, batch, "partially aggregated calls must never surface")
}
