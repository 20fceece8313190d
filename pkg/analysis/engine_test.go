package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-docpilot-be/pkg/llm"
	"ai-docpilot-be/pkg/suggestion"
	"ai-docpilot-be/pkg/toolstream"
)

// scriptedStreamer replays a fixed fragment sequence. Setting failErr
// makes the stream break after failAfter fragments, modelling a dropped
// connection.
type scriptedStreamer struct {
	fragments []toolstream.Fragment
	failAfter int
	failErr   error
}

func (p *scriptedStreamer) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", nil
}

func (p *scriptedStreamer) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "", nil
}

func (p *scriptedStreamer) StreamToolCalls(ctx context.Context, history []llm.Message, tools []llm.ToolDefinition, emit func(toolstream.Fragment) error, options ...llm.Option) error {
	for i, f := range p.fragments {
		if p.failErr != nil && i == p.failAfter {
			return p.failErr
		}
		if err := emit(f); err != nil {
			return err
		}
	}
	return nil
}

func TestAnalyzeAssemblesChunkedCalls(t *testing.T) {
	p := &scriptedStreamer{fragments: []toolstream.Fragment{
		{Index: 0, Name: "create_suggestion", ArgumentsChunk: `{"severity":"high",`},
		{Index: 0, ArgumentsChunk: `"description":"fix typo","originalText":"teh device",`},
		{Index: 1, Name: "insert_diagram", ArgumentsChunk: `{"diagramSyntax":"graph TD; A-->B",`},
		{Index: 0, ArgumentsChunk: `"replaceTo":"the device","confidence":0.9,"paragraph":2}`},
		{Index: 1, ArgumentsChunk: `"insertAfterText":"the flow","title":"Flow"}`},
	}}

	engine := NewEngine(p, nil)
	batch, err := engine.Analyze(context.Background(), Pass{
		Agent:   "docpilot",
		History: []llm.Message{{Role: "user", Content: "analyze this"}},
	})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if len(batch.Suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(batch.Suggestions))
	}
	s := batch.Suggestions[0]
	if s.Severity != suggestion.SeverityHigh {
		t.Errorf("severity = %q, want high", s.Severity)
	}
	if s.OriginalText != "teh device" || s.ReplaceTo != "the device" {
		t.Errorf("texts = %q -> %q", s.OriginalText, s.ReplaceTo)
	}
	if s.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", s.Confidence)
	}
	if s.Paragraph != 2 {
		t.Errorf("paragraph = %d, want 2", s.Paragraph)
	}
	if s.Agent != "docpilot" {
		t.Errorf("agent = %q, want docpilot", s.Agent)
	}
	if s.Id == "" {
		t.Error("expected a generated id")
	}
	if s.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be stamped")
	}

	if len(batch.Diagrams) != 1 {
		t.Fatalf("expected 1 diagram, got %d", len(batch.Diagrams))
	}
	d := batch.Diagrams[0]
	if d.InsertAfterText != "the flow" || d.DiagramSyntax != "graph TD; A-->B" || d.Title != "Flow" {
		t.Errorf("unexpected diagram insertion: %+v", d)
	}

	if len(batch.Discarded) != 0 || batch.Repaired != 0 {
		t.Errorf("discarded=%d repaired=%d, want 0/0", len(batch.Discarded), batch.Repaired)
	}
}

func TestAnalyzeKeepsProvidedId(t *testing.T) {
	p := &scriptedStreamer{fragments: []toolstream.Fragment{
		{Index: 0, Name: "create_suggestion", ArgumentsChunk: `{"id":"sg-1","description":"d","originalText":"a","replaceTo":"b"}`},
	}}

	batch, err := NewEngine(p, nil).Analyze(context.Background(), Pass{Agent: "docpilot"})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(batch.Suggestions) != 1 || batch.Suggestions[0].Id != "sg-1" {
		t.Fatalf("expected id sg-1 to survive, got %+v", batch.Suggestions)
	}
}

func TestAnalyzeRepairsTruncatedArguments(t *testing.T) {
	p := &scriptedStreamer{fragments: []toolstream.Fragment{
		{Index: 0, Name: "create_suggestion", ArgumentsChunk: `{"description":"cut off","originalText":"teh","replaceTo":"the`},
	}}

	batch, err := NewEngine(p, nil).Analyze(context.Background(), Pass{Agent: "docpilot"})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if batch.Repaired != 1 {
		t.Errorf("repaired = %d, want 1", batch.Repaired)
	}
	if len(batch.Suggestions) != 1 {
		t.Fatalf("expected the repaired call to yield a suggestion, got %d", len(batch.Suggestions))
	}
	if got := batch.Suggestions[0].ReplaceTo; got != "the" {
		t.Errorf("replaceTo = %q, want %q", got, "the")
	}
	if len(batch.Discarded) != 0 {
		t.Errorf("expected no discards, got %+v", batch.Discarded)
	}
}

func TestAnalyzeDiscardsUnusableCalls(t *testing.T) {
	p := &scriptedStreamer{fragments: []toolstream.Fragment{
		{Index: 0, Name: "delete_everything", ArgumentsChunk: `{}`},
		{Index: 1, Name: "create_suggestion", ArgumentsChunk: `{"description":"nothing to do"}`},
		{Index: 2, Name: "create_suggestion", ArgumentsChunk: `{"description": tru`},
	}}

	batch, err := NewEngine(p, nil).Analyze(context.Background(), Pass{Agent: "docpilot"})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(batch.Suggestions) != 0 || len(batch.Diagrams) != 0 {
		t.Fatalf("expected nothing usable, got %d suggestions %d diagrams", len(batch.Suggestions), len(batch.Diagrams))
	}
	if len(batch.Discarded) != 3 {
		t.Fatalf("expected 3 discards, got %d: %+v", len(batch.Discarded), batch.Discarded)
	}

	reasons := make(map[int]string)
	for _, d := range batch.Discarded {
		reasons[d.Call.Index] = d.Reason
	}
	wants := map[int]string{
		0: "unknown tool",
		1: "neither originalText nor replaceTo",
		2: "after repair",
	}
	for idx, want := range wants {
		if !strings.Contains(reasons[idx], want) {
			t.Errorf("call %d reason = %q, want it to mention %q", idx, reasons[idx], want)
		}
	}
}

func TestAnalyzeStreamFailureDiscardsEverything(t *testing.T) {
	dropErr := errors.New("connection reset")
	p := &scriptedStreamer{
		fragments: []toolstream.Fragment{
			{Index: 0, Name: "create_suggestion", ArgumentsChunk: `{"description":"d","originalText":"a","replaceTo":"b"}`},
			{Index: 1, Name: "insert_diagram", ArgumentsChunk: `{"diagramSyntax":"graph TD"}`},
		},
		failAfter: 1,
		failErr:   dropErr,
	}

	batch, err := NewEngine(p, nil).Analyze(context.Background(), Pass{Agent: "docpilot"})
	if err == nil {
		t.Fatal("expected an error for a dropped stream")
	}
	if !errors.Is(err, dropErr) {
		t.Errorf("error %v does not wrap the stream failure", err)
	}
	if batch != nil {
		t.Errorf("expected no batch from a dropped stream, got %+v", batch)
	}
}
