package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"ai-docpilot-be/pkg/analysis"
	"ai-docpilot-be/pkg/anchor"
	"ai-docpilot-be/pkg/diagram"
	"ai-docpilot-be/pkg/lexical"
	"ai-docpilot-be/pkg/llm"
	"ai-docpilot-be/pkg/suggestion"
	"ai-docpilot-be/pkg/toolstream"

	"github.com/fatih/color"
)

// Scripted stand-in for a real model stream. Fragments are chunked the
// way OpenAI-style deltas arrive: name on the first fragment of each
// index, arguments split across the rest. The last call is deliberately
// truncated so the repair path shows up in the output.
type scriptedProvider struct {
	fragments []toolstream.Fragment
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", fmt.Errorf("scripted provider: chat not supported")
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "", fmt.Errorf("scripted provider: generate not supported")
}

func (p *scriptedProvider) StreamToolCalls(ctx context.Context, history []llm.Message, tools []llm.ToolDefinition, emit func(toolstream.Fragment) error, options ...llm.Option) error {
	for _, f := range p.fragments {
		if err := emit(f); err != nil {
			return err
		}
	}
	return nil
}

const documentJSON = `{"root":{"type":"root","version":1,"children":[
	{"type":"heading","tag":"h1","version":1,"children":[{"type":"text","version":1,"text":"Device Setup Guide"}]},
	{"type":"paragraph","version":1,"children":[
		{"type":"text","version":1,"text":"First, plug in "},
		{"type":"text","version":1,"format":1,"text":"the device"},
		{"type":"text","version":1,"text":" and wait for the light."}]},
	{"type":"paragraph","version":1,"children":[{"type":"text","version":1,"text":"Then the setup wizard walks you threw the remaining steps."}]}
]}}`

func main() {
	header := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed)

	header.Println("=== DocPilot Analysis Simulation (in-process) ===")

	doc, err := lexical.NewDocument(documentJSON)
	if err != nil {
		log.Fatalf("document did not parse: %v", err)
	}
	fmt.Println("Document projection:")
	fmt.Println(doc.PlainText())

	provider := &scriptedProvider{fragments: []toolstream.Fragment{
		{Index: 0, Name: suggestion.ToolCreateSuggestion, ArgumentsChunk: `{"id":"s1","severity":"high","paragraph":2,"descri`},
		{Index: 0, ArgumentsChunk: `ption":"Name the device concretely","originalText":"the device","replaceTo":"the router","confidence":0.9}`},
		// Second agent-style duplicate of the same span, different casing.
		{Index: 1, Name: suggestion.ToolCreateSuggestion, ArgumentsChunk: `{"id":"s2","severity":"medium","paragraph":2,"description":"Vague reference","originalText":"the  Device","replaceTo":"the router","confidence":0.6}`},
		{Index: 2, Name: suggestion.ToolCreateSuggestion, ArgumentsChunk: `{"id":"s3","severity":"low","paragraph":3,"description":"Typo","originalText":"walks you threw","replaceTo":"walks you through","confidence":0.95}`},
		{Index: 3, Name: suggestion.ToolInsertDiagram, ArgumentsChunk: `{"insertAfterText":"wait for the light.","diagramSyntax":"flowchart TD\nA[Plug in] --> B[Light on]","diagramType":"flowchart","title":"Setup flow"}`},
		// Truncated mid-object: exercises toolstream.Repair.
		{Index: 4, Name: suggestion.ToolCreateSuggestion, ArgumentsChunk: `{"description":"Add a closing note","originalText":"remaining steps.","replaceTo":"remaining steps. You are done!","confidence":0.4`},
	}}

	engine := analysis.NewEngine(provider, log.New(os.Stdout, "[engine] ", 0))
	batch, err := engine.Analyze(context.Background(), analysis.Pass{
		Agent:   "simulate",
		History: []llm.Message{{Role: "user", Content: analysis.NewPromptBuilder(doc.PlainText()).Build()}},
	})
	if err != nil {
		fail.Printf("analysis failed: %v\n", err)
		os.Exit(1)
	}

	header.Printf("\nBatch: %d suggestions, %d diagrams, %d discarded, %d repaired\n",
		len(batch.Suggestions), len(batch.Diagrams), len(batch.Discarded), batch.Repaired)

	merged := suggestion.Merge(batch.Suggestions, doc.PlainText())
	header.Printf("\nMerged to %d suggestions:\n", len(merged))
	for _, m := range merged {
		fmt.Printf("  [%s] ¶%d %q -> %q (ids %v, confidence %.2f)\n",
			m.Severity, m.Paragraph, m.OriginalText, m.ReplaceTo, m.MergedIds, m.Confidence)
	}

	// Apply the top suggestion the way the suggestion service does:
	// resolve fresh against the live tree, then replace.
	top := merged[0]
	a := anchor.Resolve(top.OriginalText, doc)
	if a == nil {
		warn.Printf("top suggestion %q did not anchor, skipping apply\n", top.OriginalText)
	} else {
		if _, err := doc.ReplaceRange(a.From, a.To, top.ReplaceTo); err != nil {
			fail.Printf("apply failed: %v\n", err)
		} else {
			ok.Printf("\nApplied %q at [%d,%d)\n", top.ReplaceTo, a.From, a.To)
		}
	}

	// Diagrams land after the batch, against the mutated document.
	results, err := diagram.InsertBatch(doc, batch.Diagrams)
	if err != nil {
		fail.Printf("diagram insertion failed: %v\n", err)
		os.Exit(1)
	}
	for i, r := range results {
		if r.ExactMatch {
			ok.Printf("Diagram %d placed after its anchor (offset %d)\n", i, r.At)
		} else {
			warn.Printf("Diagram %d fell back to the cursor (offset %d)\n", i, r.At)
		}
	}

	header.Println("\nFinal projection:")
	fmt.Println(doc.PlainText())
}
