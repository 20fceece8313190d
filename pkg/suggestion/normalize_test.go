package suggestion

import (
	"strings"
	"testing"

	"ai-docpilot-be/pkg/toolstream"
)

func TestNormalizeCreateSuggestion(t *testing.T) {
	call := toolstream.Call{
		Index: 0,
		Name:  ToolCreateSuggestion,
		ArgumentsRaw: `{
			"id": "s-1",
			"type": "clarity",
			"severity": "high",
			"paragraph": 3,
			"description": "Passive voice hides the actor.",
			"originalText": "mistakes were made",
			"replaceTo": "we made mistakes",
			"confidence": 0.85
		}`,
	}

	got := Normalize(call)
	if got.Kind != KindSuggestion {
		t.Fatalf("Kind = %v, want KindSuggestion (reason %q)", got.Kind, got.Reason)
	}
	s := got.Suggestion
	if s.Id != "s-1" || s.Type != "clarity" {
		t.Errorf("id/type = %q/%q, want s-1/clarity", s.Id, s.Type)
	}
	if s.Severity != SeverityHigh {
		t.Errorf("Severity = %q, want high", s.Severity)
	}
	if s.Paragraph != 3 {
		t.Errorf("Paragraph = %d, want 3", s.Paragraph)
	}
	if s.OriginalText != "mistakes were made" || s.ReplaceTo != "we made mistakes" {
		t.Errorf("texts = %q -> %q", s.OriginalText, s.ReplaceTo)
	}
	if s.Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85", s.Confidence)
	}
	if !s.Applicable() {
		t.Error("suggestion with both texts should be applicable")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	tests := []struct {
		name          string
		args          string
		wantSeverity  Severity
		wantParagraph int
	}{
		{
			name:          "missing severity and paragraph",
			args:          `{"id":"a","originalText":"x","replaceTo":"y"}`,
			wantSeverity:  SeverityMedium,
			wantParagraph: 1,
		},
		{
			name:          "zero paragraph",
			args:          `{"id":"a","originalText":"x","replaceTo":"y","paragraph":0}`,
			wantSeverity:  SeverityMedium,
			wantParagraph: 1,
		},
		{
			name:          "negative paragraph",
			args:          `{"id":"a","originalText":"x","replaceTo":"y","paragraph":-2,"severity":"low"}`,
			wantSeverity:  SeverityLow,
			wantParagraph: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(toolstream.Call{Name: ToolCreateSuggestion, ArgumentsRaw: tt.args})
			if got.Kind != KindSuggestion {
				t.Fatalf("Kind = %v, want KindSuggestion", got.Kind)
			}
			if got.Suggestion.Severity != tt.wantSeverity {
				t.Errorf("Severity = %q, want %q", got.Suggestion.Severity, tt.wantSeverity)
			}
			if got.Suggestion.Paragraph != tt.wantParagraph {
				t.Errorf("Paragraph = %d, want %d", got.Suggestion.Paragraph, tt.wantParagraph)
			}
		})
	}
}

func TestNormalizeKeepsPartialSuggestion(t *testing.T) {
	// Only one of the two text fields present: retained for display,
	// but not applicable.
	got := Normalize(toolstream.Call{
		Name:         ToolCreateSuggestion,
		ArgumentsRaw: `{"id":"a","originalText":"the device","description":"vague"}`,
	})
	if got.Kind != KindSuggestion {
		t.Fatalf("Kind = %v, want KindSuggestion", got.Kind)
	}
	if got.Suggestion.Applicable() {
		t.Error("suggestion without replaceTo must not be applicable")
	}
}

func TestNormalizeDiscards(t *testing.T) {
	tests := []struct {
		name       string
		call       toolstream.Call
		wantKind   Kind
		wantReason string
	}{
		{
			name:       "both text fields empty",
			call:       toolstream.Call{Name: ToolCreateSuggestion, ArgumentsRaw: `{"id":"a","description":"?"}`},
			wantKind:   KindDiscarded,
			wantReason: "neither originalText nor replaceTo",
		},
		{
			name:       "suggestion args not json",
			call:       toolstream.Call{Name: ToolCreateSuggestion, ArgumentsRaw: `{"id":`},
			wantKind:   KindDiscarded,
			wantReason: "do not decode",
		},
		{
			name:       "diagram without syntax",
			call:       toolstream.Call{Name: ToolInsertDiagram, ArgumentsRaw: `{"insertAfterText":"intro"}`},
			wantKind:   KindDiscarded,
			wantReason: "no diagram syntax",
		},
		{
			name:       "diagram args not json",
			call:       toolstream.Call{Name: ToolInsertDiagram, ArgumentsRaw: `[`},
			wantKind:   KindDiscarded,
			wantReason: "do not decode",
		},
		{
			name:       "unknown tool",
			call:       toolstream.Call{Name: "summarize_note", ArgumentsRaw: `{}`},
			wantKind:   KindUnrecognized,
			wantReason: "unknown tool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.call)
			if got.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Suggestion != nil || got.Diagram != nil {
				t.Error("discarded result must not carry a payload")
			}
			if !strings.Contains(got.Reason, tt.wantReason) {
				t.Errorf("Reason = %q, want it to mention %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestNormalizeInsertDiagram(t *testing.T) {
	got := Normalize(toolstream.Call{
		Name: ToolInsertDiagram,
		ArgumentsRaw: `{
			"insertAfterText": "The pipeline has three stages.",
			"diagramSyntax": "graph TD; A-->B;",
			"diagramType": "flowchart",
			"title": "Pipeline stages"
		}`,
	})
	if got.Kind != KindDiagram {
		t.Fatalf("Kind = %v, want KindDiagram (reason %q)", got.Kind, got.Reason)
	}
	d := got.Diagram
	if d.InsertAfterText != "The pipeline has three stages." {
		t.Errorf("InsertAfterText = %q", d.InsertAfterText)
	}
	if d.DiagramSyntax != "graph TD; A-->B;" || d.DiagramType != "flowchart" {
		t.Errorf("syntax/type = %q/%q", d.DiagramSyntax, d.DiagramType)
	}
	if d.Title != "Pipeline stages" {
		t.Errorf("Title = %q", d.Title)
	}
}
