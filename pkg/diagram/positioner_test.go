package diagram

import (
	"errors"
	"strings"
	"testing"

	"ai-docpilot-be/pkg/lexical"
	"ai-docpilot-be/pkg/suggestion"
)

func doc(t *testing.T) *lexical.Document {
	t.Helper()
	d, err := lexical.NewDocument(`{"root":{"type":"root","version":1,"children":[
		{"type":"paragraph","version":1,"children":[{"type":"text","version":1,"text":"First point here"}]},
		{"type":"paragraph","version":1,"children":[{"type":"text","version":1,"text":"Second point there"}]}
	]}}`)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return d
}

func TestInsertAfterAnchoredText(t *testing.T) {
	d := doc(t)
	res, err := Insert(d, suggestion.DiagramInsertion{
		InsertAfterText: "First point",
		DiagramSyntax:   "graph TD; A --- B",
		DiagramType:     "flowchart",
		Title:           "Points",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !res.Inserted || !res.ExactMatch {
		t.Errorf("result = %+v, want inserted exact match", res)
	}
	// Diagram lands after the first paragraph, bracketed by blanks.
	want := "First point here\n\n\n\nSecond point there\n"
	if got := d.PlainText(); got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
	if res.At != 18 {
		t.Errorf("At = %d, want 18", res.At)
	}
}

func TestInsertFallsBackToCursor(t *testing.T) {
	d := doc(t)
	d.SetSelection(5) // inside the first paragraph
	res, err := Insert(d, suggestion.DiagramInsertion{
		InsertAfterText: "no such sentence anywhere",
		DiagramSyntax:   "graph LR",
		DiagramType:     "flowchart",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !res.Inserted || res.ExactMatch {
		t.Errorf("result = %+v, want inserted via fallback", res)
	}
	// The cursor sits in the first paragraph, so the diagram follows it.
	want := "First point here\n\n\n\nSecond point there\n"
	if got := d.PlainText(); got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
}

func TestInsertWithoutAnchorTextUsesCursor(t *testing.T) {
	d := doc(t)
	d.SetSelection(d.Len())
	res, err := Insert(d, suggestion.DiagramInsertion{
		DiagramSyntax: "graph LR",
		DiagramType:   "flowchart",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !res.Inserted || res.ExactMatch {
		t.Errorf("result = %+v, want cursor placement", res)
	}
	want := "First point here\nSecond point there\n\n\n\n"
	if got := d.PlainText(); got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
}

func TestInsertRejectsEmptySyntax(t *testing.T) {
	d := doc(t)
	if _, err := Insert(d, suggestion.DiagramInsertion{InsertAfterText: "First"}); !errors.Is(err, ErrEmptySyntax) {
		t.Errorf("err = %v, want ErrEmptySyntax", err)
	}
}

func TestInsertBatchAppliesInOrder(t *testing.T) {
	d := doc(t)
	results, err := InsertBatch(d, []suggestion.DiagramInsertion{
		{InsertAfterText: "First point", DiagramSyntax: "graph A", DiagramType: "flowchart"},
		{InsertAfterText: "Second point", DiagramSyntax: "graph B", DiagramType: "sequence"},
	})
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for i, r := range results {
		if !r.Inserted || !r.ExactMatch {
			t.Errorf("result %d = %+v, want exact insert", i, r)
		}
	}
	// The second anchor resolves against the document already shifted
	// by the first insertion.
	want := "First point here\n\n\n\nSecond point there\n\n\n\n"
	if got := d.PlainText(); got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
	out, err := d.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if n := strings.Count(out, `"type":"diagram"`); n != 2 {
		t.Errorf("serialized tree holds %d diagram nodes, want 2", n)
	}
}
