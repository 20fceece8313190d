package diagram

import (
	"errors"

	"ai-docpilot-be/pkg/anchor"
	"ai-docpilot-be/pkg/suggestion"
)

var ErrEmptySyntax = errors.New("diagram: empty diagram syntax")

// Target is the document surface insertions land on: resolvable text
// plus a cursor and an atomic diagram-insert mutation.
type Target interface {
	anchor.Tree
	Selection() int
	InsertDiagramNode(off int, syntax, diagramType, title string) (int, error)
}

// Result reports where one insertion landed. ExactMatch distinguishes
// "placed after the anchored text" from "placed at the cursor", so the
// caller can tell the user which happened. At is the diagram's offset
// in the mutated document.
type Result struct {
	Inserted   bool
	ExactMatch bool
	At         int
}

// Insert places one diagram into doc. The anchor resolver locates
// InsertAfterText and the diagram lands at the anchor's end; when the
// text cannot be found the diagram lands at the current selection
// instead. An unresolved anchor is a reported fallback, not an error.
func Insert(doc Target, ins suggestion.DiagramInsertion) (Result, error) {
	if ins.DiagramSyntax == "" {
		return Result{}, ErrEmptySyntax
	}

	off := doc.Selection()
	exact := false
	if ins.InsertAfterText != "" {
		if a := anchor.Resolve(ins.InsertAfterText, doc); a != nil {
			off = a.To
			exact = true
		}
	}

	at, err := doc.InsertDiagramNode(off, ins.DiagramSyntax, ins.DiagramType, ins.Title)
	if err != nil {
		return Result{}, err
	}
	return Result{Inserted: true, ExactMatch: exact, At: at}, nil
}

// InsertBatch applies insertions strictly in order, each resolved
// against the document state the previous insertion left behind. On
// error the results of the insertions that did land are returned with
// it.
func InsertBatch(doc Target, batch []suggestion.DiagramInsertion) ([]Result, error) {
	results := make([]Result, 0, len(batch))
	for _, ins := range batch {
		r, err := Insert(doc, ins)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}
