package suggestion

import "time"

// Severity ranks a suggestion for display ordering. Unknown values sort
// after low.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// rank maps severities onto display priority, highest first.
func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}

// Suggestion is one structured recommendation to replace a span of
// document text. OriginalText is whatever the model echoed back and is
// not guaranteed to occur verbatim in the document; the anchor resolver
// absorbs that drift at apply time.
type Suggestion struct {
	Id           string
	Type         string
	Severity     Severity
	Paragraph    int
	Description  string
	OriginalText string
	ReplaceTo    string
	Confidence   float64
	Agent        string
	CreatedAt    time.Time
}

// Applicable reports whether the suggestion carries both sides of the
// replacement. A suggestion missing one side is still shown, just not
// offered as a one-click edit.
func (s Suggestion) Applicable() bool {
	return s.OriginalText != "" && s.ReplaceTo != ""
}

// DiagramInsertion asks for a diagram node to be placed after the first
// occurrence of InsertAfterText.
type DiagramInsertion struct {
	InsertAfterText string
	DiagramSyntax   string
	DiagramType     string
	Title           string
}

// MergedSuggestion is the display record produced by a merge pass: one
// representative Suggestion plus every original id it subsumes, in
// arrival order. Stale is set when the batch was merged against a
// document projection that no longer contains the target text.
type MergedSuggestion struct {
	Suggestion
	MergedIds []string
	Stale     bool
}
