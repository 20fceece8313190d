package suggestion

import (
	"encoding/json"
	"fmt"

	"ai-docpilot-be/pkg/toolstream"
)

// Tool names the analysis prompt instructs the model to call.
const (
	ToolCreateSuggestion = "create_suggestion"
	ToolInsertDiagram    = "insert_diagram"
)

// Kind tags the outcome of normalizing one tool call.
type Kind int

const (
	// KindSuggestion: the call decoded into a Suggestion.
	KindSuggestion Kind = iota
	// KindDiagram: the call decoded into a DiagramInsertion.
	KindDiagram
	// KindDiscarded: suggestion-shaped but unusable (both text fields
	// missing); Reason says why. Never surfaced to the user.
	KindDiscarded
	// KindUnrecognized: a tool name this engine does not know.
	KindUnrecognized
)

// Normalized is the tagged result of decoding a tool call. Exactly one
// of Suggestion/Diagram is set, matching Kind.
type Normalized struct {
	Kind       Kind
	Suggestion *Suggestion
	Diagram    *DiagramInsertion
	Reason     string
}

// suggestionArgs mirrors the JSON shape of a create_suggestion call.
// Every field is optional on the wire; defaults are applied after
// decoding.
type suggestionArgs struct {
	Id           string   `json:"id"`
	Type         string   `json:"type"`
	Severity     string   `json:"severity"`
	Paragraph    *int     `json:"paragraph"`
	Description  string   `json:"description"`
	OriginalText string   `json:"originalText"`
	ReplaceTo    string   `json:"replaceTo"`
	Confidence   *float64 `json:"confidence"`
}

// diagramArgs mirrors the JSON shape of an insert_diagram call.
type diagramArgs struct {
	InsertAfterText string `json:"insertAfterText"`
	DiagramSyntax   string `json:"diagramSyntax"`
	DiagramType     string `json:"diagramType"`
	Title           string `json:"title"`
}

// Normalize shapes a finalized tool call into a Suggestion or a
// DiagramInsertion. Malformed input never errors out of this function;
// it comes back as a discarded or unrecognized variant with the reason
// attached, and the caller logs it.
func Normalize(call toolstream.Call) Normalized {
	switch call.Name {
	case ToolCreateSuggestion:
		return normalizeSuggestion(call)
	case ToolInsertDiagram:
		return normalizeDiagram(call)
	default:
		return Normalized{
			Kind:   KindUnrecognized,
			Reason: fmt.Sprintf("unknown tool %q", call.Name),
		}
	}
}

func normalizeSuggestion(call toolstream.Call) Normalized {
	var args suggestionArgs
	if err := json.Unmarshal([]byte(call.ArgumentsRaw), &args); err != nil {
		return Normalized{
			Kind:   KindDiscarded,
			Reason: fmt.Sprintf("create_suggestion arguments do not decode: %v", err),
		}
	}

	if args.OriginalText == "" && args.ReplaceTo == "" {
		return Normalized{
			Kind:   KindDiscarded,
			Reason: "create_suggestion carries neither originalText nor replaceTo",
		}
	}

	s := &Suggestion{
		Id:           args.Id,
		Type:         args.Type,
		Severity:     Severity(args.Severity),
		Paragraph:    1,
		Description:  args.Description,
		OriginalText: args.OriginalText,
		ReplaceTo:    args.ReplaceTo,
	}
	if args.Severity == "" {
		s.Severity = SeverityMedium
	}
	if args.Paragraph != nil && *args.Paragraph > 0 {
		s.Paragraph = *args.Paragraph
	}
	if args.Confidence != nil {
		s.Confidence = *args.Confidence
	}
	return Normalized{Kind: KindSuggestion, Suggestion: s}
}

func normalizeDiagram(call toolstream.Call) Normalized {
	var args diagramArgs
	if err := json.Unmarshal([]byte(call.ArgumentsRaw), &args); err != nil {
		return Normalized{
			Kind:   KindDiscarded,
			Reason: fmt.Sprintf("insert_diagram arguments do not decode: %v", err),
		}
	}
	if args.DiagramSyntax == "" {
		return Normalized{
			Kind:   KindDiscarded,
			Reason: "insert_diagram carries no diagram syntax",
		}
	}
	return Normalized{
		Kind: KindDiagram,
		Diagram: &DiagramInsertion{
			InsertAfterText: args.InsertAfterText,
			DiagramSyntax:   args.DiagramSyntax,
			DiagramType:     args.DiagramType,
			Title:           args.Title,
		},
	}
}
