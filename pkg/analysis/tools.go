package analysis

import (
	"ai-docpilot-be/pkg/llm"
	"ai-docpilot-be/pkg/suggestion"
)

// CreateSuggestionTool is the schema the analysis prompt exposes for text
// improvement proposals. Everything except the texts is optional; the
// normalizer fills defaults for whatever the model leaves out.
var CreateSuggestionTool = llm.ToolDefinition{
	Name:        suggestion.ToolCreateSuggestion,
	Description: "Propose replacing a span of document text with improved wording",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "Stable identifier; omit to let the server assign one",
			},
			"type": map[string]interface{}{
				"type":        "string",
				"description": "Issue category, e.g. grammar, clarity, consistency",
			},
			"severity": map[string]interface{}{
				"type": "string",
				"enum": []string{"high", "medium", "low"},
			},
			"paragraph": map[string]interface{}{
				"type":        "integer",
				"description": "1-based paragraph number the issue sits in",
			},
			"description": map[string]interface{}{
				"type":        "string",
				"description": "Short explanation shown to the writer",
			},
			"originalText": map[string]interface{}{
				"type":        "string",
				"description": "The exact document text to replace",
			},
			"replaceTo": map[string]interface{}{
				"type":        "string",
				"description": "The replacement text",
			},
			"confidence": map[string]interface{}{
				"type":        "number",
				"description": "0..1 confidence in the suggestion",
			},
		},
		"required": []string{"description", "originalText", "replaceTo"},
	},
}

// InsertDiagramTool is the schema for proposing a mermaid diagram node.
var InsertDiagramTool = llm.ToolDefinition{
	Name:        suggestion.ToolInsertDiagram,
	Description: "Insert a mermaid diagram into the document after a given passage",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"insertAfterText": map[string]interface{}{
				"type":        "string",
				"description": "Document text the diagram should follow; omit to place it at the cursor",
			},
			"diagramSyntax": map[string]interface{}{
				"type":        "string",
				"description": "Mermaid source for the diagram",
			},
			"diagramType": map[string]interface{}{
				"type":        "string",
				"description": "Mermaid diagram kind, e.g. flowchart, sequence",
			},
			"title": map[string]interface{}{
				"type": "string",
			},
		},
		"required": []string{"diagramSyntax"},
	},
}

// Tools lists the definitions handed to the provider on every analysis
// stream.
func Tools() []llm.ToolDefinition {
	return []llm.ToolDefinition{CreateSuggestionTool, InsertDiagramTool}
}
