package analysis

import (
	"fmt"
	"strings"
)

// ContextChunk is one retrieved chunk of a related document, injected
// into the prompt as reference material for consistency checks.
type ContextChunk struct {
	Title      string
	Chunk      string
	Similarity float64
}

// PromptBuilder assembles the user-side message of an analysis pass:
// the document projection, optional reference material and the task
// wording. The system rules travel separately in the pass history.
type PromptBuilder struct {
	document string
	chunks   []ContextChunk
}

// NewPromptBuilder wraps the document's plain-text projection.
func NewPromptBuilder(document string) *PromptBuilder {
	return &PromptBuilder{document: document}
}

// WithContext attaches related-document chunks, most similar first.
func (b *PromptBuilder) WithContext(chunks []ContextChunk) *PromptBuilder {
	b.chunks = chunks
	return b
}

// Build renders the prompt. The document always comes first so span
// echoes (originalText, insertAfterText) bind to it, not to the
// reference material.
func (b *PromptBuilder) Build() string {
	var prompt strings.Builder

	b.writeDocument(&prompt)
	b.writeReferenceMaterial(&prompt)
	b.writeTask(&prompt)

	return prompt.String()
}

func (b *PromptBuilder) writeDocument(prompt *strings.Builder) {
	prompt.WriteString("<document>\n")
	prompt.WriteString(b.document)
	prompt.WriteString("\n</document>\n\n")
}

func (b *PromptBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	if len(b.chunks) == 0 {
		return
	}

	prompt.WriteString("<reference_material>\n")
	for i, c := range b.chunks {
		fmt.Fprintf(prompt, "--- REFERENCE %d: %s ---\n", i+1, c.Title)
		prompt.WriteString(c.Chunk)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</reference_material>\n\n")
}

func (b *PromptBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("Review the document above. Emit one create_suggestion call per finding, and insert_diagram calls where a diagram would genuinely help the reader.\n")
	prompt.WriteString("Copy originalText and insertAfterText verbatim from the document, never from the reference material.\n")
	prompt.WriteString("</task>")
}
