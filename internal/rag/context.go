package rag

import (
	"fmt"
	"strings"
)

// ContextBuilder formats retrieved chunks into an LLM prompt context.
type ContextBuilder struct {
	maxChars int
}

// NewContextBuilder creates a builder with a rough character budget
// (~4 chars per token).
func NewContextBuilder(maxTokens int) *ContextBuilder {
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &ContextBuilder{maxChars: maxTokens * 4}
}

// BuildContext renders ranked chunks as excerpts with their heading
// breadcrumbs, truncated to the budget.
func (cb *ContextBuilder) BuildContext(results []ScoredChunk) string {
	if len(results) == 0 {
		return ""
	}

	var parts []string
	for i, r := range results {
		header := fmt.Sprintf("### Excerpt %d", i+1)
		if len(r.Chunk.HeadingPath) > 0 {
			header += " — " + strings.Join(r.Chunk.HeadingPath, " > ")
		}
		parts = append(parts, header, r.Chunk.Content, "")
	}

	context := strings.Join(parts, "\n")
	if len(context) > cb.maxChars {
		context = context[:cb.maxChars] + "\n\n[Context truncated...]"
	}
	return context
}

// BuildPrompt assembles the grounded-answer prompt: the model must answer
// strictly from the supplied context or refuse.
func (cb *ContextBuilder) BuildPrompt(context, question string) string {
	var parts []string

	parts = append(parts,
		"You are a helpful assistant that answers questions based strictly on the provided knowledge base context.",
		"Only use information explicitly present in the context below.",
		"If the context does not contain enough information to answer, say so plainly instead of guessing.",
		"")

	if context != "" {
		parts = append(parts, "## Knowledge Base Context:", context, "")
	}

	parts = append(parts,
		"## Question:",
		question,
		"",
		"Answer concisely and cite the relevant excerpts.")

	return strings.Join(parts, "\n")
}
