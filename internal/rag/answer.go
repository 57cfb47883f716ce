package rag

import (
	"context"
	"fmt"
)

// StreamFunc generates an answer for a prompt, delivering text
// incrementally through onChunk.
type StreamFunc func(ctx context.Context, prompt string, onChunk func(string)) error

// Answer is a generated response together with the chunks it was
// grounded on.
type Answer struct {
	Text    string
	Sources []ScoredChunk
}

// Engine combines retrieval, prompt building, and generation into the
// question-answering operation used by the ask command and the chat TUI.
type Engine struct {
	retriever *Retriever
	builder   *ContextBuilder
	stream    StreamFunc
	topK      int
}

// NewEngine wires an answer engine.
func NewEngine(retriever *Retriever, builder *ContextBuilder, stream StreamFunc, topK int) *Engine {
	if topK <= 0 {
		topK = 5
	}
	return &Engine{
		retriever: retriever,
		builder:   builder,
		stream:    stream,
		topK:      topK,
	}
}

// AnswerStream retrieves context for the question, streams the generated
// answer through onChunk, and returns the full answer with its sources.
func (e *Engine) AnswerStream(ctx context.Context, question string, onChunk func(string)) (*Answer, error) {
	sources, err := e.retriever.Retrieve(ctx, question, e.topK)
	if err != nil {
		return nil, err
	}

	prompt := e.builder.BuildPrompt(e.builder.BuildContext(sources), question)

	var text string
	err = e.stream(ctx, prompt, func(chunk string) {
		text += chunk
		if onChunk != nil {
			onChunk(chunk)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	return &Answer{Text: text, Sources: sources}, nil
}

// Answer is the non-streaming form of AnswerStream.
func (e *Engine) Answer(ctx context.Context, question string) (*Answer, error) {
	return e.AnswerStream(ctx, question, nil)
}
