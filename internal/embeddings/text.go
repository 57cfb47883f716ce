// Package embeddings adapts the Ollama embedding API into ordered,
// fixed-dimension vectors for storage and retrieval.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"
)

// ServiceError reports an upstream embedding failure. Transient failures
// (timeouts, 5xx, rate limits) are retried before being surfaced.
type ServiceError struct {
	Err       error
	Transient bool
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// TextEmbedder generates text embeddings using Ollama.
type TextEmbedder struct {
	baseURL    string
	model      string
	dimension  int
	maxRetries int
	backoff    time.Duration
	parallel   int
	httpClient *http.Client
}

// Option configures a TextEmbedder.
type Option func(*TextEmbedder)

// WithDimension enforces a fixed vector dimensionality. A response with a
// different length is an error, never a silent truncation.
func WithDimension(dim int) Option {
	return func(e *TextEmbedder) { e.dimension = dim }
}

// WithRetry sets the retry count and initial backoff for transient failures.
func WithRetry(retries int, backoff time.Duration) Option {
	return func(e *TextEmbedder) {
		if retries >= 0 {
			e.maxRetries = retries
		}
		if backoff > 0 {
			e.backoff = backoff
		}
	}
}

// WithParallelism bounds how many embedding requests a batch issues at once.
func WithParallelism(n int) Option {
	return func(e *TextEmbedder) {
		if n > 0 {
			e.parallel = n
		}
	}
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(e *TextEmbedder) { e.httpClient = c }
}

// NewTextEmbedder creates an embedder for the given Ollama endpoint and model.
func NewTextEmbedder(baseURL, model string, opts ...Option) *TextEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	e := &TextEmbedder{
		baseURL:    baseURL,
		model:      model,
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
		parallel:   8,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model returns the model identifier recorded alongside stored vectors.
func (e *TextEmbedder) Model() string { return e.model }

// Dimension returns the enforced dimensionality, or 0 when unenforced.
func (e *TextEmbedder) Dimension() int { return e.dimension }

// Embed generates an embedding for one text, retrying transient failures
// with exponential backoff.
func (e *TextEmbedder) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return pgvector.Vector{}, &ServiceError{Err: errors.New("text cannot be empty")}
	}

	backoff := e.backoff
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return pgvector.Vector{}, &ServiceError{Err: ctx.Err(), Transient: true}
			}
			backoff *= 2
		}

		vec, err := e.embedOnce(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		var svcErr *ServiceError
		if errors.As(err, &svcErr) && !svcErr.Transient {
			return pgvector.Vector{}, err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return pgvector.Vector{}, lastErr
}

// EmbedBatch generates embeddings for multiple texts, preserving input
// order. Requests fan out over a bounded worker group since the texts are
// independent of each other.
func (e *TextEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	vectors := make([]pgvector.Vector, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallel)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := e.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("failed to embed text %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// embedOnce performs a single request against /api/embeddings.
func (e *TextEmbedder) embedOnce(ctx context.Context, text string) (pgvector.Vector, error) {
	payload := map[string]any{
		"model":  e.model,
		"prompt": text,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return pgvector.Vector{}, &ServiceError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/api/embeddings", e.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return pgvector.Vector{}, &ServiceError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		// Network errors and client timeouts are worth retrying.
		return pgvector.Vector{}, &ServiceError{Err: err, Transient: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		transient := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return pgvector.Vector{}, &ServiceError{
			Err:       fmt.Errorf("ollama API error: %d - %s", resp.StatusCode, string(body)),
			Transient: transient,
		}
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return pgvector.Vector{}, &ServiceError{Err: fmt.Errorf("failed to decode response: %w", err), Transient: true}
	}
	if len(result.Embedding) == 0 {
		return pgvector.Vector{}, &ServiceError{Err: errors.New("empty embedding returned")}
	}
	if e.dimension > 0 && len(result.Embedding) != e.dimension {
		return pgvector.Vector{}, &ServiceError{
			Err: fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(result.Embedding), e.dimension),
		}
	}

	return pgvector.NewVector(result.Embedding), nil
}
