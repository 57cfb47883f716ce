// Package cli wires the clarion commands: schema setup, ingestion,
// search, question answering, and document management.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clarion-ai/cli/config"
	"github.com/clarion-ai/cli/internal/db"
	"github.com/clarion-ai/cli/internal/embeddings"
	"github.com/clarion-ai/cli/internal/markdown"
	"github.com/clarion-ai/cli/internal/ollama"
	"github.com/clarion-ai/cli/internal/rag"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "clarion",
	Short: "Hybrid-search knowledge base over your markdown documents",
	Long: `Clarion ingests markdown and PDF documents into PostgreSQL with
pgvector, and answers questions with hybrid search: semantic vector
similarity fused with full-text ranking.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger. Debug level with --verbose,
// warnings and up otherwise so command output stays clean.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// app bundles the wired components a command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *db.DB
}

// newApp loads config, builds the logger, and connects to the database.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	store, err := db.New(ctx, cfg.Database.ConnectionString)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("database unavailable (run 'clarion init' after starting PostgreSQL): %w", err)
	}

	return &app{cfg: cfg, logger: logger, store: store}, nil
}

func (a *app) close() {
	a.store.Close()
	a.logger.Sync()
}

func (a *app) embedder() *embeddings.TextEmbedder {
	return embeddings.NewTextEmbedder(
		a.cfg.Ollama.BaseURL,
		a.cfg.Embeddings.Model,
		embeddings.WithDimension(a.cfg.Embeddings.Dimension),
		embeddings.WithParallelism(a.cfg.Processing.BatchSize),
	)
}

func (a *app) ingestor() (*rag.Ingestor, error) {
	chunker, err := markdown.NewChunker(a.cfg.Processing.ChunkSize, a.cfg.Processing.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return rag.NewIngestor(a.store, a.embedder(), chunker, a.logger), nil
}

func (a *app) retriever() (*rag.Retriever, error) {
	return rag.NewRetriever(a.store, a.embedder(), a.cfg.Search.Alpha, a.cfg.Search.Candidates, a.logger)
}

// engine wires the full question-answering stack, resolving the chat
// model against what Ollama has available.
func (a *app) engine(ctx context.Context) (*rag.Engine, error) {
	retriever, err := a.retriever()
	if err != nil {
		return nil, err
	}

	client := ollama.NewClient(a.cfg.Ollama.BaseURL)
	model, err := client.ResolveModel(ctx, a.cfg.Ollama.ChatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve chat model: %w", err)
	}

	stream := func(ctx context.Context, prompt string, onChunk func(string)) error {
		return client.GenerateStream(ctx, &ollama.GenerateRequest{Model: model, Prompt: prompt}, onChunk)
	}
	return rag.NewEngine(retriever, rag.NewContextBuilder(0), stream, a.cfg.Search.TopK), nil
}
