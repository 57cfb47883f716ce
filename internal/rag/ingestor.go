package rag

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/clarion-ai/cli/internal/convert"
	"github.com/clarion-ai/cli/internal/db"
	"github.com/clarion-ai/cli/internal/markdown"
)

// IngestResult reports what happened to one document during ingestion.
type IngestResult struct {
	Source  string
	Chunks  int
	Skipped bool
	Err     error
}

// Ingestor runs the ingestion pipeline: normalize, chunk, embed, and
// transactionally replace the document's rows in the store.
type Ingestor struct {
	store    Store
	embedder Embedder
	chunker  *markdown.Chunker
	logger   *zap.Logger
}

// NewIngestor wires the pipeline together.
func NewIngestor(store Store, embedder Embedder, chunker *markdown.Chunker, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		logger:   logger,
	}
}

// IngestText ingests one document identified by source. Re-ingesting an
// unchanged document is a no-op; a changed one replaces all prior chunks
// atomically. Any failure leaves the prior version intact.
func (in *Ingestor) IngestText(ctx context.Context, source, raw string) (*IngestResult, error) {
	normalized := markdown.Normalize(raw)
	contentHash := fmt.Sprintf("%x", sha256.Sum256([]byte(normalized)))

	existing, err := in.store.GetDocumentBySource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", source, err)
	}
	if existing != nil && existing.ContentHash == contentHash {
		in.logger.Debug("document unchanged, skipping", zap.String("source", source))
		return &IngestResult{Source: source, Skipped: true}, nil
	}

	chunks, err := in.chunker.Chunk(normalized)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", source, err)
	}

	// Oversize chunks are stored without vectors; they still match
	// full-text queries, so no content is lost.
	texts := make([]string, 0, len(chunks))
	embedIdx := make([]int, 0, len(chunks))
	for i, c := range chunks {
		if !c.Oversize {
			texts = append(texts, c.Text)
			embedIdx = append(embedIdx, i)
		}
	}

	vectors, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", source, err)
	}

	rows := make([]*db.Chunk, len(chunks))
	for i, c := range chunks {
		rows[i] = &db.Chunk{
			Seq:         c.Seq,
			HeadingPath: c.HeadingPath,
			Content:     c.Text,
			StartOffset: c.Start,
			EndOffset:   c.End,
			Oversize:    c.Oversize,
			Model:       in.embedder.Model(),
		}
	}
	for j, i := range embedIdx {
		vec := vectors[j]
		rows[i].Embedding = &vec
	}

	written, err := in.store.ReplaceDocument(ctx, source, contentHash, rows)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", source, err)
	}

	in.logger.Info("document ingested",
		zap.String("source", source),
		zap.Int("chunks", written),
	)
	return &IngestResult{Source: source, Chunks: written}, nil
}

// IngestFile reads one file and ingests it. PDFs are converted to text
// first; everything else is treated as markdown.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (*IngestResult, error) {
	var text string
	if convert.IsPDF(path) {
		converted, err := convert.PDFToText(path)
		if err != nil {
			return nil, fmt.Errorf("ingest %s: %w", path, err)
		}
		text = converted
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ingest %s: %w", path, err)
		}
		text = string(data)
	}
	return in.IngestText(ctx, path, text)
}

// IngestAll ingests many files with per-document isolation: one bad
// document is reported in its result and does not stop the rest.
func (in *Ingestor) IngestAll(ctx context.Context, paths []string) []IngestResult {
	results := make([]IngestResult, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			results = append(results, IngestResult{Source: path, Err: err})
			continue
		}
		res, err := in.IngestFile(ctx, path)
		if err != nil {
			in.logger.Warn("document failed", zap.String("source", path), zap.Error(err))
			results = append(results, IngestResult{Source: path, Err: err})
			continue
		}
		results = append(results, *res)
	}
	return results
}

// CollectFiles expands files and directories into the list of ingestable
// paths: markdown and PDF files, directories walked recursively.
func CollectFiles(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".md", ".markdown", ".txt", ".pdf":
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}
	return out, nil
}
