// Package ingest orchestrates document ingestion: text extraction,
// chunking, batch embedding and durable storage.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/chunker"
	"github.com/fyrsmithlabs/docqd/internal/extract"
	"github.com/fyrsmithlabs/docqd/internal/vectorstore"
)

// Encoder produces one embedding per input text, in input order.
// *embeddings.Service implements it.
type Encoder interface {
	Encode(ctx context.Context, domain string, texts []string) ([][]float32, error)
}

// Config holds chunking parameters for the pipeline.
type Config struct {
	// ChunkSize is the token window size.
	ChunkSize int

	// Overlap is the number of tokens shared between consecutive chunks.
	// Must be smaller than ChunkSize; config validation enforces it.
	Overlap int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = chunker.DefaultChunkSize
	}
	if c.Overlap == 0 {
		c.Overlap = chunker.DefaultOverlap
	}
}

// Result reports one completed ingestion.
type Result struct {
	DocID      string `json:"doc_id"`
	ChunkCount int    `json:"chunk_count"`
}

// Pipeline ingests one uploaded document end to end.
type Pipeline struct {
	encoder Encoder
	store   vectorstore.Store
	config  Config
	logger  *zap.Logger
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(encoder Encoder, store vectorstore.Store, config Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()
	return &Pipeline{
		encoder: encoder,
		store:   store,
		config:  config,
		logger:  logger,
	}
}

// Ingest extracts, chunks, embeds and stores one document under a domain.
//
// Every upload receives a fresh doc id, including documents that yield no
// text; those report a zero chunk count and nothing is embedded or stored
// (no zero-length batch calls). Upsert is the only durable write and runs
// last, so failures need no rollback.
func (p *Pipeline) Ingest(ctx context.Context, data []byte, filename, domain string) (Result, error) {
	if domain == "" {
		domain = "general"
	}

	docID := uuid.New().String()
	result := Result{DocID: docID}

	text := extract.Extract(data, filename)
	if text == "" {
		// Unreadable or empty input degrades to a zero-chunk document.
		p.logger.Warn("document produced no text",
			zap.String("doc_id", docID),
			zap.String("filename", filename),
			zap.String("domain", domain),
			zap.Int("bytes", len(data)),
		)
	}

	chunks := chunker.Chunk(text, p.config.ChunkSize, p.config.Overlap)
	if len(chunks) == 0 {
		return result, nil
	}

	vectors, err := p.encoder.Encode(ctx, domain, chunks)
	if err != nil {
		return Result{}, fmt.Errorf("encoding chunks: %w", err)
	}

	if err := p.store.Upsert(ctx, domain, docID, chunks, vectors); err != nil {
		return Result{}, fmt.Errorf("storing chunks: %w", err)
	}

	result.ChunkCount = len(chunks)

	p.logger.Info("document ingested",
		zap.String("doc_id", docID),
		zap.String("domain", domain),
		zap.Int("chunks", result.ChunkCount),
	)

	return result, nil
}
