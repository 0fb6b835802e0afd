// Package retrieval answers questions with the nearest stored chunks for a
// domain.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/vectorstore"
)

// DefaultTopK is the number of passages returned when neither the caller
// nor the config specifies one.
const DefaultTopK = 4

// QueryEncoder embeds a single query text with the domain's model.
// *embeddings.Service implements it.
type QueryEncoder interface {
	EncodeQuery(ctx context.Context, domain, text string) ([]float32, error)
}

// Config holds retrieval defaults.
type Config struct {
	// TopK is used when a request does not specify its own.
	TopK int
}

// ApplyDefaults fills missing values.
func (c *Config) ApplyDefaults() {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
}

// Service is the sole read path into the vector store.
//
// It performs no re-ranking, doc-id filtering or deduplication; scoping is
// entirely the requested domain and topK.
type Service struct {
	encoder QueryEncoder
	store   vectorstore.Store
	config  Config
	logger  *zap.Logger
}

// NewService creates a retrieval service.
func NewService(encoder QueryEncoder, store vectorstore.Store, config Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()
	return &Service{
		encoder: encoder,
		store:   store,
		config:  config,
		logger:  logger,
	}
}

// Retrieve returns up to topK passages nearest to the question within the
// domain, ascending by distance. A domain with no ingested documents yields
// an empty result.
func (s *Service) Retrieve(ctx context.Context, domain, question string, topK int) ([]vectorstore.Passage, error) {
	if domain == "" {
		domain = "general"
	}
	if topK <= 0 {
		topK = s.config.TopK
	}

	vector, err := s.encoder.EncodeQuery(ctx, domain, question)
	if err != nil {
		return nil, fmt.Errorf("encoding question: %w", err)
	}
	if len(vector) == 0 {
		return []vectorstore.Passage{}, nil
	}

	passages, err := s.store.Query(ctx, domain, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("querying domain %q: %w", domain, err)
	}

	s.logger.Debug("retrieved passages",
		zap.String("domain", domain),
		zap.Int("top_k", topK),
		zap.Int("results", len(passages)),
	)

	return passages, nil
}
