package embeddings

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// DefaultModel is used for domains with no configured model mapping.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// DefaultMaxDomains bounds the per-domain provider cache.
const DefaultMaxDomains = 16

// ServiceConfig holds configuration for the domain-keyed embedding service.
type ServiceConfig struct {
	// Backend selects the provider implementation for every domain:
	// "fastembed" (default) or "remote". Resolved once at startup.
	Backend string

	// DomainModels maps domain names to model names.
	DomainModels map[string]string

	// DefaultModel is used for unmapped domains.
	DefaultModel string

	// CacheDir is the local model cache directory (fastembed backend).
	CacheDir string

	// BaseURL is the model-serving endpoint (remote backend).
	BaseURL string

	// MaxDomains bounds the loaded-model cache; least-recently-used
	// domains are evicted and their providers closed.
	MaxDomains int
}

// Service resolves domains to embedding providers and caches loaded
// handles.
//
// Handles are cached in a bounded LRU keyed by domain; repeated encode calls
// for one domain reuse the cached handle. Concurrent loads for the same
// domain collapse to a single in-flight load, and loads for different
// domains do not block one another.
type Service struct {
	config  ServiceConfig
	cache   *lru.Cache[string, Provider]
	loadMu  sync.Map // domain -> *sync.Mutex
	logger  *zap.Logger
	metrics *Metrics

	// newProvider is swapped in tests.
	newProvider func(ProviderConfig) (Provider, error)
}

// NewService creates the embedding service.
func NewService(config ServiceConfig, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultModel == "" {
		config.DefaultModel = DefaultModel
	}
	if config.MaxDomains <= 0 {
		config.MaxDomains = DefaultMaxDomains
	}

	s := &Service{
		config:      config,
		logger:      logger,
		metrics:     NewMetrics(logger),
		newProvider: NewProvider,
	}

	cache, err := lru.NewWithEvict[string, Provider](config.MaxDomains, s.onEvict)
	if err != nil {
		return nil, fmt.Errorf("%w: creating model cache: %v", ErrInvalidConfig, err)
	}
	s.cache = cache

	return s, nil
}

func (s *Service) onEvict(domain string, p Provider) {
	if err := p.Close(); err != nil {
		s.logger.Warn("closing evicted provider",
			zap.String("domain", domain),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("evicted model handle",
		zap.String("domain", domain),
	)
}

// ModelForDomain resolves the model name for a domain, falling back to the
// configured default for unmapped domains.
func (s *Service) ModelForDomain(domain string) string {
	if model, ok := s.config.DomainModels[domain]; ok {
		return model
	}
	return s.config.DefaultModel
}

// Preload eagerly loads and caches the model handle for a domain.
func (s *Service) Preload(ctx context.Context, domain string) error {
	_, err := s.providerFor(domain)
	return err
}

// providerFor returns the cached handle for a domain, loading it on first
// use.
func (s *Service) providerFor(domain string) (Provider, error) {
	if domain == "" {
		domain = "general"
	}

	if p, ok := s.cache.Get(domain); ok {
		return p, nil
	}

	// Per-domain lock: one in-flight load per domain, independent slots
	// for different domains.
	muAny, _ := s.loadMu.LoadOrStore(domain, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	if p, ok := s.cache.Get(domain); ok {
		return p, nil
	}

	model := s.ModelForDomain(domain)
	p, err := s.newProvider(ProviderConfig{
		Backend:  s.config.Backend,
		Model:    model,
		BaseURL:  s.config.BaseURL,
		CacheDir: s.config.CacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: domain %q model %q: %v", ErrModelLoad, domain, model, err)
	}

	s.cache.Add(domain, p)
	s.logger.Info("loaded model handle",
		zap.String("domain", domain),
		zap.String("model", model),
		zap.Int("dimension", p.Dimension()),
	)
	return p, nil
}

// Encode generates embeddings for texts with the domain's model, one vector
// per input text in input order.
func (s *Service) Encode(ctx context.Context, domain string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	p, err := s.providerFor(domain)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	vectors, err := p.EmbedDocuments(ctx, texts)
	s.metrics.RecordGeneration(ctx, domain, s.ModelForDomain(domain), "encode", time.Since(start), len(texts), err)
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

// EncodeQuery generates the embedding for a single query text with the
// domain's model.
func (s *Service) EncodeQuery(ctx context.Context, domain, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}

	p, err := s.providerFor(domain)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	vector, err := p.EmbedQuery(ctx, text)
	s.metrics.RecordGeneration(ctx, domain, s.ModelForDomain(domain), "encode_query", time.Since(start), 1, err)
	if err != nil {
		return nil, err
	}
	return vector, nil
}

// Dimension returns the embedding dimension for a domain's model without
// loading it.
func (s *Service) Dimension(domain string) int {
	return detectDimension(s.ModelForDomain(domain))
}

// Close releases all cached provider handles.
func (s *Service) Close() error {
	s.cache.Purge() // evict callback closes each provider
	return nil
}
