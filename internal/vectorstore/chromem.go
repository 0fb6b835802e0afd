package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var chromemTracer = otel.Tracer("docqd.vectorstore.chromem")

const collectionSuffix = "_collection"

// ChromemConfig holds configuration for the chromem-go embedded store.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: store path required", ErrInvalidConfig)
	}
	return nil
}

// ChromemStore implements Store on chromem-go.
//
// chromem-go is an embeddable vector database with no external service
// dependency; collections persist to gob files under the configured path and
// every write is flushed before AddDocuments returns, which gives Upsert its
// durability guarantee.
type ChromemStore struct {
	db     *chromem.DB
	config ChromemConfig
	logger *zap.Logger

	// locks serializes lazy collection creation per domain. Two concurrent
	// first uploads into a new domain would otherwise race get-then-create.
	locks sync.Map // domain -> *sync.Mutex
}

// NewChromemStore opens (or creates) the persistent store at config.Path.
func NewChromemStore(config ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if err := os.MkdirAll(config.Path, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating directory %s: %v", ErrStoreUnavailable, config.Path, err)
	}

	db, err := chromem.NewPersistentDB(config.Path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("%w: opening chromem DB: %v", ErrStoreUnavailable, err)
	}

	logger.Info("chromem store opened",
		zap.String("path", config.Path),
		zap.Bool("compress", config.Compress),
	)

	return &ChromemStore{
		db:     db,
		config: config,
		logger: logger,
	}, nil
}

// noEncodeFunc is passed to chromem wherever an embedding function is
// required. All vectors are precomputed by the embeddings service, so chromem
// must never encode on our behalf; passing nil would silently install
// chromem's default OpenAI embedder.
func noEncodeFunc(context.Context, string) ([]float32, error) {
	return nil, errors.New("vectors must be precomputed")
}

// domainLock returns the creation lock for a domain.
func (s *ChromemStore) domainLock(domain string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(domain, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Upsert stores one document's chunks in the domain's collection, creating
// the collection on first use.
func (s *ChromemStore) Upsert(ctx context.Context, domain, docID string, texts []string, vectors [][]float32) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Upsert")
	defer span.End()

	span.SetAttributes(
		attribute.String("domain", domain),
		attribute.String("doc_id", docID),
		attribute.Int("chunk_count", len(texts)),
	)

	if err := ValidateDomain(domain); err != nil {
		return err
	}
	if len(texts) != len(vectors) {
		return fmt.Errorf("%w: %d texts, %d vectors", ErrBatchMismatch, len(texts), len(vectors))
	}
	if len(texts) == 0 {
		return nil
	}

	name := CollectionName(domain)

	mu := s.domainLock(domain)
	mu.Lock()
	collection, err := s.db.GetOrCreateCollection(name, nil, noEncodeFunc)
	mu.Unlock()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: collection %s: %v", ErrStoreUnavailable, name, err)
	}

	docs := make([]chromem.Document, len(texts))
	for i, text := range texts {
		docs[i] = chromem.Document{
			ID:      ChunkID(docID, i),
			Content: text,
			Metadata: map[string]string{
				"doc_id":      docID,
				"domain":      domain,
				"chunk_index": strconv.Itoa(i),
			},
			Embedding: vectors[i],
		}
	}

	// Concurrency of 1: embeddings are already computed, nothing to fan out.
	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: adding documents: %v", ErrStoreUnavailable, err)
	}

	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("upserted chunks",
		zap.String("domain", domain),
		zap.String("doc_id", docID),
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query returns up to topK nearest chunks for the domain, ascending by
// distance.
func (s *ChromemStore) Query(ctx context.Context, domain string, vector []float32, topK int) ([]Passage, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Query")
	defer span.End()

	span.SetAttributes(
		attribute.String("domain", domain),
		attribute.Int("top_k", topK),
	)

	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	if len(vector) == 0 {
		return nil, errors.New("query vector cannot be empty")
	}

	collection := s.db.GetCollection(CollectionName(domain), noEncodeFunc)
	if collection == nil {
		// Never-ingested domain: empty result, not an error.
		span.SetStatus(codes.Ok, "no collection")
		return []Passage{}, nil
	}

	// chromem requires nResults <= stored document count.
	count := collection.Count()
	if count == 0 {
		return []Passage{}, nil
	}
	if topK > count {
		topK = count
	}

	results, err := collection.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: querying collection: %v", ErrStoreUnavailable, err)
	}

	// chromem orders by similarity descending, so 1-similarity is already
	// ascending distance.
	passages := make([]Passage, len(results))
	for i, r := range results {
		passages[i] = Passage{
			ID:       r.ID,
			Text:     r.Content,
			Metadata: metadataFromMap(r.Metadata),
			Distance: 1 - r.Similarity,
		}
	}

	span.SetAttributes(attribute.Int("results", len(passages)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("queried domain",
		zap.String("domain", domain),
		zap.Int("top_k", topK),
		zap.Int("results", len(passages)),
	)

	return passages, nil
}

// CollectionExists reports whether the domain has a collection.
func (s *ChromemStore) CollectionExists(ctx context.Context, domain string) (bool, error) {
	if err := ValidateDomain(domain); err != nil {
		return false, err
	}
	return s.db.GetCollection(CollectionName(domain), noEncodeFunc) != nil, nil
}

// ListDomains returns the domains with existing collections.
func (s *ChromemStore) ListDomains(ctx context.Context) ([]string, error) {
	collections := s.db.ListCollections()
	domains := make([]string, 0, len(collections))
	for name := range collections {
		domains = append(domains, strings.TrimSuffix(name, collectionSuffix))
	}
	return domains, nil
}

// Close closes the store. chromem persists on write, so there is nothing to
// flush.
func (s *ChromemStore) Close() error {
	s.logger.Info("chromem store closed")
	return nil
}

func metadataFromMap(m map[string]string) Metadata {
	index, _ := strconv.Atoi(m["chunk_index"])
	return Metadata{
		DocID:      m["doc_id"],
		Domain:     m["domain"],
		ChunkIndex: index,
	}
}

// Ensure ChromemStore implements Store.
var _ Store = (*ChromemStore)(nil)
