// Package vectorstore provides domain-partitioned persistent storage of
// embedded document chunks with nearest-neighbor retrieval.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for vector store operations.
var (
	// ErrStoreUnavailable is returned when the backing store cannot be
	// reached or created.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidDomain indicates a domain name that cannot be mapped to a
	// collection.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrBatchMismatch indicates chunk texts and vectors of different lengths.
	ErrBatchMismatch = errors.New("chunk texts and vectors differ in length")
)

// Metadata is the per-chunk metadata stored alongside each record.
type Metadata struct {
	DocID      string `json:"doc_id"`
	Domain     string `json:"domain"`
	ChunkIndex int    `json:"chunk_index"`
}

// Passage is a retrieved chunk with its stored metadata and the distance
// from the query vector.
type Passage struct {
	// ID is the stored record id, "{doc_id}__{chunk_index}".
	ID string `json:"id"`

	// Text is the chunk's document text.
	Text string `json:"text"`

	// Metadata is the metadata recorded at ingestion time.
	Metadata Metadata `json:"metadata"`

	// Distance is the vector distance from the query; lower is closer.
	Distance float32 `json:"distance"`
}

// Store is the interface for domain-scoped vector storage.
//
// Each domain maps to one collection named "{domain}_collection", created
// lazily on first upsert. Domains are isolated: a query against one domain
// never returns another domain's chunks.
//
// Chunk vectors are computed by the caller and stored as-is. The store does
// not guard against querying a domain with a vector of different
// dimensionality than what was ingested (for example after changing the
// configured model for a domain); results in that case are undefined.
type Store interface {
	// Upsert stores one document's chunks under the domain's collection.
	// Record ids are assigned as "{docID}__{chunkIndex}" in input order,
	// and each record carries Metadata{docID, domain, index} plus the
	// chunk text and vector. Writes are durable before Upsert returns.
	Upsert(ctx context.Context, domain, docID string, texts []string, vectors [][]float32) error

	// Query returns up to topK nearest records for the domain, ascending
	// by distance. A domain with no collection yields an empty result,
	// not an error.
	Query(ctx context.Context, domain string, vector []float32, topK int) ([]Passage, error)

	// CollectionExists reports whether the domain has a collection.
	CollectionExists(ctx context.Context, domain string) (bool, error)

	// ListDomains returns the domains with existing collections.
	ListDomains(ctx context.Context) ([]string, error)

	// Close releases store resources.
	Close() error
}

// CollectionName returns the collection name for a domain.
func CollectionName(domain string) string {
	return domain + collectionSuffix
}

// ValidateDomain checks that a domain name can be used as a collection key.
func ValidateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("%w: empty domain", ErrInvalidDomain)
	}
	if strings.ContainsAny(domain, "/\\") {
		return fmt.Errorf("%w: %q contains path separators", ErrInvalidDomain, domain)
	}
	return nil
}

// ChunkID returns the record id for a chunk of a document.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s__%d", docID, index)
}
