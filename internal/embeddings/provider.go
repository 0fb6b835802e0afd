// Package embeddings turns text into fixed-dimension vectors via
// interchangeable model backends, cached per domain.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModelLoad indicates the embedding model for a domain could not be
	// loaded (unknown name, unreachable source). Not retried.
	ErrModelLoad = errors.New("embedding model load failed")

	// ErrModelCapability indicates the backend could not produce an
	// encoding for the request. Not retried.
	ErrModelCapability = errors.New("model cannot produce encoding")

	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Provider is a loaded embedding model handle.
//
// Output is always a plain ordered slice of fixed-length float32 slices, one
// per input text, in input order; no backend-specific array type crosses this
// boundary.
type Provider interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding dimension for the loaded model.
	Dimension() int

	// Close releases resources held by the provider.
	Close() error
}

// ProviderConfig holds configuration for creating a provider.
type ProviderConfig struct {
	// Backend selects the implementation: "fastembed" (default) or "remote".
	Backend string

	// Model is the embedding model name.
	Model string

	// BaseURL is the model-serving endpoint (remote backend only).
	BaseURL string

	// CacheDir is the local model cache directory (fastembed backend only).
	CacheDir string
}

// NewProvider creates an embedding provider for the configured backend.
//
// The backend is fixed at startup by configuration; there is no per-call
// probing of model capabilities.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Backend {
	case "fastembed", "":
		return NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Model,
			CacheDir: cfg.CacheDir,
		})
	case "remote":
		return NewRemoteProvider(RemoteConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}
}

// detectDimension returns the embedding dimension for a model name, falling
// back to 384 for unknown models.
func detectDimension(model string) int {
	if dim, ok := fastEmbedModelDimension(model); ok {
		return dim
	}
	switch {
	case strings.Contains(model, "large"):
		return 1024
	case strings.Contains(model, "base"):
		return 768
	default:
		return 384
	}
}
