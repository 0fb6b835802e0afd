// Package config provides configuration loading for docqd.
//
// Configuration is loaded from an optional YAML file and overridden by
// environment variables, with hardcoded defaults for everything else.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete docqd configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Store         StoreConfig         `koanf:"store"`
	Embeddings    EmbeddingsConfig    `koanf:"embeddings"`
	Chunking      ChunkingConfig      `koanf:"chunking"`
	Retrieval     RetrievalConfig     `koanf:"retrieval"`
	Generation    GenerationConfig    `koanf:"generation"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StoreConfig holds vector store configuration.
type StoreConfig struct {
	// Path is the backing directory for the embedded vector store.
	Path     string `koanf:"path"`
	Compress bool   `koanf:"compress"`
}

// EmbeddingsConfig holds embedding backend configuration.
type EmbeddingsConfig struct {
	// Backend is "fastembed" (local ONNX models) or "remote"
	// (model-serving endpoint). Resolved once at startup.
	Backend string `koanf:"backend"`

	// DefaultModel is used for domains without a mapping.
	DefaultModel string `koanf:"default_model"`

	// DomainModels maps domain names to embedding model names.
	DomainModels map[string]string `koanf:"domain_models"`

	// CacheDir is where fastembed downloads model files.
	CacheDir string `koanf:"cache_dir"`

	// BaseURL is the remote backend's endpoint.
	BaseURL string `koanf:"base_url"`

	// MaxDomains bounds the per-domain model handle cache.
	MaxDomains int `koanf:"max_domains"`
}

// ChunkingConfig holds token-window parameters for ingestion.
type ChunkingConfig struct {
	ChunkSize int `koanf:"chunk_size"`
	Overlap   int `koanf:"overlap"`
}

// RetrievalConfig holds retrieval defaults.
type RetrievalConfig struct {
	TopK int `koanf:"top_k"`
}

// GenerationConfig holds the generation backend configuration.
type GenerationConfig struct {
	APIKey  Secret        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

// ObservabilityConfig holds logging, telemetry, and service identity settings.
type ObservabilityConfig struct {
	ServiceName string `koanf:"service_name"`
	Development bool   `koanf:"development"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// EnableTelemetry turns on OTLP trace and metric export.
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	OTLPEndpoint    string `koanf:"otlp_endpoint"`
	OTLPProtocol    string `koanf:"otlp_protocol"`
	OTLPInsecure    bool   `koanf:"otlp_insecure"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = "./vector_db"
	}

	if cfg.Embeddings.Backend == "" {
		cfg.Embeddings.Backend = "fastembed"
	}
	if cfg.Embeddings.DefaultModel == "" {
		cfg.Embeddings.DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if cfg.Embeddings.CacheDir == "" {
		cfg.Embeddings.CacheDir = "./models"
	}
	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:8080"
	}
	if cfg.Embeddings.MaxDomains == 0 {
		cfg.Embeddings.MaxDomains = 16
	}

	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 800
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 100
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}

	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "llama-3.1-8b-instant"
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = 30 * time.Second
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "docqd"
	}
	if cfg.Observability.OTLPEndpoint == "" {
		cfg.Observability.OTLPEndpoint = "localhost:4317"
		cfg.Observability.OTLPInsecure = true
	}
	if cfg.Observability.OTLPProtocol == "" {
		cfg.Observability.OTLPProtocol = "grpc"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Store.Path == "" {
		return errors.New("store path required")
	}

	switch c.Embeddings.Backend {
	case "fastembed":
	case "remote":
		if c.Embeddings.BaseURL == "" {
			return errors.New("embeddings base URL required for remote backend")
		}
	default:
		return fmt.Errorf("unknown embeddings backend: %q", c.Embeddings.Backend)
	}
	if c.Embeddings.MaxDomains < 1 {
		return errors.New("embeddings max domains must be positive")
	}

	if c.Chunking.ChunkSize < 1 {
		return errors.New("chunk size must be positive")
	}
	// The chunker's sliding window never advances unless overlap < size.
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("overlap %d must be in [0, chunk_size %d)", c.Chunking.Overlap, c.Chunking.ChunkSize)
	}

	if c.Retrieval.TopK < 1 {
		return errors.New("retrieval top_k must be positive")
	}

	return nil
}
