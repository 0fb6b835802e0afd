package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RemoteConfig holds configuration for the managed model-serving backend.
type RemoteConfig struct {
	// BaseURL is the base URL of the model-serving endpoint.
	BaseURL string

	// Model is the embedding model name, used for dimension detection.
	Model string
}

// Validate validates the configuration.
func (c RemoteConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	return nil
}

// RemoteProvider generates embeddings through a managed model-serving
// service speaking the TEI /embed protocol. The service owns model loading;
// this client only normalizes its responses to plain float32 slices.
type RemoteProvider struct {
	config RemoteConfig
	client *http.Client
}

// embedRequest is the request body for the /embed endpoint.
type embedRequest struct {
	Inputs   interface{} `json:"inputs"`
	Truncate bool        `json:"truncate"`
}

// NewRemoteProvider creates a provider for the configured endpoint.
func NewRemoteProvider(cfg RemoteConfig) (*RemoteProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RemoteProvider{
		config: cfg,
		client: &http.Client{},
	}, nil
}

// EmbedDocuments generates embeddings for multiple texts.
func (p *RemoteProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	return p.embed(ctx, embedRequest{Inputs: texts, Truncate: true}, len(texts))
}

// EmbedQuery generates an embedding for a single query.
func (p *RemoteProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	vectors, err := p.embed(ctx, embedRequest{Inputs: text, Truncate: true}, 1)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *RemoteProvider) embed(ctx context.Context, req embedRequest, want int) ([][]float32, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelCapability, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrModelCapability, resp.StatusCode, string(respBody))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrModelCapability, err)
	}
	if len(vectors) < want {
		return nil, fmt.Errorf("%w: got %d vectors, want %d", ErrModelCapability, len(vectors), want)
	}
	return vectors, nil
}

// Dimension returns the embedding dimension based on the configured model
// name.
func (p *RemoteProvider) Dimension() int {
	return detectDimension(p.config.Model)
}

// Close is a no-op; the provider holds no local resources.
func (p *RemoteProvider) Close() error {
	return nil
}
