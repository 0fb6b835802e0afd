// Package generation produces grounded answers from retrieved passages
// using an OpenAI-compatible chat completion endpoint.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/vectorstore"
)

// Disclaimer is appended to every answer payload.
const Disclaimer = "This AI is not a substitute for legal advice; consult a licensed professional."

// ErrUpstreamGeneration indicates the completion endpoint failed or
// returned an unusable response.
var ErrUpstreamGeneration = errors.New("upstream generation failed")

// Config holds generation client configuration.
type Config struct {
	// APIKey authenticates against the completion endpoint. When empty,
	// generation is disabled and answers carry only retrieved context.
	APIKey string

	// BaseURL points at an OpenAI-compatible completions API.
	BaseURL string

	// Model is the chat model name.
	Model string

	// Timeout bounds each completion request.
	Timeout time.Duration
}

// Answer is the generated response for a query, including the passages it
// was grounded on.
type Answer struct {
	Summary    string   `json:"summary"`
	KeyPoints  []string `json:"key_points"`
	Guidance   string   `json:"guidance"`
	Citations  []string `json:"citations"`
	Disclaimer string   `json:"disclaimer"`
	Error      string   `json:"error,omitempty"`
}

// completionAPI is the slice of the openai client used here, extracted so
// tests can substitute a fake.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client generates answers from retrieved passages.
type Client struct {
	api     completionAPI
	model   string
	timeout time.Duration
	enabled bool
	logger  *zap.Logger
}

// NewClient creates a generation client. An empty API key yields a disabled
// client whose answers contain citations and the disclaimer but no summary.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		model:   cfg.Model,
		timeout: cfg.Timeout,
		enabled: cfg.APIKey != "",
		logger:  logger,
	}
	if c.timeout == 0 {
		c.timeout = 30 * time.Second
	}

	if c.enabled {
		apiCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			apiCfg.BaseURL = cfg.BaseURL
		}
		c.api = openai.NewClientWithConfig(apiCfg)
	}

	return c
}

// Answer generates an answer to question from the given passages. The
// returned Answer always carries citations and the disclaimer; on upstream
// failure it also carries the error text, alongside a non-nil error wrapping
// ErrUpstreamGeneration so callers can decide whether to degrade or fail.
func (c *Client) Answer(ctx context.Context, domain, question string, passages []vectorstore.Passage) (Answer, error) {
	ans := Answer{
		KeyPoints:  []string{},
		Citations:  citations(passages),
		Disclaimer: Disclaimer,
	}

	if !c.enabled {
		ans.Error = "generation disabled: no API key configured"
		return ans, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(domain, question, passages)},
		},
	})
	if err != nil {
		c.logger.Warn("chat completion failed",
			zap.String("domain", domain),
			zap.String("model", c.model),
			zap.Error(err))
		ans.Error = err.Error()
		return ans, fmt.Errorf("%w: %v", ErrUpstreamGeneration, err)
	}
	if len(resp.Choices) == 0 {
		ans.Error = "empty completion response"
		return ans, fmt.Errorf("%w: empty completion response", ErrUpstreamGeneration)
	}

	ans.Summary = resp.Choices[0].Message.Content
	return ans, nil
}

// buildPrompt frames the model as a domain expert over the retrieved context.
func buildPrompt(domain, question string, passages []vectorstore.Passage) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "As a %s expert, using the following context:\n\n", domain)
	for _, p := range passages {
		sb.WriteString(p.Text)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "Answer this question concisely and list citations: %s\n\n", question)
	sb.WriteString("Provide: summary, key_points (3), guidance.")
	return sb.String()
}

// citations collects the distinct source document IDs, in passage order.
func citations(passages []vectorstore.Passage) []string {
	out := make([]string, 0, len(passages))
	seen := make(map[string]struct{}, len(passages))
	for _, p := range passages {
		id := p.Metadata.DocID
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
