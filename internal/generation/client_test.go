package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/vectorstore"
)

type fakeCompletionAPI struct {
	lastReq openai.ChatCompletionRequest
	resp    openai.ChatCompletionResponse
	err     error
}

func (f *fakeCompletionAPI) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

func testPassages() []vectorstore.Passage {
	return []vectorstore.Passage{
		{
			ID:       "doc-1__0",
			Text:     "Tenants must receive 30 days notice before eviction.",
			Metadata: vectorstore.Metadata{DocID: "doc-1", Domain: "housing", ChunkIndex: 0},
		},
		{
			ID:       "doc-1__1",
			Text:     "Notice must be delivered in writing.",
			Metadata: vectorstore.Metadata{DocID: "doc-1", Domain: "housing", ChunkIndex: 1},
		},
		{
			ID:       "doc-2__0",
			Text:     "Security deposits are capped at two months rent.",
			Metadata: vectorstore.Metadata{DocID: "doc-2", Domain: "housing", ChunkIndex: 0},
		},
	}
}

func newTestClient(api completionAPI) *Client {
	return &Client{
		api:     api,
		model:   "llama-3.1-8b-instant",
		timeout: 5 * time.Second,
		enabled: true,
		logger:  zap.NewNop(),
	}
}

func TestAnswer_Success(t *testing.T) {
	api := &fakeCompletionAPI{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "Tenants get 30 days written notice."}},
			},
		},
	}
	client := newTestClient(api)

	ans, err := client.Answer(context.Background(), "housing", "How much notice before eviction?", testPassages())
	require.NoError(t, err)

	assert.Equal(t, "Tenants get 30 days written notice.", ans.Summary)
	assert.Equal(t, []string{"doc-1", "doc-2"}, ans.Citations)
	assert.Equal(t, Disclaimer, ans.Disclaimer)
	assert.Empty(t, ans.Error)

	assert.Equal(t, "llama-3.1-8b-instant", api.lastReq.Model)
	require.Len(t, api.lastReq.Messages, 1)
	prompt := api.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "As a housing expert")
	assert.Contains(t, prompt, "30 days notice")
	assert.Contains(t, prompt, "How much notice before eviction?")
}

func TestAnswer_UpstreamFailureKeepsCitations(t *testing.T) {
	api := &fakeCompletionAPI{err: errors.New("rate limited")}
	client := newTestClient(api)

	ans, err := client.Answer(context.Background(), "housing", "question", testPassages())
	require.ErrorIs(t, err, ErrUpstreamGeneration)

	assert.Empty(t, ans.Summary)
	assert.Contains(t, ans.Error, "rate limited")
	assert.Equal(t, []string{"doc-1", "doc-2"}, ans.Citations)
	assert.Equal(t, Disclaimer, ans.Disclaimer)
}

func TestAnswer_EmptyChoices(t *testing.T) {
	api := &fakeCompletionAPI{resp: openai.ChatCompletionResponse{}}
	client := newTestClient(api)

	_, err := client.Answer(context.Background(), "housing", "question", testPassages())
	require.ErrorIs(t, err, ErrUpstreamGeneration)
}

func TestAnswer_DisabledWithoutAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "llama-3.1-8b-instant"}, zap.NewNop())

	ans, err := client.Answer(context.Background(), "housing", "question", testPassages())
	require.NoError(t, err)

	assert.Empty(t, ans.Summary)
	assert.Contains(t, ans.Error, "no API key")
	assert.Equal(t, []string{"doc-1", "doc-2"}, ans.Citations)
	assert.Equal(t, Disclaimer, ans.Disclaimer)
}

func TestAnswer_NoPassages(t *testing.T) {
	api := &fakeCompletionAPI{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "I found no relevant documents."}},
			},
		},
	}
	client := newTestClient(api)

	ans, err := client.Answer(context.Background(), "tax", "anything?", nil)
	require.NoError(t, err)
	assert.Empty(t, ans.Citations)
	assert.Equal(t, Disclaimer, ans.Disclaimer)
}
