package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test vectors are unit-length so cosine similarity behaves predictably.
var (
	vecA = []float32{1, 0, 0}
	vecB = []float32{0, 1, 0}
	vecC = []float32{0, 0, 1}
)

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{Path: t.TempDir()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewChromemStore_RequiresPath(t *testing.T) {
	_, err := NewChromemStore(ChromemConfig{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestChromemStore_UpsertAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, "tax", "doc-1",
		[]string{"income tax brackets", "filing deadlines"},
		[][]float32{vecA, vecB},
	)
	require.NoError(t, err)

	passages, err := store.Query(ctx, "tax", vecA, 2)
	require.NoError(t, err)
	require.Len(t, passages, 2)

	// Closest first, ascending distance.
	assert.Equal(t, "doc-1__0", passages[0].ID)
	assert.Equal(t, "income tax brackets", passages[0].Text)
	assert.Equal(t, "doc-1", passages[0].Metadata.DocID)
	assert.Equal(t, "tax", passages[0].Metadata.Domain)
	assert.Equal(t, 0, passages[0].Metadata.ChunkIndex)
	assert.Equal(t, 1, passages[1].Metadata.ChunkIndex)
	assert.LessOrEqual(t, passages[0].Distance, passages[1].Distance)
	assert.InDelta(t, 0.0, float64(passages[0].Distance), 1e-5)
}

func TestChromemStore_QueryMissingCollection(t *testing.T) {
	store := newTestStore(t)

	passages, err := store.Query(context.Background(), "health", vecA, 3)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestChromemStore_DomainIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "tax", "doc-1", []string{"tax chunk"}, [][]float32{vecA}))
	require.NoError(t, store.Upsert(ctx, "health", "doc-2", []string{"health chunk"}, [][]float32{vecA}))

	passages, err := store.Query(ctx, "health", vecA, 10)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "health", passages[0].Metadata.Domain)
	assert.Equal(t, "doc-2", passages[0].Metadata.DocID)
}

func TestChromemStore_TopKCapped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	texts := []string{"a", "b", "c"}
	require.NoError(t, store.Upsert(ctx, "general", "doc-1", texts, [][]float32{vecA, vecB, vecC}))

	// topK larger than the collection is capped, not an error.
	passages, err := store.Query(ctx, "general", vecA, 10)
	require.NoError(t, err)
	assert.Len(t, passages, 3)

	// topK smaller than the collection returns exactly topK.
	passages, err = store.Query(ctx, "general", vecA, 2)
	require.NoError(t, err)
	assert.Len(t, passages, 2)
}

func TestChromemStore_BatchMismatch(t *testing.T) {
	store := newTestStore(t)

	err := store.Upsert(context.Background(), "tax", "doc-1",
		[]string{"one", "two"}, [][]float32{vecA})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBatchMismatch)
}

func TestChromemStore_EmptyBatchIsNoop(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "tax", "doc-1", nil, nil))

	exists, err := store.CollectionExists(ctx, "tax")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestChromemStore_InvalidDomain(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, "", "doc-1", []string{"x"}, [][]float32{vecA})
	assert.ErrorIs(t, err, ErrInvalidDomain)

	_, err = store.Query(ctx, "a/b", vecA, 1)
	assert.ErrorIs(t, err, ErrInvalidDomain)
}

func TestChromemStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewChromemStore(ChromemConfig{Path: dir}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, "tax", "doc-1", []string{"durable chunk"}, [][]float32{vecA}))
	require.NoError(t, store.Close())

	reopened, err := NewChromemStore(ChromemConfig{Path: dir}, nil)
	require.NoError(t, err)
	defer reopened.Close()

	passages, err := reopened.Query(ctx, "tax", vecA, 1)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "durable chunk", passages[0].Text)
	assert.Equal(t, "doc-1__0", passages[0].ID)
}

func TestChromemStore_ListDomains(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "tax", "d1", []string{"x"}, [][]float32{vecA}))
	require.NoError(t, store.Upsert(ctx, "health", "d2", []string{"y"}, [][]float32{vecB}))

	domains, err := store.ListDomains(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tax", "health"}, domains)
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "tax_collection", CollectionName("tax"))
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "abc__3", ChunkID("abc", 3))
}
