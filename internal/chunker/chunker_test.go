package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// words returns "w0 w1 ... w(n-1)".
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestChunk_Empty(t *testing.T) {
	assert.Nil(t, Chunk("", 800, 100))
	assert.Nil(t, Chunk("   \t\n  ", 800, 100))
}

func TestChunk_SingleWindow(t *testing.T) {
	chunks := Chunk("alpha beta gamma", 800, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "alpha beta gamma", chunks[0])
}

func TestChunk_NormalizesWhitespace(t *testing.T) {
	chunks := Chunk("alpha\t beta\n\ngamma", 10, 2)
	require.Len(t, chunks, 1)
	assert.Equal(t, "alpha beta gamma", chunks[0])
}

func TestChunk_WindowBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		tokens  int
		size    int
		overlap int
		want    int
	}{
		{"exactly one window", 800, 800, 100, 2}, // second window starts at 700
		{"below one window", 500, 800, 100, 1},
		{"two windows", 900, 800, 100, 2},
		{"no overlap", 20, 10, 0, 2},
		{"dense overlap", 10, 4, 3, 10}, // starts advance by 1: 0..9
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Chunk(words(tt.tokens), tt.size, tt.overlap)
			assert.Len(t, chunks, tt.want)
			for _, c := range chunks {
				assert.LessOrEqual(t, len(strings.Fields(c)), tt.size)
			}
		})
	}
}

func TestChunk_OverlapContent(t *testing.T) {
	// 900 tokens, 800/100: chunks cover [0,800) and [700,900).
	chunks := Chunk(words(900), 800, 100)
	require.Len(t, chunks, 2)

	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	require.Len(t, first, 800)
	require.Len(t, second, 200)

	assert.Equal(t, "w0", first[0])
	assert.Equal(t, "w799", first[799])
	assert.Equal(t, "w700", second[0])
	assert.Equal(t, "w899", second[199])

	// Consecutive chunks share exactly overlap tokens.
	assert.Equal(t, first[700:], second[:100])
}

func TestChunk_CoversAllTokens(t *testing.T) {
	chunks := Chunk(words(1234), 800, 100)
	seen := make(map[string]bool)
	for _, c := range chunks {
		for _, tok := range strings.Fields(c) {
			seen[tok] = true
		}
	}
	assert.Len(t, seen, 1234)
}

func TestChunk_Deterministic(t *testing.T) {
	text := words(2500)
	a := Chunk(text, 800, 100)
	b := Chunk(text, 800, 100)
	assert.Equal(t, a, b)
}

func TestChunkDefault(t *testing.T) {
	chunks := ChunkDefault(words(900))
	assert.Len(t, chunks, 2)
}
