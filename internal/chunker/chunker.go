// Package chunker splits extracted document text into overlapping
// fixed-size token windows for embedding.
package chunker

import "strings"

const (
	// DefaultChunkSize is the number of whitespace tokens per chunk.
	DefaultChunkSize = 800

	// DefaultOverlap is the number of tokens shared between consecutive chunks.
	DefaultOverlap = 100
)

// Chunk splits text into overlapping windows of up to size tokens.
//
// Tokens are maximal non-whitespace runs; chunk text is the tokens rejoined
// with single spaces. The window advances by size-overlap tokens per
// iteration, so consecutive chunks share exactly overlap tokens (except
// possibly the last, which may be shorter than size). Empty text yields nil.
//
// Callers must ensure overlap < size; the chunker does not validate it and
// the window would never advance otherwise. Config validation enforces this
// before any pipeline runs.
func Chunk(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(tokens); start += size - overlap {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
	}
	return chunks
}

// ChunkDefault splits text using the default window parameters.
func ChunkDefault(text string) []string {
	return Chunk(text, DefaultChunkSize, DefaultOverlap)
}
