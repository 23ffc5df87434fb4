package domain

import "fmt"

// Document is the raw corpus text and where it came from.
type Document struct {
	Source  string
	Content string
}

// Chunk is a contiguous segment of a Document used as the unit of retrieval.
type Chunk struct {
	ID     string
	Source string
	Index  int
	Text   string
}

// IndexEntry pairs a chunk with its embedding vector.
type IndexEntry struct {
	Chunk     Chunk
	Embedding []float32
}

// ScoredChunk is a chunk returned by similarity search.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}

// ValidateEntries checks that entries are non-empty and share one dimension.
// It returns that dimension.
func ValidateEntries(entries []IndexEntry) (int, error) {
	if len(entries) == 0 {
		return 0, ErrEmptyIndex
	}

	dim := len(entries[0].Embedding)
	if dim == 0 {
		return 0, NewDomainError(ErrCodeValidation, "embedding cannot be empty")
	}

	for i, e := range entries {
		if len(e.Embedding) != dim {
			return 0, NewDomainErrorWithCause(ErrCodeValidation, "embedding dimension mismatch",
				fmt.Errorf("entry %d has %d dimensions, expected %d", i, len(e.Embedding), dim))
		}
	}

	return dim, nil
}
