// Package index stores chunk embeddings and answers nearest-neighbour queries.
package index

import (
	"context"
	"math"
	"sort"

	"github.com/cloo-solutions/ragserve/internal/domain"
)

// Writer replaces the stored collection. Only the startup pipeline writes.
type Writer interface {
	Replace(ctx context.Context, entries []domain.IndexEntry) error
	Count(ctx context.Context) (int, error)
}

// Searcher is the read-only view handed to the query path.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error)
}

// Store is both halves of an index.
type Store interface {
	Writer
	Searcher
}

// cosineSimilarity returns 0 when either vector has zero magnitude.
func cosineSimilarity(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// rankTopK orders hits by score descending, then chunk index ascending, and
// keeps at most k of them.
func rankTopK(hits []domain.ScoredChunk, k int) []domain.ScoredChunk {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.Index < hits[j].Chunk.Index
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}
