package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloo-solutions/ragserve/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []domain.IndexEntry {
	return []domain.IndexEntry{
		{Chunk: domain.Chunk{ID: "c-0", Source: "raw_data.txt", Index: 0, Text: "The sky is blue."}, Embedding: []float32{1, 0, 0}},
		{Chunk: domain.Chunk{ID: "c-1", Source: "raw_data.txt", Index: 1, Text: "Grass is green."}, Embedding: []float32{0, 1, 0}},
		{Chunk: domain.Chunk{ID: "c-2", Source: "raw_data.txt", Index: 2, Text: "Roses are red."}, Embedding: []float32{0.7, 0.7, 0}},
	}
}

func TestOpenDiskStore_Validation(t *testing.T) {
	_, err := OpenDiskStore("", "langchain")
	assert.Error(t, err)

	_, err = OpenDiskStore(t.TempDir(), "")
	assert.Error(t, err)
}

func TestOpenDiskStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chroma_db")

	store, err := OpenDiskStore(dir, "langchain")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDiskStore_ReplaceAndSearch(t *testing.T) {
	ctx := context.Background()
	store, err := OpenDiskStore(t.TempDir(), "langchain")
	require.NoError(t, err)

	require.NoError(t, store.Replace(ctx, sampleEntries()))

	results, err := store.Search(ctx, []float32{1, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "The sky is blue.", results[0].Chunk.Text)
	assert.Equal(t, "Roses are red.", results[1].Chunk.Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestDiskStore_Search_KLargerThanIndex(t *testing.T) {
	ctx := context.Background()
	store, err := OpenDiskStore(t.TempDir(), "langchain")
	require.NoError(t, err)
	require.NoError(t, store.Replace(ctx, sampleEntries()))

	results, err := store.Search(ctx, []float32{0, 1, 0}, 10)

	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, "Grass is green.", results[0].Chunk.Text)
}

func TestDiskStore_Search_TiesOrderedByChunkIndex(t *testing.T) {
	ctx := context.Background()
	store, err := OpenDiskStore(t.TempDir(), "langchain")
	require.NoError(t, err)

	entries := []domain.IndexEntry{
		{Chunk: domain.Chunk{ID: "c-2", Index: 2, Text: "two"}, Embedding: []float32{1, 0}},
		{Chunk: domain.Chunk{ID: "c-0", Index: 0, Text: "zero"}, Embedding: []float32{1, 0}},
		{Chunk: domain.Chunk{ID: "c-1", Index: 1, Text: "one"}, Embedding: []float32{1, 0}},
	}
	require.NoError(t, store.Replace(ctx, entries))

	for i := 0; i < 3; i++ {
		results, err := store.Search(ctx, []float32{2, 0}, 3)
		require.NoError(t, err)
		assert.Equal(t, "zero", results[0].Chunk.Text)
		assert.Equal(t, "one", results[1].Chunk.Text)
		assert.Equal(t, "two", results[2].Chunk.Text)
	}
}

func TestDiskStore_Search_Empty(t *testing.T) {
	store, err := OpenDiskStore(t.TempDir(), "langchain")
	require.NoError(t, err)

	results, err := store.Search(context.Background(), []float32{1, 0}, 4)

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestDiskStore_Search_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store, err := OpenDiskStore(t.TempDir(), "langchain")
	require.NoError(t, err)
	require.NoError(t, store.Replace(ctx, sampleEntries()))

	_, err = store.Search(ctx, []float32{1, 0}, 2)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query has 2 dimensions, index has 3")
}

func TestDiskStore_Search_InvalidK(t *testing.T) {
	store, err := OpenDiskStore(t.TempDir(), "langchain")
	require.NoError(t, err)

	_, err = store.Search(context.Background(), []float32{1}, 0)
	assert.Error(t, err)
}

func TestDiskStore_Replace_RejectsEmpty(t *testing.T) {
	store, err := OpenDiskStore(t.TempDir(), "langchain")
	require.NoError(t, err)

	err = store.Replace(context.Background(), nil)
	assert.Equal(t, domain.ErrEmptyIndex, err)

	_, statErr := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestDiskStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := OpenDiskStore(dir, "langchain")
	require.NoError(t, err)
	require.NoError(t, store.Replace(ctx, sampleEntries()))

	reopened, err := OpenDiskStore(dir, "langchain")
	require.NoError(t, err)

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	results, err := reopened.Search(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.Chunk{ID: "c-1", Source: "raw_data.txt", Index: 1, Text: "Grass is green."}, results[0].Chunk)
}

func TestDiskStore_ReplaceOverwrites(t *testing.T) {
	ctx := context.Background()
	store, err := OpenDiskStore(t.TempDir(), "langchain")
	require.NoError(t, err)
	require.NoError(t, store.Replace(ctx, sampleEntries()))

	replacement := []domain.IndexEntry{
		{Chunk: domain.Chunk{ID: "n-0", Index: 0, Text: "Only entry."}, Embedding: []float32{0.5, 0.5}},
	}
	require.NoError(t, store.Replace(ctx, replacement))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := store.Search(ctx, []float32{1, 1}, 4)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Only entry.", results[0].Chunk.Text)
}

func TestOpenDiskStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "langchain.json"), []byte("{not json"), 0o644))

	_, err := OpenDiskStore(dir, "langchain")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode index file")
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
