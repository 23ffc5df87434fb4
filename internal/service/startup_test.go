package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/ragserve/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const twoParagraphs = "The sky is blue.\n\nGrass is green."

func startupConfig() StartupConfig {
	return StartupConfig{
		CorpusSource: "raw_data.txt",
		Collection:   "langchain",
		Chunk:        ChunkConfig{Size: 20, Overlap: 0, Separator: "\n\n"},
	}
}

func newStartupMocks() (*MockCorpusLoader, *MockEmbedder, *MockStore, *MockGenerator) {
	return new(MockCorpusLoader), new(MockEmbedder), new(MockStore), new(MockGenerator)
}

func TestStartup_Run_Success(t *testing.T) {
	loader, embedder, store, generator := newStartupMocks()

	loader.On("Load", mock.Anything, "raw_data.txt").
		Return(&domain.Document{Source: "raw_data.txt", Content: twoParagraphs}, nil)
	embedder.On("EmbedDocuments", mock.Anything, []string{"The sky is blue.", "Grass is green."}).
		Return([][]float32{{1, 0}, {0, 1}}, nil)
	store.On("Replace", mock.Anything, mock.MatchedBy(func(entries []domain.IndexEntry) bool {
		return len(entries) == 2 &&
			entries[0].Chunk.Text == "The sky is blue." &&
			entries[1].Chunk.Index == 1 &&
			assert.ObjectsAreEqual([]float32{0, 1}, entries[1].Embedding)
	})).Return(nil)
	store.On("Count", mock.Anything).Return(2, nil)
	generator.On("Ping", mock.Anything).Return(nil)

	rt, err := NewStartup(startupConfig(), loader, embedder, store, generator).Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, rt)
	assert.Equal(t, 2, rt.ChunkCount)
	assert.Same(t, store, rt.Searcher)
	assert.Same(t, embedder, rt.Embedder)
	assert.Same(t, generator, rt.Generator)
	loader.AssertExpectations(t)
	embedder.AssertExpectations(t)
	store.AssertExpectations(t)
	generator.AssertExpectations(t)
}

func TestStartup_Run_CorpusMissing(t *testing.T) {
	loader, embedder, store, generator := newStartupMocks()
	loader.On("Load", mock.Anything, "raw_data.txt").Return(nil, errors.New("open raw_data.txt: no such file or directory"))

	rt, err := NewStartup(startupConfig(), loader, embedder, store, generator).Run(context.Background())

	assert.Nil(t, rt)
	stage, ok := domain.StartupStageOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.StartupStageCorpus, stage)
	embedder.AssertNotCalled(t, "EmbedDocuments", mock.Anything, mock.Anything)
	generator.AssertNotCalled(t, "Ping", mock.Anything)
}

func TestStartup_Run_ZeroChunks(t *testing.T) {
	loader, embedder, store, generator := newStartupMocks()
	loader.On("Load", mock.Anything, "raw_data.txt").
		Return(&domain.Document{Source: "raw_data.txt", Content: "\n\n   \n\n"}, nil)

	_, err := NewStartup(startupConfig(), loader, embedder, store, generator).Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoChunks)
	stage, _ := domain.StartupStageOf(err)
	assert.Equal(t, domain.StartupStageCorpus, stage)
	store.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

func TestStartup_Run_EmbeddingFailure(t *testing.T) {
	loader, embedder, store, generator := newStartupMocks()
	loader.On("Load", mock.Anything, "raw_data.txt").
		Return(&domain.Document{Source: "raw_data.txt", Content: twoParagraphs}, nil)
	embedder.On("EmbedDocuments", mock.Anything, mock.Anything).Return(nil, errors.New("model loading"))

	_, err := NewStartup(startupConfig(), loader, embedder, store, generator).Run(context.Background())

	stage, ok := domain.StartupStageOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.StartupStageEmbedding, stage)
	assert.Contains(t, err.Error(), "model loading")
}

func TestStartup_Run_EmbeddingCountMismatch(t *testing.T) {
	loader, embedder, store, generator := newStartupMocks()
	loader.On("Load", mock.Anything, "raw_data.txt").
		Return(&domain.Document{Source: "raw_data.txt", Content: twoParagraphs}, nil)
	embedder.On("EmbedDocuments", mock.Anything, mock.Anything).Return([][]float32{{1, 0}}, nil)

	_, err := NewStartup(startupConfig(), loader, embedder, store, generator).Run(context.Background())

	stage, _ := domain.StartupStageOf(err)
	assert.Equal(t, domain.StartupStageEmbedding, stage)
	assert.Contains(t, err.Error(), "expected 2 embeddings, got 1")
}

func TestStartup_Run_IndexFailure(t *testing.T) {
	loader, embedder, store, generator := newStartupMocks()
	loader.On("Load", mock.Anything, "raw_data.txt").
		Return(&domain.Document{Source: "raw_data.txt", Content: twoParagraphs}, nil)
	embedder.On("EmbedDocuments", mock.Anything, mock.Anything).Return([][]float32{{1, 0}, {0, 1}}, nil)
	store.On("Replace", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := NewStartup(startupConfig(), loader, embedder, store, generator).Run(context.Background())

	stage, _ := domain.StartupStageOf(err)
	assert.Equal(t, domain.StartupStageIndex, stage)
	generator.AssertNotCalled(t, "Ping", mock.Anything)
}

func TestStartup_Run_PersistedCountMismatch(t *testing.T) {
	loader, embedder, store, generator := newStartupMocks()
	loader.On("Load", mock.Anything, "raw_data.txt").
		Return(&domain.Document{Source: "raw_data.txt", Content: twoParagraphs}, nil)
	embedder.On("EmbedDocuments", mock.Anything, mock.Anything).Return([][]float32{{1, 0}, {0, 1}}, nil)
	store.On("Replace", mock.Anything, mock.Anything).Return(nil)
	store.On("Count", mock.Anything).Return(5, nil)

	rt, err := NewStartup(startupConfig(), loader, embedder, store, generator).Run(context.Background())

	assert.Nil(t, rt)
	stage, _ := domain.StartupStageOf(err)
	assert.Equal(t, domain.StartupStageIndex, stage)
	assert.Contains(t, err.Error(), "holds 5 entries, expected 2")
	generator.AssertNotCalled(t, "Ping", mock.Anything)
}

func TestStartup_Run_ProbeFailure(t *testing.T) {
	loader, embedder, store, generator := newStartupMocks()
	loader.On("Load", mock.Anything, "raw_data.txt").
		Return(&domain.Document{Source: "raw_data.txt", Content: twoParagraphs}, nil)
	embedder.On("EmbedDocuments", mock.Anything, mock.Anything).Return([][]float32{{1, 0}, {0, 1}}, nil)
	store.On("Replace", mock.Anything, mock.Anything).Return(nil)
	store.On("Count", mock.Anything).Return(2, nil)
	generator.On("Ping", mock.Anything).Return(errors.New("unexpected status 503"))

	rt, err := NewStartup(startupConfig(), loader, embedder, store, generator).Run(context.Background())

	assert.Nil(t, rt)
	stage, _ := domain.StartupStageOf(err)
	assert.Equal(t, domain.StartupStageEndpoint, stage)
}

func TestStartup_Run_NoGenerator(t *testing.T) {
	loader, embedder, store, _ := newStartupMocks()

	_, err := NewStartup(startupConfig(), loader, embedder, store, nil).Run(context.Background())

	stage, _ := domain.StartupStageOf(err)
	assert.Equal(t, domain.StartupStageConfig, stage)
	loader.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
}

func TestStartup_Run_SkipProbe(t *testing.T) {
	loader, embedder, store, _ := newStartupMocks()
	loader.On("Load", mock.Anything, "raw_data.txt").
		Return(&domain.Document{Source: "raw_data.txt", Content: twoParagraphs}, nil)
	embedder.On("EmbedDocuments", mock.Anything, mock.Anything).Return([][]float32{{1, 0}, {0, 1}}, nil)
	store.On("Replace", mock.Anything, mock.Anything).Return(nil)
	store.On("Count", mock.Anything).Return(2, nil)

	cfg := startupConfig()
	cfg.SkipProbe = true

	rt, err := NewStartup(cfg, loader, embedder, store, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, rt.ChunkCount)
}
