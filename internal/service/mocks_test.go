package service

import (
	"context"

	"github.com/cloo-solutions/ragserve/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockCorpusLoader is a mock implementation of CorpusLoader
type MockCorpusLoader struct {
	mock.Mock
}

func (m *MockCorpusLoader) Load(ctx context.Context, source string) (*domain.Document, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

// MockEmbedder is a mock implementation of Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockGenerator is a mock implementation of Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockStore is a mock implementation of index.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Replace(ctx context.Context, entries []domain.IndexEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	args := m.Called(ctx, embedding, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredChunk), args.Error(1)
}

// MockRecorder is a mock implementation of QueryRecorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(entry domain.QueryLog) {
	m.Called(entry)
}
