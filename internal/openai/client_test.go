package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOpenAIAPI is a mock for the OpenAI API
type MockOpenAIAPI struct {
	mock.Mock
}

func (m *MockOpenAIAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func vectorOf(dim int, seed float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = seed + float32(i)*0.001
	}
	return v
}

func TestClient_EmbedQuery_Success(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 1536}

	ctx := context.Background()
	expected := vectorOf(1536, 0)
	mockAPI.On("CreateEmbeddings", ctx, []string{"What color is the sky?"}).Return([][]float32{expected}, nil)

	embedding, err := client.EmbedQuery(ctx, "What color is the sky?")

	assert.NoError(t, err)
	assert.Equal(t, expected, embedding)
	mockAPI.AssertExpectations(t)
}

func TestClient_EmbedQuery_EmptyText(t *testing.T) {
	client := NewClientWithConfig(Config{})

	embedding, err := client.EmbedQuery(context.Background(), "")

	assert.Nil(t, embedding)
	assert.Equal(t, ErrEmptyText, err)
}

func TestClient_EmbedQuery_APIError(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 1536}

	ctx := context.Background()
	mockAPI.On("CreateEmbeddings", ctx, []string{"Test text"}).Return(nil, errors.New("API rate limit exceeded"))

	embedding, err := client.EmbedQuery(ctx, "Test text")

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Contains(t, err.Error(), "failed to create embedding")
	mockAPI.AssertExpectations(t)
}

func TestClient_EmbedQuery_WrongDimensions(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 1536}

	ctx := context.Background()
	mockAPI.On("CreateEmbeddings", ctx, []string{"Test text"}).Return([][]float32{make([]float32, 512)}, nil)

	embedding, err := client.EmbedQuery(ctx, "Test text")

	assert.Nil(t, embedding)
	assert.ErrorIs(t, err, ErrWrongDimensions)
	mockAPI.AssertExpectations(t)
}

func TestClient_EmbedDocuments_Batches(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 3, batchSize: 2}

	ctx := context.Background()
	mockAPI.On("CreateEmbeddings", ctx, []string{"a", "b"}).Return([][]float32{vectorOf(3, 1), vectorOf(3, 2)}, nil).Once()
	mockAPI.On("CreateEmbeddings", ctx, []string{"c"}).Return([][]float32{vectorOf(3, 3)}, nil).Once()

	vectors, err := client.EmbedDocuments(ctx, []string{"a", "b", "c"})

	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, vectorOf(3, 1), vectors[0])
	assert.Equal(t, vectorOf(3, 3), vectors[2])
	mockAPI.AssertExpectations(t)
}

func TestClient_EmbedDocuments_RejectsEmptyText(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 3, batchSize: 2}

	_, err := client.EmbedDocuments(context.Background(), []string{"a", ""})

	assert.Equal(t, ErrEmptyText, err)
	mockAPI.AssertNotCalled(t, "CreateEmbeddings", mock.Anything, mock.Anything)
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client := NewClientWithConfig(Config{APIKey: "test-api-key"})

	assert.NotNil(t, client.api)
	assert.Equal(t, DefaultEmbeddingDimensions, client.dimensions)
	assert.Equal(t, DefaultBatchSize, client.batchSize)
}

func TestNewClientWithConfig_Overrides(t *testing.T) {
	client := NewClientWithConfig(Config{APIKey: "test-api-key", EmbeddingDimensions: 768, BatchSize: 8})

	assert.Equal(t, 768, client.dimensions)
	assert.Equal(t, 8, client.batchSize)
}
