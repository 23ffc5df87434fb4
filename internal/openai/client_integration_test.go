//go:build integration

package openai

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_EmbedQuery_RealAPI(t *testing.T) {
	apiKey := os.Getenv("RAG_OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("RAG_OPENAI_API_KEY not set, skipping integration test")
	}

	client := NewClientWithConfig(Config{APIKey: apiKey})

	embedding, err := client.EmbedQuery(context.Background(), "What color is the sky?")

	require.NoError(t, err)
	assert.Len(t, embedding, DefaultEmbeddingDimensions)
}
