package huggingface

import (
	"context"
	"fmt"
	"net/http"
)

type featureExtractionOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type featureExtractionRequest struct {
	Inputs  []string                 `json:"inputs"`
	Options featureExtractionOptions `json:"options"`
}

func (c *Client) featureExtractionURL() string {
	return c.baseURL + "/pipeline/feature-extraction/" + c.embeddingModel
}

// EmbedDocuments returns one sentence embedding per text, in input order.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d-%d: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
	}

	if err := checkDimensions(vectors); err != nil {
		return nil, err
	}

	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	vectors, err := c.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return vectors[0], nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for _, t := range texts {
		if t == "" {
			return nil, ErrEmptyText
		}
	}

	body := featureExtractionRequest{
		Inputs:  texts,
		Options: featureExtractionOptions{WaitForModel: true},
	}

	var vectors [][]float32
	if err := c.do(ctx, http.MethodPost, c.featureExtractionURL(), body, &vectors); err != nil {
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors))
	}

	return vectors, nil
}

func checkDimensions(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(v), dim)
		}
	}
	return nil
}
