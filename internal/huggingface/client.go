// Package huggingface talks to the Hugging Face Inference API for sentence
// embeddings and text generation.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL           = "https://api-inference.huggingface.co"
	DefaultGenerationModel   = "mistralai/Mistral-Nemo-Instruct-2407"
	DefaultEmbeddingModel    = "sentence-transformers/all-mpnet-base-v2"
	DefaultMaxNewTokens      = 512
	DefaultRepetitionPenalty = 1.03
	DefaultTimeout           = 60 * time.Second
	DefaultBatchSize         = 32

	maxErrorBody = 4096
)

var (
	// ErrNoToken is returned when the access token is empty
	ErrNoToken = errors.New("hugging face access token is required")
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrEmptyGeneration is returned when the endpoint yields no generated text
	ErrEmptyGeneration = errors.New("generation endpoint returned no output")
)

// APIError is a non-success response from the inference API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hugging face API error (%d): %s", e.StatusCode, e.Message)
}

type Config struct {
	BaseURL           string
	Token             string
	GenerationModel   string
	EmbeddingModel    string
	MaxNewTokens      int
	RepetitionPenalty float64
	Timeout           time.Duration
	BatchSize         int
	// RequestsPerMinute caps generation calls; zero disables the limit.
	RequestsPerMinute int
}

// Client is safe for concurrent use.
type Client struct {
	baseURL           string
	token             string
	generationModel   string
	embeddingModel    string
	maxNewTokens      int
	repetitionPenalty float64
	batchSize         int
	httpClient        *http.Client
	breaker           *gobreaker.CircuitBreaker
	limiter           *rate.Limiter
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrNoToken
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = DefaultGenerationModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.MaxNewTokens <= 0 {
		cfg.MaxNewTokens = DefaultMaxNewTokens
	}
	if cfg.RepetitionPenalty <= 0 {
		cfg.RepetitionPenalty = DefaultRepetitionPenalty
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	c := &Client{
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		token:             cfg.Token,
		generationModel:   cfg.GenerationModel,
		embeddingModel:    cfg.EmbeddingModel,
		maxNewTokens:      cfg.MaxNewTokens,
		repetitionPenalty: cfg.RepetitionPenalty,
		batchSize:         cfg.BatchSize,
		httpClient:        &http.Client{Timeout: cfg.Timeout},
		breaker:           newBreaker(),
	}

	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	return c, nil
}

func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "HuggingFaceGeneration",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		// A caller that went away says nothing about the endpoint.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})
}

func (c *Client) modelURL(model string) string {
	return c.baseURL + "/models/" + model
}

// do sends an authenticated request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func newAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		message = payload.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
