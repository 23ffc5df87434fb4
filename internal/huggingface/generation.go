package huggingface

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the generation circuit breaker rejects calls.
var ErrCircuitOpen = errors.New("generation endpoint circuit open")

type generationParameters struct {
	MaxNewTokens      int     `json:"max_new_tokens"`
	DoSample          bool    `json:"do_sample"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	ReturnFullText    bool    `json:"return_full_text"`
}

type generationRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters generationParameters `json:"parameters"`
}

type generationResult struct {
	GeneratedText string `json:"generated_text"`
}

// Ping checks that the generation model endpoint answers with 200 OK.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelURL(c.generationModel), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// Generate sends prompt to the text-generation model and returns only the
// newly generated text. Sampling is disabled so output is deterministic.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyText
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return "", err
	}

	return out.(string), nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body := generationRequest{
		Inputs: prompt,
		Parameters: generationParameters{
			MaxNewTokens:      c.maxNewTokens,
			DoSample:          false,
			RepetitionPenalty: c.repetitionPenalty,
			ReturnFullText:    false,
		},
	}

	var results []generationResult
	if err := c.do(ctx, http.MethodPost, c.modelURL(c.generationModel), body, &results); err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if len(results) == 0 {
		return "", ErrEmptyGeneration
	}

	return results[0].GeneratedText, nil
}
