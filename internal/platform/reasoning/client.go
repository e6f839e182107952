// Package reasoning wraps an OpenAI-compatible chat-completions endpoint.
// The risk layer uses it as an advisory collaborator; callers are expected
// to fall back to deterministic rules when it misbehaves.
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// Client calls a chat-completions API with a fixed model and temperature.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewClient creates a reasoning client. The API key must be non-empty; the
// wiring layer decides up front whether the advisory path is available at all.
func NewClient(baseURL, apiKey, model string, temperature float64, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("reasoning: api key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if temperature <= 0 {
		temperature = 0.1
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt as a single user message and returns the model's
// text reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("reasoning: encode request: %w", err)
	}

	u := c.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("reasoning: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reasoning: completion: %w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("reasoning: completion: %w: status %d: %s",
			domain.ErrUpstream, resp.StatusCode, string(raw))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("reasoning: decode completion: %w", domain.ErrUpstream)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("reasoning: completion: %w: empty choices", domain.ErrUpstream)
	}

	return cr.Choices[0].Message.Content, nil
}
