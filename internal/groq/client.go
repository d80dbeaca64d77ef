// Package groq implements ai.Completer on Groq's OpenAI-compatible
// chat-completions endpoint.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/SeptianSamdany/interview-prep-ai/internal/apperr"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// error bodies are truncated before they are wrapped into errors
	maxErrorBody = 512
)

type Client struct {
	apiKey string
	model  string
	base   string
	http   *http.Client
}

type Option func(*Client)

func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = base }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(apiKey, model string, opts ...Option) *Client {
	c := &Client{
		apiKey: apiKey,
		model:  model,
		base:   DefaultBaseURL,
		http:   &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
}

type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, ChatRequest{
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	})
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if c.apiKey == "" {
		return "", apperr.New(apperr.KindConfiguration, "groq: GROQ_API_KEY is not set")
	}
	if req.Model == "" {
		req.Model = c.model
	}

	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	r.Header.Set("Authorization", "Bearer "+c.apiKey)
	r.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(r)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", classify(resp.StatusCode, bodyBytes)
	}

	var ch ChatResponse
	if err := json.Unmarshal(bodyBytes, &ch); err != nil {
		return "", apperr.Wrap(apperr.KindMalformedResponse, "groq: undecodable response", err)
	}
	if ch.Error != nil {
		return "", apperr.Newf(apperr.KindUpstream, "groq api error: %s", ch.Error.Message)
	}
	if len(ch.Choices) == 0 {
		return "", apperr.New(apperr.KindMalformedResponse, "groq: no choices returned")
	}
	return ch.Choices[0].Message.Content, nil
}

func classify(status int, body []byte) error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	cause := fmt.Errorf("groq api error %d: %s", status, body)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.Wrap(apperr.KindConfiguration, "groq: credential rejected", cause)
	case http.StatusTooManyRequests:
		return apperr.Wrap(apperr.KindQuotaExceeded, "groq: rate limited", cause)
	}
	return apperr.Wrap(apperr.KindUpstream, fmt.Sprintf("groq: status %d", status), cause)
}
