// Package gemini implements ai.Completer on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SeptianSamdany/interview-prep-ai/internal/apperr"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-1.5-flash"

type Client struct {
	client    *genai.Client
	modelName string
}

// NewClient builds a Gemini API client. An empty key is accepted so the
// service can start; every call then fails with a configuration error.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if modelName == "" {
		modelName = DefaultModel
	}
	if apiKey == "" {
		return &Client{modelName: modelName}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &Client{client: client, modelName: modelName}, nil
}

// Complete sends prompt as a single user turn and returns the raw text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.client == nil {
		return "", apperr.New(apperr.KindConfiguration, "gemini: GEMINI_API_KEY is not set")
	}

	res, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), nil)
	if err != nil {
		return "", classify(err)
	}

	text := res.Text()
	if text == "" {
		return "", apperr.New(apperr.KindMalformedResponse, "gemini: empty response")
	}
	return text, nil
}

// classify maps API status codes onto the error taxonomy. An invalid key
// comes back as 400 INVALID_ARGUMENT, so the message is checked too.
func classify(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("gemini generate content: %w", err)
	}

	switch {
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden,
		apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "api key"):
		return apperr.Wrap(apperr.KindConfiguration, "gemini: credential rejected", err)
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
		return apperr.Wrap(apperr.KindQuotaExceeded, "gemini: quota exhausted", err)
	}
	return apperr.Wrap(apperr.KindUpstream, fmt.Sprintf("gemini: status %d", apiErr.Code), err)
}
