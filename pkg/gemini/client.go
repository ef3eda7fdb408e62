// Package gemini wraps the Gemini API for Japanese-language document
// summarization.
package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/kabuto-group/disclosure-cli/internal/resilience"
)

// Summarizer generates text from a prompt. *Client satisfies it; tests
// substitute mocks.
type Summarizer interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client calls the Gemini API with a fixed model. API credentials come
// from the environment (GOOGLE_API_KEY or application default
// credentials), matching the SDK's own resolution order.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a Client for the given model.
func New(ctx context.Context, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	return &Client{client: client, model: model}, nil
}

// Generate sends one prompt and returns the model's text. Quota errors
// come back as resilience.RateLimitError so callers can back off and
// retry.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: userPrompt}},
		},
	}

	var config *genai.GenerateContentConfig
	if systemPrompt != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: systemPrompt}},
			},
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		if isRateLimited(err) {
			return "", resilience.NewRateLimitError(eris.Wrap(err, "gemini: generate content"))
		}
		return "", eris.Wrap(err, "gemini: generate content")
	}

	text := resp.Text()
	if text == "" {
		return "", eris.New("gemini: empty response from model")
	}
	return text, nil
}

// isRateLimited reports whether err is a quota or rate-cap rejection
// rather than a hard failure.
func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota")
}
