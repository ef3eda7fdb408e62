package summarize

import (
	"context"

	"github.com/kabuto-group/disclosure-cli/internal/resilience"
	"github.com/kabuto-group/disclosure-cli/pkg/gemini"
)

// RetryingSummarizer wraps a Summarizer with exponential backoff on
// rate-limit-class errors. Other errors propagate immediately.
type RetryingSummarizer struct {
	inner gemini.Summarizer
	cfg   resilience.RetryConfig
}

// NewRetryingSummarizer applies cfg around inner. Zero-value fields in
// cfg take the default policy (5 attempts, 2s initial backoff).
func NewRetryingSummarizer(inner gemini.Summarizer, cfg resilience.RetryConfig) *RetryingSummarizer {
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("gemini", "generate")
	}
	return &RetryingSummarizer{inner: inner, cfg: cfg}
}

// Generate implements gemini.Summarizer.
func (r *RetryingSummarizer) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return resilience.DoVal(ctx, r.cfg, func(ctx context.Context) (string, error) {
		return r.inner.Generate(ctx, systemPrompt, userPrompt)
	})
}
