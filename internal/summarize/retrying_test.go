package summarize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabuto-group/disclosure-cli/internal/resilience"
)

func TestRetryingSummarizer_RetriesRateLimits(t *testing.T) {
	attempts := 0
	fake := &fakeSummarizer{
		fail: func(generateCall) error {
			attempts++
			if attempts < 3 {
				return resilience.NewRateLimitError(assert.AnError)
			}
			return nil
		},
	}

	r := NewRetryingSummarizer(fake, resilience.RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
	})

	out, err := r.Generate(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "生成されたサマリー", out)
	assert.Equal(t, 3, attempts)
}

func TestRetryingSummarizer_HardErrorPropagatesImmediately(t *testing.T) {
	attempts := 0
	fake := &fakeSummarizer{
		fail: func(generateCall) error {
			attempts++
			return assert.AnError
		},
	}

	r := NewRetryingSummarizer(fake, resilience.RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
	})

	_, err := r.Generate(context.Background(), "system", "user")
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryingSummarizer_Exhaustion(t *testing.T) {
	attempts := 0
	fake := &fakeSummarizer{
		fail: func(generateCall) error {
			attempts++
			return resilience.NewRateLimitError(assert.AnError)
		},
	}

	r := NewRetryingSummarizer(fake, resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})

	_, err := r.Generate(context.Background(), "system", "user")
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}
