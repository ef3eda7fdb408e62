// Package resilience defines the pipeline's error taxonomy and the retry
// helper used around rate-limited external calls.
//
// Three kinds of failure cross component boundaries: absence (a page or
// date that does not exist, which terminates a loop normally), transient
// I/O failures (logged, the item is skipped, the batch continues), and
// rate-limit-class failures (retried with backoff up to a cap). Anything
// else is fatal for the owning unit of work.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// ErrAbsent marks a page or date that does not exist at the source.
// Callers check it with errors.Is and treat it as a loop terminator,
// never as a failure.
var ErrAbsent = errors.New("resource absent")

// TransientError wraps an error that is safe to skip-and-continue or
// retry (network timeout, 5xx, connection reset).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// RateLimitError marks a rate-limit rejection from an external service.
// It is the only error class the summarizer retries.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return e.Err.Error()
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError wraps an error as rate-limit-class.
func NewRateLimitError(err error) *RateLimitError {
	return &RateLimitError{Err: err}
}

// IsRateLimited reports whether the error chain contains a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient network error patterns.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
