// Package llmfabric provides the call fabric between the debugging tiers and
// an LLM client: retry with backoff and fallback-prompt simplification, plus
// a content-addressed semantic response cache (spec.md §4.4). Grounded on the
// teacher's internal/tactile.RetryExecutor retry-loop shape, generalized from
// shell-command retries to LLM-call retries.
package llmfabric

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// TransientError is retryable: network timeout, connection refused/reset,
// HTTP 5xx, HTTP 429 (spec.md §6).
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string { return "llm transient error: " + e.Cause.Error() }
func (e *TransientError) Unwrap() error { return e.Cause }

// NonTransientError surfaces to the caller without retrying: non-429 4xx,
// unknown method name, decoding failure (spec.md §6).
type NonTransientError struct {
	Cause error
}

func (e *NonTransientError) Error() string { return "llm non-transient error: " + e.Cause.Error() }
func (e *NonTransientError) Unwrap() error { return e.Cause }

// IsRetryable classifies an error per spec.md §4.4's retryable-class list.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}
	var nonTransient *NonTransientError
	if errors.As(err, &nonTransient) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "econnreset"):
		return true
	}

	for _, code := range []string{"500", "502", "503", "504", "429"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}

// methodNotFoundError is returned when the configured method name does not
// resolve on the client.
func methodNotFoundError(name string) error {
	return &NonTransientError{Cause: fmt.Errorf("llm client has no method named %q", name)}
}
