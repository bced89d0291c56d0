package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// StatusError is returned when the LLM service answers with a non-200 status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("LLM returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("LLM returned status %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the status is worth retrying (5xx and 429)
func (e *StatusError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsRetryable classifies an error from Generate. Timeouts, network failures and
// 5xx responses are transient; 4xx responses and request validation errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
