// Package resilience provides the retry policy, error taxonomy, and circuit
// breaker wrapped around oracle and record-store calls.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// TimeoutError marks an oracle call that timed out or was truncated by the
// service. Timeout-class errors are retryable with backoff.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return e.Err.Error() }

func (e *TimeoutError) Unwrap() error { return e.Err }

// NewTimeoutError wraps an error as a retryable timeout.
func NewTimeoutError(err error) *TimeoutError {
	return &TimeoutError{Err: err}
}

// MalformedError marks an oracle response that could not be decoded into the
// requested shape (truncated JSON, wrong schema, empty body). Malformed
// responses are never retried; the pipeline falls back to a lower-fidelity
// path or marks the document failed.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string { return e.Err.Error() }

func (e *MalformedError) Unwrap() error { return e.Err }

// NewMalformedError wraps an error as a non-retryable malformed response.
func NewMalformedError(err error) *MalformedError {
	return &MalformedError{Err: err}
}

// IsTimeout reports whether the error chain contains a timeout-class error.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsMalformed reports whether the error chain contains a malformed-response
// error.
func IsMalformed(err error) bool {
	if err == nil {
		return false
	}
	var me *MalformedError
	return errors.As(err, &me)
}

// IsRetryable reports whether an error is safe to retry: explicit
// timeout-class errors and transport-level transient failures. Malformed
// responses are never retryable even if a transient error sits deeper in the
// chain.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsMalformed(err) {
		return false
	}
	if IsTimeout(err) {
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

	// Wrapped HTTP client errors lose their types; fall back to message
	// heuristics the way upstream clients surface them.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"i/o timeout",
		"tls handshake timeout",
		"no such host",
		"overloaded",
		"rate limit",
		"429",
		"529",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
