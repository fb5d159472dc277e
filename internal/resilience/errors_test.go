package resilience

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryable_Timeout(t *testing.T) {
	err := NewTimeoutError(eris.New("deadline exceeded"))
	assert.True(t, IsRetryable(err))
	assert.True(t, IsTimeout(err))
	assert.False(t, IsMalformed(err))
}

func TestIsRetryable_Malformed(t *testing.T) {
	err := NewMalformedError(eris.New("unexpected end of JSON input"))
	assert.False(t, IsRetryable(err))
	assert.True(t, IsMalformed(err))
	assert.False(t, IsTimeout(err))
}

func TestIsRetryable_WrappedTimeout(t *testing.T) {
	err := eris.Wrap(NewTimeoutError(eris.New("timed out")), "oracle: survey")
	assert.True(t, IsRetryable(err))
	assert.True(t, IsTimeout(err))
}

func TestIsRetryable_MalformedWinsOverWrappedTransient(t *testing.T) {
	// A malformed wrapper anywhere in the chain disables retries.
	inner := NewTimeoutError(eris.New("i/o timeout"))
	err := NewMalformedError(inner)
	assert.False(t, IsRetryable(err))
}

func TestIsRetryable_MessageHeuristics(t *testing.T) {
	assert.True(t, IsRetryable(eris.New("read tcp: connection reset by peer")))
	assert.True(t, IsRetryable(eris.New("api error 529: overloaded")))
	assert.False(t, IsRetryable(eris.New("invalid request: unknown model")))
}

func TestIsRetryable_Nil(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsTimeout(nil))
	assert.False(t, IsMalformed(nil))
}
