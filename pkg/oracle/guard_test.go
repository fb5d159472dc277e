package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tygershark/shiprecon/internal/resilience"
)

// scriptedClient returns canned responses/errors in order, then repeats the
// last entry.
type scriptedClient struct {
	calls   int
	results []func() (*Response, error)
}

func (s *scriptedClient) Complete(ctx context.Context, req Request) (*Response, error) {
	idx := s.calls
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	s.calls++
	return s.results[idx]()
}

func fastOraclePolicy() resilience.Policy {
	return resilience.Policy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{time.Millisecond},
	}
}

func TestGuarded_RetriesTimeoutThenSucceeds(t *testing.T) {
	client := &scriptedClient{results: []func() (*Response, error){
		func() (*Response, error) { return nil, resilience.NewTimeoutError(eris.New("timed out")) },
		func() (*Response, error) { return &Response{Text: "ok"}, nil },
	}}
	g := NewGuarded(client, resilience.NewBreaker(5, time.Minute), fastOraclePolicy())

	resp, err := g.Complete(context.Background(), Request{Task: "survey"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 2, client.calls)
}

func TestGuarded_MalformedNotRetried(t *testing.T) {
	client := &scriptedClient{results: []func() (*Response, error){
		func() (*Response, error) { return nil, resilience.NewMalformedError(eris.New("bad json")) },
	}}
	g := NewGuarded(client, resilience.NewBreaker(5, time.Minute), fastOraclePolicy())

	_, err := g.Complete(context.Background(), Request{Task: "extract"})
	require.Error(t, err)
	assert.True(t, resilience.IsMalformed(err))
	assert.Equal(t, 1, client.calls)
}

func TestGuarded_OpenCircuitFailsFast(t *testing.T) {
	client := &scriptedClient{results: []func() (*Response, error){
		func() (*Response, error) { return nil, resilience.NewTimeoutError(eris.New("timed out")) },
	}}
	breaker := resilience.NewBreaker(1, time.Minute)
	g := NewGuarded(client, breaker, fastOraclePolicy())

	_, err := g.Complete(context.Background(), Request{Task: "survey"})
	require.Error(t, err)
	callsAfterFirst := client.calls

	// Circuit is now open; further calls never reach the client.
	_, err = g.Complete(context.Background(), Request{Task: "survey"})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, callsAfterFirst, client.calls)
}

func TestGuarded_NilBreaker(t *testing.T) {
	client := &scriptedClient{results: []func() (*Response, error){
		func() (*Response, error) { return &Response{Text: "ok"}, nil },
	}}
	g := NewGuarded(client, nil, fastOraclePolicy())

	resp, err := g.Complete(context.Background(), Request{Task: "survey"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}
