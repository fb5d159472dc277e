// Package oracle wraps the document-understanding service behind a narrow
// interface. The engine only ever sees three outcomes from a call: a
// structured result, a retryable timeout, or a non-retryable malformed
// response.
package oracle

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/tygershark/shiprecon/internal/resilience"
)

// Client defines the oracle operations used by the engine.
type Client interface {
	// Complete sends a task prompt plus document payload and returns the raw
	// text answer. Timeout-class failures come back as resilience.TimeoutError;
	// truncated output as resilience.MalformedError.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is a single oracle invocation.
type Request struct {
	// Task names the invocation for logging (survey, extract, identify-carrier).
	Task string

	// System is the task-specific instruction block.
	System string

	// Prompt is the user-visible request, typically including the document
	// payload or a sample of it.
	Prompt string

	Model     string
	MaxTokens int64
}

// Response is the oracle's raw answer.
type Response struct {
	Text         string
	StopReason   string
	InputTokens  int64
	OutputTokens int64
}

// Truncated reports whether the oracle stopped because it hit the output
// token ceiling.
func (r *Response) Truncated() bool {
	return r != nil && r.StopReason == "max_tokens"
}

// sdkClient implements Client on the official anthropic-sdk-go, with a rate
// limiter shared across all engine call sites.
type sdkClient struct {
	client  sdk.Client
	limiter *rate.Limiter
}

// NewClient creates an oracle client. requestsPerSecond caps the call rate;
// zero or negative disables limiting.
func NewClient(apiKey string, requestsPerSecond float64) Client {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
		limiter: limiter,
	}
}

func (c *sdkClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "oracle: rate limit wait")
		}
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyError(eris.Wrap(err, "oracle: "+req.Task))
	}

	resp := fromSDKMessage(msg)
	if resp.Truncated() {
		return resp, resilience.NewMalformedError(
			eris.Errorf("oracle: %s: output truncated at %d tokens", req.Task, req.MaxTokens))
	}
	return resp, nil
}

func fromSDKMessage(msg *sdk.Message) *Response {
	var parts []string
	for _, block := range msg.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return &Response{
		Text:         strings.Join(parts, "\n"),
		StopReason:   string(msg.StopReason),
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}
}

// classifyError sorts transport failures into the retryable timeout class
// where the message indicates one; everything else passes through for the
// generic transient check at retry time.
func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	for _, p := range []string{"timeout", "deadline exceeded", "429", "529", "overloaded"} {
		if strings.Contains(msg, p) {
			return resilience.NewTimeoutError(err)
		}
	}
	return err
}
