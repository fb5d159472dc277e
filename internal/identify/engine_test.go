package identify

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tygershark/shiprecon/internal/model"
	"github.com/tygershark/shiprecon/internal/resilience"
	"github.com/tygershark/shiprecon/pkg/oracle"
)

// mockOracle answers identification prompts by task name.
type mockOracle struct {
	calls   atomic.Int64
	answers map[string]string // task → response text
	errs    map[string]error  // task → error
}

func (m *mockOracle) Complete(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	m.calls.Add(1)
	if err, ok := m.errs[req.Task]; ok {
		return nil, err
	}
	if text, ok := m.answers[req.Task]; ok {
		return &oracle.Response{Text: text, StopReason: "end_turn"}, nil
	}
	return &oracle.Response{Text: `{"carrier_id": "unknown", "confidence": 0}`, StopReason: "end_turn"}, nil
}

func dhlDoc() model.Document {
	return model.Document{
		ID:       "doc-1",
		Filename: "invoice.pdf",
		Pages:    []string{"DHL EXPRESS USA\nWaybill: 1234567890"},
	}
}

func TestEngine_TextOnly(t *testing.T) {
	reg := testRegistry(t)
	mock := &mockOracle{}
	e := NewEngine(reg, mock, "test-model", false, "")

	c := e.Identify(context.Background(), dhlDoc())
	assert.Equal(t, "dhl", c.CarrierID)
	assert.Equal(t, int64(0), mock.calls.Load(), "multi-source disabled must not call the oracle")
}

func TestEngine_MultiSourceFusesSignals(t *testing.T) {
	reg := testRegistry(t)
	mock := &mockOracle{answers: map[string]string{
		"identify-logo":   `{"carrier_id": "dhl", "confidence": 0.9}`,
		"identify-format": `{"carrier_id": "dhl", "confidence": 0.7}`,
	}}
	e := NewEngine(reg, mock, "test-model", true, "")

	c := e.Identify(context.Background(), dhlDoc())
	assert.Equal(t, "dhl", c.CarrierID)
	assert.Equal(t, 3, c.SignalCount)
	assert.Equal(t, model.StrengthStrong, c.Strength)
}

func TestEngine_AnalysisFailureIsolated(t *testing.T) {
	reg := testRegistry(t)
	mock := &mockOracle{
		answers: map[string]string{
			"identify-format": `{"carrier_id": "dhl", "confidence": 0.7}`,
		},
		errs: map[string]error{
			"identify-logo": resilience.NewTimeoutError(eris.New("timed out")),
		},
	}
	e := NewEngine(reg, mock, "test-model", true, "")

	// The dead logo analysis degrades to a neutral signal; text and format
	// still identify the carrier.
	c := e.Identify(context.Background(), dhlDoc())
	assert.Equal(t, "dhl", c.CarrierID)
	assert.Equal(t, 2, c.SignalCount)
}

func TestEngine_Override(t *testing.T) {
	reg := testRegistry(t)
	mock := &mockOracle{}
	e := NewEngine(reg, mock, "test-model", true, "fedex")

	c := e.Identify(context.Background(), dhlDoc())
	assert.Equal(t, "fedex", c.CarrierID)
	assert.Equal(t, 1.0, c.Confidence)
	assert.Equal(t, int64(0), mock.calls.Load())
}

func TestEngine_OverrideUnknownCarrierIgnored(t *testing.T) {
	reg := testRegistry(t)
	e := NewEngine(reg, &mockOracle{}, "test-model", false, "bogus-carrier")

	c := e.Identify(context.Background(), dhlDoc())
	assert.Equal(t, "dhl", c.CarrierID, "bad override falls through to normal identification")
}

func TestEngine_NoText_OracleFallback(t *testing.T) {
	reg := testRegistry(t)
	mock := &mockOracle{answers: map[string]string{
		"identify-fallback": `{"carrier_id": "ups", "confidence": 0.8}`,
	}}
	e := NewEngine(reg, mock, "test-model", true, "")

	doc := model.Document{ID: "doc-2", Filename: "scan.pdf", Pages: []string{"", ""}}
	c := e.Identify(context.Background(), doc)
	assert.Equal(t, "ups", c.CarrierID)
	assert.LessOrEqual(t, c.Confidence, 0.3, "fallback identification is low confidence")
	assert.Equal(t, model.StrengthWeak, c.Strength)
}

func TestEngine_NoText_FilenameFallback(t *testing.T) {
	reg := testRegistry(t)
	mock := &mockOracle{errs: map[string]error{
		"identify-fallback": resilience.NewMalformedError(eris.New("gibberish")),
	}}
	e := NewEngine(reg, mock, "test-model", true, "")

	doc := model.Document{ID: "doc-3", Filename: "canpar_statement.pdf", Pages: []string{""}}
	c := e.Identify(context.Background(), doc)
	assert.Equal(t, "canpar", c.CarrierID)
	assert.InDelta(t, 0.3, c.Confidence, 0.0001)
}

func TestEngine_NoText_EverythingFails(t *testing.T) {
	reg := testRegistry(t)
	mock := &mockOracle{errs: map[string]error{
		"identify-fallback": resilience.NewTimeoutError(eris.New("timed out")),
	}}
	e := NewEngine(reg, mock, "test-model", true, "")

	doc := model.Document{ID: "doc-4", Filename: "scan0001.pdf", Pages: []string{""}}
	c := e.Identify(context.Background(), doc)
	assert.True(t, c.Unknown())
	assert.InDelta(t, 0.1, c.Confidence, 0.0001)
	assert.Equal(t, model.StrengthNone, c.Strength)

	// One retry on timeout-class errors: two oracle calls total.
	require.Equal(t, int64(2), mock.calls.Load())
}
