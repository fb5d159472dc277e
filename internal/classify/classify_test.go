package classify

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/tygershark/shiprecon/internal/model"
	"github.com/tygershark/shiprecon/internal/resilience"
	"github.com/tygershark/shiprecon/pkg/oracle"
)

type stubOracle struct {
	text string
	err  error
}

func (s *stubOracle) Complete(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &oracle.Response{Text: s.text, StopReason: "end_turn"}, nil
}

func surveyDoc(pages int) model.Document {
	p := make([]string, pages)
	for i := range p {
		p[i] = "page text"
	}
	return model.Document{ID: "doc-1", Filename: "invoice.pdf", Pages: p}
}

func TestClassify_SelectsTierFromEstimates(t *testing.T) {
	stub := &stubOracle{text: `{"estimated_pages": 8, "estimated_shipments": 30, "priority_pages": [2, 3], "recommended_batch_size": 10, "confidence": 0.85}`}
	c := NewClassifier(stub, "test-model")

	est := c.Classify(context.Background(), surveyDoc(8))

	// 8 pages exceed the small cap; both estimates fit medium.
	assert.Equal(t, model.TierMedium, est.Tier)
	assert.Equal(t, 8, est.PageCount)
	assert.Equal(t, 30, est.ShipmentCount)
	assert.Equal(t, []int{2, 3}, est.PriorityPages)
	assert.Equal(t, 10, est.RecommendedBatchSize)
}

func TestClassify_DocPageCountWins(t *testing.T) {
	// Oracle underestimates the page count; the handle knows better.
	stub := &stubOracle{text: `{"estimated_pages": 2, "estimated_shipments": 5, "confidence": 0.9}`}
	c := NewClassifier(stub, "test-model")

	est := c.Classify(context.Background(), surveyDoc(30))
	assert.Equal(t, 30, est.PageCount)
	assert.Equal(t, model.TierLarge, est.Tier)
}

func TestClassify_OracleFailureReturnsNeutralDefault(t *testing.T) {
	stub := &stubOracle{err: resilience.NewTimeoutError(eris.New("timed out"))}
	c := NewClassifier(stub, "test-model")

	est := c.Classify(context.Background(), surveyDoc(4))
	assert.Equal(t, model.TierMedium, est.Tier)
	assert.Equal(t, 50, est.ShipmentCount)
	assert.Equal(t, 0.5, est.Confidence)
}

func TestClassify_MalformedSurveyReturnsNeutralDefault(t *testing.T) {
	stub := &stubOracle{text: "I could not determine the scale of this document."}
	c := NewClassifier(stub, "test-model")

	est := c.Classify(context.Background(), surveyDoc(4))
	assert.Equal(t, model.TierMedium, est.Tier)
	assert.Equal(t, 0.5, est.Confidence)
}

func TestNeutralEstimate_KeepsDocPageCount(t *testing.T) {
	est := NeutralEstimate(surveyDoc(12))
	assert.Equal(t, 12, est.PageCount)
	assert.Equal(t, model.TierMedium, est.Tier)
}
