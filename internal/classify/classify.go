// Package classify estimates document scale with a cheap oracle survey and
// selects the processing tier for extraction.
package classify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tygershark/shiprecon/internal/model"
	"github.com/tygershark/shiprecon/pkg/oracle"
)

const surveySystemPrompt = `You survey carrier invoice documents before extraction. Given a sample of the document, estimate its scale. Respond with a valid JSON object: {"estimated_pages": <int>, "estimated_shipments": <int>, "priority_pages": [<1-based page numbers with shipment tables>], "recommended_batch_size": <int>, "confidence": <0.0-1.0>}`

const surveyUserPrompt = `Filename: %s
Pages with a text layer: %d

Document sample (first pages):
%s`

// ComplexityEstimate is the classifier's output: a tier plus hints the tier
// pipelines use.
type ComplexityEstimate struct {
	Tier                 model.ProcessingTier `json:"tier"`
	PageCount            int                  `json:"page_count"`
	ShipmentCount        int                  `json:"shipment_count"`
	Confidence           float64              `json:"confidence"`
	PriorityPages        []int                `json:"priority_pages,omitempty"`
	RecommendedBatchSize int                  `json:"recommended_batch_size,omitempty"`
}

// NeutralEstimate is the fixed default returned when the survey fails: the
// classifier must never fail the pipeline.
func NeutralEstimate(doc model.Document) ComplexityEstimate {
	pages := doc.PageCount()
	return ComplexityEstimate{
		Tier:          model.TierMedium,
		PageCount:     pages,
		ShipmentCount: 50,
		Confidence:    0.5,
	}
}

// Classifier surveys documents through the oracle.
type Classifier struct {
	oracle oracle.Client
	model  string
}

// NewClassifier creates a classifier using the given (cheap) survey model.
func NewClassifier(client oracle.Client, model string) *Classifier {
	return &Classifier{oracle: client, model: model}
}

// Classify estimates the document's scale and selects the smallest tier whose
// caps accommodate both the page and shipment estimates. Any oracle failure
// degrades to the neutral default.
func (c *Classifier) Classify(ctx context.Context, doc model.Document) ComplexityEstimate {
	resp, err := c.oracle.Complete(ctx, oracle.Request{
		Task:      "survey",
		System:    surveySystemPrompt,
		Prompt:    fmt.Sprintf(surveyUserPrompt, doc.Filename, doc.PageCount(), doc.Sample(3)),
		Model:     c.model,
		MaxTokens: 256,
	})
	if err != nil {
		zap.L().Warn("classify: survey failed, using neutral default",
			zap.String("document", doc.ID),
			zap.Error(err),
		)
		return NeutralEstimate(doc)
	}

	var survey struct {
		EstimatedPages       int     `json:"estimated_pages"`
		EstimatedShipments   int     `json:"estimated_shipments"`
		PriorityPages        []int   `json:"priority_pages"`
		RecommendedBatchSize int     `json:"recommended_batch_size"`
		Confidence           float64 `json:"confidence"`
	}
	if err := oracle.Decode(resp.Text, &survey); err != nil {
		zap.L().Warn("classify: survey response malformed, using neutral default",
			zap.String("document", doc.ID),
			zap.Error(err),
		)
		return NeutralEstimate(doc)
	}

	// The document handle's own page count beats the oracle's guess when the
	// text layer is present.
	pages := doc.PageCount()
	if pages == 0 {
		pages = survey.EstimatedPages
	}

	est := ComplexityEstimate{
		Tier:                 model.SelectTier(pages, survey.EstimatedShipments),
		PageCount:            pages,
		ShipmentCount:        survey.EstimatedShipments,
		Confidence:           survey.Confidence,
		PriorityPages:        survey.PriorityPages,
		RecommendedBatchSize: survey.RecommendedBatchSize,
	}

	zap.L().Info("classify: document surveyed",
		zap.String("document", doc.ID),
		zap.String("tier", string(est.Tier)),
		zap.Int("pages", est.PageCount),
		zap.Int("shipments", est.ShipmentCount),
		zap.Float64("confidence", est.Confidence),
	)
	return est
}
