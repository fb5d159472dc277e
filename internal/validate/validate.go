// Package validate scores extraction quality independently of matching.
package validate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tygershark/shiprecon/internal/model"
)

// Fixed penalties subtracted from the starting document confidence of 1.0.
const (
	penaltyNoRecords         = 0.3
	penaltyMissingIdentifier = 0.1
	penaltyIncompleteAddress = 0.1
	penaltyBadTotal          = 0.1

	confidenceFloor = 0.1
)

// Result is the document-level quality assessment.
type Result struct {
	Confidence  float64  `json:"confidence"`
	RecordCount int      `json:"record_count"`
	Issues      []string `json:"issues,omitempty"`
}

// Score computes the document-level extraction confidence. It always returns
// a usable result: internal panics degrade to a 0.5-confidence default so
// downstream stages are never blocked.
func Score(records []model.ExtractedShipmentRecord) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("validate: scoring panicked, using degraded default",
				zap.Any("panic", r),
			)
			result = Result{
				Confidence:  0.5,
				RecordCount: len(records),
				Issues:      []string{"internal validation failure"},
			}
		}
	}()

	result = Result{Confidence: 1.0, RecordCount: len(records)}

	if len(records) == 0 {
		result.Confidence -= penaltyNoRecords
		result.Issues = append(result.Issues, "no shipment records extracted")
	}

	for i, rec := range records {
		if !rec.HasIdentifier() {
			result.Confidence -= penaltyMissingIdentifier
			result.Issues = append(result.Issues, fmt.Sprintf("record %d has no identifier", i+1))
		}
		if !rec.Origin.Complete() || !rec.Destination.Complete() {
			result.Confidence -= penaltyIncompleteAddress
			result.Issues = append(result.Issues, fmt.Sprintf("record %d has an incomplete address", i+1))
		}
		if rec.TotalAmount <= 0 {
			result.Confidence -= penaltyBadTotal
			result.Issues = append(result.Issues, fmt.Sprintf("record %d has a non-positive total", i+1))
		}
	}

	if result.Confidence < confidenceFloor {
		result.Confidence = confidenceFloor
	}
	return result
}
