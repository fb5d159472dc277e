package identify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tygershark/shiprecon/internal/model"
)

// Fixed point increments for template-based text scoring. Literal identifier
// strings are the strongest textual evidence; filename hints the weakest.
const (
	pointsLiteralIdentifier = 0.4
	pointsDisplayName       = 0.3
	pointsFilename          = 0.1
	pointsCarrierIDPattern  = 0.3
	pointsInvoicePattern    = 0.2
	pointsAccountPattern    = 0.1
	pointsTrackingPattern   = 0.1
)

// ScoreText runs the template pass over the document text: every carrier
// profile accumulates fixed increments for each kind of evidence found, capped
// at the profile's confidence ceiling. The highest-scoring carrier becomes the
// text signal; ties keep the first profile encountered. All-zero scores yield
// an unknown signal at 0.1 confidence.
func ScoreText(registry *model.CarrierRegistry, text, filename string) model.DetectionSignal {
	upperText := strings.ToUpper(text)
	lowerText := strings.ToLower(text)
	lowerName := strings.ToLower(filename)

	var best *model.CarrierProfile
	bestScore := 0.0

	for i := range registry.Profiles {
		p := &registry.Profiles[i]
		score := scoreProfile(p, text, upperText, lowerText, lowerName)
		if score > p.ConfidenceCeiling {
			score = p.ConfidenceCeiling
		}
		if score > bestScore {
			bestScore = score
			best = p
		}
	}

	if best == nil || bestScore == 0 {
		return model.DetectionSignal{
			Source:     model.SignalSourceText,
			CarrierID:  model.UnknownCarrierID,
			Confidence: 0.1,
		}
	}

	zap.L().Debug("identify: template text score",
		zap.String("carrier", best.ID),
		zap.Float64("score", bestScore),
	)

	return model.DetectionSignal{
		Source:      model.SignalSourceText,
		CarrierID:   best.ID,
		CarrierName: best.Name,
		Confidence:  bestScore,
	}
}

func scoreProfile(p *model.CarrierProfile, text, upperText, lowerText, lowerName string) float64 {
	score := 0.0

	for _, ident := range p.Identifiers {
		if strings.Contains(upperText, strings.ToUpper(ident)) {
			score += pointsLiteralIdentifier
		}
	}

	if strings.Contains(lowerText, strings.ToLower(p.Name)) {
		score += pointsDisplayName
	}

	if strings.Contains(lowerName, strings.ToLower(p.Name)) ||
		strings.Contains(lowerName, strings.ToLower(p.ID)) {
		score += pointsFilename
	}

	if re := p.Pattern("carrier_identifier"); re != nil && re.MatchString(text) {
		score += pointsCarrierIDPattern
	}
	if re := p.Pattern("invoice_number"); re != nil && re.MatchString(text) {
		score += pointsInvoicePattern
	}
	if re := p.Pattern("account_number"); re != nil && re.MatchString(text) {
		score += pointsAccountPattern
	}
	if re := p.Pattern("tracking_number"); re != nil && re.MatchString(text) {
		score += pointsTrackingPattern
	}

	return score
}

// matchByFilename is the last identification fallback: a carrier name or id
// appearing as a filename substring.
func matchByFilename(registry *model.CarrierRegistry, filename string) model.DetectionSignal {
	lower := strings.ToLower(filename)
	for i := range registry.Profiles {
		p := &registry.Profiles[i]
		if strings.Contains(lower, strings.ToLower(p.ID)) ||
			strings.Contains(lower, strings.ToLower(p.Name)) {
			return model.DetectionSignal{
				Source:      model.SignalSourceText,
				CarrierID:   p.ID,
				CarrierName: p.Name,
				Confidence:  0.3,
			}
		}
	}
	return model.DetectionSignal{
		Source:     model.SignalSourceText,
		CarrierID:  model.UnknownCarrierID,
		Confidence: 0.1,
	}
}
