package identify

import (
	"github.com/tygershark/shiprecon/internal/model"
)

// sourceWeights are fixed per-source reliability weights. Logo evidence is
// weighted highest: visual branding survives OCR noise that corrupts text.
var sourceWeights = map[model.SignalSource]float64{
	model.SignalSourceText:   0.7,
	model.SignalSourceLogo:   0.8,
	model.SignalSourceFormat: 0.5,
}

// Fuse merges independent detection signals into exactly one consensus.
// Each signal with a known carrier contributes confidence x source weight to
// that carrier's accumulated score; the top scorer wins with confidence
// min(maxScore/numSignals, 1.0). No qualifying signal yields the unknown
// consensus at 0.5.
func Fuse(signals []model.DetectionSignal) model.CarrierConsensus {
	if len(signals) == 0 {
		return model.UnknownConsensus()
	}

	scores := make(map[string]float64)
	names := make(map[string]string)
	supporters := make(map[string]int)
	for _, s := range signals {
		if !s.Known() {
			continue
		}
		scores[s.CarrierID] += s.Confidence * sourceWeights[s.Source]
		supporters[s.CarrierID]++
		if s.CarrierName != "" {
			names[s.CarrierID] = s.CarrierName
		}
	}

	var bestID string
	bestScore := 0.0
	for id, score := range scores {
		if score > bestScore {
			bestID = id
			bestScore = score
		}
	}

	if bestID == "" {
		return model.UnknownConsensus()
	}

	confidence := bestScore / float64(len(signals))
	if confidence > 1.0 {
		confidence = 1.0
	}

	strength := model.StrengthWeak
	switch {
	case bestScore > 1.0:
		strength = model.StrengthStrong
	case bestScore > 0.6:
		strength = model.StrengthModerate
	}

	return model.CarrierConsensus{
		CarrierID:   bestID,
		CarrierName: names[bestID],
		Confidence:  confidence,
		SignalCount: supporters[bestID],
		Strength:    strength,
	}
}
