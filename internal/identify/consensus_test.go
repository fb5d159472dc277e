package identify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tygershark/shiprecon/internal/model"
)

func TestFuse_WeightedConsensus(t *testing.T) {
	signals := []model.DetectionSignal{
		{Source: model.SignalSourceText, CarrierID: "dhl", CarrierName: "DHL Express", Confidence: 0.8},
		{Source: model.SignalSourceLogo, CarrierID: "dhl", CarrierName: "DHL Express", Confidence: 0.9},
		{Source: model.SignalSourceFormat, CarrierID: "fedex", CarrierName: "FedEx", Confidence: 0.6},
	}

	c := Fuse(signals)

	// dhl: 0.8*0.7 + 0.9*0.8 = 1.28; fedex: 0.6*0.5 = 0.3.
	assert.Equal(t, "dhl", c.CarrierID)
	assert.InDelta(t, 1.28/3, c.Confidence, 0.0001)
	assert.Equal(t, model.StrengthStrong, c.Strength)
	assert.Equal(t, 2, c.SignalCount)
}

func TestFuse_ConfidenceAlwaysInRange(t *testing.T) {
	signals := []model.DetectionSignal{
		{Source: model.SignalSourceLogo, CarrierID: "ups", Confidence: 1.0},
	}
	c := Fuse(signals)
	assert.GreaterOrEqual(t, c.Confidence, 0.0)
	assert.LessOrEqual(t, c.Confidence, 1.0)
}

func TestFuse_ConfidenceCappedAtOne(t *testing.T) {
	// A single very strong signal cannot exceed 1.0 after normalization.
	signals := []model.DetectionSignal{
		{Source: model.SignalSourceLogo, CarrierID: "ups", Confidence: 1.0},
		{Source: model.SignalSourceText, CarrierID: "ups", Confidence: 1.0},
		{Source: model.SignalSourceFormat, CarrierID: "ups", Confidence: 1.0},
	}
	c := Fuse(signals)
	assert.LessOrEqual(t, c.Confidence, 1.0)
	assert.Equal(t, model.StrengthStrong, c.Strength)
}

func TestFuse_NoQualifyingSignals(t *testing.T) {
	signals := []model.DetectionSignal{
		{Source: model.SignalSourceText, CarrierID: model.UnknownCarrierID, Confidence: 0.1},
		{Source: model.SignalSourceLogo, CarrierID: "", Confidence: 0},
	}
	c := Fuse(signals)
	assert.Equal(t, model.UnknownCarrierID, c.CarrierID)
	assert.Equal(t, 0.5, c.Confidence)
	assert.Equal(t, model.StrengthNone, c.Strength)
}

func TestFuse_EmptySignals(t *testing.T) {
	c := Fuse(nil)
	assert.Equal(t, model.UnknownCarrierID, c.CarrierID)
	assert.Equal(t, 0.5, c.Confidence)
}

func TestFuse_ModerateStrength(t *testing.T) {
	signals := []model.DetectionSignal{
		{Source: model.SignalSourceLogo, CarrierID: "dhl", Confidence: 0.9}, // 0.72
	}
	c := Fuse(signals)
	assert.Equal(t, model.StrengthModerate, c.Strength)
}

func TestFuse_WeakStrength(t *testing.T) {
	signals := []model.DetectionSignal{
		{Source: model.SignalSourceFormat, CarrierID: "dhl", Confidence: 0.5}, // 0.25
	}
	c := Fuse(signals)
	assert.Equal(t, model.StrengthWeak, c.Strength)
}
