package model

// Strategy is a closed enum of candidate-generation strategies. Each strategy
// carries a fixed priority weight (for dedup ownership) and a base confidence.
type Strategy string

const (
	StrategyExactShipmentID      Strategy = "EXACT_SHIPMENT_ID"
	StrategyExactTrackingNumber  Strategy = "EXACT_TRACKING_NUMBER"
	StrategyExactBookingRef      Strategy = "EXACT_BOOKING_REFERENCE"
	StrategyReferenceNumber      Strategy = "REFERENCE_NUMBER_MATCH"
	StrategyDateAmount           Strategy = "DATE_AMOUNT_MATCH"
	StrategyFuzzyReference       Strategy = "FUZZY_REFERENCE_MATCH"
	StrategyCarrierDate          Strategy = "CARRIER_DATE_MATCH"
)

// AllStrategies lists every strategy in descending weight order.
func AllStrategies() []Strategy {
	return []Strategy{
		StrategyExactShipmentID,
		StrategyExactTrackingNumber,
		StrategyExactBookingRef,
		StrategyReferenceNumber,
		StrategyDateAmount,
		StrategyFuzzyReference,
		StrategyCarrierDate,
	}
}

// Weight returns the strategy's fixed priority. Higher-weight strategies own
// deduplicated candidates.
func (s Strategy) Weight() int {
	switch s {
	case StrategyExactShipmentID:
		return 100
	case StrategyExactTrackingNumber:
		return 90
	case StrategyExactBookingRef:
		return 85
	case StrategyReferenceNumber:
		return 70
	case StrategyDateAmount:
		return 60
	case StrategyFuzzyReference:
		return 40
	case StrategyCarrierDate:
		return 30
	default:
		return 0
	}
}

// BaseConfidence returns the starting confidence for candidates found by this
// strategy, before scoring bonuses.
func (s Strategy) BaseConfidence() float64 {
	switch s {
	case StrategyExactShipmentID:
		return 0.98
	case StrategyExactTrackingNumber:
		return 0.95
	case StrategyExactBookingRef:
		return 0.92
	case StrategyReferenceNumber:
		return 0.80
	case StrategyDateAmount:
		return 0.75
	case StrategyFuzzyReference:
		return 0.65
	case StrategyCarrierDate:
		return 0.55
	default:
		return 0
	}
}

// MatchCandidate is a provisional link between an extracted record and a
// store-side shipment, tagged with the strategy that found it. Ephemeral;
// generated per strategy execution.
type MatchCandidate struct {
	Record       StoredShipment `json:"record"`
	Strategy     Strategy       `json:"strategy"`
	MatchedField string         `json:"matched_field"`
	MatchedValue string         `json:"matched_value"`

	// OCRCorrected marks candidates found only via an OCR-confusion variant
	// of the extracted identifier.
	OCRCorrected bool `json:"ocr_corrected,omitempty"`
}

// MaxMatchConfidence caps every scored match; a match is never certain.
const MaxMatchConfidence = 0.99

// ScoredMatch is a deduplicated candidate with its final confidence.
type ScoredMatch struct {
	MatchCandidate
	Confidence float64 `json:"confidence"`
	Detail     string  `json:"detail,omitempty"`
}

// MatchStatus is the terminal status band for a reconciled record.
type MatchStatus string

const (
	StatusExcellentMatch MatchStatus = "EXCELLENT_MATCH"
	StatusGoodMatch      MatchStatus = "GOOD_MATCH"
	StatusFairMatch      MatchStatus = "FAIR_MATCH"
	StatusPoorMatch      MatchStatus = "POOR_MATCH"
	StatusNoMatch        MatchStatus = "NO_MATCH"
)

// StatusForConfidence bands a best-match confidence into a terminal status.
func StatusForConfidence(confidence float64, hasMatch bool) MatchStatus {
	if !hasMatch {
		return StatusNoMatch
	}
	switch {
	case confidence >= 0.95:
		return StatusExcellentMatch
	case confidence >= 0.85:
		return StatusGoodMatch
	case confidence >= 0.70:
		return StatusFairMatch
	case confidence >= 0.50:
		return StatusPoorMatch
	default:
		return StatusNoMatch
	}
}

// AutoApplicable reports whether a status band is safe to apply without
// manual review.
func (s MatchStatus) AutoApplicable() bool {
	return s == StatusExcellentMatch || s == StatusGoodMatch
}

// MatchResult is the terminal reconciliation outcome for one extracted
// shipment record.
type MatchResult struct {
	Record  ExtractedShipmentRecord `json:"record"`
	Matches []ScoredMatch           `json:"matches"` // descending by confidence
	Best    *ScoredMatch            `json:"best,omitempty"`
	Status  MatchStatus             `json:"status"`

	// ReviewRequired is true unless the status band is auto-applicable.
	// Fallback-derived records always require review.
	ReviewRequired bool `json:"review_required"`
}

// BatchStats aggregates reconciliation outcomes across a batch of records.
type BatchStats struct {
	Total          int                 `json:"total"`
	ByStatus       map[MatchStatus]int `json:"by_status"`
	AutoApplicable int                 `json:"auto_applicable"`
	ReviewRequired int                 `json:"review_required"`

	// MeanConfidence averages best-match confidence over records that had at
	// least one candidate.
	MeanConfidence float64 `json:"mean_confidence"`
}
