package model

import "regexp"

// CarrierProfile is a declarative record of a known carrier's identification
// patterns. Profiles are immutable after registry load.
type CarrierProfile struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// ConfidenceCeiling caps the template-scoring confidence for this carrier.
	ConfidenceCeiling float64 `yaml:"confidence_ceiling"`

	// Patterns maps a field key (carrier_identifier, invoice_number,
	// account_number, tracking_number, ...) to a raw regex. Compiled forms are
	// populated by the registry at load time.
	Patterns map[string]string `yaml:"patterns"`

	// Identifiers are literal strings that strongly indicate this carrier
	// (legal entity names, remit-to names, SCAC codes).
	Identifiers []string `yaml:"identifiers,omitempty"`

	// Aliases are alternate names the carrier appears under in stored records.
	Aliases []string `yaml:"aliases,omitempty"`

	compiled map[string]*regexp.Regexp
}

// CompilePatterns pre-compiles the profile's field patterns. Invalid patterns
// are skipped; the profile still scores via identifiers and name matching.
func (p *CarrierProfile) CompilePatterns() {
	p.compiled = make(map[string]*regexp.Regexp, len(p.Patterns))
	for field, raw := range p.Patterns {
		if re, err := regexp.Compile(raw); err == nil {
			p.compiled[field] = re
		}
	}
}

// Pattern returns the compiled regex for a field key, or nil.
func (p *CarrierProfile) Pattern(field string) *regexp.Regexp {
	return p.compiled[field]
}

// CarrierRegistry is an indexed, load-once collection of carrier profiles.
type CarrierRegistry struct {
	Profiles []CarrierProfile
	byID     map[string]*CarrierProfile
}

// NewCarrierRegistry builds a registry with indexed lookups and pre-compiled
// patterns.
func NewCarrierRegistry(profiles []CarrierProfile) *CarrierRegistry {
	r := &CarrierRegistry{
		Profiles: profiles,
		byID:     make(map[string]*CarrierProfile, len(profiles)),
	}
	for i := range r.Profiles {
		p := &r.Profiles[i]
		p.CompilePatterns()
		r.byID[p.ID] = p
	}
	return r
}

// ByID returns the profile for the given carrier id, or nil if not found.
func (r *CarrierRegistry) ByID(id string) *CarrierProfile {
	return r.byID[id]
}

// UnknownCarrierID is the consensus carrier when no signal qualifies.
const UnknownCarrierID = "unknown"

// SignalSource identifies the detection method that produced a signal.
type SignalSource string

const (
	SignalSourceText   SignalSource = "text"
	SignalSourceLogo   SignalSource = "logo"
	SignalSourceFormat SignalSource = "format"
)

// DetectionSignal is one detection method's independent carrier guess.
// Signals are never mutated after creation.
type DetectionSignal struct {
	Source      SignalSource `json:"source"`
	CarrierID   string       `json:"carrier_id"`
	CarrierName string       `json:"carrier_name,omitempty"`
	Confidence  float64      `json:"confidence"`
}

// Known reports whether the signal carries a usable carrier guess.
func (s DetectionSignal) Known() bool {
	return s.CarrierID != "" && s.CarrierID != UnknownCarrierID
}

// ConsensusStrength tags how decisively the signals agreed.
type ConsensusStrength string

const (
	StrengthStrong   ConsensusStrength = "strong"
	StrengthModerate ConsensusStrength = "moderate"
	StrengthWeak     ConsensusStrength = "weak"
	StrengthNone     ConsensusStrength = "none"
)

// CarrierConsensus is the fused best-guess carrier for one document.
// Recomputed per document; always present (unknown fallback).
type CarrierConsensus struct {
	CarrierID   string            `json:"carrier_id"`
	CarrierName string            `json:"carrier_name,omitempty"`
	Confidence  float64           `json:"confidence"`
	SignalCount int               `json:"signal_count"`
	Strength    ConsensusStrength `json:"strength"`
}

// Unknown reports whether the consensus failed to identify a carrier.
func (c CarrierConsensus) Unknown() bool {
	return c.CarrierID == "" || c.CarrierID == UnknownCarrierID
}

// UnknownConsensus returns the fallback consensus used when no signal
// qualifies.
func UnknownConsensus() CarrierConsensus {
	return CarrierConsensus{
		CarrierID:  UnknownCarrierID,
		Confidence: 0.5,
		Strength:   StrengthNone,
	}
}
