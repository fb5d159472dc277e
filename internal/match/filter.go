package match

import (
	"strings"

	"github.com/tygershark/shiprecon/internal/model"
)

// keepCandidate applies the access and carrier filters. Access denials are
// silent; the caller never learns a filtered record existed.
func (e *Engine) keepCandidate(c model.MatchCandidate, consensus model.CarrierConsensus, scope model.Scope) bool {
	if !scope.Allows(c.Record.CompanyID) {
		return false
	}
	return e.carrierMatches(c.Record, consensus)
}

// carrierMatches checks the candidate's carrier against the identified
// carrier through the alias table. Bypassed when the consensus is unknown or
// the stored record carries no carrier at all.
func (e *Engine) carrierMatches(rec model.StoredShipment, consensus model.CarrierConsensus) bool {
	if consensus.Unknown() {
		return true
	}
	if rec.CarrierID == "" && rec.CarrierName == "" {
		return true
	}
	if strings.EqualFold(rec.CarrierID, consensus.CarrierID) {
		return true
	}

	profile := e.registry.ByID(consensus.CarrierID)
	if profile == nil {
		return false
	}
	names := append([]string{profile.Name}, profile.Aliases...)
	for _, name := range names {
		if strings.EqualFold(rec.CarrierName, name) {
			return true
		}
	}
	return false
}
