package extract

import (
	"go.uber.org/zap"

	"github.com/tygershark/shiprecon/internal/model"
)

// fallbackRecords synthesizes shipment records by running every carrier
// profile's tracking and carrier-identifier patterns over the raw text layer.
// Far lower fidelity than the oracle: one record per distinct identifier,
// no addresses or charges. Every record is tagged Fallback so it can never
// auto-apply downstream.
func (e *Extractor) fallbackRecords(doc model.Document) []model.ExtractedShipmentRecord {
	if !doc.HasText() {
		return nil
	}

	seen := make(map[string]bool)
	var out []model.ExtractedShipmentRecord

	for pageIdx, page := range doc.Pages {
		for i := range e.registry.Profiles {
			profile := &e.registry.Profiles[i]
			for _, field := range []string{"tracking_number", "carrier_identifier"} {
				re := profile.Pattern(field)
				if re == nil {
					continue
				}
				for _, hit := range re.FindAllString(page, -1) {
					if seen[hit] {
						continue
					}
					seen[hit] = true
					rec := model.ExtractedShipmentRecord{
						CarrierID: profile.ID,
						Page:      pageIdx + 1,
						Fallback:  true,
					}
					if field == "tracking_number" {
						rec.TrackingNumber = hit
					} else {
						rec.ShipmentID = hit
					}
					out = append(out, rec)
				}
			}
		}
	}

	if len(out) > 0 {
		zap.L().Info("extract: regex fallback synthesized records",
			zap.String("document", doc.ID),
			zap.Int("records", len(out)),
		)
	}
	return out
}
