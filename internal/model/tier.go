package model

// ProcessingTier selects an extraction pipeline by estimated document scale.
// Larger tiers trade extraction fidelity for throughput.
type ProcessingTier string

const (
	TierSmall   ProcessingTier = "small"
	TierMedium  ProcessingTier = "medium"
	TierLarge   ProcessingTier = "large"
	TierMassive ProcessingTier = "massive"
)

// tierCap holds the page and shipment ceilings a tier can accommodate.
type tierCap struct {
	maxPages     int
	maxShipments int
}

// tierCaps are ordered smallest to largest; SelectTier escalates through them.
var tierCaps = []struct {
	tier ProcessingTier
	cap  tierCap
}{
	{TierSmall, tierCap{maxPages: 5, maxShipments: 10}},
	{TierMedium, tierCap{maxPages: 20, maxShipments: 50}},
	{TierLarge, tierCap{maxPages: 100, maxShipments: 500}},
}

// SelectTier returns the smallest tier whose caps accommodate both the page
// estimate and the shipment estimate. Exceeding either cap escalates to the
// next larger tier; beyond the large caps the tier is massive.
func SelectTier(pages, shipments int) ProcessingTier {
	for _, tc := range tierCaps {
		if pages <= tc.cap.maxPages && shipments <= tc.cap.maxShipments {
			return tc.tier
		}
	}
	return TierMassive
}
