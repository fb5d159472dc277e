package match

import (
	"context"
	"regexp"

	"github.com/rotisserie/eris"

	"github.com/tygershark/shiprecon/internal/model"
	"github.com/tygershark/shiprecon/internal/variant"
)

const (
	dateWindowDays  = 3
	amountTolerance = 0.15
	fuzzyLimit      = 25
	minFuzzyLength  = 6
)

// structuredID splits identifiers shaped as a literal prefix plus a fixed
// suffix (SHIP-001234, AWB#7751); combined OCR variants only apply to the
// suffix.
var structuredID = regexp.MustCompile(`^([A-Za-z]+[-#])([A-Za-z0-9]+)$`)

// runStrategy dispatches one strategy against the record store and returns
// its raw candidates. Strategies that lack the inputs they need return
// nothing rather than erroring.
func (e *Engine) runStrategy(ctx context.Context, strategy model.Strategy, rec model.ExtractedShipmentRecord, consensus model.CarrierConsensus) ([]model.MatchCandidate, error) {
	switch strategy {
	case model.StrategyExactShipmentID:
		return e.exactLookup(ctx, strategy, "shipment_id", rec.ShipmentID, e.records.ByShipmentID)
	case model.StrategyExactTrackingNumber:
		return e.exactLookup(ctx, strategy, "tracking_number", rec.TrackingNumber, e.records.ByTrackingNumber)
	case model.StrategyExactBookingRef:
		return e.exactLookup(ctx, strategy, "booking_reference", rec.BookingReference, e.records.ByBookingReference)
	case model.StrategyReferenceNumber:
		return e.referenceLookup(ctx, rec)
	case model.StrategyDateAmount:
		return e.dateAmountLookup(ctx, rec)
	case model.StrategyFuzzyReference:
		return e.fuzzyLookup(ctx, rec)
	case model.StrategyCarrierDate:
		return e.carrierDateLookup(ctx, rec, consensus)
	default:
		return nil, eris.Errorf("match: unknown strategy %q", strategy)
	}
}

type lookupFunc func(ctx context.Context, values []string) ([]model.StoredShipment, error)

// exactLookup tries the identifier verbatim, then falls back to OCR-confusion
// variants when the exact value finds nothing. Variant hits are tagged so
// scoring can floor their confidence.
func (e *Engine) exactLookup(ctx context.Context, strategy model.Strategy, field, value string, lookup lookupFunc) ([]model.MatchCandidate, error) {
	if value == "" {
		return nil, nil
	}

	records, err := lookup(ctx, []string{value})
	if err != nil {
		return nil, eris.Wrapf(err, "match: %s exact lookup", field)
	}
	if len(records) > 0 {
		return candidates(records, strategy, field, value, false), nil
	}

	vars := ocrVariants(value)
	if len(vars) == 0 {
		return nil, nil
	}
	records, err = lookup(ctx, vars)
	if err != nil {
		return nil, eris.Wrapf(err, "match: %s variant lookup", field)
	}
	return candidates(records, strategy, field, value, true), nil
}

// ocrVariants combines single-substitution variants with two-position
// variants for structured prefix+suffix identifiers.
func ocrVariants(id string) []string {
	vars := variant.Variants(id)
	if parts := structuredID.FindStringSubmatch(id); parts != nil {
		seen := make(map[string]bool, len(vars))
		for _, v := range vars {
			seen[v] = true
		}
		for _, v := range variant.StructuredVariants(parts[1], parts[2]) {
			if !seen[v] {
				vars = append(vars, v)
			}
		}
	}
	return vars
}

func (e *Engine) referenceLookup(ctx context.Context, rec model.ExtractedShipmentRecord) ([]model.MatchCandidate, error) {
	if rec.CustomerReference == "" {
		return nil, nil
	}
	records, err := e.records.ByCustomerReference(ctx, []string{rec.CustomerReference})
	if err != nil {
		return nil, eris.Wrap(err, "match: reference lookup")
	}
	return candidates(records, model.StrategyReferenceNumber, "customer_reference", rec.CustomerReference, false), nil
}

func (e *Engine) dateAmountLookup(ctx context.Context, rec model.ExtractedShipmentRecord) ([]model.MatchCandidate, error) {
	if rec.InvoiceDate == nil || rec.TotalAmount <= 0 {
		return nil, nil
	}
	records, err := e.records.ByDateAmount(ctx, *rec.InvoiceDate, dateWindowDays, rec.TotalAmount, amountTolerance)
	if err != nil {
		return nil, eris.Wrap(err, "match: date/amount lookup")
	}
	return candidates(records, model.StrategyDateAmount, "booked_at+total_amount", rec.InvoiceDate.Format("2006-01-02"), false), nil
}

// fuzzyLookup trims the reference tail and prefix-searches, catching
// truncated or partially transcribed references.
func (e *Engine) fuzzyLookup(ctx context.Context, rec model.ExtractedShipmentRecord) ([]model.MatchCandidate, error) {
	ref := rec.CustomerReference
	if len(ref) < minFuzzyLength {
		return nil, nil
	}
	prefix := ref[:len(ref)-2]
	records, err := e.records.ByReferencePrefix(ctx, prefix, fuzzyLimit)
	if err != nil {
		return nil, eris.Wrap(err, "match: fuzzy reference lookup")
	}

	out := make([]model.MatchCandidate, 0, len(records))
	for _, r := range records {
		// The exact reference is REFERENCE_NUMBER_MATCH territory.
		if r.CustomerReference == ref {
			continue
		}
		out = append(out, model.MatchCandidate{
			Record:       r,
			Strategy:     model.StrategyFuzzyReference,
			MatchedField: "customer_reference",
			MatchedValue: prefix,
		})
	}
	return out, nil
}

func (e *Engine) carrierDateLookup(ctx context.Context, rec model.ExtractedShipmentRecord, consensus model.CarrierConsensus) ([]model.MatchCandidate, error) {
	if consensus.Unknown() || rec.InvoiceDate == nil {
		return nil, nil
	}
	records, err := e.records.ByCarrierDate(ctx, consensus.CarrierID, *rec.InvoiceDate, dateWindowDays)
	if err != nil {
		return nil, eris.Wrap(err, "match: carrier/date lookup")
	}
	return candidates(records, model.StrategyCarrierDate, "carrier_id+booked_at", consensus.CarrierID, false), nil
}

func candidates(records []model.StoredShipment, strategy model.Strategy, field, value string, ocrCorrected bool) []model.MatchCandidate {
	out := make([]model.MatchCandidate, 0, len(records))
	for _, r := range records {
		out = append(out, model.MatchCandidate{
			Record:       r,
			Strategy:     strategy,
			MatchedField: field,
			MatchedValue: value,
			OCRCorrected: ocrCorrected,
		})
	}
	return out
}
