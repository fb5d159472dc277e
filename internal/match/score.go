package match

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tygershark/shiprecon/internal/model"
)

const (
	ocrVariantFloor    = 0.95
	exactShipmentFloor = 0.95

	tightDateDays    = 1
	looseDateDays    = 3
	tightDateBonus   = 0.05
	looseDateBonus   = 0.02
	tightAmountPct   = 0.05
	looseAmountPct   = 0.10
	tightAmountBonus = 0.05
	looseAmountBonus = 0.02
)

// scoreCandidate turns a deduplicated candidate into a ScoredMatch: strategy
// base confidence, floors for exact-id and OCR-variant hits, then date and
// amount proximity bonuses, capped at MaxMatchConfidence.
func scoreCandidate(c model.MatchCandidate, rec model.ExtractedShipmentRecord) model.ScoredMatch {
	conf := c.Strategy.BaseConfidence()
	var notes []string

	if c.OCRCorrected && conf < ocrVariantFloor {
		conf = ocrVariantFloor
		notes = append(notes, "ocr variant floor")
	}
	if c.Strategy == model.StrategyExactShipmentID && conf < exactShipmentFloor {
		conf = exactShipmentFloor
	}

	if bonus, note := dateBonus(rec.InvoiceDate, c.Record.BookedAt); bonus > 0 {
		conf += bonus
		notes = append(notes, note)
	}
	if bonus, note := amountBonus(rec.TotalAmount, c.Record.TotalAmount); bonus > 0 {
		conf += bonus
		notes = append(notes, note)
	}

	if conf > model.MaxMatchConfidence {
		conf = model.MaxMatchConfidence
	}

	return model.ScoredMatch{
		MatchCandidate: c,
		Confidence:     conf,
		Detail:         strings.Join(notes, "; "),
	}
}

func dateBonus(invoiceDate, bookedAt *time.Time) (float64, string) {
	if invoiceDate == nil || bookedAt == nil {
		return 0, ""
	}
	days := math.Abs(invoiceDate.Sub(*bookedAt).Hours()) / 24
	switch {
	case days <= tightDateDays:
		return tightDateBonus, "date within 1 day"
	case days <= looseDateDays:
		return looseDateBonus, "date within 3 days"
	default:
		return 0, ""
	}
}

func amountBonus(invoiceAmount, storedAmount float64) (float64, string) {
	if invoiceAmount <= 0 || storedAmount <= 0 {
		return 0, ""
	}
	diff := math.Abs(invoiceAmount-storedAmount) / invoiceAmount
	switch {
	case diff <= tightAmountPct:
		return tightAmountBonus, "amount within 5%"
	case diff <= looseAmountPct:
		return looseAmountBonus, "amount within 10%"
	default:
		return 0, ""
	}
}

// finalize ranks scored matches and produces the terminal result for one
// extracted record. Fallback-derived records always require review, whatever
// the status band says.
func finalize(rec model.ExtractedShipmentRecord, matches []model.ScoredMatch) model.MatchResult {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Strategy.Weight() > matches[j].Strategy.Weight()
	})

	result := model.MatchResult{Record: rec, Matches: matches}
	if len(matches) > 0 {
		result.Best = &matches[0]
		result.Status = model.StatusForConfidence(matches[0].Confidence, true)
	} else {
		result.Status = model.StatusNoMatch
	}

	result.ReviewRequired = !result.Status.AutoApplicable() || rec.Fallback
	return result
}

// ComputeStats aggregates reconciliation outcomes across a batch. Mean
// confidence only covers records that produced at least one candidate.
func ComputeStats(results []model.MatchResult) model.BatchStats {
	stats := model.BatchStats{
		Total:    len(results),
		ByStatus: make(map[model.MatchStatus]int),
	}

	var confSum float64
	var withCandidates int
	for _, r := range results {
		stats.ByStatus[r.Status]++
		if r.Status.AutoApplicable() && !r.ReviewRequired {
			stats.AutoApplicable++
		}
		if r.ReviewRequired {
			stats.ReviewRequired++
		}
		if r.Best != nil {
			confSum += r.Best.Confidence
			withCandidates++
		}
	}
	if withCandidates > 0 {
		stats.MeanConfidence = confSum / float64(withCandidates)
	}
	return stats
}

// Summary renders a one-line human summary of batch stats for logs.
func Summary(stats model.BatchStats) string {
	return fmt.Sprintf("%d records, %d auto-applicable, %d for review, mean confidence %.2f",
		stats.Total, stats.AutoApplicable, stats.ReviewRequired, stats.MeanConfidence)
}
