// Package extract turns documents into shipment records through the oracle,
// with a distinct pipeline per processing tier and a regex fallback when the
// oracle is exhausted.
package extract

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tygershark/shiprecon/internal/classify"
	"github.com/tygershark/shiprecon/internal/config"
	"github.com/tygershark/shiprecon/internal/model"
	"github.com/tygershark/shiprecon/pkg/oracle"
)

const extractSystemPrompt = `You extract shipment records from carrier invoice and manifest documents. Respond with a valid JSON array; one object per shipment: {"shipment_id": "", "tracking_number": "", "booking_reference": "", "customer_reference": "", "carrier_id": "", "origin": {"company": "", "street": "", "city": "", "state": "", "postal_code": "", "country": ""}, "destination": {...}, "charges": [{"description": "", "amount": 0.0, "currency": ""}], "total_amount": 0.0, "currency": "", "invoice_date": "YYYY-MM-DDT00:00:00Z", "page": 1}. Omit fields not present in the document. Return [] if the text contains no shipments.`

const samplingSystemPrompt = `You study the leading pages of a carrier invoice and describe its layout so a bulk extraction pass can follow it. Note where shipment identifiers, references, dates and totals appear, and any per-carrier quirks. Respond with a short plain-text description, no JSON.`

// Result is one document's extraction output.
type Result struct {
	Records []model.ExtractedShipmentRecord
	Tier    model.ProcessingTier

	// Fallback is true when the oracle was exhausted and the records were
	// synthesized by regex extraction; they are non-authoritative.
	Fallback bool
}

// Extractor runs the tier pipelines.
type Extractor struct {
	oracle    oracle.Client
	registry  *model.CarrierRegistry
	model     string
	maxTokens int64
	cfg       config.ExtractConfig
}

// NewExtractor creates an extractor. The registry feeds the regex fallback.
func NewExtractor(client oracle.Client, registry *model.CarrierRegistry, modelName string, maxTokens int64, cfg config.ExtractConfig) *Extractor {
	if cfg.LargeTierConcurrency <= 0 {
		cfg.LargeTierConcurrency = 3
	}
	if cfg.MassiveChunkPages <= 0 {
		cfg.MassiveChunkPages = 10
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 5
	}
	return &Extractor{
		oracle:    client,
		registry:  registry,
		model:     modelName,
		maxTokens: maxTokens,
		cfg:       cfg,
	}
}

// Extract dispatches the document to its tier's pipeline. When the oracle is
// exhausted the regex fallback runs; only if that also yields nothing does
// the document fail.
func (e *Extractor) Extract(ctx context.Context, doc model.Document, est classify.ComplexityEstimate) (Result, error) {
	var records []model.ExtractedShipmentRecord
	var err error

	switch est.Tier {
	case model.TierSmall:
		records, err = e.extractSmall(ctx, doc)
	case model.TierMedium:
		records, err = e.extractMedium(ctx, doc)
	case model.TierLarge:
		records, err = e.extractLarge(ctx, doc, est)
	case model.TierMassive:
		records, err = e.extractMassive(ctx, doc)
	default:
		return Result{}, eris.Errorf("extract: unknown tier %q", est.Tier)
	}

	if err != nil {
		zap.L().Warn("extract: oracle extraction failed, trying regex fallback",
			zap.String("document", doc.ID),
			zap.String("tier", string(est.Tier)),
			zap.Error(err),
		)
		fallback := e.fallbackRecords(doc)
		if len(fallback) == 0 {
			return Result{}, eris.Wrapf(err, "extract: document %s", doc.ID)
		}
		return Result{Records: fallback, Tier: est.Tier, Fallback: true}, nil
	}

	zap.L().Info("extract: document extracted",
		zap.String("document", doc.ID),
		zap.String("tier", string(est.Tier)),
		zap.Int("records", len(records)),
	)
	return Result{Records: records, Tier: est.Tier}, nil
}

// extractSmall is a single full-fidelity pass over the whole text layer.
func (e *Extractor) extractSmall(ctx context.Context, doc model.Document) ([]model.ExtractedShipmentRecord, error) {
	return e.extractText(ctx, "extract-small", doc.Text(), "")
}

// extractMedium samples the header pages for layout notes, then runs one bulk
// pass guided by them. A failed sampling pass degrades to an unguided bulk
// pass.
func (e *Extractor) extractMedium(ctx context.Context, doc model.Document) ([]model.ExtractedShipmentRecord, error) {
	notes, err := e.layoutNotes(ctx, doc.Sample(2))
	if err != nil {
		zap.L().Warn("extract: header sampling failed, bulk pass runs unguided",
			zap.String("document", doc.ID),
			zap.Error(err),
		)
	}
	return e.extractText(ctx, "extract-medium", doc.Text(), notes)
}

// layoutNotes asks the oracle to describe the document layout from a sample.
func (e *Extractor) layoutNotes(ctx context.Context, sample string) (string, error) {
	resp, err := e.oracle.Complete(ctx, oracle.Request{
		Task:      "layout-sample",
		System:    samplingSystemPrompt,
		Prompt:    sample,
		Model:     e.model,
		MaxTokens: 1024,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// extractText runs one extraction call over the given text and decodes the
// record array.
func (e *Extractor) extractText(ctx context.Context, task, text, notes string) ([]model.ExtractedShipmentRecord, error) {
	prompt := text
	if notes != "" {
		prompt = fmt.Sprintf("Layout notes from a sampling pass:\n%s\n\nDocument text:\n%s", notes, text)
	}

	resp, err := e.oracle.Complete(ctx, oracle.Request{
		Task:      task,
		System:    extractSystemPrompt,
		Prompt:    prompt,
		Model:     e.model,
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	var records []model.ExtractedShipmentRecord
	if err := oracle.Decode(resp.Text, &records); err != nil {
		return nil, err
	}
	return records, nil
}
