// Package pipeline orchestrates per-document processing: classify, extract,
// identify, validate, match. Every step is persisted before and after it
// runs, so a crash leaves a resumable, inspectable state, and batch
// processing isolates per-document failure.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/tygershark/shiprecon/internal/access"
	"github.com/tygershark/shiprecon/internal/classify"
	"github.com/tygershark/shiprecon/internal/extract"
	"github.com/tygershark/shiprecon/internal/identify"
	"github.com/tygershark/shiprecon/internal/match"
	"github.com/tygershark/shiprecon/internal/model"
	"github.com/tygershark/shiprecon/internal/store"
	"github.com/tygershark/shiprecon/internal/validate"
)

// Pipeline step names as persisted in the state store.
const (
	StepClassify = "classify"
	StepExtract  = "extract"
	StepIdentify = "identify"
	StepValidate = "validate"
	StepMatch    = "match"
)

// Event is a fire-and-forget progress notification.
type Event struct {
	DocumentID string
	Step       string
	Detail     string
}

// Progress receives pipeline events. Callbacks run on their own goroutine
// and may panic without affecting the pipeline.
type Progress func(Event)

// DocumentResult is the full outcome of processing one document.
type DocumentResult struct {
	Document   model.Document
	Estimate   classify.ComplexityEstimate
	Extraction extract.Result
	Consensus  model.CarrierConsensus
	Validation validate.Result
	Results    []model.MatchResult
	Stats      model.BatchStats

	// Skipped is true when the document had already been fully processed.
	Skipped bool
}

// Pipeline wires the engine stages together.
type Pipeline struct {
	classifier *classify.Classifier
	extractor  *extract.Extractor
	identifier *identify.Engine
	matcher    *match.Engine
	access     *access.Service
	state      store.StateStore
	batchSize  int
	progress   Progress
}

// New assembles a pipeline. progress may be nil.
func New(
	classifier *classify.Classifier,
	extractor *extract.Extractor,
	identifier *identify.Engine,
	matcher *match.Engine,
	accessSvc *access.Service,
	state store.StateStore,
	batchSize int,
	progress Progress,
) *Pipeline {
	if batchSize <= 0 {
		batchSize = 3
	}
	return &Pipeline{
		classifier: classifier,
		extractor:  extractor,
		identifier: identifier,
		matcher:    matcher,
		access:     accessSvc,
		state:      state,
		batchSize:  batchSize,
		progress:   progress,
	}
}

// Process runs one document end to end. A document whose final step is
// already complete is skipped; otherwise it re-runs from the top with each
// step's status persisted. Only extraction can fail the document.
func (p *Pipeline) Process(ctx context.Context, doc model.Document, principal model.Principal) (*DocumentResult, error) {
	done, err := p.state.CompletedSteps(ctx, doc.ID)
	if err != nil {
		zap.L().Warn("pipeline: could not read step state, reprocessing",
			zap.String("document", doc.ID),
			zap.Error(err),
		)
	}
	if done[StepMatch] {
		zap.L().Info("pipeline: document already processed, skipping",
			zap.String("document", doc.ID),
		)
		return &DocumentResult{Document: doc, Skipped: true}, nil
	}

	result := &DocumentResult{Document: doc}

	p.startStep(ctx, doc.ID, StepClassify)
	result.Estimate = p.classifier.Classify(ctx, doc)
	p.completeStep(ctx, doc.ID, StepClassify)
	p.emit(Event{DocumentID: doc.ID, Step: StepClassify, Detail: string(result.Estimate.Tier)})

	p.startStep(ctx, doc.ID, StepExtract)
	extraction, err := p.extractor.Extract(ctx, doc, result.Estimate)
	if err != nil {
		p.failStep(ctx, doc.ID, StepExtract, err)
		return nil, err
	}
	result.Extraction = extraction
	p.completeStep(ctx, doc.ID, StepExtract)
	p.emit(Event{DocumentID: doc.ID, Step: StepExtract})

	p.startStep(ctx, doc.ID, StepIdentify)
	result.Consensus = p.identifier.Identify(ctx, doc)
	p.completeStep(ctx, doc.ID, StepIdentify)
	p.emit(Event{DocumentID: doc.ID, Step: StepIdentify, Detail: result.Consensus.CarrierID})

	p.startStep(ctx, doc.ID, StepValidate)
	result.Validation = validate.Score(extraction.Records)
	p.completeStep(ctx, doc.ID, StepValidate)

	p.startStep(ctx, doc.ID, StepMatch)
	scope := p.access.ScopeFor(ctx, principal)
	result.Results = p.matcher.MatchAll(ctx, extraction.Records, result.Consensus, scope)
	result.Stats = match.ComputeStats(result.Results)
	p.completeStep(ctx, doc.ID, StepMatch)
	p.emit(Event{DocumentID: doc.ID, Step: StepMatch, Detail: match.Summary(result.Stats)})

	zap.L().Info("pipeline: document reconciled",
		zap.String("document", doc.ID),
		zap.String("tier", string(result.Estimate.Tier)),
		zap.String("carrier", result.Consensus.CarrierID),
		zap.Int("records", len(extraction.Records)),
		zap.Int("auto_applicable", result.Stats.AutoApplicable),
	)
	return result, nil
}

// emit delivers a progress event on its own goroutine; a panicking callback
// never reaches the pipeline.
func (p *Pipeline) emit(event Event) {
	if p.progress == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Warn("pipeline: progress callback panicked",
					zap.String("document", event.DocumentID),
					zap.Any("panic", r),
				)
			}
		}()
		p.progress(event)
	}()
}

// Step persistence failures degrade to logging; losing resumability must not
// fail the document.

func (p *Pipeline) startStep(ctx context.Context, docID, step string) {
	if err := p.state.StartStep(ctx, docID, step); err != nil {
		zap.L().Warn("pipeline: persist step start failed",
			zap.String("document", docID), zap.String("step", step), zap.Error(err))
	}
}

func (p *Pipeline) completeStep(ctx context.Context, docID, step string) {
	if err := p.state.CompleteStep(ctx, docID, step); err != nil {
		zap.L().Warn("pipeline: persist step completion failed",
			zap.String("document", docID), zap.String("step", step), zap.Error(err))
	}
}

func (p *Pipeline) failStep(ctx context.Context, docID, step string, cause error) {
	if err := p.state.FailStep(ctx, docID, step, cause); err != nil {
		zap.L().Warn("pipeline: persist step failure failed",
			zap.String("document", docID), zap.String("step", step), zap.Error(err))
	}
}
