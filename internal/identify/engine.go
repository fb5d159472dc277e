package identify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/tygershark/shiprecon/internal/model"
	"github.com/tygershark/shiprecon/pkg/oracle"
)

// Engine produces one CarrierConsensus per document from independent
// detection signals.
type Engine struct {
	registry    *model.CarrierRegistry
	oracle      oracle.Client
	model       string
	multiSource bool
	override    string
}

// NewEngine creates a carrier identification engine. model is the oracle
// model used for the cheap logo/format/fallback prompts. multiSource enables
// the oracle-backed analyses; override forces the consensus to a fixed
// carrier.
func NewEngine(registry *model.CarrierRegistry, client oracle.Client, model string, multiSource bool, override string) *Engine {
	return &Engine{
		registry:    registry,
		oracle:      client,
		model:       model,
		multiSource: multiSource,
		override:    override,
	}
}

// Identify fuses all available detection signals for the document. It never
// returns an error: every failure path degrades to a lower-confidence or
// unknown consensus.
func (e *Engine) Identify(ctx context.Context, doc model.Document) model.CarrierConsensus {
	if e.override != "" {
		if p := e.registry.ByID(e.override); p != nil {
			zap.L().Info("identify: carrier override active",
				zap.String("carrier", p.ID),
			)
			return model.CarrierConsensus{
				CarrierID:   p.ID,
				CarrierName: p.Name,
				Confidence:  1.0,
				Strength:    model.StrengthStrong,
			}
		}
		zap.L().Warn("identify: carrier override references unknown carrier, ignoring",
			zap.String("override", e.override),
		)
	}

	if !doc.HasText() {
		return e.identifyWithoutText(ctx, doc)
	}

	signals := e.gatherSignals(ctx, doc)
	consensus := Fuse(signals)

	zap.L().Info("identify: consensus",
		zap.String("document", doc.ID),
		zap.String("carrier", consensus.CarrierID),
		zap.Float64("confidence", consensus.Confidence),
		zap.String("strength", string(consensus.Strength)),
		zap.Int("signals", len(signals)),
	)
	return consensus
}

// gatherSignals runs the text pass locally and, when multi-source analysis is
// enabled, the logo and format analyses concurrently. Each analysis fails in
// isolation: a dead analysis contributes a neutral signal and the siblings
// proceed.
func (e *Engine) gatherSignals(ctx context.Context, doc model.Document) []model.DetectionSignal {
	text := doc.Text()

	if !e.multiSource {
		return []model.DetectionSignal{ScoreText(e.registry, text, doc.Filename)}
	}

	var wg sync.WaitGroup
	signals := make([]model.DetectionSignal, 3)

	wg.Add(3)
	go func() {
		defer wg.Done()
		signals[0] = ScoreText(e.registry, text, doc.Filename)
	}()
	go func() {
		defer wg.Done()
		signals[1] = e.analyzeLogo(ctx, doc)
	}()
	go func() {
		defer wg.Done()
		signals[2] = e.analyzeFormat(ctx, doc)
	}()
	wg.Wait()

	return signals
}

// identifyWithoutText handles documents whose text layer is empty: oracle
// fallback prompt first, filename heuristics second, unknown at low
// confidence last. Never fails the pipeline.
func (e *Engine) identifyWithoutText(ctx context.Context, doc model.Document) model.CarrierConsensus {
	if signal, err := e.oracleFallback(ctx, doc); err == nil && signal.Known() {
		conf := signal.Confidence
		if conf > 0.3 {
			conf = 0.3
		}
		return model.CarrierConsensus{
			CarrierID:   signal.CarrierID,
			CarrierName: signal.CarrierName,
			Confidence:  conf,
			SignalCount: 1,
			Strength:    model.StrengthWeak,
		}
	} else if err != nil {
		zap.L().Warn("identify: oracle fallback failed",
			zap.String("document", doc.ID),
			zap.Error(err),
		)
	}

	if signal := matchByFilename(e.registry, doc.Filename); signal.Known() {
		return model.CarrierConsensus{
			CarrierID:   signal.CarrierID,
			CarrierName: signal.CarrierName,
			Confidence:  signal.Confidence,
			SignalCount: 1,
			Strength:    model.StrengthWeak,
		}
	}

	return model.CarrierConsensus{
		CarrierID:  model.UnknownCarrierID,
		Confidence: 0.1,
		Strength:   model.StrengthNone,
	}
}
