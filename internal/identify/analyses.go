package identify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tygershark/shiprecon/internal/model"
	"github.com/tygershark/shiprecon/internal/resilience"
	"github.com/tygershark/shiprecon/pkg/oracle"
)

const logoSystemPrompt = `You inspect the letterhead and branding region of carrier invoices. Given the first page of a document, identify which carrier's branding appears. Respond with a valid JSON object: {"carrier_id": "<id or unknown>", "confidence": <0.0-1.0>}. Known carrier ids: %s.`

const formatSystemPrompt = `You classify carrier invoice layouts. Given sample text of a document, decide which carrier's invoice format it follows (column layout, charge codes, terminology). Respond with a valid JSON object: {"carrier_id": "<id or unknown>", "confidence": <0.0-1.0>}. Known carrier ids: %s.`

const fallbackIdentifyPrompt = `Identify the carrier that issued this document. Respond with a valid JSON object: {"carrier_id": "<id or unknown>", "confidence": <0.0-1.0>}. Known carrier ids: %s.

Document sample:
%s`

// carrierGuess is the shape every oracle identification prompt requests.
type carrierGuess struct {
	CarrierID  string  `json:"carrier_id"`
	Confidence float64 `json:"confidence"`
}

// analyzeLogo asks the oracle whether known carrier branding appears on the
// first page. Failures collapse to a neutral unknown signal; they must never
// abort the sibling analyses.
func (e *Engine) analyzeLogo(ctx context.Context, doc model.Document) model.DetectionSignal {
	system := fmt.Sprintf(logoSystemPrompt, strings.Join(e.carrierIDs(), ", "))
	return e.oracleSignal(ctx, model.SignalSourceLogo, system, doc.Sample(1))
}

// analyzeFormat asks the oracle to classify the document's layout against
// known carrier invoice formats.
func (e *Engine) analyzeFormat(ctx context.Context, doc model.Document) model.DetectionSignal {
	system := fmt.Sprintf(formatSystemPrompt, strings.Join(e.carrierIDs(), ", "))
	return e.oracleSignal(ctx, model.SignalSourceFormat, system, doc.Sample(2))
}

func (e *Engine) oracleSignal(ctx context.Context, source model.SignalSource, system, sample string) model.DetectionSignal {
	neutral := model.DetectionSignal{Source: source, CarrierID: model.UnknownCarrierID}

	resp, err := e.oracle.Complete(ctx, oracle.Request{
		Task:      "identify-" + string(source),
		System:    system,
		Prompt:    sample,
		Model:     e.model,
		MaxTokens: 128,
	})
	if err != nil {
		zap.L().Warn("identify: analysis failed, using neutral signal",
			zap.String("source", string(source)),
			zap.Error(err),
		)
		return neutral
	}

	var guess carrierGuess
	if err := oracle.Decode(resp.Text, &guess); err != nil {
		zap.L().Warn("identify: analysis returned malformed guess",
			zap.String("source", string(source)),
			zap.Error(err),
		)
		return neutral
	}

	return e.signalFromGuess(source, guess)
}

// oracleFallback is the identification path for documents with no usable text
// layer: a minimal carrier-id prompt on a small sample, one retry on
// timeout-class errors.
func (e *Engine) oracleFallback(ctx context.Context, doc model.Document) (model.DetectionSignal, error) {
	prompt := fmt.Sprintf(fallbackIdentifyPrompt, strings.Join(e.carrierIDs(), ", "), doc.Sample(2))

	policy := resilience.Policy{
		MaxAttempts: 2,
		Backoff:     []time.Duration{time.Second},
		Retryable:   resilience.IsTimeout,
		OnRetry:     resilience.RetryLogger("identify-fallback"),
	}

	resp, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (*oracle.Response, error) {
		return e.oracle.Complete(ctx, oracle.Request{
			Task:      "identify-fallback",
			Prompt:    prompt,
			Model:     e.model,
			MaxTokens: 128,
		})
	})
	if err != nil {
		return model.DetectionSignal{}, err
	}

	var guess carrierGuess
	if err := oracle.Decode(resp.Text, &guess); err != nil {
		return model.DetectionSignal{}, err
	}
	return e.signalFromGuess(model.SignalSourceText, guess), nil
}

// signalFromGuess validates an oracle guess against the registry; unknown ids
// become the unknown signal.
func (e *Engine) signalFromGuess(source model.SignalSource, guess carrierGuess) model.DetectionSignal {
	p := e.registry.ByID(strings.ToLower(strings.TrimSpace(guess.CarrierID)))
	if p == nil {
		return model.DetectionSignal{Source: source, CarrierID: model.UnknownCarrierID}
	}
	conf := guess.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return model.DetectionSignal{
		Source:      source,
		CarrierID:   p.ID,
		CarrierName: p.Name,
		Confidence:  conf,
	}
}

func (e *Engine) carrierIDs() []string {
	ids := make([]string, 0, len(e.registry.Profiles))
	for _, p := range e.registry.Profiles {
		ids = append(ids, p.ID)
	}
	return ids
}
