// Package match reconciles extracted shipment records against the external
// record store. Candidate generation runs one strategy per goroutine; a
// concurrency-safe set dedups candidates by store record identity, keeping
// the higher-weight strategy's claim.
package match

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tygershark/shiprecon/internal/model"
	"github.com/tygershark/shiprecon/internal/store"
)

const strategyConcurrency = 4

// Engine generates, filters, dedups and scores match candidates.
type Engine struct {
	records  store.RecordStore
	registry *model.CarrierRegistry
}

// NewEngine creates a matching engine over the given record store and
// carrier registry.
func NewEngine(records store.RecordStore, registry *model.CarrierRegistry) *Engine {
	return &Engine{records: records, registry: registry}
}

// Match reconciles one extracted record. Strategy failures are isolated: a
// failing lookup contributes no candidates and the siblings still run. The
// record store is never written.
func (e *Engine) Match(ctx context.Context, rec model.ExtractedShipmentRecord, consensus model.CarrierConsensus, scope model.Scope) model.MatchResult {
	set := newCandidateSet()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(strategyConcurrency)
	for _, strategy := range model.AllStrategies() {
		strategy := strategy
		g.Go(func() error {
			found, err := e.runStrategy(gctx, strategy, rec, consensus)
			if err != nil {
				zap.L().Warn("match: strategy failed",
					zap.String("strategy", string(strategy)),
					zap.Error(err),
				)
				return nil
			}
			for _, c := range found {
				if e.keepCandidate(c, consensus, scope) {
					set.add(c)
				}
			}
			return nil
		})
	}
	g.Wait()

	candidates := set.all()
	matches := make([]model.ScoredMatch, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, scoreCandidate(c, rec))
	}
	return finalize(rec, matches)
}

// MatchAll reconciles a batch of records sequentially; intra-record strategy
// fan-out already bounds store and oracle load.
func (e *Engine) MatchAll(ctx context.Context, records []model.ExtractedShipmentRecord, consensus model.CarrierConsensus, scope model.Scope) []model.MatchResult {
	results := make([]model.MatchResult, 0, len(records))
	for _, rec := range records {
		results = append(results, e.Match(ctx, rec, consensus, scope))
	}
	return results
}

// candidateSet accumulates candidates across concurrent strategies, keyed by
// store record id. On collision the higher-weight strategy wins.
type candidateSet struct {
	mu   sync.Mutex
	byID map[string]model.MatchCandidate
}

func newCandidateSet() *candidateSet {
	return &candidateSet{byID: make(map[string]model.MatchCandidate)}
}

func (s *candidateSet) add(c model.MatchCandidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[c.Record.ID]
	if !ok || c.Strategy.Weight() > existing.Strategy.Weight() {
		s.byID[c.Record.ID] = c
	}
}

func (s *candidateSet) all() []model.MatchCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.MatchCandidate, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c)
	}
	return out
}
