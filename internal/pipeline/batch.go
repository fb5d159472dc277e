package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tygershark/shiprecon/internal/model"
)

// BatchItem is one document's outcome within a batch run. A failed document
// carries its error; siblings are unaffected.
type BatchItem struct {
	Document model.Document
	Result   *DocumentResult
	Err      error
}

// ProcessBatch partitions documents into fixed-size waves and processes each
// wave with bounded concurrency before advancing, capping load on the oracle
// and the record store. Results come back in input order.
func (p *Pipeline) ProcessBatch(ctx context.Context, docs []model.Document, principal model.Principal) []BatchItem {
	items := make([]BatchItem, len(docs))

	for start := 0; start < len(docs); start += p.batchSize {
		end := start + p.batchSize
		if end > len(docs) {
			end = len(docs)
		}

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.batchSize)
		for i := start; i < end; i++ {
			i := i
			doc := docs[i]
			g.Go(func() error {
				result, err := p.Process(gctx, doc, principal)
				if err != nil {
					zap.L().Error("pipeline: document failed, continuing batch",
						zap.String("document", doc.ID),
						zap.Error(err),
					)
				}
				mu.Lock()
				items[i] = BatchItem{Document: doc, Result: result, Err: err}
				mu.Unlock()
				return nil
			})
		}
		g.Wait()
	}

	return items
}

// BatchResults collects the successful, non-skipped document results.
func BatchResults(items []BatchItem) []*DocumentResult {
	var out []*DocumentResult
	for _, item := range items {
		if item.Err == nil && item.Result != nil && !item.Result.Skipped {
			out = append(out, item.Result)
		}
	}
	return out
}
