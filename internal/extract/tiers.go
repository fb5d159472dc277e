package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tygershark/shiprecon/internal/classify"
	"github.com/tygershark/shiprecon/internal/model"
	"github.com/tygershark/shiprecon/internal/validate"
)

const defaultBatchPages = 5

// checkpointFloor aborts the massive tier's remaining chunks when a quality
// checkpoint scores below it.
const checkpointFloor = 0.3

// extractLarge learns the document's pattern from the classifier's priority
// pages, then extracts fixed page batches with bounded concurrency.
func (e *Extractor) extractLarge(ctx context.Context, doc model.Document, est classify.ComplexityEstimate) ([]model.ExtractedShipmentRecord, error) {
	notes, err := e.layoutNotes(ctx, prioritySample(doc, est.PriorityPages))
	if err != nil {
		zap.L().Warn("extract: pattern-learning pass failed, batches run unguided",
			zap.String("document", doc.ID),
			zap.Error(err),
		)
	}

	batchPages := est.RecommendedBatchSize
	if batchPages <= 0 {
		batchPages = defaultBatchPages
	}
	batches := pageChunks(doc.Pages, batchPages)

	var mu sync.Mutex
	collected := make([][]model.ExtractedShipmentRecord, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.LargeTierConcurrency)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			task := fmt.Sprintf("extract-large-batch-%d", i+1)
			records, err := e.extractText(gctx, task, strings.Join(batch.pages, "\n"), notes)
			if err != nil {
				return err
			}
			stampPages(records, batch.firstPage)
			mu.Lock()
			collected[i] = records
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.ExtractedShipmentRecord
	for _, records := range collected {
		out = append(out, records...)
	}
	return out, nil
}

// extractMassive streams fixed page chunks sequentially, scoring extraction
// quality every few chunks. A checkpoint below the quality floor abandons the
// rest of the document; what was extracted so far still flows downstream.
func (e *Extractor) extractMassive(ctx context.Context, doc model.Document) ([]model.ExtractedShipmentRecord, error) {
	chunks := pageChunks(doc.Pages, e.cfg.MassiveChunkPages)

	var out []model.ExtractedShipmentRecord
	for i, chunk := range chunks {
		task := fmt.Sprintf("extract-massive-chunk-%d", i+1)
		records, err := e.extractText(ctx, task, strings.Join(chunk.pages, "\n"), "")
		if err != nil {
			if len(out) == 0 {
				return nil, err
			}
			zap.L().Warn("extract: massive chunk failed, keeping earlier chunks",
				zap.String("document", doc.ID),
				zap.Int("chunk", i+1),
				zap.Error(err),
			)
			continue
		}
		stampPages(records, chunk.firstPage)
		out = append(out, records...)

		if (i+1)%e.cfg.CheckpointEvery == 0 {
			quality := validate.Score(out)
			zap.L().Info("extract: quality checkpoint",
				zap.String("document", doc.ID),
				zap.Int("chunks_done", i+1),
				zap.Int("records", quality.RecordCount),
				zap.Float64("confidence", quality.Confidence),
			)
			if quality.Confidence < checkpointFloor {
				zap.L().Error("extract: quality below floor, abandoning remaining chunks",
					zap.String("document", doc.ID),
					zap.Float64("confidence", quality.Confidence),
				)
				break
			}
		}
	}
	return out, nil
}

type pageChunk struct {
	pages     []string
	firstPage int // 1-based
}

func pageChunks(pages []string, size int) []pageChunk {
	var out []pageChunk
	for start := 0; start < len(pages); start += size {
		end := start + size
		if end > len(pages) {
			end = len(pages)
		}
		out = append(out, pageChunk{pages: pages[start:end], firstPage: start + 1})
	}
	return out
}

// stampPages rebases oracle-reported page numbers (relative to the chunk)
// onto the document, defaulting to the chunk's first page.
func stampPages(records []model.ExtractedShipmentRecord, firstPage int) {
	for i := range records {
		if records[i].Page > 0 {
			records[i].Page += firstPage - 1
		} else {
			records[i].Page = firstPage
		}
	}
}

// prioritySample joins the classifier's priority pages into a learning
// sample, falling back to the leading pages.
func prioritySample(doc model.Document, priority []int) string {
	var pages []string
	for _, p := range priority {
		if p >= 1 && p <= len(doc.Pages) {
			pages = append(pages, doc.Pages[p-1])
		}
		if len(pages) >= 3 {
			break
		}
	}
	if len(pages) == 0 {
		return doc.Sample(3)
	}
	return strings.Join(pages, "\n")
}
