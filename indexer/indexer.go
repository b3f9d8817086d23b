// Package indexer turns an assembled document into indexed segments:
// extract text, split into fixed-width spans, embed and upsert each span
// into the vector index tagged with its owning session id.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"docchat/loader"
	"docchat/model"
	"docchat/store"
	"docchat/types"

	"github.com/panjf2000/ants/v2"
)

// TextExtractor turns raw document bytes into plain text.
type TextExtractor func(data []byte) (string, error)

// Report aggregates per-segment outcomes of one indexing run. Failed
// segments are logged and skipped, never retried; the count is exposed so
// callers can see how complete the index is.
type Report struct {
	Indexed int
	Failed  int
}

type Config struct {
	// SegmentWidth is the span size in runes. Default 1000.
	SegmentWidth int
	// Workers bounds segment embedding concurrency. Segments are mutually
	// independent, so parallel order does not change outcomes. Default
	// half the CPUs, minimum 1.
	Workers int
	// Extract overrides the document text extractor. Default PDF.
	Extract TextExtractor
}

type Indexer struct {
	embedder model.Embedder
	index    store.VectorIndex
	extract  TextExtractor
	pool     *ants.Pool
	width    int
	logger   *slog.Logger
}

func New(embedder model.Embedder, index store.VectorIndex, cfg Config) (*Indexer, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if index == nil {
		return nil, fmt.Errorf("vector index required")
	}

	width := cfg.SegmentWidth
	if width <= 0 {
		width = DefaultSegmentWidth
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() / 2
		if workers < 1 {
			workers = 1
		}
	}
	extract := cfg.Extract
	if extract == nil {
		extract = loader.ExtractText
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	return &Indexer{
		embedder: embedder,
		index:    index,
		extract:  extract,
		pool:     pool,
		width:    width,
		logger:   slog.Default().With("component", "indexer"),
	}, nil
}

// Index extracts text from the document and writes its segments to the
// vector index. Extraction failure is terminal: no segments are written.
// Individual segment failures are counted in the report and skipped, so a
// partially indexed document still becomes ready. The extracted text is
// returned for the entity extraction side pipeline.
func (ix *Indexer) Index(ctx context.Context, sessionID string, document []byte) (Report, string, error) {
	text, err := ix.extract(document)
	if err != nil {
		return Report{}, "", fmt.Errorf("extract text: %w", err)
	}

	segments := Split(text, ix.width)
	ix.logger.Info("indexing document", "session", sessionID, "segments", len(segments))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		report Report
	)
	for i, content := range segments {
		position, span := i, content
		wg.Add(1)
		err := ix.pool.Submit(func() {
			defer wg.Done()
			err := ix.indexSegment(ctx, sessionID, position, span)
			mu.Lock()
			if err != nil {
				report.Failed++
			} else {
				report.Indexed++
			}
			mu.Unlock()
			if err != nil {
				ix.logger.Error("segment skipped", "session", sessionID, "position", position, "err", err)
			}
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			report.Failed++
			mu.Unlock()
			ix.logger.Error("segment not scheduled", "session", sessionID, "position", position, "err", err)
		}
	}
	wg.Wait()

	ix.logger.Info("document ready", "session", sessionID, "indexed", report.Indexed, "failed", report.Failed)
	return report, text, nil
}

func (ix *Indexer) indexSegment(ctx context.Context, sessionID string, position int, content string) error {
	vector, err := ix.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	seg := types.Segment{
		ID:        fmt.Sprintf("%s-%d", sessionID, position),
		SessionID: sessionID,
		Position:  position,
		Content:   content,
		Embedding: vector,
	}
	if err := ix.index.Upsert(ctx, seg); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// Release stops the worker pool. The indexer must not be used afterwards.
func (ix *Indexer) Release() {
	ix.pool.Release()
}
