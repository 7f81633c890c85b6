// Package pipeline wires the stages together: extraction, enrichment,
// deduplication, and batch sync. All run-scoped state (taxonomy, oracle
// client, store) is held here explicitly and passed to each stage; there are
// no ambient singletons.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"feedbackpipe/internal/config"
	"feedbackpipe/internal/dedup"
	"feedbackpipe/internal/domain"
	"feedbackpipe/internal/enrich"
	"feedbackpipe/internal/extract"
	"feedbackpipe/internal/llm"
	"feedbackpipe/internal/notes"
	"feedbackpipe/internal/storage"
	"feedbackpipe/internal/sync"
)

type Pipeline struct {
	cfg       *config.Config
	extractor *extract.Extractor
	enricher  *enrich.Enricher
}

func New(cfg *config.Config, oracle llm.Client) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		extractor: extract.New(&cfg.Taxonomy, oracle, llm.CallLimits{
			MaxTokens:   cfg.LLM.Extraction.MaxTokens,
			Temperature: cfg.LLM.Extraction.Temperature,
		}),
		enricher: enrich.New(&cfg.Taxonomy, oracle, llm.CallLimits{
			MaxTokens:   cfg.LLM.Enrichment.MaxTokens,
			Temperature: cfg.LLM.Enrichment.Temperature,
		}),
	}
}

// ExtractPath processes one note file, or every .md file of a directory in
// name order. A note whose extraction fails is skipped with a log line; the
// run continues with the remaining notes.
func (p *Pipeline) ExtractPath(ctx context.Context, inputPath string) ([]domain.FeedbackItem, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("input path: %w", err)
	}

	var paths []string
	if info.IsDir() {
		entries, err := os.ReadDir(inputPath)
		if err != nil {
			return nil, fmt.Errorf("read notes dir: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
				paths = append(paths, filepath.Join(inputPath, e.Name()))
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{inputPath}
	}

	var all []domain.FeedbackItem
	for _, path := range paths {
		note, meta, err := notes.ParseFile(path)
		if err != nil {
			log.Printf("extract skipping note=%s: %v", path, err)
			continue
		}
		items, err := p.extractor.Extract(ctx, note.Body, meta)
		if err != nil {
			// Recoverable per note: the failed note contributes nothing.
			log.Printf("extract skipping note=%s: %v", path, err)
			continue
		}
		log.Printf("extract note=%s items=%d", filepath.Base(path), len(items))
		all = append(all, items...)
	}

	if p.cfg.Processing.Deduplicate {
		all = p.Deduper().Dedupe(all, nil)
	}
	return all, nil
}

// EnrichAll classifies each item in place. Enrichment is best-effort and
// never fails the batch.
func (p *Pipeline) EnrichAll(ctx context.Context, items []domain.FeedbackItem, confidenceFloor bool) []domain.FeedbackItem {
	for i := range items {
		result := p.enricher.Enrich(ctx, items[i])
		enrich.Apply(&items[i], result, confidenceFloor)
	}
	return items
}

// DryRunEnrich stamps the fallback-shaped mock result without calling the
// oracle.
func (p *Pipeline) DryRunEnrich(items []domain.FeedbackItem, confidenceFloor bool) []domain.FeedbackItem {
	for i := range items {
		enrich.Apply(&items[i], domain.ClassificationResult{
			Segment:              domain.SentinelOther,
			Department:           domain.SentinelOther,
			EnrichedTags:         []string{"dry-run"},
			SegmentConfidence:    0.5,
			DepartmentConfidence: 0.5,
			Reasoning:            "Dry run mode - no oracle call made",
		}, confidenceFloor)
	}
	return items
}

func (p *Pipeline) Deduper() *dedup.Deduper {
	return dedup.New(p.cfg.Processing.SimilarityThreshold)
}

// Sync commits items to the store.
func (p *Pipeline) Sync(ctx context.Context, store storage.TabularStore, items []domain.FeedbackItem) (sync.SyncResult, error) {
	syncer := sync.New(store, p.Deduper(), sync.DefaultRetry)
	return syncer.Sync(ctx, items, p.cfg.Processing.BatchSize)
}

// Run executes the full pipeline over a notes path: extract, enrich, sync.
func (p *Pipeline) Run(ctx context.Context, inputPath string, store storage.TabularStore, confidenceFloor bool) ([]domain.FeedbackItem, sync.SyncResult, error) {
	items, err := p.ExtractPath(ctx, inputPath)
	if err != nil {
		return nil, sync.SyncResult{}, err
	}
	items = p.EnrichAll(ctx, items, confidenceFloor)
	result, err := p.Sync(ctx, store, items)
	return items, result, err
}
