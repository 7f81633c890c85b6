// Package sync commits deduplicated feedback items to a tabular store in
// bounded batches, with rate-limit-aware retry and row-range reporting.
package sync

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"feedbackpipe/internal/dedup"
	"feedbackpipe/internal/domain"
	"feedbackpipe/internal/storage"
)

// RetryPolicy bounds rate-limit retries. Backoff grows exponentially from
// Base with up to 10% jitter; any non-rate-limit store error is never
// retried.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
}

// DefaultRetry waits 60s after the first rate-limit response, doubling per
// attempt.
var DefaultRetry = RetryPolicy{MaxAttempts: 3, Base: 60 * time.Second}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.Base << attempt
	jitter := time.Duration(rand.Int63n(int64(d)/10 + 1))
	return d + jitter
}

// SyncResult reports the outcome of one sync run.
type SyncResult struct {
	Synced  int
	Skipped int
	// Contiguous row range of the newly written rows; zero when nothing was
	// written. Only correct with no concurrent writers to the store.
	FirstRow int
	LastRow  int
}

type Syncer struct {
	store   storage.TabularStore
	deduper *dedup.Deduper
	retry   RetryPolicy
}

func New(store storage.TabularStore, deduper *dedup.Deduper, retry RetryPolicy) *Syncer {
	if retry.MaxAttempts < 1 {
		retry = DefaultRetry
	}
	return &Syncer{store: store, deduper: deduper, retry: retry}
}

// Sync dedupes items against the store's title column and appends the
// survivors in batches of batchSize. A title fetch failure fails open: it
// logs a warning and proceeds with an empty known-title set, favoring
// availability over strict dedup.
func (s *Syncer) Sync(ctx context.Context, items []domain.FeedbackItem, batchSize int) (SyncResult, error) {
	if len(items) == 0 {
		return SyncResult{}, nil
	}
	if batchSize < 1 {
		batchSize = 100
	}

	known := make(map[string]struct{})
	titles, err := s.store.ColumnValues(ctx, ColTitle)
	if err != nil {
		log.Printf("sync warning: could not fetch existing titles, skipping store-level dedup: %v", err)
	} else {
		for _, t := range titles {
			known[domain.NormalizeTitle(t)] = struct{}{}
		}
	}

	unique := s.deduper.Dedupe(items, known)
	result := SyncResult{Skipped: len(items) - len(unique)}
	if len(unique) == 0 {
		log.Printf("sync no new items (all %d duplicates)", result.Skipped)
		return result, nil
	}

	rows := make([][]string, len(unique))
	for i, item := range unique {
		rows[i] = FormatRow(item)
	}

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.appendWithRetry(ctx, rows[start:end]); err != nil {
			return result, err
		}
		result.Synced += end - start
	}

	// Row-range reporting assumes append is strictly sequential and
	// uncontended: post-append count minus written count gives the first new
	// row.
	lastRow, err := s.store.RowCount(ctx, ColID)
	if err != nil {
		log.Printf("sync warning: could not compute row range: %v", err)
		return result, nil
	}
	result.FirstRow = lastRow - result.Synced + 1
	result.LastRow = lastRow
	log.Printf("sync complete synced=%d skipped=%d rows=%d-%d", result.Synced, result.Skipped, result.FirstRow, result.LastRow)
	return result, nil
}

func (s *Syncer) appendWithRetry(ctx context.Context, rows [][]string) error {
	var rateErr *storage.RateLimitError
	for attempt := 0; ; attempt++ {
		err := s.store.AppendRows(ctx, rows)
		if err == nil {
			return nil
		}
		if !errors.As(err, &rateErr) {
			return err
		}
		if attempt+1 >= s.retry.MaxAttempts {
			return err
		}
		wait := s.retry.backoff(attempt)
		log.Printf("sync rate limited, retrying in %s (attempt %d/%d)", wait, attempt+1, s.retry.MaxAttempts)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
