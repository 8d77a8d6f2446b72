package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/paperbot/internal/domain/paper"
	"github.com/kailas-cloud/paperbot/internal/metrics"
)

// DefaultInterval is the refresh period used when none is configured.
const DefaultInterval = 10 * time.Minute

// Fetcher downloads and decodes the catalog from its source.
type Fetcher interface {
	Fetch(ctx context.Context) (*paper.Catalog, error)
}

// Status describes the outcome of the most recent refresh attempts.
type Status struct {
	LastAttempt time.Time
	LastSuccess time.Time
	LastError   string
	Failures    int // consecutive
}

// Refresher periodically fetches the catalog and replaces the store contents.
// A failed fetch keeps the previous catalog.
type Refresher struct {
	fetcher  Fetcher
	store    *Store
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	status Status
	now    func() time.Time
	runMu  sync.Mutex
}

// NewRefresher creates a Refresher. interval <= 0 uses DefaultInterval.
func NewRefresher(fetcher Fetcher, store *Store, interval time.Duration, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		fetcher:  fetcher,
		store:    store,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Interval returns the refresh period.
func (r *Refresher) Interval() time.Duration { return r.interval }

// Status returns a copy of the refresh status.
func (r *Refresher) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Refresh performs one fetch-and-store cycle. On error the store is left untouched.
// Concurrent calls are serialized so an admin-triggered refresh cannot race the ticker.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	start := r.now()
	cat, err := r.fetcher.Fetch(ctx)
	duration := time.Since(start)
	metrics.CatalogRefreshDuration.Observe(duration.Seconds())

	r.mu.Lock()
	r.status.LastAttempt = start
	if err != nil {
		r.status.LastError = err.Error()
		r.status.Failures++
		failures := r.status.Failures
		r.mu.Unlock()

		metrics.CatalogRefreshTotal.WithLabelValues("error").Inc()
		r.logger.Warn("Catalog refresh failed, keeping previous catalog",
			zap.Error(err),
			zap.Int("consecutive_failures", failures),
			zap.Uint64("catalog_version", r.store.Read().Version),
		)
		return fmt.Errorf("refresh catalog: %w", err)
	}
	r.status.LastError = ""
	r.status.Failures = 0
	r.status.LastSuccess = r.now()
	r.mu.Unlock()

	snap := r.store.Replace(cat)

	metrics.CatalogRefreshTotal.WithLabelValues("success").Inc()
	metrics.CatalogPapers.Set(float64(cat.Len()))
	metrics.CatalogLastSuccess.Set(float64(snap.UpdatedAt.Unix()))

	r.logger.Info("Catalog refreshed",
		zap.Int("entries", cat.Len()),
		zap.Int("searchable", cat.Searchable()),
		zap.Uint64("catalog_version", snap.Version),
		zap.Duration("duration", duration),
	)
	return nil
}

// Run refreshes on every tick until ctx is cancelled. Errors never stop the loop.
// The first refresh is expected to have been done by the caller (see Prime).
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Refresh(ctx) // logged inside
		}
	}
}

// Prime performs the synchronous startup refresh. The error is returned for
// logging only; the service starts with an empty catalog if it fails.
func (r *Refresher) Prime(ctx context.Context) error {
	return r.Refresh(ctx)
}
