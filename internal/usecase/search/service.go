package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/paperbot/internal/logger"
	"github.com/kailas-cloud/paperbot/internal/metrics"
)

// DefaultMaxResults caps results when no limit is configured.
const DefaultMaxResults = 20

// Service runs searches against the current catalog snapshot.
type Service struct {
	catalog    SnapshotReader
	maxResults int
}

// New creates a search service. maxResults <= 0 uses DefaultMaxResults.
func New(catalog SnapshotReader, maxResults int) *Service {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Service{catalog: catalog, maxResults: maxResults}
}

// MaxResults returns the per-query result cap.
func (s *Service) MaxResults() int { return s.maxResults }

// Search matches text against key, title and author.
func (s *Service) Search(ctx context.Context, text string) Result {
	return s.run(ctx, Text(text))
}

// SearchKeys matches any of the patterns against catalog keys.
func (s *Service) SearchKeys(ctx context.Context, patterns ...string) Result {
	return s.run(ctx, Keys(patterns...))
}

func (s *Service) run(ctx context.Context, q Query) Result {
	snap := s.catalog.Read()
	res := Search(snap.Catalog, q, s.maxResults)

	metrics.SearchResults.Observe(float64(len(res.Papers)))
	if res.Capped {
		metrics.SearchCappedTotal.Inc()
	}

	logger.FromContext(ctx).Debug("search done",
		zap.Int("terms", len(q.Terms)),
		zap.Int("results", len(res.Papers)),
		zap.Bool("capped", res.Capped),
		zap.Uint64("catalog_version", snap.Version),
	)
	return res
}
