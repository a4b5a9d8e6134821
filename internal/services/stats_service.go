package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AI2HU/satlens/internal/cache"
	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/stats"
	"github.com/AI2HU/satlens/internal/store"
)

// ArchiveStatsSource aggregates the long-term archive
type ArchiveStatsSource interface {
	GetDatasetStats(ctx context.Context, datasetID string) (*models.DatasetStats, error)
	GetArchiveStats(ctx context.Context, days int) (*models.ArchiveStats, error)
}

// StatsService provides business logic for statistics
type StatsService struct {
	cache   resultLister
	store   *store.Store
	archive ArchiveStatsSource
}

// NewStatsService creates a new stats service. archive may be nil when no
// archive is configured.
func NewStatsService(results resultLister, s *store.Store, archive ArchiveStatsSource) *StatsService {
	return &StatsService{cache: results, store: s, archive: archive}
}

// CacheStats describes what the result cache currently holds
type CacheStats struct {
	Results     int                    `json:"results"`
	Capacity    int                    `json:"capacity"`
	StoredBytes int64                  `json:"stored_bytes"`
	ByAnalysis  []models.AnalysisCount `json:"by_analysis"`
	Oldest      *time.Time             `json:"oldest,omitempty"`
	Newest      *time.Time             `json:"newest,omitempty"`
}

// OverallStats combines the cache and, when configured, the archive
type OverallStats struct {
	Cache   CacheStats           `json:"cache"`
	Archive *models.ArchiveStats `json:"archive,omitempty"`
}

// GetCacheStats summarizes the cached results
func (s *StatsService) GetCacheStats(ctx context.Context) (*CacheStats, error) {
	results := s.cache.LoadAll(ctx)

	st := &CacheStats{
		Results:    len(results),
		Capacity:   cache.MaxResults,
		ByAnalysis: countAnalyses(results),
	}

	size, err := s.store.Backend().Size(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get store size: %w", err)
	}
	st.StoredBytes = size

	for i := range results {
		t := results[i].Time()
		if t.IsZero() {
			continue
		}
		if st.Oldest == nil || t.Before(*st.Oldest) {
			st.Oldest = &t
		}
		if st.Newest == nil || t.After(*st.Newest) {
			newest := t
			st.Newest = &newest
		}
	}
	return st, nil
}

// GetOverallStats returns cache statistics and archive statistics over the last days
func (s *StatsService) GetOverallStats(ctx context.Context, days int) (*OverallStats, error) {
	cacheStats, err := s.GetCacheStats(ctx)
	if err != nil {
		return nil, err
	}

	out := &OverallStats{Cache: *cacheStats}
	if s.archive == nil {
		return out, nil
	}

	archiveStats, err := s.archive.GetArchiveStats(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get archive stats: %w", err)
	}
	out.Archive = archiveStats
	return out, nil
}

// GetDatasetStats returns archive statistics for one dataset
func (s *StatsService) GetDatasetStats(ctx context.Context, datasetID string) (*models.DatasetStats, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("archive is not configured: %w", db.ErrUnavailable)
	}
	return s.archive.GetDatasetStats(ctx, datasetID)
}

func countAnalyses(results []models.AnalysisResult) []models.AnalysisCount {
	byName := make(map[string]int)
	for _, r := range results {
		byName[r.Analysis]++
	}

	counts := make([]models.AnalysisCount, 0, len(byName))
	for name, n := range byName {
		counts = append(counts, models.AnalysisCount{Analysis: name, Count: n})
	}
	stats.SortCounts(counts)
	return counts
}
