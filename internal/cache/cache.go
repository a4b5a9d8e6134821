// Package cache keeps the most recent analysis results, one per dataset.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/logger"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/store"
)

// MaxResults is the number of results kept
const MaxResults = 20

// ErrPersistAbandoned is returned when a write still failed after dropping the oldest result
var ErrPersistAbandoned = errors.New("persist abandoned after quota retry")

// Observer receives cache events. All methods may be called with the cache lock held.
type Observer interface {
	Upserted(n int)
	Evicted(n int)
	QuotaExceeded(retried bool)
}

type noopObserver struct{}

func (noopObserver) Upserted(int)       {}
func (noopObserver) Evicted(int)        {}
func (noopObserver) QuotaExceeded(bool) {}

// ResultCache stores analysis results under the analysisResults key.
// Entries are ordered oldest first and unique by dataset id.
type ResultCache struct {
	mu       sync.Mutex
	store    *store.Store
	observer Observer
}

// New creates a cache on top of s
func New(s *store.Store) *ResultCache {
	return &ResultCache{store: s, observer: noopObserver{}}
}

// SetObserver installs o to receive cache events
func (c *ResultCache) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o == nil {
		o = noopObserver{}
	}
	c.observer = o
}

// LoadAll returns every cached result, oldest first. Any read failure yields an empty slice.
func (c *ResultCache) LoadAll(ctx context.Context) []models.AnalysisResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *ResultCache) load(ctx context.Context) []models.AnalysisResult {
	var results []models.AnalysisResult
	if !c.store.Load(ctx, store.KeyAnalysisResults, &results) || results == nil {
		return []models.AnalysisResult{}
	}
	return results
}

// Upsert replaces any result with the same dataset id and appends r as the newest entry
func (c *ResultCache) Upsert(ctx context.Context, r models.AnalysisResult) error {
	return c.UpsertBatch(ctx, []models.AnalysisResult{r})
}

// UpsertBatch applies Upsert for each result in order with a single read and write
func (c *ResultCache) UpsertBatch(ctx context.Context, rs []models.AnalysisResult) error {
	if len(rs) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	results := c.load(ctx)
	for _, r := range rs {
		results = upsert(results, r)
	}
	c.observer.Upserted(len(rs))

	return c.persist(ctx, results)
}

func upsert(results []models.AnalysisResult, r models.AnalysisResult) []models.AnalysisResult {
	out := results[:0:0]
	for _, existing := range results {
		if existing.DatasetID != r.DatasetID {
			out = append(out, existing)
		}
	}
	return append(out, r)
}

// Persist caps results to MaxResults and writes them
func (c *ResultCache) Persist(ctx context.Context, results []models.AnalysisResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persist(ctx, results)
}

func (c *ResultCache) persist(ctx context.Context, results []models.AnalysisResult) error {
	capped := capResults(results)
	if dropped := len(results) - len(capped); dropped > 0 {
		c.observer.Evicted(dropped)
		logger.Debug("Evicted %d oldest results", dropped)
	}

	err := c.store.Put(ctx, store.KeyAnalysisResults, capped)
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrUnavailable) {
		logger.Warning("Result store unavailable, %d results not persisted", len(capped))
		return nil
	}
	if !db.IsQuotaError(err) {
		return fmt.Errorf("failed to persist results: %w", err)
	}

	c.observer.QuotaExceeded(false)
	if len(capped) == 0 {
		logger.Warning("Storage quota exceeded writing an empty result list: %v", err)
		return fmt.Errorf("%w: %w", ErrPersistAbandoned, err)
	}

	logger.Warning("Storage quota exceeded, retrying without oldest result %s", capped[0].DatasetID)
	c.observer.Evicted(1)
	retryErr := c.store.Put(ctx, store.KeyAnalysisResults, capped[1:])
	if retryErr == nil {
		return nil
	}

	c.observer.QuotaExceeded(true)
	logger.Warning("Giving up on persisting results: %v", retryErr)
	return fmt.Errorf("%w: %w", ErrPersistAbandoned, retryErr)
}

func capResults(results []models.AnalysisResult) []models.AnalysisResult {
	if len(results) <= MaxResults {
		return results
	}
	return results[len(results)-MaxResults:]
}

// Clear removes the cached results and nothing else
func (c *ResultCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Remove(ctx, store.KeyAnalysisResults); err != nil {
		if errors.Is(err, db.ErrUnavailable) {
			logger.Warning("Result store unavailable, nothing cleared")
			return nil
		}
		return fmt.Errorf("failed to clear results: %w", err)
	}
	return nil
}

// Find returns the cached result for a dataset
func (c *ResultCache) Find(ctx context.Context, datasetID string) (models.AnalysisResult, bool) {
	for _, r := range c.LoadAll(ctx) {
		if r.DatasetID == datasetID {
			return r, true
		}
	}
	return models.AnalysisResult{}, false
}
