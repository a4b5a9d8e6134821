package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/logger"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/store"
)

// MaxResourceHistory is the number of forest-cover samples kept per location
const MaxResourceHistory = 12

// ResourceService keeps the latest natural-resources result and a short
// forest-cover history per location
type ResourceService struct {
	store *store.Store
	now   func() time.Time
}

// NewResourceService creates a new resource service
func NewResourceService(s *store.Store) *ResourceService {
	return &ResourceService{store: s, now: time.Now}
}

// Record stores r as the latest result and appends its forest cover to the
// location history
func (s *ResourceService) Record(ctx context.Context, r models.ResourceResult) ([]models.ResourceSample, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, store.KeyNaturalResourcesResult, r); err != nil {
		return nil, fmt.Errorf("failed to save natural resources result: %w", err)
	}

	history := s.History(ctx, r.Location)
	history = append(history, models.ResourceSample{
		T: s.now().UnixMilli(),
		V: r.ForestSegmentationPercentage,
	})
	if len(history) > MaxResourceHistory {
		history = history[len(history)-MaxResourceHistory:]
	}

	if err := s.store.Put(ctx, store.ResourceHistoryKey(r.Location), history); err != nil {
		// the result itself is saved; a lost sample only shortens the chart
		logger.Warning("Failed to save forest history for %s: %v", r.Location, err)
	}
	return history, nil
}

// Latest returns the stored result. An unreadable value is removed.
func (s *ResourceService) Latest(ctx context.Context) (*models.ResourceResult, error) {
	var r models.ResourceResult
	err := s.store.Get(ctx, store.KeyNaturalResourcesResult, &r)
	switch {
	case err == nil:
		return &r, nil
	case errors.Is(err, store.ErrAbsent):
		return nil, fmt.Errorf("natural resources result: %w", db.ErrNotFound)
	case errors.Is(err, db.ErrUnavailable):
		return nil, err
	}

	logger.Warning("Removing unreadable natural resources result: %v", err)
	if rmErr := s.store.Remove(ctx, store.KeyNaturalResourcesResult); rmErr != nil {
		logger.Warning("Failed to remove natural resources result: %v", rmErr)
	}
	return nil, fmt.Errorf("natural resources result: %w", db.ErrNotFound)
}

// History returns the forest-cover samples of a location, oldest first
func (s *ResourceService) History(ctx context.Context, location string) []models.ResourceSample {
	var history []models.ResourceSample
	if !s.store.Load(ctx, store.ResourceHistoryKey(location), &history) || history == nil {
		return []models.ResourceSample{}
	}
	return history
}
