package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/AI2HU/satlens/internal/logger"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/store"
)

// ErrNoDownload is returned for datasets without a data asset
var ErrNoDownload = errors.New("no download URL available for this dataset")

// DatasetSearcher finds datasets on the backend
type DatasetSearcher interface {
	SearchDatasets(ctx context.Context, q models.DatasetQuery) ([]models.Dataset, error)
}

// DatasetService runs the exploration flow: search, remember, download
type DatasetService struct {
	backend DatasetSearcher
	store   *store.Store
}

// NewDatasetService creates a new dataset service
func NewDatasetService(backend DatasetSearcher, s *store.Store) *DatasetService {
	return &DatasetService{backend: backend, store: s}
}

// Search queries the backend and starts a new exploration with the datasets found.
// Results and reports of the previous exploration are dropped.
func (s *DatasetService) Search(ctx context.Context, q models.DatasetQuery) ([]models.Dataset, error) {
	if err := q.Range().Validate(); err != nil {
		return nil, err
	}

	datasets, err := s.backend.SearchDatasets(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := s.store.Clear(ctx, store.ScopeExploration); err != nil {
		logger.Warning("Failed to clear previous exploration: %v", err)
	}
	if err := s.store.Put(ctx, store.KeyDatasets, datasets); err != nil {
		return nil, fmt.Errorf("failed to save datasets: %w", err)
	}
	params := models.AgriParams{Location: q.Location, DateRange: q.Range()}
	if err := s.store.Put(ctx, store.KeyAgriParams, params); err != nil {
		return nil, fmt.Errorf("failed to save search parameters: %w", err)
	}

	logger.Info("Found %d datasets for %s (%s to %s)", len(datasets), q.Location, q.DateFrom, q.DateTo)
	return datasets, nil
}

// List returns the datasets of the current exploration
func (s *DatasetService) List(ctx context.Context) []models.Dataset {
	var datasets []models.Dataset
	if !s.store.Load(ctx, store.KeyDatasets, &datasets) || datasets == nil {
		return []models.Dataset{}
	}
	return datasets
}

// Get returns one dataset of the current exploration
func (s *DatasetService) Get(ctx context.Context, id string) (models.Dataset, bool) {
	for _, ds := range s.List(ctx) {
		if ds.ID == id {
			return ds, true
		}
	}
	return models.Dataset{}, false
}

// Save replaces the datasets of the current exploration
func (s *DatasetService) Save(ctx context.Context, datasets []models.Dataset) error {
	if err := s.store.Put(ctx, store.KeyDatasets, datasets); err != nil {
		return fmt.Errorf("failed to save datasets: %w", err)
	}
	return nil
}

// Params returns the location and period of the current exploration
func (s *DatasetService) Params(ctx context.Context) (models.AgriParams, bool) {
	var params models.AgriParams
	ok := s.store.Load(ctx, store.KeyAgriParams, &params)
	return params, ok && params.Location != ""
}

// OutputFormat returns the preferred download format, empty meaning the default
func (s *DatasetService) OutputFormat(ctx context.Context) string {
	var format string
	s.store.Load(ctx, store.KeyOutputFormat, &format)
	return format
}

// SetOutputFormat stores the preferred download format
func (s *DatasetService) SetOutputFormat(ctx context.Context, format string) error {
	format = strings.TrimSpace(format)
	if format == "" {
		return s.store.Remove(ctx, store.KeyOutputFormat)
	}
	return s.store.Put(ctx, store.KeyOutputFormat, format)
}

// DownloadURL returns the data link of a dataset with the preferred format applied
func (s *DatasetService) DownloadURL(ctx context.Context, ds models.Dataset) (string, error) {
	return DownloadURL(ds, s.OutputFormat(ctx))
}

// DownloadURL adds the format query parameter to a dataset's data link
func DownloadURL(ds models.Dataset, format string) (string, error) {
	if ds.Assets.Data == "" {
		return "", ErrNoDownload
	}
	if format == "" {
		return ds.Assets.Data, nil
	}

	u, err := url.Parse(ds.Assets.Data)
	if err != nil {
		return "", fmt.Errorf("invalid data URL for %s: %w", ds.ID, err)
	}
	q := u.Query()
	q.Set("format", format)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
