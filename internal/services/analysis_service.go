package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/AI2HU/satlens/internal/cache"
	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/logger"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/store"
	"github.com/AI2HU/satlens/internal/telemetry"
)

// ErrBusy is returned while another analysis request is outstanding
var ErrBusy = errors.New("an analysis request is already running")

// ErrNoDatasets is returned when a batch is requested with nothing to analyse
var ErrNoDatasets = errors.New("no datasets to analyse")

// Analyser runs analyses on the external backend
type Analyser interface {
	Analyse(ctx context.Context, job models.AnalysisJob) (*models.AnalysisResult, error)
	AnalyseAll(ctx context.Context, jobs []models.AnalysisJob) ([]models.AnalysisResult, error)
}

// AnalysisOutcome is what an analysis request produced. Warning is set when
// the results could not be kept in the cache.
type AnalysisOutcome struct {
	Results []models.AnalysisResult `json:"results"`
	Warning string                  `json:"warning,omitempty"`
}

// AnalysisService sends analysis jobs to the backend one request at a time
// and keeps the results.
type AnalysisService struct {
	backend Analyser
	cache   *cache.ResultCache
	store   *store.Store
	archive db.ArchiveDatabase
	metrics *telemetry.Metrics
	timeout time.Duration
	busy    atomic.Bool
}

// NewAnalysisService creates a new analysis service. archive and metrics may be nil.
func NewAnalysisService(backend Analyser, c *cache.ResultCache, s *store.Store, archive db.ArchiveDatabase, metrics *telemetry.Metrics, timeout time.Duration) *AnalysisService {
	if metrics != nil {
		c.SetObserver(metrics)
	}
	return &AnalysisService{
		backend: backend,
		cache:   c,
		store:   s,
		archive: archive,
		metrics: metrics,
		timeout: timeout,
	}
}

// Busy reports whether a request is outstanding
func (s *AnalysisService) Busy() bool {
	return s.busy.Load()
}

// acquire takes the busy gate. The returned func releases it.
func (s *AnalysisService) acquire() (func(), error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return func() { s.busy.Store(false) }, nil
}

func (s *AnalysisService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// AnalyseOne runs a single job and upserts its result
func (s *AnalysisService) AnalyseOne(ctx context.Context, job models.AnalysisJob) (*AnalysisOutcome, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	result, err := s.backend.Analyse(ctx, job)
	s.observeBackend("analyse", start, err)
	if err != nil {
		return nil, err
	}

	outcome := &AnalysisOutcome{Results: []models.AnalysisResult{*result}}
	if err := s.keep(ctx, outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

// AnalyseDatasets runs a batch over datasets. With no datasets given, the
// stored exploration datasets are used. choices maps a dataset id to its
// analysis type; datasets without a choice get fallback.
func (s *AnalysisService) AnalyseDatasets(ctx context.Context, datasets []models.Dataset, choices map[string]string, fallback string) (*AnalysisOutcome, error) {
	if len(datasets) == 0 {
		s.store.Load(ctx, store.KeyDatasets, &datasets)
	}
	if len(datasets) == 0 {
		return nil, ErrNoDatasets
	}
	if fallback == "" {
		fallback = models.AnalysisNightLights
	}

	jobs := make([]models.AnalysisJob, len(datasets))
	for i, ds := range datasets {
		analysis := choices[ds.ID]
		if analysis == "" {
			analysis = fallback
		}
		jobs[i] = ds.Job(analysis)
	}
	return s.AnalyseAll(ctx, jobs)
}

// AnalyseAll runs a batch of jobs and upserts every result
func (s *AnalysisService) AnalyseAll(ctx context.Context, jobs []models.AnalysisJob) (*AnalysisOutcome, error) {
	if len(jobs) == 0 {
		return nil, ErrNoDatasets
	}

	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	results, err := s.backend.AnalyseAll(ctx, jobs)
	s.observeBackend("analyse_all", start, err)
	if err != nil {
		return nil, err
	}
	logger.Info("Backend returned %d results for %d jobs", len(results), len(jobs))

	outcome := &AnalysisOutcome{Results: results}
	if err := s.keep(ctx, outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

// keep upserts results into the cache and archives them. A write abandoned
// for quota becomes a warning on the outcome.
func (s *AnalysisService) keep(ctx context.Context, outcome *AnalysisOutcome) error {
	if err := s.cache.UpsertBatch(ctx, outcome.Results); err != nil {
		if !errors.Is(err, cache.ErrPersistAbandoned) {
			return fmt.Errorf("failed to cache results: %w", err)
		}
		outcome.Warning = "results were not saved: storage is full"
		logger.Warning("Results not cached: %v", err)
	}
	if s.metrics != nil {
		s.metrics.CachedResults(len(s.cache.LoadAll(ctx)))
	}

	s.archiveResults(ctx, outcome.Results)
	return nil
}

// archiveResults writes results to the archive. Failures are logged only.
func (s *AnalysisService) archiveResults(ctx context.Context, results []models.AnalysisResult) {
	if s.archive == nil {
		return
	}
	for _, r := range results {
		rec, err := NewArchivedResult(r, "analysis")
		if err != nil {
			logger.Warning("Skipping archive of %s: %v", r.DatasetID, err)
			continue
		}
		if err := s.archive.ArchiveResult(ctx, rec); err != nil {
			logger.Warning("Failed to archive result %s: %v", r.DatasetID, err)
		}
	}
}

func (s *AnalysisService) observeBackend(op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.BackendCall(op, start, err)
	}
	if err != nil {
		logger.Error("Backend %s failed after %s: %v", op, time.Since(start).Round(time.Millisecond), err)
	}
}

// NewArchivedResult builds the archive record of a result
func NewArchivedResult(r models.AnalysisResult, source string) (*models.ArchivedResult, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	ts := r.Time()
	if ts.IsZero() {
		ts = time.Now()
	}

	return &models.ArchivedResult{
		ID:        uuid.New().String(),
		DatasetID: r.DatasetID,
		Analysis:  r.Analysis,
		Timestamp: ts,
		Stats:     r.Stats,
		Payload:   string(payload),
		Source:    source,
	}, nil
}

// ListResults returns the cached results, oldest first
func (s *AnalysisService) ListResults(ctx context.Context) []models.AnalysisResult {
	return s.cache.LoadAll(ctx)
}

// GetResult returns the cached result of a dataset
func (s *AnalysisService) GetResult(ctx context.Context, datasetID string) (models.AnalysisResult, error) {
	r, ok := s.cache.Find(ctx, datasetID)
	if !ok {
		return models.AnalysisResult{}, fmt.Errorf("result %s: %w", datasetID, db.ErrNotFound)
	}
	return r, nil
}

// UpsertResults stores externally produced results as if the backend had returned them
func (s *AnalysisService) UpsertResults(ctx context.Context, results []models.AnalysisResult) (*AnalysisOutcome, error) {
	outcome := &AnalysisOutcome{Results: results}
	if err := s.keep(ctx, outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

// ClearResults removes cached results only
func (s *AnalysisService) ClearResults(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

// SeriesResults is the stored output of the agriculture time-series analysis
type SeriesResults struct {
	Results []models.AnalysisResult `json:"results"`
}

// SaveSeries stores the time-series analysis output
func (s *AnalysisService) SaveSeries(ctx context.Context, series SeriesResults) error {
	if err := s.store.Put(ctx, store.KeySeriesResults, series); err != nil {
		return fmt.Errorf("failed to save series results: %w", err)
	}
	return nil
}

// LoadSeries returns the first stored time-series result that carries a series
func (s *AnalysisService) LoadSeries(ctx context.Context) (*models.AnalysisResult, bool) {
	var series SeriesResults
	if !s.store.Load(ctx, store.KeySeriesResults, &series) {
		return nil, false
	}
	if len(series.Results) == 0 || series.Results[0].Series == nil {
		return nil, false
	}
	return &series.Results[0], true
}
