package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AI2HU/satlens/internal/backend"
	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/logger"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/store"
)

// Report kinds, also used as object store prefixes
const (
	ReportAgriculture = "agriculture"
	ReportNightLights = "night-lights"
)

// ErrReportInputs is returned when the cache lacks what a report needs
var ErrReportInputs = errors.New("missing report inputs")

// ReportGenerator produces reports on the backend
type ReportGenerator interface {
	AgriReport(ctx context.Context, req backend.AgriReportRequest) (json.RawMessage, error)
	NightLightsReport(ctx context.Context, req backend.NightLightsReportRequest) (json.RawMessage, error)
}

// ReportMirror keeps copies of generated reports outside the store
type ReportMirror interface {
	PutReport(ctx context.Context, name string, data []byte) (string, error)
	GetReport(ctx context.Context, name string) ([]byte, error)
}

// ReportService assembles report requests from cached state and keeps the reports
type ReportService struct {
	backend ReportGenerator
	cache   resultLister
	store   *store.Store
	mirror  ReportMirror
}

// NewReportService creates a new report service. mirror may be nil.
func NewReportService(backend ReportGenerator, results resultLister, s *store.Store, mirror ReportMirror) *ReportService {
	return &ReportService{backend: backend, cache: results, store: s, mirror: mirror}
}

// AgricultureRequest builds the agriculture report input from cached state
func (s *ReportService) AgricultureRequest(ctx context.Context) (backend.AgriReportRequest, error) {
	req := backend.AgriReportRequest{Datasets: []models.Dataset{}}
	s.store.Load(ctx, store.KeyDatasets, &req.Datasets)

	var params models.AgriParams
	if s.store.Load(ctx, store.KeyAgriParams, &params) {
		req.Location = params.Location
		req.DateRange = params.DateRange
	}

	req.SingleResults = AgricultureResults(s.cache.LoadAll(ctx))
	if len(req.SingleResults) == 0 {
		return req, fmt.Errorf("%w: no agriculture results", ErrReportInputs)
	}

	var series SeriesResults
	if !s.store.Load(ctx, store.KeySeriesResults, &series) || len(series.Results) == 0 || series.Results[0].Series == nil {
		return req, fmt.Errorf("%w: no time-series analysis", ErrReportInputs)
	}
	req.Series = series.Results[0].Series
	req.Anomalies = nonNil(req.Series.Anomalies())
	req.Breakpoints = nonNil(req.Series.Breakpoints())
	return req, nil
}

// NightLightsRequest builds the night-lights report input from cached state
func (s *ReportService) NightLightsRequest(ctx context.Context) (backend.NightLightsReportRequest, error) {
	req := backend.NightLightsReportRequest{}
	if !s.store.Load(ctx, store.KeyDatasets, &req.Datasets) || len(req.Datasets) == 0 {
		return req, fmt.Errorf("%w: no datasets", ErrReportInputs)
	}

	for _, r := range s.cache.LoadAll(ctx) {
		if r.HasPrefix(models.AnalysisNightLights) {
			req.AnalysisResults = append(req.AnalysisResults, r)
		}
	}
	if len(req.AnalysisResults) == 0 {
		return req, fmt.Errorf("%w: no night-lights results", ErrReportInputs)
	}
	return req, nil
}

// GenerateAgriculture requests the agriculture report and stores it verbatim
func (s *ReportService) GenerateAgriculture(ctx context.Context) (json.RawMessage, error) {
	req, err := s.AgricultureRequest(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.backend.AgriReport(ctx, req)
	if err != nil {
		return nil, err
	}
	return report, s.keep(ctx, ReportAgriculture, store.KeyAgriReport, report)
}

// GenerateNightLights requests the night-lights report and stores it verbatim
func (s *ReportService) GenerateNightLights(ctx context.Context) (json.RawMessage, error) {
	req, err := s.NightLightsRequest(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.backend.NightLightsReport(ctx, req)
	if err != nil {
		return nil, err
	}
	return report, s.keep(ctx, ReportNightLights, store.KeyNightLightsReport, report)
}

func (s *ReportService) keep(ctx context.Context, kind, key string, report json.RawMessage) error {
	if err := s.store.PutRaw(ctx, key, report); err != nil {
		return fmt.Errorf("failed to store %s report: %w", kind, err)
	}

	if s.mirror != nil {
		objectKey, err := s.mirror.PutReport(ctx, kind, report)
		if err != nil {
			logger.Warning("Failed to mirror %s report: %v", kind, err)
			return nil
		}
		logger.Info("Mirrored %s report to %s", kind, objectKey)
	}
	return nil
}

// Get returns the last stored report of a kind. The mirror is consulted when
// the store has none.
func (s *ReportService) Get(ctx context.Context, kind string) (json.RawMessage, error) {
	key, err := reportKey(kind)
	if err != nil {
		return nil, err
	}

	var report json.RawMessage
	if s.store.Load(ctx, key, &report) && len(report) > 0 {
		return report, nil
	}

	if s.mirror != nil {
		data, err := s.mirror.GetReport(ctx, kind)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			logger.Warning("Failed to read mirrored %s report: %v", kind, err)
		}
	}
	return nil, fmt.Errorf("%s report: %w", kind, db.ErrNotFound)
}

func reportKey(kind string) (string, error) {
	switch kind {
	case ReportAgriculture:
		return store.KeyAgriReport, nil
	case ReportNightLights:
		return store.KeyNightLightsReport, nil
	}
	return "", fmt.Errorf("unknown report kind %q", kind)
}

func nonNil(idx []int) []int {
	if idx == nil {
		return []int{}
	}
	return idx
}
