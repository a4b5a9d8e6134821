package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AI2HU/satlens/internal/backend"
	"github.com/AI2HU/satlens/internal/cache"
	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/db/memory"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/store"
)

type fixture struct {
	kv    *memory.Store
	store *store.Store
	cache *cache.ResultCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := memory.New(0)
	s := store.New(kv)
	return &fixture{kv: kv, store: s, cache: cache.New(s)}
}

func agriResult(id, ts string, mean float64) models.AnalysisResult {
	return models.AnalysisResult{
		DatasetID: id,
		Analysis:  models.AnalysisAgricultureHotspot,
		Timestamp: ts,
		Stats:     models.Stats{"NDVI_mean": mean, "NDVI_min": mean - 0.2, "NDVI_max": mean + 0.2},
		Distribution: &models.Distribution{Buckets: []models.Bucket{
			{Mean: 0.2, Count: 2},
			{Mean: 0.5, Count: 4},
			{Mean: 0.7, Count: 2},
			{Mean: 0.9, Count: 2},
		}},
	}
}

func decodeSeries(t *testing.T, raw string) *models.Series {
	t.Helper()
	var s models.Series
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	return &s
}

// fakeBackend answers analysis and report calls from canned values
type fakeBackend struct {
	mu       sync.Mutex
	results  map[string]models.AnalysisResult
	err      error
	jobs     []models.AnalysisJob
	block    chan struct{}
	entered  chan struct{}
	datasets []models.Dataset
	report   json.RawMessage

	agriReq  *backend.AgriReportRequest
	nightReq *backend.NightLightsReportRequest
}

func (f *fakeBackend) wait(ctx context.Context) error {
	if f.entered != nil {
		close(f.entered)
	}
	if f.block == nil {
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) Analyse(ctx context.Context, job models.AnalysisJob) (*models.AnalysisResult, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	rs, err := f.AnalyseAll(ctx, []models.AnalysisJob{job})
	if err != nil {
		return nil, err
	}
	return &rs[0], nil
}

func (f *fakeBackend) AnalyseAll(ctx context.Context, jobs []models.AnalysisJob) ([]models.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.jobs = append(f.jobs, jobs...)

	out := make([]models.AnalysisResult, 0, len(jobs))
	for _, j := range jobs {
		r, ok := f.results[j.DatasetID]
		if !ok {
			r = models.AnalysisResult{DatasetID: j.DatasetID, Analysis: j.Analysis, Timestamp: "2024-01-01T00:00:00Z"}
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeBackend) SearchDatasets(ctx context.Context, q models.DatasetQuery) ([]models.Dataset, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.datasets, nil
}

func (f *fakeBackend) AgriReport(ctx context.Context, req backend.AgriReportRequest) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.agriReq = &req
	return f.report, nil
}

func (f *fakeBackend) NightLightsReport(ctx context.Context, req backend.NightLightsReportRequest) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nightReq = &req
	return f.report, nil
}

// fakeMirror keeps reports in a map
type fakeMirror struct {
	reports map[string][]byte
	err     error
}

func (m *fakeMirror) PutReport(ctx context.Context, name string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.reports == nil {
		m.reports = make(map[string][]byte)
	}
	m.reports[name] = append([]byte(nil), data...)
	return fmt.Sprintf("reports/%s/latest.json", name), nil
}

func (m *fakeMirror) GetReport(ctx context.Context, name string) ([]byte, error) {
	data, ok := m.reports[name]
	if !ok {
		return nil, db.ErrNotFound
	}
	return data, nil
}
