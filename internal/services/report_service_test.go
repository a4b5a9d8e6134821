package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/store"
)

func TestAgricultureReport_MissingInputs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	be := &fakeBackend{report: json.RawMessage(`{}`)}
	svc := NewReportService(be, f.cache, f.store, nil)

	_, err := svc.GenerateAgriculture(ctx)
	require.ErrorIs(t, err, ErrReportInputs)

	require.NoError(t, f.cache.Upsert(ctx, agriResult("a", "2024-01-01", 0.4)))
	_, err = svc.GenerateAgriculture(ctx)
	require.ErrorIs(t, err, ErrReportInputs)
	assert.Nil(t, be.agriReq)
}

func TestAgricultureReport_StoresVerbatim(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	seedAgriculture(t, f)
	require.NoError(t, f.store.Put(ctx, store.KeyDatasets, []models.Dataset{{ID: "a"}, {ID: "b"}}))

	report := json.RawMessage(`{"title":"Pune crops","sections":[{"h":"NDVI","body":"ok"}]}`)
	be := &fakeBackend{report: report}
	mirror := &fakeMirror{}
	svc := NewReportService(be, f.cache, f.store, mirror)

	got, err := svc.GenerateAgriculture(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, string(report), string(got))

	require.NotNil(t, be.agriReq)
	assert.Equal(t, "Pune", be.agriReq.Location)
	assert.Equal(t, "2024-01-01", be.agriReq.DateRange.From)
	assert.Len(t, be.agriReq.Datasets, 2)
	require.Len(t, be.agriReq.SingleResults, 2)
	assert.Equal(t, "a", be.agriReq.SingleResults[0].DatasetID)
	assert.Equal(t, []int{1}, be.agriReq.Anomalies)
	assert.Equal(t, []int{3}, be.agriReq.Breakpoints)

	stored, err := svc.Get(ctx, ReportAgriculture)
	require.NoError(t, err)
	assert.JSONEq(t, string(report), string(stored))
	assert.JSONEq(t, string(report), string(mirror.reports[ReportAgriculture]))
}

func TestNightLightsReport_FiltersResults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	be := &fakeBackend{report: json.RawMessage(`{"summary":"bright"}`)}
	svc := NewReportService(be, f.cache, f.store, nil)

	_, err := svc.GenerateNightLights(ctx)
	require.ErrorIs(t, err, ErrReportInputs)

	require.NoError(t, f.store.Put(ctx, store.KeyDatasets, []models.Dataset{{ID: "night_lights_1"}}))
	require.NoError(t, f.cache.UpsertBatch(ctx, []models.AnalysisResult{
		agriResult("field", "2024-01-01", 0.5),
		{DatasetID: "night_lights_1", Analysis: models.AnalysisNightLights},
	}))

	_, err = svc.GenerateNightLights(ctx)
	require.NoError(t, err)
	require.NotNil(t, be.nightReq)
	require.Len(t, be.nightReq.AnalysisResults, 1)
	assert.Equal(t, "night_lights_1", be.nightReq.AnalysisResults[0].DatasetID)

	stored, err := svc.Get(ctx, ReportNightLights)
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"bright"}`, string(stored))
}

func TestReport_BackendErrorKeepsPrevious(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Put(ctx, store.KeyDatasets, []models.Dataset{{ID: "night_lights_1"}}))
	require.NoError(t, f.cache.Upsert(ctx, models.AnalysisResult{DatasetID: "night_lights_1", Analysis: models.AnalysisNightLights}))
	require.NoError(t, f.store.PutRaw(ctx, store.KeyNightLightsReport, json.RawMessage(`{"v":1}`)))

	boom := errors.New("report service down")
	svc := NewReportService(&fakeBackend{err: boom}, f.cache, f.store, nil)

	_, err := svc.GenerateNightLights(ctx)
	require.ErrorIs(t, err, boom)

	stored, err := svc.Get(ctx, ReportNightLights)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(stored))
}

func TestReport_Get(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	mirror := &fakeMirror{reports: map[string][]byte{ReportNightLights: []byte(`{"from":"mirror"}`)}}
	svc := NewReportService(&fakeBackend{}, f.cache, f.store, mirror)

	got, err := svc.Get(ctx, ReportNightLights)
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"mirror"}`, string(got))

	_, err = svc.Get(ctx, ReportAgriculture)
	require.ErrorIs(t, err, db.ErrNotFound)

	_, err = svc.Get(ctx, "weather")
	require.Error(t, err)
	assert.NotErrorIs(t, err, db.ErrNotFound)
}

func TestReport_MirrorFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Put(ctx, store.KeyDatasets, []models.Dataset{{ID: "night_lights_1"}}))
	require.NoError(t, f.cache.Upsert(ctx, models.AnalysisResult{DatasetID: "night_lights_1", Analysis: models.AnalysisNightLights}))

	svc := NewReportService(&fakeBackend{report: json.RawMessage(`[]`)}, f.cache, f.store, &fakeMirror{err: errors.New("bucket gone")})
	_, err := svc.GenerateNightLights(ctx)
	require.NoError(t, err)
}
