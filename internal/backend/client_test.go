package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/satlens/internal/config"
	"github.com/AI2HU/satlens/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.BackendConfig{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
}

func TestAnalyse(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathAnalyse, r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		var job models.AnalysisJob
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&job))
		assert.Equal(t, "night_lights_2023", job.DatasetID)
		assert.Equal(t, "s3://bucket/nl.tif", job.Assets.Data)

		_, _ = w.Write([]byte(`{"dataset_id":"night_lights_2023","analysis":"night_lights","stats":{"mean":2.5}}`))
	})

	ds := models.Dataset{ID: "night_lights_2023", Assets: models.Assets{Data: "s3://bucket/nl.tif"}}
	got, err := c.Analyse(context.Background(), ds.Job(models.AnalysisNightLights))
	require.NoError(t, err)
	assert.Equal(t, "night_lights_2023", got.DatasetID)
	assert.InDelta(t, 2.5, got.Stats["mean"], 1e-12)
}

func TestAnalyse_ErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error":"dataset not found","message":"ignored"}`, "dataset not found"},
		{"message field", `{"message":"bad asset"}`, "bad asset"},
		{"plain text", `upstream exploded`, "upstream exploded"},
		{"empty", ``, "request failed with status 422"},
		{"json without text", `{"code":1}`, "request failed with status 422"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Analyse(context.Background(), models.AnalysisJob{DatasetID: "x", Analysis: "night_lights"})
			var be *Error
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.want, be.Message)
			assert.True(t, IsStatus(err, http.StatusUnprocessableEntity))
		})
	}
}

func TestAnalyseAll_AcceptsBothShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want []string
	}{
		{"wrapped", `{"results":[{"dataset_id":"a"},{"dataset_id":"b"}]}`, []string{"a", "b"}},
		{"bare array", `[{"dataset_id":"c"}]`, []string{"c"}},
		{"wrapped null", `{"results":null}`, []string{}},
		{"unexpected", `{"status":"ok"}`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					Jobs []models.AnalysisJob `json:"jobs"`
				}
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Len(t, body.Jobs, 2)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := c.AnalyseAll(context.Background(), []models.AnalysisJob{{DatasetID: "a"}, {DatasetID: "b"}})
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.DatasetID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSearchDatasets(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathDatasets, r.URL.Path)
		var q models.DatasetQuery
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, "Pune", q.Location)
		_, _ = w.Write([]byte(`{"datasets":[{"id":"agri_1","lat":18.5,"lon":73.8,"assets":{"data":"x.tif"}}]}`))
	})

	got, err := c.SearchDatasets(context.Background(), models.DatasetQuery{Location: "Pune", DateFrom: "2024-01-01", DateTo: "2024-02-01"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "agri_1", got[0].ID)
	assert.Equal(t, "x.tif", got[0].Assets.Data)
}

func TestReportsAreReturnedVerbatim(t *testing.T) {
	t.Parallel()

	const report = `{"title":"Night lights","sections":[{"h":"Summary","body":"ok"}]}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(report))
	})

	got, err := c.NightLightsReport(context.Background(), NightLightsReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, report, string(got))

	got, err = c.AgriReport(context.Background(), AgriReportRequest{Location: "Pune"})
	require.NoError(t, err)
	assert.Equal(t, report, string(got))
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := New(config.BackendConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Analyse(context.Background(), models.AnalysisJob{DatasetID: "slow"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
