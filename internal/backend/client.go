// Package backend is the HTTP client of the external analysis backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/AI2HU/satlens/internal/config"
	"github.com/AI2HU/satlens/internal/logger"
	"github.com/AI2HU/satlens/internal/models"
)

// Backend endpoints
const (
	PathAnalyse           = "/api/analyse"
	PathAnalyseAll        = "/api/analyse-all-nights"
	PathDatasets          = "/api/agri/datasets"
	PathAgriReport        = "/report/agri"
	PathNightLightsReport = "/report/night-lights"
)

// RequestIDHeader carries the id used to correlate logs with the backend
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a failed response is kept in the error
const maxErrorBody = 4 << 10

// Error is a non-2xx response from the backend
type Error struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is a backend error with the given status code
func IsStatus(err error, code int) bool {
	var be *Error
	return errors.As(err, &be) && be.StatusCode == code
}

// Client calls the analysis backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// New creates a client from the backend configuration
func New(cfg config.BackendConfig) *Client {
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{},
		limiter: rate.NewLimiter(limit, burst),
		timeout: cfg.Timeout,
	}
}

// Timeout returns the per-request timeout, zero meaning none
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Analyse runs one analysis job
func (c *Client) Analyse(ctx context.Context, job models.AnalysisJob) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := c.post(ctx, PathAnalyse, job, &result); err != nil {
		return nil, fmt.Errorf("failed to analyse %s: %w", job.DatasetID, err)
	}
	if result.DatasetID == "" {
		result.DatasetID = job.DatasetID
	}
	if result.Analysis == "" {
		result.Analysis = job.Analysis
	}
	return &result, nil
}

// AnalyseAll runs a batch of jobs. The backend answers either {"results": [...]}
// or a bare array; anything else yields no results.
func (c *Client) AnalyseAll(ctx context.Context, jobs []models.AnalysisJob) ([]models.AnalysisResult, error) {
	var raw json.RawMessage
	if err := c.post(ctx, PathAnalyseAll, map[string]any{"jobs": jobs}, &raw); err != nil {
		return nil, fmt.Errorf("failed to analyse %d jobs: %w", len(jobs), err)
	}

	results, err := decodeBatch(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode batch results: %w", err)
	}
	return results, nil
}

func decodeBatch(raw json.RawMessage) ([]models.AnalysisResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []models.AnalysisResult{}, nil
	}

	switch trimmed[0] {
	case '[':
		var results []models.AnalysisResult
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return nil, err
		}
		return results, nil
	case '{':
		var wrapped struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		if len(wrapped.Results) == 0 || wrapped.Results[0] != '[' {
			return []models.AnalysisResult{}, nil
		}
		var results []models.AnalysisResult
		if err := json.Unmarshal(wrapped.Results, &results); err != nil {
			return nil, err
		}
		return results, nil
	default:
		return []models.AnalysisResult{}, nil
	}
}

// SearchDatasets lists the datasets covering a location and period
func (c *Client) SearchDatasets(ctx context.Context, q models.DatasetQuery) ([]models.Dataset, error) {
	var resp struct {
		Datasets []models.Dataset `json:"datasets"`
	}
	if err := c.post(ctx, PathDatasets, q, &resp); err != nil {
		return nil, fmt.Errorf("failed to search datasets for %s: %w", q.Location, err)
	}
	if resp.Datasets == nil {
		resp.Datasets = []models.Dataset{}
	}
	return resp.Datasets, nil
}

// AgriReportRequest is the input of the agriculture report
type AgriReportRequest struct {
	Datasets      []models.Dataset        `json:"datasets"`
	Location      string                  `json:"location"`
	DateRange     models.DateRange        `json:"date_range"`
	SingleResults []models.AnalysisResult `json:"singleResults"`
	Series        *models.Series          `json:"series"`
	Anomalies     []int                   `json:"anomalies"`
	Breakpoints   []int                   `json:"breakpoints"`
}

// NightLightsReportRequest is the input of the night-lights report
type NightLightsReportRequest struct {
	Datasets        []models.Dataset        `json:"datasets"`
	AnalysisResults []models.AnalysisResult `json:"analysisResults"`
}

// AgriReport generates the agriculture report. The body is returned verbatim.
func (c *Client) AgriReport(ctx context.Context, req AgriReportRequest) (json.RawMessage, error) {
	var report json.RawMessage
	if err := c.post(ctx, PathAgriReport, req, &report); err != nil {
		return nil, fmt.Errorf("failed to generate agriculture report: %w", err)
	}
	return report, nil
}

// NightLightsReport generates the night-lights report. The body is returned verbatim.
func (c *Client) NightLightsReport(ctx context.Context, req NightLightsReportRequest) (json.RawMessage, error) {
	var report json.RawMessage
	if err := c.post(ctx, PathNightLightsReport, req, &report); err != nil {
		return nil, fmt.Errorf("failed to generate night-lights report: %w", err)
	}
	return report, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	logger.Debug("POST %s -> %d in %s (request %s)", path, resp.StatusCode, time.Since(start).Round(time.Millisecond), requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data), RequestID: requestID}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// errorMessage prefers the backend's "error" then "message" field, then the raw text
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && !json.Valid(body) {
		return text
	}
	return fmt.Sprintf("request failed with status %d", status)
}
