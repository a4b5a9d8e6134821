package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/AI2HU/satlens/internal/geo"
	"github.com/AI2HU/satlens/internal/metrics"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/store"
)

// Time windows of the agriculture series chart
const (
	RangeAll       = "all"
	RangeOneMonth  = "1m"
	RangeThreeMon  = "3m"
	RangeSixMonths = "6m"
)

// TopAnomalies is the number of residual anomalies shown on the night-lights dashboard
const TopAnomalies = 3

// AgriRow is one agriculture result with its derived labels
type AgriRow struct {
	DatasetID          string              `json:"dataset_id"`
	Timestamp          string              `json:"timestamp"`
	Date               string              `json:"date"`
	Stats              models.Stats        `json:"stats"`
	Percentiles        *models.Percentiles `json:"percentiles,omitempty"`
	Assets             *models.Assets      `json:"assets,omitempty"`
	Health             metrics.Health      `json:"health"`
	HighNDVIPercentage *float64            `json:"high_ndvi_percentage"`
}

// AgriStats are the headline figures of the latest agriculture result
type AgriStats struct {
	CurrentNDVI   float64        `json:"current_ndvi"`
	Health        metrics.Health `json:"health"`
	MinNDVI       *float64       `json:"min_ndvi,omitempty"`
	MaxNDVI       *float64       `json:"max_ndvi,omitempty"`
	Change        *float64       `json:"change"`
	AnalysisCount int            `json:"analysis_count"`
	LastUpdated   string         `json:"last_updated"`
}

// SeriesRow is one step of the NDVI series chart
type SeriesRow struct {
	Date       string   `json:"date"`
	NDVI       *float64 `json:"ndvi"`
	Trend      *float64 `json:"trend"`
	Anomaly    bool     `json:"is_anomaly"`
	Breakpoint bool     `json:"is_breakpoint"`
}

// DistributionRow is one bar of the NDVI distribution chart
type DistributionRow struct {
	NDVI      float64 `json:"ndvi"`
	Count     float64 `json:"count"`
	TrueCount float64 `json:"true_count"`
	Range     string  `json:"range"`
}

// ComparisonRow compares the spread of each agriculture result
type ComparisonRow struct {
	Date   string   `json:"date"`
	Mean   float64  `json:"mean"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Range  *float64 `json:"range,omitempty"`
	StdDev *float64 `json:"std_dev,omitempty"`
}

// AgricultureDashboard is everything the agriculture dashboard renders
type AgricultureDashboard struct {
	Params       *models.AgriParams `json:"params,omitempty"`
	Results      []AgriRow          `json:"results"`
	Stats        *AgriStats         `json:"stats"`
	Selected     string             `json:"selected,omitempty"`
	Series       []SeriesRow        `json:"series"`
	Distribution []DistributionRow  `json:"distribution"`
	Comparison   []ComparisonRow    `json:"comparison"`
	Summary      string             `json:"summary"`
}

// NightLightsKPIs are the changes between the first and last observation
type NightLightsKPIs struct {
	AvgRadiance       *float64 `json:"avg_radiance"`
	AvgRadianceChange *float64 `json:"avg_radiance_change"`
	LitArea           *float64 `json:"lit_area_km2"`
	LitAreaChange     *float64 `json:"lit_area_change"`
	PctBright         *float64 `json:"pct_bright"`
	PctBrightChange   *float64 `json:"pct_bright_change"`
}

// NightLightsDashboard is everything the night-lights dashboard renders
type NightLightsDashboard struct {
	DatasetID string             `json:"dataset_id,omitempty"`
	Center    geo.LatLon         `json:"center"`
	Series    *models.Series     `json:"series,omitempty"`
	Trend     []*float64         `json:"trend"`
	Unlit     []float64          `json:"unlit"`
	KPIs      NightLightsKPIs    `json:"kpis"`
	Anomalies []metrics.Residual `json:"anomalies"`
	Hex       geo.HexLayer       `json:"hex"`
	View      geo.View           `json:"view"`
}

// DashboardService derives dashboard views from cached results
type DashboardService struct {
	cache     resultLister
	store     *store.Store
	projector geo.Projector
	now       func() time.Time
}

type resultLister interface {
	LoadAll(ctx context.Context) []models.AnalysisResult
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(results resultLister, s *store.Store, projector geo.Projector) *DashboardService {
	return &DashboardService{cache: results, store: s, projector: projector, now: time.Now}
}

// AgricultureResults returns the agriculture results with an NDVI mean, oldest first
func AgricultureResults(results []models.AnalysisResult) []models.AnalysisResult {
	out := make([]models.AnalysisResult, 0, len(results))
	for _, r := range results {
		if r.Analysis != models.AnalysisAgricultureHotspot {
			continue
		}
		if _, ok := r.Stats.Value("NDVI_mean"); !ok {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time().Before(out[j].Time())
	})
	return out
}

// Agriculture builds the agriculture dashboard. selected picks the result
// whose distribution is charted; empty means the latest. timeRange filters the
// series chart.
func (s *DashboardService) Agriculture(ctx context.Context, selected, timeRange string) (*AgricultureDashboard, error) {
	since, err := s.rangeStart(timeRange)
	if err != nil {
		return nil, err
	}

	results := AgricultureResults(s.cache.LoadAll(ctx))
	dash := &AgricultureDashboard{
		Results:      make([]AgriRow, 0, len(results)),
		Series:       []SeriesRow{},
		Distribution: []DistributionRow{},
		Comparison:   make([]ComparisonRow, 0, len(results)),
	}

	var params models.AgriParams
	if s.store.Load(ctx, store.KeyAgriParams, &params) && params.Location != "" {
		dash.Params = &params
	}

	means := make([]float64, 0, len(results))
	var chosen *models.AnalysisResult
	for i := range results {
		r := &results[i]
		mean, _ := r.Stats.Value("NDVI_mean")
		means = append(means, mean)

		row := AgriRow{
			DatasetID:   r.DatasetID,
			Timestamp:   r.Timestamp,
			Date:        displayDate(r),
			Stats:       r.Stats,
			Percentiles: r.Percentiles,
			Assets:      r.Assets,
			Health:      metrics.ClassifyHealth(mean),
		}
		if r.Distribution != nil {
			row.HighNDVIPercentage = metrics.HighFractionAbove(metrics.HighNDVIThreshold, r.Distribution.Histogram(), r.Distribution.BucketMeans())
		}
		dash.Results = append(dash.Results, row)
		dash.Comparison = append(dash.Comparison, comparisonRow(row.Date, r.Stats))

		if r.DatasetID == selected {
			chosen = r
		}
	}

	if len(results) > 0 {
		latest := results[len(results)-1]
		if chosen == nil {
			if selected != "" {
				return nil, fmt.Errorf("agriculture result %s not found", selected)
			}
			chosen = &latest
		}

		current := means[len(means)-1]
		dash.Stats = &AgriStats{
			CurrentNDVI:   current,
			Health:        metrics.ClassifyHealth(current),
			MinNDVI:       statPtr(latest.Stats, "NDVI_min"),
			MaxNDVI:       statPtr(latest.Stats, "NDVI_max"),
			Change:        metrics.LatestChange(means),
			AnalysisCount: len(results),
			LastUpdated:   displayDate(&latest),
		}
		dash.Selected = chosen.DatasetID
		dash.Distribution = distributionRows(chosen.Distribution)
	}

	var seriesResult models.AnalysisResult
	var series SeriesResults
	hasSeries := s.store.Load(ctx, store.KeySeriesResults, &series) &&
		len(series.Results) > 0 && series.Results[0].Series != nil
	if hasSeries {
		seriesResult = series.Results[0]
		dash.Series = seriesRows(seriesResult.Series, since)
	}

	switch {
	case dash.Stats == nil || !hasSeries:
		dash.Summary = metrics.InsufficientData
	default:
		dash.Summary = metrics.Summarize(metrics.Summary{
			Health:      dash.Stats.Health,
			Change:      dash.Stats.Change,
			Anomalies:   len(seriesResult.Series.Anomalies()),
			Breakpoints: len(seriesResult.Series.Breakpoints()),
		})
	}

	return dash, nil
}

func (s *DashboardService) rangeStart(timeRange string) (time.Time, error) {
	now := s.now()
	switch strings.ToLower(strings.TrimSpace(timeRange)) {
	case "", RangeAll:
		return time.Time{}, nil
	case RangeOneMonth:
		return now.AddDate(0, -1, 0), nil
	case RangeThreeMon:
		return now.AddDate(0, -3, 0), nil
	case RangeSixMonths:
		return now.AddDate(0, -6, 0), nil
	}
	return time.Time{}, fmt.Errorf("unknown time range %q", timeRange)
}

func seriesRows(series *models.Series, since time.Time) []SeriesRow {
	ndvi := series.Values("mean")
	dense := series.DenseValues("mean")
	trend := metrics.MovingAverage(dense, metrics.TrendWindow)

	rows := make([]SeriesRow, 0, len(series.Points))
	for i, p := range series.Points {
		if !since.IsZero() {
			if d, ok := parseDate(p.Date); ok && d.Before(since) {
				continue
			}
		}
		rows = append(rows, SeriesRow{
			Date:       p.Date,
			NDVI:       ndvi[i],
			Trend:      trend[i],
			Anomaly:    p.Anomaly,
			Breakpoint: p.Breakpoint,
		})
	}
	return rows
}

func distributionRows(d *models.Distribution) []DistributionRow {
	if d == nil {
		return []DistributionRow{}
	}

	scale := metrics.HistogramScale(d.Histogram())
	rows := make([]DistributionRow, len(d.Buckets))
	for i, b := range d.Buckets {
		rows[i] = DistributionRow{
			NDVI:      math.Round(b.Mean*100) / 100,
			Count:     b.Count * scale,
			TrueCount: b.Count,
			Range:     metrics.NDVIRange(b.Mean),
		}
	}
	return rows
}

func comparisonRow(date string, stats models.Stats) ComparisonRow {
	mean, _ := stats.Value("NDVI_mean")
	row := ComparisonRow{
		Date:   date,
		Mean:   mean,
		Min:    statPtr(stats, "NDVI_min"),
		Max:    statPtr(stats, "NDVI_max"),
		StdDev: statPtr(stats, "NDVI_stdDev"),
	}
	if row.Min != nil && row.Max != nil {
		r := *row.Max - *row.Min
		row.Range = &r
	}
	return row
}

func statPtr(stats models.Stats, name string) *float64 {
	v, ok := stats.Value(name)
	if !ok {
		return nil
	}
	return &v
}

func displayDate(r *models.AnalysisResult) string {
	t := r.Time()
	if t.IsZero() {
		return r.Timestamp
	}
	return t.Format("Jan 2, 2006")
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NightLights builds the night-lights dashboard for the first night-lights
// result. hexIndex selects the time step shown on the hexagon map.
func (s *DashboardService) NightLights(ctx context.Context, hexIndex int, view geo.View) (*NightLightsDashboard, error) {
	dash := &NightLightsDashboard{
		Trend:     []*float64{},
		Unlit:     []float64{},
		Anomalies: []metrics.Residual{},
		Hex:       geo.HexLayer{Points: []geo.HexPoint{}},
		View:      view,
	}

	var datasets []models.Dataset
	if s.store.Load(ctx, store.KeyDatasets, &datasets) && len(datasets) > 0 {
		dash.Center = geo.LatLon{Lat: datasets[0].Lat, Lon: datasets[0].Lon}
	}

	result, ok := firstNightLights(s.cache.LoadAll(ctx))
	if !ok || result.Series == nil {
		return dash, nil
	}

	series := result.Series
	dash.DatasetID = result.DatasetID
	dash.Series = series

	avg := series.DenseValues("avg_radiance")
	lit := series.DenseValues("lit_area_km2")
	bright := series.DenseValues("pct_bright")

	dash.Trend = metrics.MovingAverage(avg, metrics.TrendWindow)
	dash.Unlit = make([]float64, len(bright))
	for i, v := range bright {
		if v < 100 {
			dash.Unlit[i] = 100 - v
		}
	}

	dash.KPIs = NightLightsKPIs{
		AvgRadiance:       last(avg),
		AvgRadianceChange: metrics.OverallChange(avg),
		LitArea:           last(lit),
		LitAreaChange:     metrics.OverallChange(lit),
		PctBright:         last(bright),
		PctBrightChange:   metrics.Delta(bright),
	}

	if anomalies := metrics.TopResiduals(series.Dates(), series.DenseValues("residual"), TopAnomalies); anomalies != nil {
		dash.Anomalies = anomalies
	}

	if series.PCA != nil && len(series.PCA.Coords) > 0 {
		layer, err := s.projector.HexLayer(series.PCA.Coords, dash.Center, avg, hexIndex)
		if err != nil {
			return nil, err
		}
		layer.Points = layer.Filter(view)
		dash.Hex = layer
	}

	return dash, nil
}

func firstNightLights(results []models.AnalysisResult) (models.AnalysisResult, bool) {
	for _, r := range results {
		if r.Analysis == models.AnalysisNightLights && r.Series != nil {
			return r, true
		}
	}
	for _, r := range results {
		if r.Series != nil {
			return r, true
		}
	}
	return models.AnalysisResult{}, false
}

func last(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	return &v
}
