package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Analysis types produced by the analysis backend
const (
	AnalysisAgricultureHotspot = "agriculture_hotspot"
	AnalysisNightLights        = "night_lights"
	AnalysisNaturalResources   = "natural_resources"
)

// Decode errors for the index-aligned blocks of a result
var (
	ErrMisalignedSeries       = errors.New("series arrays are not aligned with dates")
	ErrMisalignedDistribution = errors.New("histogram and bucket means differ in length")
)

// AnalysisResult is one analysis output for a (dataset, analysis) pair
type AnalysisResult struct {
	DatasetID    string        `json:"dataset_id"`
	Analysis     string        `json:"analysis"`
	Timestamp    string        `json:"timestamp"`
	Stats        Stats         `json:"stats,omitempty"`
	Distribution *Distribution `json:"distribution,omitempty"`
	Percentiles  *Percentiles  `json:"percentiles,omitempty"`
	Series       *Series       `json:"series,omitempty"`
	Assets       *Assets       `json:"assets,omitempty"`
}

// Time parses the result timestamp. A zero time is returned when it can't be parsed.
func (r *AnalysisResult) Time() time.Time {
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, r.Timestamp); err == nil {
			return t
		}
	}
	return time.Time{}
}

// UnmarshalJSON accepts anomaly and breakpoint index sets either inside the
// series block or at the top level of the payload, as the agriculture
// time-series endpoint returns them.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	type plain AnalysisResult
	var wire struct {
		plain
		Anomalies   []int `json:"anomalies,omitempty"`
		Breakpoints []int `json:"breakpoints,omitempty"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*r = AnalysisResult(wire.plain)
	if len(wire.Anomalies) == 0 && len(wire.Breakpoints) == 0 {
		return nil
	}
	if r.Series == nil {
		return fmt.Errorf("%w: index sets given without a series", ErrMisalignedSeries)
	}
	if err := r.Series.mark(wire.Anomalies, wire.Breakpoints); err != nil {
		return err
	}
	return nil
}

// Stats holds the numeric summary of an index value (NDVI_mean, NDVI_min, ...)
type Stats map[string]float64

// UnmarshalJSON drops null and non-numeric entries so absent values stay absent
func (s *Stats) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Stats, len(raw))
	for k, v := range raw {
		if string(v) == "null" {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			continue
		}
		out[k] = f
	}
	*s = out
	return nil
}

// Value returns the named statistic and whether it is present
func (s Stats) Value(name string) (float64, bool) {
	v, ok := s[name]
	return v, ok
}

// Percentiles of the index value
type Percentiles struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
}

// Assets links to rendered artifacts
type Assets struct {
	Thumbnail string `json:"thumbnail,omitempty"`
	Data      string `json:"data,omitempty"`
	GeoTIFF   string `json:"geotiff,omitempty"`
}

// Bucket is one histogram bin
type Bucket struct {
	Mean  float64
	Count float64
}

// Distribution is a histogram of index values
type Distribution struct {
	Buckets []Bucket
}

// Histogram returns the counts in bucket order
func (d *Distribution) Histogram() []float64 {
	out := make([]float64, len(d.Buckets))
	for i, b := range d.Buckets {
		out[i] = b.Count
	}
	return out
}

// BucketMeans returns the bucket centers in bucket order
func (d *Distribution) BucketMeans() []float64 {
	out := make([]float64, len(d.Buckets))
	for i, b := range d.Buckets {
		out[i] = b.Mean
	}
	return out
}

type distributionWire struct {
	Histogram   []float64 `json:"histogram"`
	BucketMeans []float64 `json:"bucketMeans"`
}

// MarshalJSON writes the backend's parallel-array form
func (d Distribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(distributionWire{Histogram: d.Histogram(), BucketMeans: d.BucketMeans()})
}

// UnmarshalJSON reads the parallel-array form and rejects misaligned input
func (d *Distribution) UnmarshalJSON(data []byte) error {
	var wire distributionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if len(wire.Histogram) != len(wire.BucketMeans) {
		return fmt.Errorf("%w: %d counts, %d means", ErrMisalignedDistribution, len(wire.Histogram), len(wire.BucketMeans))
	}

	d.Buckets = make([]Bucket, len(wire.Histogram))
	for i := range wire.Histogram {
		d.Buckets[i] = Bucket{Mean: wire.BucketMeans[i], Count: wire.Histogram[i]}
	}
	return nil
}

// SeriesPoint is a single time step of a series. Metrics missing at this step are absent from the map.
type SeriesPoint struct {
	Date       string
	Metrics    map[string]float64
	Anomaly    bool
	Breakpoint bool
}

// Metric returns a metric value at this step
func (p SeriesPoint) Metric(name string) (float64, bool) {
	v, ok := p.Metrics[name]
	return v, ok
}

// PCA holds pixel offsets from the backend's clustering step
type PCA struct {
	Coords [][2]float64 `json:"coords"`
	X      []float64    `json:"x,omitempty"`
	Y      []float64    `json:"y,omitempty"`
}

// Series is a time series decoded into one record per time step
type Series struct {
	Points []SeriesPoint
	PCA    *PCA
	// Extra keeps non-aligned blocks (forecast, hist_counts, ...) verbatim
	Extra map[string]json.RawMessage
}

var seriesReserved = map[string]bool{
	"dates":       true,
	"anomalies":   true,
	"breakpoints": true,
	"pca":         true,
}

// Dates returns the dates in order
func (s *Series) Dates() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}

// Values returns one metric across all steps. Missing steps are nil.
func (s *Series) Values(name string) []*float64 {
	out := make([]*float64, len(s.Points))
	for i, p := range s.Points {
		if v, ok := p.Metrics[name]; ok {
			out[i] = &v
		}
	}
	return out
}

// DenseValues returns one metric across all steps, with missing steps as zero
func (s *Series) DenseValues(name string) []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Metrics[name]
	}
	return out
}

// MetricNames lists every metric present at any step, sorted
func (s *Series) MetricNames() []string {
	seen := make(map[string]bool)
	for _, p := range s.Points {
		for k := range p.Metrics {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Anomalies returns the indices flagged as anomalies
func (s *Series) Anomalies() []int {
	var out []int
	for i, p := range s.Points {
		if p.Anomaly {
			out = append(out, i)
		}
	}
	return out
}

// Breakpoints returns the indices flagged as breakpoints
func (s *Series) Breakpoints() []int {
	var out []int
	for i, p := range s.Points {
		if p.Breakpoint {
			out = append(out, i)
		}
	}
	return out
}

func (s *Series) mark(anomalies, breakpoints []int) error {
	for _, idx := range anomalies {
		if idx < 0 || idx >= len(s.Points) {
			return fmt.Errorf("%w: anomaly index %d out of range", ErrMisalignedSeries, idx)
		}
		s.Points[idx].Anomaly = true
	}
	for _, idx := range breakpoints {
		if idx < 0 || idx >= len(s.Points) {
			return fmt.Errorf("%w: breakpoint index %d out of range", ErrMisalignedSeries, idx)
		}
		s.Points[idx].Breakpoint = true
	}
	return nil
}

// UnmarshalJSON converts the backend's struct-of-arrays block into points.
// Every non-empty numeric array must match the length of dates; an empty one is absent.
func (s *Series) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var dates []string
	if v, ok := raw["dates"]; ok {
		if err := json.Unmarshal(v, &dates); err != nil {
			return fmt.Errorf("failed to decode series dates: %w", err)
		}
	}

	out := Series{Points: make([]SeriesPoint, len(dates))}
	for i, d := range dates {
		out.Points[i] = SeriesPoint{Date: d, Metrics: make(map[string]float64)}
	}

	for key, v := range raw {
		if seriesReserved[key] || string(v) == "null" {
			continue
		}
		var values []*float64
		if err := json.Unmarshal(v, &values); err != nil {
			// not a flat numeric array
			if out.Extra == nil {
				out.Extra = make(map[string]json.RawMessage)
			}
			out.Extra[key] = v
			continue
		}
		if len(values) == 0 {
			continue
		}
		if len(values) != len(dates) {
			return fmt.Errorf("%w: %q has %d values for %d dates", ErrMisalignedSeries, key, len(values), len(dates))
		}
		for i, val := range values {
			if val != nil {
				out.Points[i].Metrics[key] = *val
			}
		}
	}

	if v, ok := raw["pca"]; ok && string(v) != "null" {
		var pca PCA
		if err := json.Unmarshal(v, &pca); err != nil {
			return fmt.Errorf("failed to decode series pca: %w", err)
		}
		out.PCA = &pca
	}

	var anomalies, breakpoints []int
	if v, ok := raw["anomalies"]; ok {
		if err := json.Unmarshal(v, &anomalies); err != nil {
			return fmt.Errorf("failed to decode series anomalies: %w", err)
		}
	}
	if v, ok := raw["breakpoints"]; ok {
		if err := json.Unmarshal(v, &breakpoints); err != nil {
			return fmt.Errorf("failed to decode series breakpoints: %w", err)
		}
	}
	if err := out.mark(anomalies, breakpoints); err != nil {
		return err
	}

	*s = out
	return nil
}

// MarshalJSON writes the struct-of-arrays form the backend produces
func (s Series) MarshalJSON() ([]byte, error) {
	wire := make(map[string]any, len(s.Extra)+5)
	for k, v := range s.Extra {
		wire[k] = v
	}

	wire["dates"] = s.Dates()
	for _, name := range s.MetricNames() {
		wire[name] = s.Values(name)
	}

	anomalies := s.Anomalies()
	if anomalies == nil {
		anomalies = []int{}
	}
	breakpoints := s.Breakpoints()
	if breakpoints == nil {
		breakpoints = []int{}
	}
	wire["anomalies"] = anomalies
	wire["breakpoints"] = breakpoints

	if s.PCA != nil {
		wire["pca"] = s.PCA
	}
	return json.Marshal(wire)
}

// HasPrefix reports whether the dataset id starts with prefix
func (r *AnalysisResult) HasPrefix(prefix string) bool {
	return strings.HasPrefix(r.DatasetID, prefix)
}
