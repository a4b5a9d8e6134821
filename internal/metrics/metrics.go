// Package metrics derives the dashboard figures from analysis results.
// Degenerate inputs (empty, misaligned, zero denominators) yield nil rather
// than a number.
package metrics

import (
	"math"
	"sort"
)

// Health is a qualitative vegetation health label
type Health string

const (
	HealthExcellent Health = "Excellent"
	HealthGood      Health = "Good"
	HealthModerate  Health = "Moderate"
	HealthPoor      Health = "Poor"
	HealthVeryPoor  Health = "Very Poor"
)

// HighNDVIThreshold is the bucket mean above which pixels count as dense vegetation
const HighNDVIThreshold = 0.6

// TrendWindow is the moving-average window of the NDVI trend line
const TrendWindow = 3

// ClassifyHealth maps an NDVI mean to a health label
func ClassifyHealth(v float64) Health {
	switch {
	case v >= 0.7:
		return HealthExcellent
	case v >= 0.5:
		return HealthGood
	case v >= 0.3:
		return HealthModerate
	case v >= 0.1:
		return HealthPoor
	default:
		return HealthVeryPoor
	}
}

// MovingAverage returns the trailing mean over window values. The first
// window-1 entries are nil; a non-positive window yields all nil.
func MovingAverage(series []float64, window int) []*float64 {
	out := make([]*float64, len(series))
	if window <= 0 {
		return out
	}

	for i := window - 1; i < len(series); i++ {
		var sum float64
		for _, v := range series[i-window+1 : i+1] {
			sum += v
		}
		avg := sum / float64(window)
		out[i] = &avg
	}
	return out
}

// HighFractionAbove returns the percentage (0-100) of histogram counts whose
// bucket mean is strictly above threshold.
func HighFractionAbove(threshold float64, histogram, bucketMeans []float64) *float64 {
	if histogram == nil || bucketMeans == nil || len(histogram) != len(bucketMeans) {
		return nil
	}

	var high, total float64
	for i, count := range histogram {
		if bucketMeans[i] > threshold {
			high += count
		}
		total += count
	}
	if total == 0 {
		return nil
	}
	pct := high / total * 100
	return &pct
}

// PercentChange returns (latest-previous)/previous as a percentage
func PercentChange(previous, latest float64) *float64 {
	if previous == 0 || math.IsNaN(previous) || math.IsNaN(latest) {
		return nil
	}
	pct := (latest - previous) / previous * 100
	return &pct
}

// LatestChange is the percent change between the last two values
func LatestChange(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	return PercentChange(values[len(values)-2], values[len(values)-1])
}

// OverallChange is the percent change from the first to the last value
func OverallChange(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	return PercentChange(values[0], values[len(values)-1])
}

// Delta is the absolute change from the first to the last value, used for
// figures that are already percentages
func Delta(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	d := values[len(values)-1] - values[0]
	return &d
}

// NDVIRange names the qualitative band of a bucket mean
func NDVIRange(mean float64) string {
	switch {
	case mean < 0.2:
		return "very-low"
	case mean < 0.4:
		return "low"
	case mean < 0.6:
		return "moderate"
	case mean < 0.8:
		return "high"
	default:
		return "very-high"
	}
}

// HistogramScale is the display multiplier for a histogram: 10 when every count is below 10
func HistogramScale(counts []float64) float64 {
	if len(counts) == 0 {
		return 1
	}
	m := counts[0]
	for _, c := range counts[1:] {
		m = math.Max(m, c)
	}
	if m < 10 {
		return 10
	}
	return 1
}

// DescribeTrend turns a percent change into a phrase
func DescribeTrend(change float64) string {
	switch {
	case change > 5:
		return "showing significant improvement"
	case change > 1:
		return "slightly improving"
	case change < -5:
		return "declining substantially"
	case change < -1:
		return "slightly declining"
	default:
		return "remaining stable"
	}
}

// Residual is a dated model residual
type Residual struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// TopResiduals returns the n residuals with the largest magnitude, largest first.
// Ties keep their date order.
func TopResiduals(dates []string, residuals []float64, n int) []Residual {
	if n <= 0 || len(residuals) == 0 {
		return nil
	}

	out := make([]Residual, len(residuals))
	for i, r := range residuals {
		out[i] = Residual{Value: r}
		if i < len(dates) {
			out[i].Date = dates[i]
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return math.Abs(out[a].Value) > math.Abs(out[b].Value)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
