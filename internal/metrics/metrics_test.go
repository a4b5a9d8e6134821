package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(ps []*float64) []any {
	out := make([]any, len(ps))
	for i, p := range ps {
		if p != nil {
			out[i] = *p
		}
	}
	return out
}

func TestClassifyHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want Health
	}{
		{1, HealthExcellent},
		{0.7, HealthExcellent},
		{0.69999, HealthGood},
		{0.5, HealthGood},
		{0.3, HealthModerate},
		{0.29, HealthPoor},
		{0.1, HealthPoor},
		{0.0999, HealthVeryPoor},
		{0, HealthVeryPoor},
		{-0.4, HealthVeryPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyHealth(tt.in), "ClassifyHealth(%v)", tt.in)
	}
}

func TestMovingAverage(t *testing.T) {
	t.Parallel()

	got := MovingAverage([]float64{1, 2, 3, 4, 5}, 3)
	assert.Equal(t, []any{nil, nil, 2.0, 3.0, 4.0}, values(got))

	assert.Equal(t, []any{1.0, 2.0}, values(MovingAverage([]float64{1, 2}, 1)))
	assert.Equal(t, []any{nil, nil}, values(MovingAverage([]float64{1, 2}, 3)))
	assert.Equal(t, []any{nil, nil}, values(MovingAverage([]float64{1, 2}, 0)))
	assert.Equal(t, []any{nil}, values(MovingAverage([]float64{1}, -2)))
	assert.Empty(t, MovingAverage(nil, 3))
}

func TestHighFractionAbove(t *testing.T) {
	t.Parallel()

	got := HighFractionAbove(0.6, []float64{10, 20, 30}, []float64{0.2, 0.5, 0.8})
	require.NotNil(t, got)
	assert.InDelta(t, 50.0, *got, 1e-12)

	// strictly greater
	got = HighFractionAbove(0.8, []float64{10, 20, 30}, []float64{0.2, 0.5, 0.8})
	require.NotNil(t, got)
	assert.Equal(t, 0.0, *got)

	assert.Nil(t, HighFractionAbove(0.6, nil, []float64{0.1}))
	assert.Nil(t, HighFractionAbove(0.6, []float64{1, 2}, []float64{0.1}))
	assert.Nil(t, HighFractionAbove(0.6, []float64{0, 0}, []float64{0.1, 0.9}))
}

func TestPercentChange(t *testing.T) {
	t.Parallel()

	got := PercentChange(0.5, 0.6)
	require.NotNil(t, got)
	assert.InDelta(t, 20.0, *got, 1e-9)

	assert.Nil(t, PercentChange(0, 1))

	got = LatestChange([]float64{0.2, 0.4, 0.3})
	require.NotNil(t, got)
	assert.InDelta(t, -25.0, *got, 1e-9)
	assert.Nil(t, LatestChange([]float64{0.2}))
	assert.Nil(t, LatestChange(nil))

	got = OverallChange([]float64{10, 99, 15})
	require.NotNil(t, got)
	assert.InDelta(t, 50.0, *got, 1e-9)
	assert.Nil(t, OverallChange([]float64{0, 1}))

	d := Delta([]float64{40, 10, 42.5})
	require.NotNil(t, d)
	assert.InDelta(t, 2.5, *d, 1e-12)
	assert.Nil(t, Delta([]float64{1}))
}

func TestNDVIRange(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "very-low", NDVIRange(0.19))
	assert.Equal(t, "low", NDVIRange(0.2))
	assert.Equal(t, "moderate", NDVIRange(0.59))
	assert.Equal(t, "high", NDVIRange(0.6))
	assert.Equal(t, "very-high", NDVIRange(0.8))
}

func TestHistogramScale(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10.0, HistogramScale([]float64{1, 9.5, 3}))
	assert.Equal(t, 1.0, HistogramScale([]float64{1, 10}))
	assert.Equal(t, 1.0, HistogramScale(nil))
}

func TestDescribeTrend(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "showing significant improvement", DescribeTrend(5.1))
	assert.Equal(t, "slightly improving", DescribeTrend(5))
	assert.Equal(t, "remaining stable", DescribeTrend(1))
	assert.Equal(t, "remaining stable", DescribeTrend(-1))
	assert.Equal(t, "slightly declining", DescribeTrend(-5))
	assert.Equal(t, "declining substantially", DescribeTrend(-5.1))
}

func TestTopResiduals(t *testing.T) {
	t.Parallel()

	dates := []string{"d0", "d1", "d2", "d3", "d4"}
	got := TopResiduals(dates, []float64{0.1, -3, 2, 2, -0.5}, 3)
	assert.Equal(t, []Residual{{"d1", -3}, {"d2", 2}, {"d3", 2}}, got)

	assert.Len(t, TopResiduals(dates[:1], []float64{1}, 3), 1)
	assert.Nil(t, TopResiduals(dates, nil, 3))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	change := 7.0
	got := Summarize(Summary{Health: HealthGood, Change: &change, Anomalies: 2, Breakpoints: 1})
	assert.Equal(t, "Vegetation health is currently good, showing significant improvement. "+
		"Time series analysis has detected 2 anomalies and identified 1 significant change points in the monitored period.", got)

	got = Summarize(Summary{Health: HealthVeryPoor})
	assert.Equal(t, "Vegetation health is currently very poor. "+
		"Time series analysis has no anomalies detected and no significant change points identified in the monitored period.", got)
}
