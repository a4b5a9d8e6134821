package models

import (
	"time"
)

// TimeSeriesPoint represents a point in time-series data
type TimeSeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

// AnalysisCount is the number of archived results for one analysis type
type AnalysisCount struct {
	Analysis string `json:"analysis"`
	Count    int    `json:"count"`
}

// DatasetStats represents aggregated archive statistics for a dataset
type DatasetStats struct {
	DatasetID    string         `json:"dataset_id"`
	TotalResults int            `json:"total_results"`
	ByAnalysis   map[string]int `json:"by_analysis"`
	MeanNDVI     *float64       `json:"mean_ndvi,omitempty"`
	FirstSeen    time.Time      `json:"first_seen"`
	LastSeen     time.Time      `json:"last_seen"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ArchiveStats summarizes the whole archive
type ArchiveStats struct {
	TotalResults int               `json:"total_results"`
	ByAnalysis   []AnalysisCount   `json:"by_analysis"`
	Trend        []TimeSeriesPoint `json:"trend"`
	LastUpdated  time.Time         `json:"last_updated"`
}
