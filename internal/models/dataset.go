package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Dataset describes an imagery dataset picked in the exploration flow
type Dataset struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Assets Assets  `json:"assets"`
}

// AgriParams is the location and date range of an agriculture run
type AgriParams struct {
	Location  string    `json:"location"`
	DateRange DateRange `json:"date_range"`
}

// DateRange is an inclusive range of YYYY-MM-DD dates
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// UnmarshalJSON accepts both {"from":..,"to":..} and a two-element array
func (d *DateRange) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var pair []string
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("date range needs 2 dates, got %d", len(pair))
		}
		d.From, d.To = pair[0], pair[1]
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	_, hasFrom := obj["from"]
	_, hasTo := obj["to"]
	if !hasFrom && !hasTo {
		return fmt.Errorf("date range object has neither from nor to")
	}

	type plain DateRange
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = DateRange(p)
	return nil
}

// Validate checks that both ends parse and are ordered
func (d DateRange) Validate() error {
	from, err := time.Parse(time.DateOnly, d.From)
	if err != nil {
		return fmt.Errorf("invalid start date %q: use YYYY-MM-DD", d.From)
	}
	to, err := time.Parse(time.DateOnly, d.To)
	if err != nil {
		return fmt.Errorf("invalid end date %q: use YYYY-MM-DD", d.To)
	}
	if to.Before(from) {
		return fmt.Errorf("end date %s is before start date %s", d.To, d.From)
	}
	return nil
}

// DatasetQuery asks the backend for datasets covering a location and period
type DatasetQuery struct {
	Location string `json:"location" binding:"required"`
	Category string `json:"category"`
	DateFrom string `json:"date_from" binding:"required"`
	DateTo   string `json:"date_to" binding:"required"`
}

// Range returns the query period
func (q DatasetQuery) Range() DateRange {
	return DateRange{From: q.DateFrom, To: q.DateTo}
}

// NightLightsCategory is the dataset category routed to the night-lights flow
const NightLightsCategory = "Night Time Light Data"

// ResourceResult is the natural-resource segmentation output for one location
type ResourceResult struct {
	Location                     string  `json:"location" binding:"required"`
	Latitude                     float64 `json:"latitude"`
	Longitude                    float64 `json:"longitude"`
	Timestamp                    string  `json:"timestamp"`
	ForestAreaPercentage         float64 `json:"forest_area_percentage"`
	WaterBodyPercentage          float64 `json:"water_body_percentage"`
	MineralRichnessIndex         float64 `json:"mineral_richness_index"`
	SoilMoistureIndex            float64 `json:"soil_moisture_index"`
	EnhancedWaterBodyPercentage  float64 `json:"enhanced_water_body_percentage"`
	ForestSegmentationPercentage float64 `json:"forest_segmentation_percentage"`
	WaterSegmentationPercentage  float64 `json:"water_segmentation_percentage"`
	BuiltupSegmentationPercent   float64 `json:"builtup_segmentation_percentage"`
	SoilSegmentationPercentage   float64 `json:"soil_segmentation_percentage"`
	PreviewPNG                   string  `json:"preview_png"`
	MaskTIF                      string  `json:"mask_tif"`
	SummaryCSV                   string  `json:"summary_csv"`
	RawPNG                       string  `json:"raw_png,omitempty"`
}

// Validate checks the fields every natural-resources view relies on
func (r *ResourceResult) Validate() error {
	if r.Location == "" {
		return fmt.Errorf("location is required")
	}
	for name, v := range map[string]float64{
		"forest_area_percentage":         r.ForestAreaPercentage,
		"water_body_percentage":          r.WaterBodyPercentage,
		"forest_segmentation_percentage": r.ForestSegmentationPercentage,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be within 0-100, got %g", name, v)
		}
	}
	return nil
}

// ResourceSample is one forest-cover measurement in a location's history
type ResourceSample struct {
	T int64   `json:"t"` // unix milliseconds
	V float64 `json:"v"`
}

// ArchivedResult is an analysis result kept in the long-term archive
type ArchivedResult struct {
	ID        string             `json:"id" bson:"_id"`
	DatasetID string             `json:"dataset_id" bson:"dataset_id"`
	Analysis  string             `json:"analysis" bson:"analysis"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
	Stats     map[string]float64 `json:"stats,omitempty" bson:"stats,omitempty"`
	Payload   string             `json:"-" bson:"payload"` // full result as JSON
	Source    string             `json:"source,omitempty" bson:"source,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// AnalysisJob asks the backend to run one analysis on one dataset
type AnalysisJob struct {
	DatasetID string    `json:"dataset_id" binding:"required"`
	Analysis  string    `json:"analysis" binding:"required"`
	Assets    JobAssets `json:"assets"`
}

// JobAssets points the backend at the raster to analyse
type JobAssets struct {
	Data string `json:"data"`
}

// Job builds the analysis job for this dataset
func (d Dataset) Job(analysis string) AnalysisJob {
	return AnalysisJob{DatasetID: d.ID, Analysis: analysis, Assets: JobAssets{Data: d.Assets.Data}}
}
