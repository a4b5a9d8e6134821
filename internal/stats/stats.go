// Package stats aggregates the result archive in MongoDB.
package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AI2HU/satlens/internal/models"
)

const collResults = "results"

// Service computes statistics directly from the archive collection
type Service struct {
	database *mongo.Database
}

// New creates a new stats service
func New(database *mongo.Database) *Service {
	return &Service{
		database: database,
	}
}

// datasetPipeline summarizes one dataset's archived results
func datasetPipeline(datasetID string) []bson.M {
	return []bson.M{
		{
			"$match": bson.M{
				"dataset_id": datasetID,
			},
		},
		{
			"$group": bson.M{
				"_id":           nil,
				"total_results": bson.M{"$sum": 1},
				"mean_ndvi":     bson.M{"$avg": "$stats.NDVI_mean"},
				"first_seen":    bson.M{"$min": "$timestamp"},
				"last_seen":     bson.M{"$max": "$timestamp"},
			},
		},
	}
}

// countsPipeline counts archived results per analysis type
func countsPipeline(match bson.M) []bson.M {
	return []bson.M{
		{"$match": match},
		{
			"$group": bson.M{
				"_id":   "$analysis",
				"count": bson.M{"$sum": 1},
			},
		},
	}
}

// trendPipeline counts archived results per day between start and end
func trendPipeline(start, end time.Time) []bson.M {
	return []bson.M{
		{
			"$match": bson.M{
				"timestamp": bson.M{"$gte": start, "$lte": end},
			},
		},
		{
			"$group": bson.M{
				"_id": bson.M{
					"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$timestamp"},
				},
				"count": bson.M{"$sum": 1},
			},
		},
		{
			"$sort": bson.M{"_id": 1},
		},
	}
}

// GetDatasetStats calculates dataset statistics on-demand from the archive
func (s *Service) GetDatasetStats(ctx context.Context, datasetID string) (*models.DatasetStats, error) {
	cursor, err := s.database.Collection(collResults).Aggregate(ctx, datasetPipeline(datasetID))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate dataset stats: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		TotalResults int       `bson:"total_results"`
		MeanNDVI     *float64  `bson:"mean_ndvi"`
		FirstSeen    time.Time `bson:"first_seen"`
		LastSeen     time.Time `bson:"last_seen"`
	}

	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode dataset stats: %w", err)
		}
	}

	counts, err := s.countByAnalysis(ctx, bson.M{"dataset_id": datasetID})
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis counts: %w", err)
	}

	byAnalysis := make(map[string]int, len(counts))
	for _, c := range counts {
		byAnalysis[c.Analysis] = c.Count
	}

	return &models.DatasetStats{
		DatasetID:    datasetID,
		TotalResults: result.TotalResults,
		ByAnalysis:   byAnalysis,
		MeanNDVI:     result.MeanNDVI,
		FirstSeen:    result.FirstSeen,
		LastSeen:     result.LastSeen,
		UpdatedAt:    time.Now(),
	}, nil
}

// GetArchiveStats summarizes the whole archive with a daily trend over the last days
func (s *Service) GetArchiveStats(ctx context.Context, days int) (*models.ArchiveStats, error) {
	counts, err := s.countByAnalysis(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis counts: %w", err)
	}

	total := 0
	for _, c := range counts {
		total += c.Count
	}

	end := time.Now()
	trend, err := s.GetTrend(ctx, end.AddDate(0, 0, -days), end)
	if err != nil {
		return nil, err
	}

	return &models.ArchiveStats{
		TotalResults: total,
		ByAnalysis:   counts,
		Trend:        trend,
		LastUpdated:  end,
	}, nil
}

// GetTrend returns the number of archived results per day
func (s *Service) GetTrend(ctx context.Context, start, end time.Time) ([]models.TimeSeriesPoint, error) {
	cursor, err := s.database.Collection(collResults).Aggregate(ctx, trendPipeline(start, end))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate trend: %w", err)
	}
	defer cursor.Close(ctx)

	points := []models.TimeSeriesPoint{}
	for cursor.Next(ctx) {
		var row struct {
			Day   string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			continue
		}
		day, err := time.Parse(time.DateOnly, row.Day)
		if err != nil {
			continue
		}
		points = append(points, models.TimeSeriesPoint{Timestamp: day, Count: row.Count})
	}
	return points, nil
}

// countByAnalysis counts archived results per analysis type, largest first
func (s *Service) countByAnalysis(ctx context.Context, match bson.M) ([]models.AnalysisCount, error) {
	cursor, err := s.database.Collection(collResults).Aggregate(ctx, countsPipeline(match))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := []models.AnalysisCount{}
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			continue
		}
		counts = append(counts, models.AnalysisCount{Analysis: row.ID, Count: row.Count})
	}

	SortCounts(counts)
	return counts, nil
}

// SortCounts orders counts by count descending, then by analysis name
func SortCounts(counts []models.AnalysisCount) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Analysis < counts[j].Analysis
	})
}
