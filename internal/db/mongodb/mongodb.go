package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/shared"
)

// MongoDB implements db.ArchiveDatabase
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	config   *models.Config
}

const (
	collResults = "results"
)

// Server error codes that mean the write does not fit
const (
	codeObjectTooLarge = 10334
	codeOutOfDiskSpace = 14031
)

// New creates a new MongoDB archive instance
func New(config *models.Config) (*MongoDB, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("mongodb archive requires a uri")
	}
	if config.Database == "" {
		config.Database = "satlens"
	}
	return &MongoDB{
		config: config,
	}, nil
}

// Connect establishes connection to MongoDB
func (m *MongoDB) Connect(ctx context.Context) error {
	clientOptions := options.Client().ApplyURI(m.config.URI)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m.client = client
	m.database = client.Database(m.config.Database)

	if err := m.createIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// Disconnect closes the MongoDB connection
func (m *MongoDB) Disconnect(ctx context.Context) error {
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}

// Ping checks the database connection
func (m *MongoDB) Ping(ctx context.Context) error {
	if m.client == nil {
		return db.ErrUnavailable
	}
	return m.client.Ping(ctx, nil)
}

// createIndexes creates the indexes the archive queries rely on
func (m *MongoDB) createIndexes(ctx context.Context) error {
	resultIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "dataset_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "analysis", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "created_at", Value: -1},
			},
		},
	}

	_, err := m.database.Collection(collResults).Indexes().CreateMany(ctx, resultIndexes)
	if err != nil {
		return fmt.Errorf("failed to create result indexes: %w", err)
	}

	return nil
}

// ArchiveResult stores one analysis result
func (m *MongoDB) ArchiveResult(ctx context.Context, result *models.ArchivedResult) error {
	if m.database == nil {
		return db.ErrUnavailable
	}
	result.CreatedAt = time.Now()

	doc := bson.M{
		"_id":        result.ID,
		"dataset_id": result.DatasetID,
		"analysis":   result.Analysis,
		"timestamp":  result.Timestamp,
		"payload":    result.Payload,
		"created_at": result.CreatedAt,
	}
	if len(result.Stats) > 0 {
		doc["stats"] = result.Stats
	}
	if result.Source != "" {
		doc["source"] = result.Source
	}

	_, err := m.database.Collection(collResults).InsertOne(ctx, doc)
	if err != nil {
		return mapWriteError(fmt.Errorf("failed to archive result for %s: %w", result.DatasetID, err))
	}
	return nil
}

// mapWriteError reports size and disk failures as quota errors
func mapWriteError(err error) error {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == codeObjectTooLarge || e.Code == codeOutOfDiskSpace {
				return db.NewQuotaError(err)
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == codeObjectTooLarge || ce.Code == codeOutOfDiskSpace) {
		return db.NewQuotaError(err)
	}
	return err
}

// GetArchivedResult retrieves an archived result by ID
func (m *MongoDB) GetArchivedResult(ctx context.Context, id string) (*models.ArchivedResult, error) {
	if m.database == nil {
		return nil, db.ErrUnavailable
	}

	var result models.ArchivedResult
	err := m.database.Collection(collResults).FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("archived result %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListArchivedResults lists archived results, newest first
func (m *MongoDB) ListArchivedResults(ctx context.Context, filter shared.ArchiveFilter) ([]*models.ArchivedResult, error) {
	if m.database == nil {
		return nil, db.ErrUnavailable
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := m.database.Collection(collResults).Find(ctx, BuildFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*models.ArchivedResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	return results, nil
}

// DeleteArchivedResults removes every archived result of a dataset
func (m *MongoDB) DeleteArchivedResults(ctx context.Context, datasetID string) (int, error) {
	if m.database == nil {
		return 0, db.ErrUnavailable
	}

	res, err := m.database.Collection(collResults).DeleteMany(ctx, bson.M{"dataset_id": datasetID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete archived results: %w", err)
	}
	return int(res.DeletedCount), nil
}

// BuildFilter turns an archive filter into a query document
func BuildFilter(filter shared.ArchiveFilter) bson.M {
	query := bson.M{}

	if filter.DatasetID != "" {
		query["dataset_id"] = filter.DatasetID
	}
	if filter.Analysis != "" {
		query["analysis"] = filter.Analysis
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}

	return query
}

// GetDatabase returns the underlying MongoDB database instance
func (m *MongoDB) GetDatabase() *mongo.Database {
	return m.database
}
