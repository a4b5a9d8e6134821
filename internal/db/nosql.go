package db

import (
	"context"

	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/shared"
)

// ArchiveDatabase defines the interface for the long-term result archive (MongoDB)
type ArchiveDatabase interface {
	// Connection management
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error

	// Archived result operations
	ArchiveResult(ctx context.Context, result *models.ArchivedResult) error
	GetArchivedResult(ctx context.Context, id string) (*models.ArchivedResult, error)
	ListArchivedResults(ctx context.Context, filter shared.ArchiveFilter) ([]*models.ArchivedResult, error)
	DeleteArchivedResults(ctx context.Context, datasetID string) (int, error)
}
