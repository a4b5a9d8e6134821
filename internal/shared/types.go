package shared

import (
	"time"
)

// ArchiveFilter provides filtering options for listing archived results
type ArchiveFilter struct {
	DatasetID string
	Analysis  string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}
