package shared

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ParseLimit reads an integer query parameter, falling back to def when it is
// missing, malformed or outside (0, max]
func ParseLimit(c *gin.Context, name string, def, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > max {
		return def
	}
	return n
}

// ParseTimeQuery parses an RFC3339 query parameter and returns nil when absent or invalid
func ParseTimeQuery(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

// ParseArchiveFilter builds an archive filter from request query parameters
func ParseArchiveFilter(c *gin.Context) ArchiveFilter {
	return ArchiveFilter{
		DatasetID: c.Query("dataset_id"),
		Analysis:  c.Query("analysis"),
		StartTime: ParseTimeQuery(c, "start"),
		EndTime:   ParseTimeQuery(c, "end"),
		Limit:     ParseLimit(c, "limit", 100, 1000),
		Offset:    ParseLimit(c, "offset", 0, 1<<30),
	}
}
