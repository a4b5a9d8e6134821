package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/shared"
)

// Stats endpoints

// getStats handles GET /api/v1/stats
func (s *Server) getStats(c *gin.Context) {
	days := shared.ParseLimit(c, "days", 30, 365)

	stats, err := s.statsService.GetOverallStats(c.Request.Context(), days)
	if err != nil {
		s.failure(c, err, "Failed to get stats")
		return
	}
	s.successResponse(c, stats)
}

// getDatasetStats handles GET /api/v1/stats/datasets/:id
func (s *Server) getDatasetStats(c *gin.Context) {
	stats, err := s.statsService.GetDatasetStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.failure(c, err, "Failed to get dataset stats")
		return
	}
	s.successResponse(c, stats)
}

// Archive endpoints

// listArchive handles GET /api/v1/archive
func (s *Server) listArchive(c *gin.Context) {
	if s.archive == nil {
		s.errorResponse(c, http.StatusServiceUnavailable, "Archive is not configured")
		return
	}

	filter := shared.ParseArchiveFilter(c)
	results, err := s.archive.ListArchivedResults(c.Request.Context(), filter)
	if err != nil {
		s.failure(c, err, "Failed to list archived results")
		return
	}

	s.successResponse(c, models.PaginatedResponse{
		Items:  results,
		Total:  len(results),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// getArchived handles GET /api/v1/archive/:id
func (s *Server) getArchived(c *gin.Context) {
	if s.archive == nil {
		s.errorResponse(c, http.StatusServiceUnavailable, "Archive is not configured")
		return
	}

	rec, err := s.archive.GetArchivedResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.failure(c, err, "Archived result not found")
		return
	}
	s.successResponse(c, rec)
}

// Health check endpoint

// healthCheck handles GET /api/v1/health
func (s *Server) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.store.Backend().Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.APIResponse{
			Success: false,
			Error:   "Store connection failed",
		})
		return
	}

	archive := "disabled"
	if s.archive != nil {
		archive = "healthy"
		if err := s.archive.Ping(ctx); err != nil {
			archive = "unreachable"
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":    "healthy",
			"archive":   archive,
			"busy":      s.analysisService.Busy(),
			"timestamp": time.Now(),
			"version":   Version,
		},
	})
}
