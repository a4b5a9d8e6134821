package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/satlens/internal/models"
)

// ResourceHistoryResponse is the forest-cover history of one location
type ResourceHistoryResponse struct {
	Location string                  `json:"location"`
	Samples  []models.ResourceSample `json:"samples"`
}

// Natural resources endpoints

// recordResource handles POST /api/v1/resources
func (s *Server) recordResource(c *gin.Context) {
	var req models.ResourceResult
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	history, err := s.resourceService.Record(c.Request.Context(), req)
	if err != nil {
		s.failure(c, err, "Failed to record result")
		return
	}

	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Data:    ResourceHistoryResponse{Location: req.Location, Samples: history},
		Message: "Natural resources result recorded",
	})
}

// latestResource handles GET /api/v1/resources/latest
func (s *Server) latestResource(c *gin.Context) {
	r, err := s.resourceService.Latest(c.Request.Context())
	if err != nil {
		s.failure(c, err, "No natural resources result")
		return
	}
	s.successResponse(c, r)
}

// resourceHistory handles GET /api/v1/resources/history?location=
func (s *Server) resourceHistory(c *gin.Context) {
	location := c.Query("location")
	if location == "" {
		s.errorResponse(c, http.StatusBadRequest, "location is required")
		return
	}
	s.successResponse(c, ResourceHistoryResponse{
		Location: location,
		Samples:  s.resourceService.History(c.Request.Context(), location),
	})
}
