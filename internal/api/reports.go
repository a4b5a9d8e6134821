package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/services"
)

// Report endpoints

// generateReport handles POST /api/v1/reports/:kind
func (s *Server) generateReport(c *gin.Context) {
	var (
		report json.RawMessage
		err    error
	)

	switch kind := c.Param("kind"); kind {
	case services.ReportAgriculture:
		report, err = s.reportService.GenerateAgriculture(c.Request.Context())
	case services.ReportNightLights:
		report, err = s.reportService.GenerateNightLights(c.Request.Context())
	default:
		s.errorResponse(c, http.StatusBadRequest, "Invalid report kind. Must be one of: agriculture, night-lights")
		return
	}
	if err != nil {
		s.failure(c, err, "Failed to generate report")
		return
	}

	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Data:    report,
		Message: "Report generated successfully",
	})
}

// getReport handles GET /api/v1/reports/:kind
func (s *Server) getReport(c *gin.Context) {
	kind := c.Param("kind")
	if kind != services.ReportAgriculture && kind != services.ReportNightLights {
		s.errorResponse(c, http.StatusBadRequest, "Invalid report kind. Must be one of: agriculture, night-lights")
		return
	}

	report, err := s.reportService.Get(c.Request.Context(), kind)
	if err != nil {
		s.failure(c, err, "Report not available")
		return
	}
	s.successResponse(c, report)
}
