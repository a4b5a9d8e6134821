package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/satlens/internal/geo"
)

// ProjectRequest projects pixel offsets around a center
type ProjectRequest struct {
	Center  geo.LatLon        `json:"center"`
	Offsets []geo.PixelOffset `json:"offsets" binding:"required"`
}

// Dashboard endpoints

// agricultureDashboard handles GET /api/v1/dashboards/agriculture
func (s *Server) agricultureDashboard(c *gin.Context) {
	dash, err := s.dashboardService.Agriculture(c.Request.Context(), c.Query("selected"), c.Query("range"))
	if err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid dashboard query: "+err.Error())
		return
	}
	s.successResponse(c, dash)
}

// nightLightsDashboard handles GET /api/v1/dashboards/night-lights
func (s *Server) nightLightsDashboard(c *gin.Context) {
	view, err := geo.ParseView(c.Query("view"))
	if err != nil {
		s.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	index := 0
	if raw := c.Query("index"); raw != "" {
		index, err = strconv.Atoi(raw)
		if err != nil {
			s.errorResponse(c, http.StatusBadRequest, "index must be an integer")
			return
		}
	}

	dash, err := s.dashboardService.NightLights(c.Request.Context(), index, view)
	if err != nil {
		s.failure(c, err, "Failed to build night-lights dashboard")
		return
	}
	s.successResponse(c, dash)
}

// project handles POST /api/v1/project
func (s *Server) project(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	out := make([]geo.LatLon, len(req.Offsets))
	for i, off := range req.Offsets {
		pos, err := s.projector.Project(off, req.Center)
		if err != nil {
			if errors.Is(err, geo.ErrDegenerateLongitude) {
				s.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
				return
			}
			s.failure(c, err, "Projection failed")
			return
		}
		out[i] = pos
	}
	s.successResponse(c, out)
}
