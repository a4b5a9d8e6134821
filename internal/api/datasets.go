package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/satlens/internal/models"
)

// OutputFormatRequest sets the preferred download format. Empty resets it.
type OutputFormatRequest struct {
	Format string `json:"format"`
}

// DatasetSearchResponse is returned by a dataset search
type DatasetSearchResponse struct {
	Datasets []models.Dataset `json:"datasets"`
	// Flow is the dashboard the category leads to
	Flow string `json:"flow"`
}

// Dataset endpoints

// searchDatasets handles POST /api/v1/datasets/search
func (s *Server) searchDatasets(c *gin.Context) {
	var q models.DatasetQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := q.Range().Validate(); err != nil {
		s.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	datasets, err := s.datasetService.Search(c.Request.Context(), q)
	if err != nil {
		s.failure(c, err, "Dataset search failed")
		return
	}

	flow := "agriculture"
	if q.Category == models.NightLightsCategory {
		flow = "night-lights"
	}
	s.successResponse(c, DatasetSearchResponse{Datasets: datasets, Flow: flow})
}

// listDatasets handles GET /api/v1/datasets
func (s *Server) listDatasets(c *gin.Context) {
	s.successResponse(c, s.datasetService.List(c.Request.Context()))
}

// saveDatasets handles PUT /api/v1/datasets
func (s *Server) saveDatasets(c *gin.Context) {
	var datasets []models.Dataset
	if err := c.ShouldBindJSON(&datasets); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := s.datasetService.Save(c.Request.Context(), datasets); err != nil {
		s.failure(c, err, "Failed to save datasets")
		return
	}
	s.successResponse(c, datasets)
}

// downloadDataset handles GET /api/v1/datasets/:id/download. The link is
// returned unless redirect=true.
func (s *Server) downloadDataset(c *gin.Context) {
	ctx := c.Request.Context()

	ds, ok := s.datasetService.Get(ctx, c.Param("id"))
	if !ok {
		s.errorResponse(c, http.StatusNotFound, "Dataset not found")
		return
	}

	link, err := s.datasetService.DownloadURL(ctx, ds)
	if err != nil {
		s.failure(c, err, "Download unavailable")
		return
	}

	if c.Query("redirect") == "true" {
		c.Redirect(http.StatusFound, link)
		return
	}
	s.successResponse(c, map[string]string{"url": link})
}

// getOutputFormat handles GET /api/v1/settings/output-format
func (s *Server) getOutputFormat(c *gin.Context) {
	s.successResponse(c, OutputFormatRequest{Format: s.datasetService.OutputFormat(c.Request.Context())})
}

// setOutputFormat handles PUT /api/v1/settings/output-format
func (s *Server) setOutputFormat(c *gin.Context) {
	var req OutputFormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := s.datasetService.SetOutputFormat(c.Request.Context(), req.Format); err != nil {
		s.failure(c, err, "Failed to save output format")
		return
	}
	s.successResponse(c, OutputFormatRequest{Format: s.datasetService.OutputFormat(c.Request.Context())})
}
