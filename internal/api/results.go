package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/services"
	"github.com/AI2HU/satlens/internal/shared"
	"github.com/AI2HU/satlens/internal/store"
)

// AnalyseAllRequest runs a batch. Jobs, when given, are sent as they are;
// otherwise jobs are built from Datasets (or the stored datasets) with
// Choices mapping dataset ids to analysis types and Analysis as the fallback.
type AnalyseAllRequest struct {
	Jobs     []models.AnalysisJob `json:"jobs,omitempty"`
	Datasets []models.Dataset     `json:"datasets,omitempty"`
	Choices  map[string]string    `json:"choices,omitempty"`
	Analysis string               `json:"analysis,omitempty"`
}

// Result endpoints

// listResults handles GET /api/v1/results
func (s *Server) listResults(c *gin.Context) {
	all := s.analysisService.ListResults(c.Request.Context())

	analysis := c.Query("analysis")
	prefix := c.Query("prefix")
	filtered := make([]models.AnalysisResult, 0, len(all))
	for _, r := range all {
		if analysis != "" && r.Analysis != analysis {
			continue
		}
		if prefix != "" && !r.HasPrefix(prefix) {
			continue
		}
		filtered = append(filtered, r)
	}

	limit := shared.ParseLimit(c, "limit", len(filtered), 1000)
	offset := shared.ParseLimit(c, "offset", 0, 1<<30)
	page := filtered[min(offset, len(filtered)):]
	if len(page) > limit {
		page = page[:limit]
	}

	s.successResponse(c, models.PaginatedResponse{
		Items:  page,
		Total:  len(filtered),
		Limit:  limit,
		Offset: offset,
	})
}

// getResult handles GET /api/v1/results/:id
func (s *Server) getResult(c *gin.Context) {
	r, err := s.analysisService.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.failure(c, err, "Result not found")
		return
	}
	s.successResponse(c, r)
}

// upsertResult handles POST /api/v1/results
func (s *Server) upsertResult(c *gin.Context) {
	var r models.AnalysisResult
	if err := c.ShouldBindJSON(&r); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	s.keepResults(c, []models.AnalysisResult{r})
}

// upsertResults handles POST /api/v1/results/batch
func (s *Server) upsertResults(c *gin.Context) {
	var rs []models.AnalysisResult
	if err := c.ShouldBindJSON(&rs); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	s.keepResults(c, rs)
}

func (s *Server) keepResults(c *gin.Context, rs []models.AnalysisResult) {
	for _, r := range rs {
		if r.DatasetID == "" {
			s.errorResponse(c, http.StatusBadRequest, "dataset_id is required")
			return
		}
	}

	outcome, err := s.analysisService.UpsertResults(c.Request.Context(), rs)
	if err != nil {
		s.failure(c, err, "Failed to save results")
		return
	}
	s.outcomeResponse(c, outcome)
}

// clearResults handles DELETE /api/v1/results. Without a scope only cached
// analysis results are removed.
func (s *Server) clearResults(c *gin.Context) {
	ctx := c.Request.Context()

	name := c.Query("scope")
	if name == "" {
		if err := s.analysisService.ClearResults(ctx); err != nil {
			s.failure(c, err, "Failed to clear results")
			return
		}
		c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "Results cleared"})
		return
	}

	scope, ok := store.ParseScope(name)
	if !ok {
		s.errorResponse(c, http.StatusBadRequest, "Invalid scope. Must be one of: results, reports, exploration, session")
		return
	}
	if err := s.store.Clear(ctx, scope); err != nil {
		s.failure(c, err, "Failed to clear "+name)
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "Cleared scope " + string(scope)})
}

// Analysis endpoints

// analyse handles POST /api/v1/analyse
func (s *Server) analyse(c *gin.Context) {
	var job models.AnalysisJob
	if err := c.ShouldBindJSON(&job); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	outcome, err := s.analysisService.AnalyseOne(c.Request.Context(), job)
	if err != nil {
		s.failure(c, err, "Analysis failed")
		return
	}
	s.outcomeResponse(c, outcome)
}

// analyseAll handles POST /api/v1/analyse/all
func (s *Server) analyseAll(c *gin.Context) {
	var req AnalyseAllRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
	}

	var (
		outcome *services.AnalysisOutcome
		err     error
	)
	if len(req.Jobs) > 0 {
		outcome, err = s.analysisService.AnalyseAll(c.Request.Context(), req.Jobs)
	} else {
		outcome, err = s.analysisService.AnalyseDatasets(c.Request.Context(), req.Datasets, req.Choices, req.Analysis)
	}
	if err != nil {
		s.failure(c, err, "Batch analysis failed")
		return
	}
	s.outcomeResponse(c, outcome)
}

func (s *Server) outcomeResponse(c *gin.Context, outcome *services.AnalysisOutcome) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    outcome.Results,
		Warning: outcome.Warning,
	})
}

// Series endpoints

// getSeries handles GET /api/v1/series
func (s *Server) getSeries(c *gin.Context) {
	r, ok := s.analysisService.LoadSeries(c.Request.Context())
	if !ok {
		s.errorResponse(c, http.StatusNotFound, "No time-series analysis stored")
		return
	}
	s.successResponse(c, r)
}

// putSeries handles PUT /api/v1/series
func (s *Server) putSeries(c *gin.Context) {
	var req services.SeriesResults
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if len(req.Results) == 0 || req.Results[0].Series == nil {
		s.errorResponse(c, http.StatusBadRequest, "results[0].series is required")
		return
	}

	if err := s.analysisService.SaveSeries(c.Request.Context(), req); err != nil {
		s.failure(c, err, "Failed to save series")
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: "Series saved"})
}
