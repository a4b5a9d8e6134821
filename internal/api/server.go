package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AI2HU/satlens/internal/backend"
	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/geo"
	"github.com/AI2HU/satlens/internal/logger"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/services"
	"github.com/AI2HU/satlens/internal/store"
	"github.com/AI2HU/satlens/internal/telemetry"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Dependencies are the services the server exposes. Archive and Metrics may be nil.
type Dependencies struct {
	Store     *store.Store
	Archive   db.ArchiveDatabase
	Projector geo.Projector
	Metrics   *telemetry.Metrics

	Analysis  *services.AnalysisService
	Datasets  *services.DatasetService
	Dashboard *services.DashboardService
	Reports   *services.ReportService
	Resources *services.ResourceService
	Stats     *services.StatsService
}

// Server is the REST API
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	corsOrigin string

	store     *store.Store
	archive   db.ArchiveDatabase
	projector geo.Projector
	metrics   *telemetry.Metrics

	analysisService  *services.AnalysisService
	datasetService   *services.DatasetService
	dashboardService *services.DashboardService
	reportService    *services.ReportService
	resourceService  *services.ResourceService
	statsService     *services.StatsService
}

// NewServer creates a server and registers its routes
func NewServer(deps Dependencies, corsOrigin string) *Server {
	if !logger.IsDebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:           gin.New(),
		corsOrigin:       corsOrigin,
		store:            deps.Store,
		archive:          deps.Archive,
		projector:        deps.Projector,
		metrics:          deps.Metrics,
		analysisService:  deps.Analysis,
		datasetService:   deps.Datasets,
		dashboardService: deps.Dashboard,
		reportService:    deps.Reports,
		resourceService:  deps.Resources,
		statsService:     deps.Stats,
	}

	s.router.Use(gin.Recovery(), s.requestID(), s.requestLogger(), s.cors())
	s.setupRoutes()
	return s
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")

	v1.GET("/health", s.healthCheck)

	results := v1.Group("/results")
	results.GET("", s.listResults)
	results.GET("/:id", s.getResult)
	results.POST("", s.upsertResult)
	results.POST("/batch", s.upsertResults)
	results.DELETE("", s.clearResults)

	v1.POST("/analyse", s.analyse)
	v1.POST("/analyse/all", s.analyseAll)

	v1.GET("/series", s.getSeries)
	v1.PUT("/series", s.putSeries)

	datasets := v1.Group("/datasets")
	datasets.POST("/search", s.searchDatasets)
	datasets.GET("", s.listDatasets)
	datasets.PUT("", s.saveDatasets)
	datasets.GET("/:id/download", s.downloadDataset)

	v1.GET("/settings/output-format", s.getOutputFormat)
	v1.PUT("/settings/output-format", s.setOutputFormat)

	v1.GET("/dashboards/agriculture", s.agricultureDashboard)
	v1.GET("/dashboards/night-lights", s.nightLightsDashboard)

	v1.POST("/project", s.project)

	v1.POST("/reports/:kind", s.generateReport)
	v1.GET("/reports/:kind", s.getReport)

	resources := v1.Group("/resources")
	resources.POST("", s.recordResource)
	resources.GET("/latest", s.latestResource)
	resources.GET("/history", s.resourceHistory)

	v1.GET("/stats", s.getStats)
	v1.GET("/stats/datasets/:id", s.getDatasetStats)

	v1.GET("/archive", s.listArchive)
	v1.GET("/archive/:id", s.getArchived)
}

// Run starts the server and blocks until it stops
func (s *Server) Run(address string) error {
	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("API listening on %s", address)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(backend.RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(backend.RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s %d %s [%s]", c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Round(time.Microsecond), c.GetString("request_id"))
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := s.corsOrigin
		if origin == "" {
			origin = "*"
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+backend.RequestIDHeader)
		c.Header("Access-Control-Expose-Headers", backend.RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    data,
	})
}

func (s *Server) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// failure maps a service error to a status code and writes it
func (s *Server) failure(c *gin.Context, err error, message string) {
	s.errorResponse(c, statusFor(err), message+": "+err.Error())
}

func statusFor(err error) int {
	var backendErr *backend.Error
	switch {
	case errors.Is(err, services.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNoDatasets),
		errors.Is(err, services.ErrReportInputs),
		errors.Is(err, services.ErrNoDownload),
		errors.Is(err, geo.ErrDegenerateLongitude):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &backendErr):
		return http.StatusBadGateway
	case errors.Is(err, db.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
