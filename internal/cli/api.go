package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AI2HU/satlens/internal/api"
	"github.com/AI2HU/satlens/internal/logger"
)

var (
	apiPort       string
	apiHost       string
	corsOrigin    string
	withScheduler bool
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the Satlens REST API server",
	Long: `Start the Satlens REST API server exposing:
- Cached analysis results (list, upsert, clear by scope)
- Analysis runs against the backend (single dataset or batch)
- Dataset search, download links and output format
- Agriculture and night-time lights dashboards, pixel projection
- Reports, natural resources history, stats and the archive

The API runs on HTTP (no authentication required for now).`,
	RunE: runAPI,
}

func init() {
	apiCmd.Flags().StringVarP(&apiPort, "port", "p", "8989", "Port to run the API server on")
	apiCmd.Flags().StringVarP(&apiHost, "host", "H", "0.0.0.0", "Host to bind the API server to")
	apiCmd.Flags().StringVarP(&corsOrigin, "cors-origin", "c", "", "CORS origin to allow (overrides config file, use '*' for all origins)")
	apiCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "Also run the configured refresh schedules")
}

func runAPI(cmd *cobra.Command, args []string) error {
	selectedCORSOrigin := corsOrigin
	if selectedCORSOrigin == "" {
		if cfg.CORSOrigin != "" {
			selectedCORSOrigin = cfg.CORSOrigin
		} else {
			selectedCORSOrigin = "*"
		}
	}

	fmt.Printf("%s🚀 Starting Satlens API Server%s\n", HeaderStyle, Reset)
	fmt.Printf("%s==============================%s\n", DimStyle, Reset)
	fmt.Println(FormatLabelValue("Host:", apiHost))
	fmt.Println(FormatLabelValue("Port:", apiPort))
	fmt.Println(FormatLabelValue("CORS Origin:", selectedCORSOrigin))
	fmt.Println(FormatLabelValue("Store:", cfg.Store.Provider))
	fmt.Println(FormatLabelValue("Backend:", cfg.Backend.BaseURL))
	fmt.Println(FormatLabelValue("URL:", fmt.Sprintf("http://%s:%s/api/v1", apiHost, apiPort)))
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kv.Ping(ctx); err != nil {
		return fmt.Errorf("store ping failed: %w", err)
	}
	fmt.Printf("%s✅ Store connection successful!%s\n", SuccessStyle, Reset)
	if archive != nil {
		fmt.Printf("%s✅ Archive connected%s\n", SuccessStyle, Reset)
	}

	if withScheduler && len(cfg.Refresh) > 0 {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
		fmt.Printf("%s📅 Running %s refresh schedule(s)%s\n", InfoStyle, FormatCount(len(cfg.Refresh)), Reset)
	}

	server := api.NewServer(api.Dependencies{
		Store:     kvStore,
		Archive:   archive,
		Projector: projector,
		Metrics:   promMetrics,
		Analysis:  analysisService,
		Datasets:  datasetService,
		Dashboard: dashboardService,
		Reports:   reportService,
		Resources: resourceService,
		Stats:     statsService,
	}, selectedCORSOrigin)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(fmt.Sprintf("%s:%s", apiHost, apiPort))
	}()

	fmt.Printf("%s🌐 API Server is running!%s\n", SuccessStyle, Reset)
	fmt.Println()
	printEndpoints()
	fmt.Println("Press Ctrl+C to stop the server")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	fmt.Printf("\n%s🛑 Shutting down API server...%s\n", InfoStyle, Reset)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
		return err
	}
	return <-errCh
}

func printEndpoints() {
	groups := []struct {
		title  string
		routes [][2]string
	}{
		{"Results", [][2]string{
			{"GET    /api/v1/results", "List cached results"},
			{"GET    /api/v1/results/:id", "Get result by dataset id"},
			{"POST   /api/v1/results", "Upsert a result"},
			{"POST   /api/v1/results/batch", "Upsert several results"},
			{"DELETE /api/v1/results?scope=", "Clear results or a scope"},
			{"POST   /api/v1/analyse", "Analyse one dataset"},
			{"POST   /api/v1/analyse/all", "Analyse a batch"},
			{"GET    /api/v1/series", "Get the series result"},
		}},
		{"Datasets", [][2]string{
			{"POST   /api/v1/datasets/search", "Search datasets"},
			{"GET    /api/v1/datasets", "List stored datasets"},
			{"GET    /api/v1/datasets/:id/download", "Download link"},
			{"GET    /api/v1/settings/output-format", "Get output format"},
		}},
		{"Dashboards & Reports", [][2]string{
			{"GET    /api/v1/dashboards/agriculture", "Agriculture dashboard"},
			{"GET    /api/v1/dashboards/night-lights", "Night-time lights dashboard"},
			{"POST   /api/v1/project", "Project pixel offsets"},
			{"POST   /api/v1/reports/:kind", "Generate a report"},
			{"POST   /api/v1/resources", "Record a natural resources result"},
		}},
		{"Stats & Health", [][2]string{
			{"GET    /api/v1/stats", "Cache and archive statistics"},
			{"GET    /api/v1/archive", "Browse the archive"},
			{"GET    /api/v1/health", "Health check"},
			{"GET    /metrics", "Prometheus metrics"},
		}},
	}

	fmt.Printf("%s📚 Available Endpoints:%s\n", HeaderStyle, Reset)
	for _, g := range groups {
		fmt.Printf("  %s%s:%s\n", LabelStyle, g.title, Reset)
		for _, r := range g.routes {
			fmt.Printf("    %-40s %s\n", r[0], FormatDim("- "+r[1]))
		}
		fmt.Println()
	}
}
