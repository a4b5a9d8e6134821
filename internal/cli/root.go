package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AI2HU/satlens/internal/backend"
	"github.com/AI2HU/satlens/internal/cache"
	"github.com/AI2HU/satlens/internal/config"
	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/db/memory"
	"github.com/AI2HU/satlens/internal/db/mongodb"
	"github.com/AI2HU/satlens/internal/db/sqlite"
	"github.com/AI2HU/satlens/internal/geo"
	"github.com/AI2HU/satlens/internal/logger"
	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/objectstore"
	"github.com/AI2HU/satlens/internal/scheduler"
	"github.com/AI2HU/satlens/internal/services"
	"github.com/AI2HU/satlens/internal/stats"
	"github.com/AI2HU/satlens/internal/store"
	"github.com/AI2HU/satlens/internal/telemetry"
)

var (
	cfgFile string
	cfg     *config.Config

	kv          db.KVStore
	archive     db.ArchiveDatabase
	kvStore     *store.Store
	resultCache *cache.ResultCache
	promMetrics *telemetry.Metrics
	client      *backend.Client
	projector   geo.Projector

	analysisService  *services.AnalysisService
	datasetService   *services.DatasetService
	dashboardService *services.DashboardService
	reportService    *services.ReportService
	resourceService  *services.ResourceService
	statsService     *services.StatsService
	sched            *scheduler.Scheduler
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "satlens",
	Short: "Satellite analytics dashboards backed by a cached result store",
	Long: `Satlens sends analysis jobs for satellite datasets to an analysis backend,
keeps the most recent results in a local store and turns them into agriculture,
night-time lights and natural resources dashboards.

Results can be archived to MongoDB, reports mirrored to an S3-compatible bucket
and the stored datasets refreshed on a schedule.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip init for the commands that work without a configured runtime
		if cmd.Name() == "init" || cmd.Name() == "help" {
			return nil
		}

		if cfgFile == "" {
			cfgFile = config.GetConfigPath()
		}

		if !config.Exists(cfgFile) {
			return fmt.Errorf("configuration file not found at %s. Run 'satlens init' to create one", cfgFile)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger.Init(logger.ParseLogLevel(cfg.LogLevel), os.Stdout)

		// migrate manages the store schema itself
		if cmd.Parent() == migrateCmd {
			return nil
		}

		return setupRuntime(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if archive != nil {
			if err := archive.Disconnect(ctx); err != nil {
				logger.Warning("Failed to disconnect archive: %v", err)
			}
		}
		if kv != nil {
			return kv.Disconnect(ctx)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.satlens/config.yaml)")

	// Disable completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(schedulerCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(migrateCmd)
}

// setupRuntime connects the store and archive and builds every service
func setupRuntime(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	kv, err = newKVStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	if err := kv.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}

	var archiveStats services.ArchiveStatsSource
	if cfg.Archive.Provider == "mongodb" {
		mongo, err := mongodb.New(modelConfig(cfg.Archive))
		if err != nil {
			return fmt.Errorf("failed to create archive: %w", err)
		}
		if err := mongo.Connect(ctx); err != nil {
			// the dashboards keep working from the local store
			logger.Warning("Archive unavailable, continuing without it: %v", err)
		} else {
			archive = mongo
			archiveStats = stats.New(mongo.GetDatabase())
		}
	}

	var mirror services.ReportMirror
	if cfg.ObjectStore.Enabled() {
		m, err := objectstore.New(ctx, cfg.ObjectStore)
		if err != nil {
			logger.Warning("Report mirror unavailable, continuing without it: %v", err)
		} else {
			mirror = m
		}
	}

	kvStore = store.New(kv)
	promMetrics = telemetry.New()
	resultCache = cache.New(kvStore)
	resultCache.SetObserver(promMetrics)
	client = backend.New(cfg.Backend)
	projector = geo.NewProjector(cfg.Geo.PixelSizeMeters, cfg.Geo.KmPerDegree)

	analysisService = services.NewAnalysisService(client, resultCache, kvStore, archive, promMetrics, cfg.Backend.Timeout)
	datasetService = services.NewDatasetService(client, kvStore)
	dashboardService = services.NewDashboardService(resultCache, kvStore, projector)
	reportService = services.NewReportService(client, resultCache, kvStore, mirror)
	resourceService = services.NewResourceService(kvStore)
	statsService = services.NewStatsService(resultCache, kvStore, archiveStats)
	sched = scheduler.New(analysisService, cfg.Refresh)

	return nil
}

// newKVStore creates the configured key/value store without connecting it
func newKVStore(c config.DatabaseConfig) (db.KVStore, error) {
	switch c.Provider {
	case "sqlite":
		return sqlite.New(modelConfig(c))
	case "memory":
		var maxBytes int64
		if raw := c.Options[sqlite.OptionMaxBytes]; raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid %s option %q", sqlite.OptionMaxBytes, raw)
			}
			maxBytes = n
		}
		return memory.New(maxBytes), nil
	default:
		return nil, fmt.Errorf("unsupported store provider: %s", c.Provider)
	}
}

func modelConfig(c config.DatabaseConfig) *models.Config {
	return &models.Config{
		Provider: c.Provider,
		URI:      c.URI,
		Database: c.Database,
		Options:  c.Options,
	}
}
