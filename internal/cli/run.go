package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AI2HU/satlens/internal/services"
)

var runAnalysis string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyse every stored dataset once",
	Long:  `Send every stored dataset to the analysis backend immediately and cache the results. Use 'satlens scheduler start' for scheduled refreshes.`,
	RunE:  runCommand,
}

func init() {
	runCmd.Flags().StringVarP(&runAnalysis, "analysis", "a", "", "Analysis to run for every dataset (default: per-category choice)")
}

func runCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	datasets := datasetService.List(ctx)

	fmt.Printf("%s🔄 Analysing stored datasets%s\n", InfoStyle, Reset)
	fmt.Printf("%s===========================%s\n", DimStyle, Reset)
	fmt.Printf("%sDatasets: %s%s\n", LabelStyle, FormatCount(len(datasets)), Reset)
	fmt.Printf("%sBackend: %s%s\n", LabelStyle, FormatValue(cfg.Backend.BaseURL), Reset)
	fmt.Println()

	outcome, err := analysisService.AnalyseDatasets(ctx, datasets, nil, runAnalysis)
	if errors.Is(err, services.ErrNoDatasets) {
		fmt.Printf("%s❌ No stored datasets%s\n", ErrorStyle, Reset)
		fmt.Printf("%s💡 Search datasets through the API first (POST /api/v1/datasets/search)%s\n", InfoStyle, Reset)
		return nil
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	for _, r := range outcome.Results {
		fmt.Printf("%s✅ %s%s %s\n", SuccessStyle, Reset, FormatValue(r.DatasetID), FormatSecondary(r.Analysis))
	}
	if outcome.Warning != "" {
		fmt.Printf("%s⚠️  %s%s\n", WarningStyle, outcome.Warning, Reset)
	}

	fmt.Println()
	fmt.Printf("%s🎉 Cached %s result(s)%s\n", SuccessStyle, FormatCount(len(outcome.Results)), Reset)
	return nil
}
