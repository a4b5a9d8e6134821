package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/AI2HU/satlens/internal/cache"
	"github.com/AI2HU/satlens/internal/metrics"
	"github.com/AI2HU/satlens/internal/store"
)

var (
	cacheScope string
	cacheYes   bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the result store",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached analysis results, oldest first",
	RunE:  runCacheList,
}

var cacheShowCmd = &cobra.Command{
	Use:   "show [dataset-id]",
	Short: "Print a cached result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheShow,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached results or a whole scope",
	Long: `Clear the cached analysis results. With --scope, clear every key in the scope:
  results      analysis and series results
  reports      generated reports
  exploration  everything tied to the current exploration
  session      everything, including natural resources history`,
	RunE: runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheClearCmd.Flags().StringVarP(&cacheScope, "scope", "s", "", "Scope to clear (results, reports, exploration, session)")
	cacheClearCmd.Flags().BoolVarP(&cacheYes, "yes", "y", false, "Do not ask for confirmation")
}

func runCacheList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	results := resultCache.LoadAll(ctx)

	if len(results) == 0 {
		fmt.Printf("%sNo cached results. Run 'satlens run' first!%s\n", WarningStyle, Reset)
		return nil
	}

	fmt.Printf("%s📦 Cached Results (%d/%d)%s\n", HeaderStyle, len(results), cache.MaxResults, Reset)
	fmt.Printf("%s======================%s\n", DimStyle, Reset)
	fmt.Println()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%sDATASET\tANALYSIS\tTIMESTAMP\tNDVI\tSIZE%s\n", LabelStyle, Reset)
	fmt.Fprintf(w, "%s───────\t────────\t─────────\t────\t────%s\n", DimStyle, Reset)
	for _, r := range results {
		when := r.Timestamp
		if t := r.Time(); !t.IsZero() {
			when = humanize.Time(t)
		}
		size := "-"
		if raw, err := json.Marshal(r); err == nil {
			size = humanize.Bytes(uint64(len(raw)))
		}
		health := "-"
		if mean, ok := r.Stats.Value("NDVI_mean"); ok {
			health = fmt.Sprintf("%.2f %s", mean, FormatHealth(metrics.ClassifyHealth(mean)))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", FormatValue(r.DatasetID), FormatSecondary(r.Analysis), FormatMeta(when), health, size)
	}
	w.Flush()

	if total, err := kv.Size(ctx); err == nil {
		fmt.Println()
		fmt.Printf("%sStore size: %s\n", LabelStyle, FormatValue(humanize.Bytes(uint64(total))))
	}
	return nil
}

func runCacheShow(cmd *cobra.Command, args []string) error {
	r, err := analysisService.GetResult(context.Background(), args[0])
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	target := "cached analysis results"
	var scope store.Scope
	if cacheScope != "" {
		s, ok := store.ParseScope(cacheScope)
		if !ok {
			return fmt.Errorf("invalid scope: %s (must be results, reports, exploration or session)", cacheScope)
		}
		scope = s
		target = fmt.Sprintf("every key in scope %s", s)
	}

	if !cacheYes {
		reader := bufio.NewReader(os.Stdin)
		confirmed, err := promptYesNo(reader, fmt.Sprintf("Delete %s? (y/N): ", target))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	var err error
	if scope == "" {
		err = analysisService.ClearResults(ctx)
	} else {
		err = kvStore.Clear(ctx, scope)
	}
	if err != nil {
		return fmt.Errorf("failed to clear: %w", err)
	}

	fmt.Printf("%s✅ Cleared %s%s\n", SuccessStyle, target, Reset)
	return nil
}
