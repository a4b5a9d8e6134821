package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/AI2HU/satlens/internal/models"
	"github.com/AI2HU/satlens/internal/stats"
)

var (
	statsDays  int
	statsLimit int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "View cache and archive statistics",
	Long:  `View what the result cache holds and, when an archive is configured, what has been archived.`,
	RunE:  runStats,
}

var statsDatasetCmd = &cobra.Command{
	Use:   "dataset [id]",
	Short: "View archive statistics for a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatsDataset,
}

func init() {
	statsCmd.AddCommand(statsDatasetCmd)

	statsCmd.Flags().IntVarP(&statsDays, "days", "d", 30, "Archive trend window in days")
	statsCmd.PersistentFlags().IntVarP(&statsLimit, "limit", "l", 10, "Limit number of rows")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st, err := statsService.GetOverallStats(ctx, statsDays)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	fmt.Printf("%s📊 Result Cache%s\n", HeaderStyle, Reset)
	fmt.Printf("%s===============%s\n", DimStyle, Reset)
	fmt.Printf("%sResults: %s / %s\n", LabelStyle, FormatCount(st.Cache.Results), FormatCount(st.Cache.Capacity))
	fmt.Printf("%sStored: %s\n", LabelStyle, FormatValue(humanize.Bytes(uint64(st.Cache.StoredBytes))))
	if st.Cache.Newest != nil {
		fmt.Printf("%sNewest: %s\n", LabelStyle, FormatMeta(humanize.Time(*st.Cache.Newest)))
	}
	if st.Cache.Oldest != nil {
		fmt.Printf("%sOldest: %s\n", LabelStyle, FormatMeta(humanize.Time(*st.Cache.Oldest)))
	}
	fmt.Println()

	if len(st.Cache.ByAnalysis) == 0 {
		fmt.Printf("%sNo cached results yet. Run 'satlens run' first!%s\n", WarningStyle, Reset)
	} else {
		printCounts(cmd, st.Cache.ByAnalysis)
	}

	if st.Archive == nil {
		fmt.Println()
		fmt.Printf("%sArchive: %s\n", LabelStyle, FormatMeta("disabled"))
		return nil
	}

	fmt.Println()
	fmt.Printf("%s🗄️  Archive (last %d days)%s\n", HeaderStyle, statsDays, Reset)
	fmt.Printf("%s========================%s\n", DimStyle, Reset)
	fmt.Printf("%sTotal results: %s\n", LabelStyle, FormatValue(humanize.Comma(int64(st.Archive.TotalResults))))
	fmt.Println()
	printCounts(cmd, st.Archive.ByAnalysis)

	if len(st.Archive.Trend) > 0 {
		fmt.Println()
		fmt.Printf("%sDaily archived results:%s\n", SuccessStyle, Reset)
		for _, p := range st.Archive.Trend {
			fmt.Printf("  %s %s\n", FormatMeta(p.Timestamp.Format("2006-01-02")), FormatCount(p.Count))
		}
	}
	return nil
}

func printCounts(cmd *cobra.Command, counts []models.AnalysisCount) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%sRANK\tANALYSIS\tRESULTS%s\n", LabelStyle, Reset)
	fmt.Fprintf(w, "%s────\t────────\t───────%s\n", DimStyle, Reset)
	for i, c := range counts {
		if i >= statsLimit {
			break
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", FormatCount(i+1), FormatValue(c.Analysis), FormatCount(c.Count))
	}
	w.Flush()
}

func runStatsDataset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]

	st, err := statsService.GetDatasetStats(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get dataset stats: %w", err)
	}

	fmt.Printf("%s📊 Dataset Statistics: %s%s\n", HeaderStyle, CountStyle+id+Reset, Reset)
	fmt.Printf("%s========================%s\n", DimStyle, Reset)
	fmt.Println()

	fmt.Printf("%sArchived results: %s\n", LabelStyle, FormatCount(st.TotalResults))
	if st.MeanNDVI != nil {
		fmt.Printf("%sMean NDVI: %s\n", LabelStyle, FormatValue(fmt.Sprintf("%.3f", *st.MeanNDVI)))
	}
	fmt.Printf("%sFirst Seen: %s\n", LabelStyle, FormatMeta(st.FirstSeen.Format("2006-01-02 15:04:05")))
	fmt.Printf("%sLast Seen: %s (%s)\n", LabelStyle, FormatMeta(st.LastSeen.Format("2006-01-02 15:04:05")), humanize.Time(st.LastSeen))
	fmt.Println()

	fmt.Printf("%sBy Analysis:%s\n", SuccessStyle, Reset)
	fmt.Printf("%s────────────%s\n", DimStyle, Reset)
	counts := make([]models.AnalysisCount, 0, len(st.ByAnalysis))
	for name, n := range st.ByAnalysis {
		counts = append(counts, models.AnalysisCount{Analysis: name, Count: n})
	}
	stats.SortCounts(counts)
	for i, c := range counts {
		if i >= statsLimit {
			break
		}
		fmt.Printf("  %s%d. %s%s %s\n", CountStyle, i+1, Reset, FormatValue(c.Analysis), FormatCount(c.Count))
	}
	return nil
}
