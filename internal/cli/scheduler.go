package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the refresh scheduler",
	Long:  `Manage the Satlens refresh scheduler - start the configured schedules or run one now.`,
}

var schedulerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler",
	RunE:  runSchedulerStart,
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run [name]",
	Short: "Run a refresh schedule immediately",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedulerRun,
}

func init() {
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	fmt.Printf("%s🚀 Start Scheduler%s\n", FormatHeader(""), Reset)
	fmt.Printf("%s================%s\n", DimStyle, Reset)
	fmt.Println()

	if len(cfg.Refresh) == 0 {
		fmt.Printf("%s❌ No refresh schedules configured%s\n", ErrorStyle, Reset)
		fmt.Printf("%s💡 Add entries under 'refresh:' in %s%s\n", InfoStyle, cfgFile, Reset)
		return nil
	}

	fmt.Printf("%sStarting Schedules:%s\n", LabelStyle, Reset)
	for i, schedule := range cfg.Refresh {
		analysis := schedule.Analysis
		if analysis == "" {
			analysis = "default"
		}
		fmt.Printf("  %s%d. %s%s\n", CountStyle, i+1, Reset, FormatValue(schedule.Name))
		fmt.Printf("     %sCron: %s | Analysis: %s%s\n", DimStyle, schedule.CronExpr, analysis, Reset)
		if _, err := validateCronExpression(schedule.CronExpr); err != nil {
			fmt.Printf("     %s⚠️  %v, schedule will be skipped%s\n", WarningStyle, err, Reset)
		}
	}
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	fmt.Printf("%s✅ All schedules started successfully%s\n", SuccessStyle, Reset)
	fmt.Printf("%s📅 Running %s schedule(s)%s\n", InfoStyle, FormatCount(len(cfg.Refresh)), Reset)
	fmt.Printf("%s📝 Press Ctrl+C to stop the scheduler%s\n", InfoStyle, Reset)
	fmt.Println()

	<-ctx.Done()
	fmt.Printf("\n%s⏹️  Stopping scheduler...%s\n", InfoStyle, Reset)
	sched.Stop()
	fmt.Printf("%s✅ Scheduler stopped%s\n", SuccessStyle, Reset)

	return nil
}

func runSchedulerRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s🔄 Running schedule %s%s\n", InfoStyle, FormatValue(args[0]), Reset)
	if err := sched.ExecuteNow(ctx, args[0]); err != nil {
		return fmt.Errorf("schedule failed: %w", err)
	}
	if t, ok := sched.LastRun(args[0]); ok {
		fmt.Printf("%s✅ Completed at %s%s\n", SuccessStyle, t.Format("2006-01-02 15:04:05"), Reset)
	}
	return nil
}
