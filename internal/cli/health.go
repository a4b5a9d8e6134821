package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the store, archive and report mirror",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Printf("%s🩺 Health Check%s\n", HeaderStyle, Reset)
	fmt.Printf("%s===============%s\n", DimStyle, Reset)

	healthy := true

	start := time.Now()
	if err := kv.Ping(ctx); err != nil {
		healthy = false
		fmt.Printf("%s❌ Store (%s): %v%s\n", ErrorStyle, cfg.Store.Provider, err, Reset)
	} else {
		fmt.Printf("%s✅ Store (%s)%s %s\n", SuccessStyle, cfg.Store.Provider, Reset, FormatMeta(formatDuration(time.Since(start))))
	}

	switch {
	case cfg.Archive.Provider == "":
		fmt.Printf("%s➖ Archive disabled%s\n", DimStyle, Reset)
	case archive == nil:
		healthy = false
		fmt.Printf("%s❌ Archive unreachable at %s%s\n", ErrorStyle, cfg.Archive.URI, Reset)
	default:
		start = time.Now()
		if err := archive.Ping(ctx); err != nil {
			healthy = false
			fmt.Printf("%s❌ Archive: %v%s\n", ErrorStyle, err, Reset)
		} else {
			fmt.Printf("%s✅ Archive (%s)%s %s\n", SuccessStyle, cfg.Archive.Database, Reset, FormatMeta(formatDuration(time.Since(start))))
		}
	}

	if cfg.ObjectStore.Enabled() {
		fmt.Printf("%s✅ Report mirror%s %s bucket=%s key=%s\n", SuccessStyle, Reset,
			cfg.ObjectStore.Endpoint, cfg.ObjectStore.Bucket, maskSensitiveData(cfg.ObjectStore.AccessKey, "*"))
	} else {
		fmt.Printf("%s➖ Report mirror disabled%s\n", DimStyle, Reset)
	}

	fmt.Println(FormatLabelValue("Backend:", cfg.Backend.BaseURL))
	fmt.Println(FormatLabelValue("Busy:", fmt.Sprint(analysisService.Busy())))

	if !healthy {
		return fmt.Errorf("one or more components are unhealthy")
	}
	return nil
}
