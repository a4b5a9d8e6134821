package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AI2HU/satlens/internal/config"
	"github.com/AI2HU/satlens/internal/db/mongodb"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize satlens configuration",
	Long:  `Interactive wizard to set up the result store, the analysis backend and the optional archive.`,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("%s🚀 Welcome to Satlens Setup%s\n", HeaderStyle, Reset)
	fmt.Printf("%s==========================%s\n", DimStyle, Reset)
	fmt.Println()

	configPath := cfgFile
	if configPath == "" {
		configPath = config.GetConfigPath()
	}
	if config.Exists(configPath) {
		fmt.Printf("Configuration file already exists at: %s\n", configPath)
		confirmed, err := promptYesNo(reader, "Do you want to overwrite it? (y/N): ")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()

	// Store configuration
	fmt.Printf("\n%s📦 Result Store%s\n", TitleStyle, Reset)
	fmt.Printf("%s--------------%s\n", DimStyle, Reset)

	provider, err := promptWithRetry(reader, "Store provider (sqlite/memory) [sqlite]: ", validateStoreProvider)
	if err != nil {
		return err
	}
	cfg.Store.Provider = provider

	if provider == "sqlite" {
		uri, err := promptOptional(reader, fmt.Sprintf("SQLite file [%s]: ", cfg.Store.URI), cfg.Store.URI)
		if err != nil {
			return err
		}
		cfg.Store.URI = uri
	} else {
		cfg.Store.URI = ""
	}

	// Backend configuration
	fmt.Printf("\n%s🛰️  Analysis Backend%s\n", TitleStyle, Reset)
	fmt.Printf("%s------------------%s\n", DimStyle, Reset)

	baseURL, err := promptWithRetry(reader, fmt.Sprintf("Backend URL [%s]: ", cfg.Backend.BaseURL), func(input string) (string, error) {
		return validateBaseURL(input, cfg.Backend.BaseURL)
	})
	if err != nil {
		return err
	}
	cfg.Backend.BaseURL = baseURL

	seconds := int(cfg.Backend.Timeout.Seconds())
	_, err = promptWithRetry(reader, fmt.Sprintf("Request timeout in seconds [%d]: ", seconds), func(input string) (string, error) {
		n, err := validateNumber(input, seconds, 1, 3600)
		if err == nil {
			seconds = n
		}
		return input, err
	})
	if err != nil {
		return err
	}
	cfg.Backend.Timeout = time.Duration(seconds) * time.Second

	// Archive configuration
	fmt.Printf("\n%s🗄️  Result Archive%s\n", TitleStyle, Reset)
	fmt.Printf("%s----------------%s\n", DimStyle, Reset)

	useArchive, err := promptYesNo(reader, "Archive every result to MongoDB? (y/N): ")
	if err != nil {
		return err
	}
	if useArchive {
		uri, err := promptOptional(reader, "MongoDB URI [mongodb://localhost:27017]: ", "mongodb://localhost:27017")
		if err != nil {
			return err
		}
		name, err := promptOptional(reader, "Database name [satlens]: ", "satlens")
		if err != nil {
			return err
		}
		cfg.Archive.Provider = "mongodb"
		cfg.Archive.URI = uri
		cfg.Archive.Database = name

		fmt.Printf("\n%s🔌 Testing archive connection...%s\n", InfoStyle, Reset)
		if err := testArchive(cfg.Archive); err != nil {
			fmt.Printf("%s❌ Failed to connect to archive: %v%s\n", ErrorStyle, err, Reset)
			keep, perr := promptYesNo(reader, "Keep the archive settings anyway? (y/N): ")
			if perr != nil {
				return perr
			}
			if !keep {
				cfg.Archive = config.DatabaseConfig{}
			}
		} else {
			fmt.Printf("%s✅ Archive connection successful!%s\n", SuccessStyle, Reset)
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Printf("\n%s💾 Saving configuration...%s\n", InfoStyle, Reset)
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("%s✅ Configuration saved to: %s%s\n", SuccessStyle, configPath, Reset)

	// Summary
	fmt.Printf("\n%s📋 Configuration Summary%s\n", HeaderStyle, Reset)
	fmt.Printf("%s========================%s\n", DimStyle, Reset)
	fmt.Println(FormatLabelValue("Store:", cfg.Store.Provider))
	if cfg.Store.URI != "" {
		fmt.Println(FormatLabelValue("Store file:", cfg.Store.URI))
	}
	fmt.Println(FormatLabelValue("Backend:", cfg.Backend.BaseURL))
	fmt.Println(FormatLabelValue("Timeout:", cfg.Backend.Timeout.String()))
	if cfg.Archive.Provider != "" {
		fmt.Println(FormatLabelValue("Archive:", cfg.Archive.URI+"/"+cfg.Archive.Database))
	} else {
		fmt.Println(FormatLabelValue("Archive:", "disabled"))
	}
	fmt.Println()
	fmt.Printf("%s🎉 Setup complete! You can now use satlens.%s\n", SuccessStyle, Reset)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Start the API: satlens api")
	fmt.Println("  2. Search datasets: POST /api/v1/datasets/search")
	fmt.Println("  3. Analyse them: satlens run")
	fmt.Println("  4. Add refresh schedules to the config and run: satlens scheduler start")

	return nil
}

func testArchive(c config.DatabaseConfig) error {
	archive, err := mongodb.New(modelConfig(c))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := archive.Connect(ctx); err != nil {
		return err
	}
	defer archive.Disconnect(ctx)

	return archive.Ping(ctx)
}
