package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AI2HU/satlens/internal/db"
	"github.com/AI2HU/satlens/internal/db/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage store migrations",
	Long:  `Apply or inspect the embedded golang-migrate migrations of the SQLite store.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run all pending migrations",
	Long:  `Apply all pending store migrations.`,
	RunE:  runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"version"},
	Short:   "Show migration status",
	Long:    `Show the current migration version and whether it is dirty.`,
	RunE:    runMigrateStatus,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func requireSQLiteStore() error {
	if cfg.Store.Provider != "sqlite" {
		return fmt.Errorf("migrations only apply to the sqlite store, configured provider is %s", cfg.Store.Provider)
	}
	return nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	if err := requireSQLiteStore(); err != nil {
		return err
	}
	fmt.Printf("%s🔄 Running store migrations...%s\n", InfoStyle, Reset)

	ctx := context.Background()
	conn, err := sqlite.Open(ctx, cfg.Store.URI)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("%s✅ Migrations completed successfully!%s\n", SuccessStyle, Reset)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	if err := requireSQLiteStore(); err != nil {
		return err
	}
	fmt.Printf("%s📊 Migration Status%s\n", HeaderStyle, Reset)
	fmt.Printf("%s===================%s\n", DimStyle, Reset)

	conn, err := sqlite.Open(context.Background(), cfg.Store.URI)
	if err != nil {
		return err
	}
	defer conn.Close()

	version, dirty, err := db.MigrationVersion(conn)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	fmt.Println(FormatLabelValue("Store:", cfg.Store.URI))
	fmt.Printf("%sCurrent migration version:%s %s\n", LabelStyle, Reset, FormatCount(int(version)))
	if dirty {
		fmt.Printf("%s⚠️  Schema is dirty, a migration failed part way%s\n", WarningStyle, Reset)
	}
	return nil
}
