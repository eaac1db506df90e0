package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-recall/internal/config"
	"github.com/kozaktomas/face-recall/internal/database/postgres"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply the embedded schema migrations to the database in DATABASE_URL.

Examples:
  # Apply everything pending
  face-recall migrate

  # Only list what would be applied
  face-recall migrate --status`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().Bool("status", false, "List applied and pending migrations without applying")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	statusOnly := mustGetBool(cmd, "status")

	ctx := context.Background()
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pool, err := postgres.NewPool(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()

	if statusOnly {
		applied, err := pool.MigrationsApplied(ctx)
		if err != nil {
			return err
		}
		pending, err := pool.PendingMigrations(ctx)
		if err != nil {
			return err
		}
		for _, v := range applied {
			fmt.Printf("  applied  %s\n", v)
		}
		for _, v := range pending {
			fmt.Printf("  pending  %s\n", v)
		}
		return nil
	}

	applied, err := pool.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) == 0 {
		fmt.Println("Database is up to date.")
		return nil
	}
	fmt.Printf("Applied %d migration(s):\n", len(applied))
	for _, v := range applied {
		fmt.Printf("  %s\n", v)
	}
	return nil
}
