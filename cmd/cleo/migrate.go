package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/cleo-api/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres session tables",
	RunE:  runMigrate,
}

var (
	migrateDatabaseURL string
	migratePurge       bool
)

func init() {
	migrateCmd.Flags().StringVar(&migrateDatabaseURL, "db-url", "", "Database URL (overrides DATABASE_URL env var)")
	migrateCmd.Flags().BoolVar(&migratePurge, "purge-expired", false, "Also delete expired sessions")

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	dbURL := migrateDatabaseURL
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return fmt.Errorf("database URL is required (set DATABASE_URL environment variable or use --db-url flag)")
	}

	ctx := cmd.Context()
	pool, err := repository.Connect(ctx, dbURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Session schema is up to date")

	if migratePurge {
		n, err := repository.NewPostgresSessionStore(pool, 0).PurgeExpired(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired sessions\n", n)
	}
	return nil
}
