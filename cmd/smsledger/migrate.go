package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates automatically; this one is useful to check the
schema version or to upgrade a database ahead of time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			current, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if status {
				fmt.Fprintln(out, cli.FormatTitle(cli.ChartIcon+" Database Migration Status"))
				fmt.Fprintf(out, "  Database:        %s\n", store.Path())
				fmt.Fprintf(out, "  Current version: %d\n", current)
				fmt.Fprintf(out, "  Latest version:  %d\n", storage.ExpectedSchemaVersion)
				return nil
			}

			slog.Info("Running database migrations", "database", store.Path(), "from", current)
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database at schema version %d", storage.ExpectedSchemaVersion)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show current migration status without applying changes")

	return cmd
}
