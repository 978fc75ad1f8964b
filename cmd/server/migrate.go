package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/studydeck-api/internal/config"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
			results, err := p.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s (%s)\n", r.Source.Path, r.Duration)
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no pending migrations")
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
			result, err := p.Down(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %s\n", result.Source.Path)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
			statuses, err := p.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate status: %w", err)
			}
			for _, s := range statuses {
				applied := "pending"
				if s.State == goose.StateApplied {
					applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%05d %-40s %s\n", s.Source.Version, s.Source.Path, applied)
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
			version, err := p.GetDBVersion(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate version: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		}),
	})

	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new SQL migration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				driver, _ := cmd.Flags().GetString("driver")
				dir = migrationsDir(driver)
			}
			if err := goose.Create(nil, dir, args[0], "sql"); err != nil {
				return fmt.Errorf("migrate create: %w", err)
			}
			return nil
		},
	}
	create.Flags().String("driver", driverPostgres, "Database driver whose migrations directory receives the file")
	create.Flags().String("dir", "", "Directory for the new file (overrides --driver)")
	cmd.AddCommand(create)

	return cmd
}

// withProvider opens the configured database and hands its migration provider
// to fn, closing the database afterwards.
func withProvider(fn func(cmd *cobra.Command, p *goose.Provider) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return withDatabase(cmd, cfg, log, func(db *sql.DB) error {
			p, err := newMigrationProvider(cfg.Database.Driver, db, log)
			if err != nil {
				return err
			}
			return fn(cmd, p)
		})
	}
}

// withDatabase runs fn over an open database and closes it afterwards.
func withDatabase(cmd *cobra.Command, cfg *config.Config, log *slog.Logger, fn func(db *sql.DB) error) error {
	db, err := openDatabase(cmd.Context(), cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}()
	return fn(db)
}
