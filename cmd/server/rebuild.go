package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild-projection",
		Short: "Re-derive review states from the review log",
		Long: "rebuild-projection recomputes the review_states table from review_log for one user " +
			"(--user) or for every user, in a single transaction.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var userID *uuid.UUID
			if raw, _ := cmd.Flags().GetString("user"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
				userID = &id
			}

			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return withDatabase(cmd, cfg, log, func(db *sql.DB) error {
				cards, reviews := newStores(cfg.Database.Driver, db, log)
				svc, err := newStudyService(cfg, log, db, cards, reviews, nil)
				if err != nil {
					return err
				}

				n, err := svc.RebuildProjection(cmd.Context(), userID)
				if err != nil {
					return err
				}

				log.Info("projection rebuilt", slog.Int64("states", n))
				fmt.Fprintf(cmd.OutOrStdout(), "rebuilt %d review states\n", n)
				return nil
			})
		},
	}
	cmd.Flags().String("user", "", "Rebuild only this user's states")
	return cmd
}
