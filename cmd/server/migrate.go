package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"oversight/internal/config"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|status",
		Short:     "Apply, roll back or inspect the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer e.Close()
			if e.cfg.Store != config.StorePostgres {
				return fmt.Errorf("migrate needs STORE=%s", config.StorePostgres)
			}
			if err := e.db.Migrate(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("migrate %s: %w", args[0], err)
			}
			e.log.WithField("command", args[0]).Info("migrate done")
			return nil
		},
	}
}
