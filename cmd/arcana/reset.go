package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newResetCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <player-id>",
		Short: "Delete every record a player owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid player id %q: %w", args[0], err)
			}

			cfg, log, err := setup(load)
			if err != nil {
				return err
			}
			st, err := openMigratedStorage(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			app, err := newApplication(cmd.Context(), cfg, log, st)
			if err != nil {
				return err
			}
			removed, err := app.players.Reset(cmd.Context(), playerID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d records for %s\n", removed, playerID)
			return err
		},
	}
}
