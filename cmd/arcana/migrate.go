package main

import (
	"fmt"

	"github.com/phrazzld/arcana/internal/platform/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|reset|status|version]",
		Short:     "Run database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{migrations.CommandUp, migrations.CommandDown, migrations.CommandReset, migrations.CommandStatus, migrations.CommandVersion},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := migrations.CommandUp
			if len(args) == 1 {
				command = args[0]
			}

			cfg, log, err := setup(load)
			if err != nil {
				return err
			}
			st, err := openStorage(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			log.Info("Executing migrations", "command", command)
			if err := migrations.Run(cmd.Context(), st.db, st.dialect, command); err != nil {
				return err
			}

			version, err := migrations.CurrentVersion(cmd.Context(), st.db, st.dialect)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return err
		},
	}
}
