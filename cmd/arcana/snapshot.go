package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/snapshot"
	"github.com/spf13/cobra"
)

func newExportCmd(load configLoader) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <player-id>",
		Short: "Write every record of a player to a compressed snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid player id %q: %w", args[0], err)
			}
			if out == "" {
				out = playerID.String() + ".arcana.zst"
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

			snap, err := snapshot.Export(cmd.Context(), st.kv, playerID, time.Now())
			if err != nil {
				return err
			}

			codec, err := snapshot.NewCodec()
			if err != nil {
				return err
			}
			defer codec.Close()
			if err := codec.WriteFile(out, snap); err != nil {
				return fmt.Errorf("failed to write snapshot: %w", err)
			}

			log.Info("player exported", "player_id", playerID.String(), "entries", len(snap.Entries), "file", out)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(snap.Entries), out)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (defaults to <player-id>.arcana.zst)")
	return cmd
}

func newImportCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Restore a player snapshot; run while the server is stopped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := snapshot.NewCodec()
			if err != nil {
				return err
			}
			defer codec.Close()

			snap, err := codec.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
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

			n, err := snapshot.Import(cmd.Context(), st.kv, snap)
			if err != nil {
				return err
			}

			log.Info("player imported", "player_id", snap.PlayerID.String(), "entries", n)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d records for %s\n", n, snap.PlayerID)
			return err
		},
	}
}
