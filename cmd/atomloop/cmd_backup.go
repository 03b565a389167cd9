package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/atomloop/atomloop/internal/backup"
	"github.com/atomloop/atomloop/internal/config"
	"github.com/atomloop/atomloop/internal/store"
)

// backupDir is where timestamped backups land under the state directory.
func backupDir(root string) string {
	return filepath.Join(stateDir(root), "backups")
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot atoms, schedules, and review history to a backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			output, _ := cmd.Flags().GetString("output")
			keep, _ := cmd.Flags().GetInt("keep")

			if err := requireInit(root); err != nil {
				return err
			}
			st, err := openStore(root)
			if err != nil {
				return err
			}
			defer st.Close()

			if output == "" {
				output = backup.GeneratePath(backupDir(root), time.Now().UTC())
			}
			archive, err := backup.Export(context.Background(), st, output)
			if err != nil {
				return err
			}

			var rotated []string
			if keep > 0 {
				if rotated, err = backup.Rotate(backupDir(root), keep); err != nil {
					return err
				}
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"path":         output,
					"atoms":        len(archive.Atoms),
					"interactions": len(archive.Interactions),
					"rotated":      len(rotated),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d atoms and %d interactions to %s\n",
				len(archive.Atoms), len(archive.Interactions), output)
			for _, p := range rotated {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed old backup %s\n", filepath.Base(p))
			}
			return nil
		},
	}

	cmd.Flags().String("output", "", "Backup file path (default: timestamped file under .atomloop/backups)")
	cmd.Flags().Int("keep", 10, "Backups to retain after rotation (0 disables rotation)")

	cmd.AddCommand(newBackupListCmd())

	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List existing backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			if err := requireInit(root); err != nil {
				return err
			}
			backups, err := backup.List(backupDir(root))
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"backups": backups,
					"count":   len(backups),
				})
			}
			if len(backups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No backups yet. Run 'atomloop backup' to create one.")
				return nil
			}
			for _, b := range backups {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %d atoms, %d bytes\n", filepath.Base(b.Path), b.AtomCount, b.Size)
			}
			return nil
		},
	}
}

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Restore atoms and review history from a backup file",
		Long: `Restore imports a backup created by 'atomloop backup'.

By default existing atoms are kept and only missing ones are imported.
With --replace the store is cleared first and the backup becomes the
complete state, including the active study context.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			replace, _ := cmd.Flags().GetBool("replace")

			if err := requireInit(root); err != nil {
				return err
			}
			if err := backup.Verify(args[0]); err != nil {
				return fmt.Errorf("refusing to restore: %w", err)
			}

			st, err := openStore(root)
			if err != nil {
				return err
			}
			defer st.Close()

			mode := backup.RestoreMerge
			if replace {
				mode = backup.RestoreReplace
			}
			result, err := backup.Restore(context.Background(), st, args[0], mode)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d atoms (%d skipped) and %d interactions.\n",
				result.AtomsRestored, result.AtomsSkipped, result.Interactions)
			return nil
		},
	}

	cmd.Flags().Bool("replace", false, "Clear the store before restoring")

	return cmd
}

// openStore opens the SQLite store without the planner, for commands that
// only move data.
func openStore(root string) (store.ReviewStore, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(root, cfg.Store.Path)
}
