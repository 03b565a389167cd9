package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/atomloop/atomloop/internal/config"
	"github.com/atomloop/atomloop/internal/logging"
	"github.com/atomloop/atomloop/internal/store"
	"github.com/atomloop/atomloop/internal/study"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "atomloop",
		Short: "Adaptive spaced repetition for course material",
		Long: `atomloop schedules atomic flashcards with SM-2 spaced repetition,
interleaves related concepts, and diagnoses why reviews fail.

Import decks from YAML, study the daily queue, and let the focus stream
decide what matters most right now.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newImportCmd(),
		newListCmd(),
		newQueueCmd(),
		newNextCmd(),
		newReviewCmd(),
		newStatsCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

// stateDir is where atomloop keeps its database, config, session, and
// decision log for a project root.
func stateDir(root string) string {
	return filepath.Join(root, ".atomloop")
}

func requireInit(root string) error {
	if _, err := os.Stat(stateDir(root)); os.IsNotExist(err) {
		return fmt.Errorf(".atomloop not initialized. Run 'atomloop init' first")
	}
	return nil
}

// openPlanner loads config, opens the store, and wires the planner.
// Callers must Close the returned store.
func openPlanner(root string) (*study.Planner, store.ReviewStore, *config.Config, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := store.NewSQLiteStore(root, cfg.Store.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	decisions := logging.NewDecisionLogger(stateDir(root), cfg.Logging.Level)
	planner, err := study.NewPlanner(st, cfg, decisions)
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}
	return planner, st, cfg, nil
}
