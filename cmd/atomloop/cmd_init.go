package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/atomloop/atomloop/internal/store"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize atomloop in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			dir := stateDir(root)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating .atomloop directory: %w", err)
			}

			// Seed a commented config the user can edit.
			configPath := filepath.Join(dir, "config.yaml")
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				content := fmt.Sprintf(`# atomloop configuration
# created: %s
#
# Uncomment and adjust as needed. Weights must sum to 1.0.
#
# focus:
#   weight_decay: 0.30
#   weight_centrality: 0.25
#   weight_project: 0.25
#   weight_novelty: 0.20
#   activation_threshold: 0.40
#   decay_half_life_days: 7
#   daily_budget: 30
# logging:
#   level: info
`, time.Now().Format(time.RFC3339))
				if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
					return fmt.Errorf("creating config.yaml: %w", err)
				}
			}

			// Create the database up front so later commands fail fast on
			// permission problems instead of mid-review.
			st, err := store.NewSQLiteStore(root, "")
			if err != nil {
				return fmt.Errorf("creating database: %w", err)
			}
			dbPath := st.Path()
			st.Close()

			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{
					"status":   "initialized",
					"path":     dir,
					"database": dbPath,
				})
			} else {
				fmt.Printf("Initialized .atomloop/ in %s\n", root)
				fmt.Println("Import a deck with 'atomloop import <deck.yaml>'.")
			}
			return nil
		},
	}
}
