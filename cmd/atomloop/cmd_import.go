package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/atomloop/atomloop/internal/deck"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <deck.yaml>...",
		Short: "Import atoms from YAML deck files",
		Long: `Import study material from one or more YAML deck files.

Atoms are upserted by ID, so re-importing an updated deck refreshes card
content without losing scheduling history. A deck that declares a context
block also updates the active study context used for relevance scoring.

Example:
  atomloop import decks/networking.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			skipContext, _ := cmd.Flags().GetBool("no-context")

			if err := requireInit(root); err != nil {
				return err
			}

			_, st, _, err := openPlanner(root)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := context.Background()
			now := time.Now().UTC()

			imported := 0
			var contextCourse string
			for _, path := range args {
				d, err := deck.Load(path)
				if err != nil {
					return err
				}
				for _, atom := range d.Materialize(now) {
					if err := st.PutAtom(ctx, atom); err != nil {
						return err
					}
					imported++
				}
				if active := d.ActiveContext(now); !active.IsZero() && !skipContext {
					if err := st.SetActiveContext(ctx, active); err != nil {
						return err
					}
					contextCourse = active.Course
				}
			}

			if jsonOut {
				result := map[string]interface{}{
					"status": "imported",
					"atoms":  imported,
					"decks":  len(args),
				}
				if contextCourse != "" {
					result["active_course"] = contextCourse
				}
				json.NewEncoder(os.Stdout).Encode(result)
			} else {
				fmt.Printf("Imported %d atom(s) from %d deck(s).\n", imported, len(args))
				if contextCourse != "" {
					fmt.Printf("Active study context set to course %q.\n", contextCourse)
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("no-context", false, "Do not update the active study context from deck context blocks")

	return cmd
}
