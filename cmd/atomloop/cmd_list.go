package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/atomloop/atomloop/internal/scheduler"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List imported atoms and their schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			concept, _ := cmd.Flags().GetString("concept")
			dueOnly, _ := cmd.Flags().GetBool("due")

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

			atoms, err := st.ListAtoms(ctx)
			if err != nil {
				return err
			}
			states, err := st.ListStates(ctx)
			if err != nil {
				return err
			}
			byAtom := make(map[string]scheduler.State, len(states))
			for _, s := range states {
				byAtom[s.AtomID] = s
			}

			type row struct {
				ID         string  `json:"id"`
				Concept    string  `json:"concept"`
				Front      string  `json:"front"`
				Due        string  `json:"due"`
				Interval   float64 `json:"interval_days"`
				Ease       float64 `json:"ease_factor"`
				Repetition int     `json:"repetition"`
				Lapses     int     `json:"lapses"`
				New        bool    `json:"new"`
			}
			var rows []row
			for _, atom := range atoms {
				if concept != "" && atom.Concept != concept {
					continue
				}
				state, ok := byAtom[atom.ID]
				if !ok {
					state = scheduler.NewState(atom.ID, now)
				}
				if dueOnly && !state.IsDue(now) {
					continue
				}
				rows = append(rows, row{
					ID:         atom.ID,
					Concept:    atom.Concept,
					Front:      atom.Front,
					Due:        state.Due.Format("2006-01-02"),
					Interval:   state.IntervalDays,
					Ease:       state.EaseFactor,
					Repetition: state.RepetitionCount,
					Lapses:     state.Lapses,
					New:        state.IsNew(),
				})
			}

			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"atoms": rows,
					"count": len(rows),
				})
				return nil
			}

			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No atoms found. Import a deck with 'atomloop import'.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Atoms (%d):\n\n", len(rows))
			for i, r := range rows {
				status := fmt.Sprintf("due %s, rep %d, ease %.2f", r.Due, r.Repetition, r.Ease)
				if r.New {
					status = "new"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d. [%s] %s\n", i+1, r.Concept, r.Front)
				fmt.Fprintf(cmd.OutOrStdout(), "   %s  (%s)\n", r.ID, status)
			}
			return nil
		},
	}

	cmd.Flags().String("concept", "", "Only show atoms for this concept")
	cmd.Flags().Bool("due", false, "Only show atoms that are due now")

	return cmd
}
