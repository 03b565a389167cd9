package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next atom to study",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			reveal, _ := cmd.Flags().GetBool("reveal")

			if err := requireInit(root); err != nil {
				return err
			}

			planner, st, _, err := openPlanner(root)
			if err != nil {
				return err
			}
			defer st.Close()

			queue, err := planner.BuildQueue(context.Background(), time.Now().UTC())
			if err != nil {
				return err
			}

			if len(queue) == 0 {
				if jsonOut {
					json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{"queue_empty": true})
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to study right now.")
				}
				return nil
			}

			item := queue[0]
			if jsonOut {
				out := map[string]interface{}{
					"atom_id": item.Atom.ID,
					"front":   item.Atom.Front,
					"concept": item.Atom.Concept,
					"score":   item.Score.ZScore,
				}
				if reveal {
					out["back"] = item.Atom.Back
				}
				json.NewEncoder(cmd.OutOrStdout()).Encode(out)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n\n%s\n", item.Atom.Concept, item.Atom.Front)
			if reveal {
				fmt.Fprintf(cmd.OutOrStdout(), "\n---\n%s\n", item.Atom.Back)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nGrade with 'atomloop review %s <0-5>'.\n", item.Atom.ID)
			return nil
		},
	}

	cmd.Flags().Bool("reveal", false, "Also show the answer side")

	return cmd
}
