package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show today's study queue",
		Long: `Build and show today's study queue.

Every atom is scored for urgency (memory decay), centrality, relevance to
the active study context, and novelty. Atoms above the activation
threshold are sorted by score, capped at the daily budget, and interleaved
so the same concept never appears twice in a row.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			verbose, _ := cmd.Flags().GetBool("scores")

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

			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"queue": queue,
					"count": len(queue),
				})
				return nil
			}

			if len(queue) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to study right now.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Study queue (%d):\n\n", len(queue))
			for i, item := range queue {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. [%s] %s\n", i+1, item.Atom.Concept, item.Atom.Front)
				if verbose {
					fmt.Fprintf(cmd.OutOrStdout(), "   score %.3f (decay %.2f, centrality %.2f, project %.2f, novelty %.2f)\n",
						item.Score.ZScore, item.Score.Decay, item.Score.Centrality, item.Score.Project, item.Score.Novelty)
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("scores", false, "Show per-component relevance scores")

	return cmd
}
