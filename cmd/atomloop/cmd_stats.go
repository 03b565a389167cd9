package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/atomloop/atomloop/internal/session"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show session statistics, struggle patterns, and cognitive load",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			reset, _ := cmd.Flags().GetBool("reset")

			if err := requireInit(root); err != nil {
				return err
			}

			now := time.Now().UTC()
			if reset {
				if err := session.RemoveState(stateDir(root)); err != nil {
					return err
				}
				if jsonOut {
					json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"status": "session_reset"})
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Session reset.")
				}
				return nil
			}

			planner, st, _, err := openPlanner(root)
			if err != nil {
				return err
			}
			defer st.Close()

			sess, err := session.LoadState(stateDir(root), now)
			if err != nil {
				return err
			}

			ctx := context.Background()
			stats := sess.Snapshot(now)
			load, err := planner.Load(ctx, sess, now)
			if err != nil {
				return err
			}
			struggle, err := planner.Struggles(ctx)
			if err != nil {
				return err
			}

			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"session":  stats,
					"load":     load,
					"struggle": struggle,
				})
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session started %s (%.0f min ago)\n", stats.StartedAt.Format(time.RFC3339), stats.DurationMin)
			fmt.Fprintf(out, "Reviews: %d (%d correct, %.0f%% accuracy)\n", stats.Reviews, stats.Correct, stats.Accuracy*100)
			if stats.Reviews > 0 {
				fmt.Fprintf(out, "Mean response time: %.0f ms\n", stats.MeanLatencyMS)
			}
			if stats.ErrorStreak > 0 {
				fmt.Fprintf(out, "Current error streak: %d\n", stats.ErrorStreak)
			}

			fmt.Fprintf(out, "\nCognitive load: %.0f%% (%s)\n", load.Percent, load.Level)
			fmt.Fprintf(out, "  %s\n", load.Recommendation)

			if struggle != nil {
				fmt.Fprintf(out, "\nStruggling with %q: %d of %d recent reviews failed (%s priority).\n",
					struggle.Concept, struggle.FailureCount, struggle.Total, struggle.Priority)
			}

			if len(stats.Concepts) > 0 {
				fmt.Fprintln(out, "\nPer concept this session:")
				for _, c := range stats.Concepts {
					fmt.Fprintf(out, "  %-30s %d reviews, %d failures\n", c.Concept, c.Reviews, c.Failures)
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("reset", false, "Reset the current session")

	return cmd
}
