package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/atomloop/atomloop/internal/models"
	"github.com/atomloop/atomloop/internal/session"
)

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <atom-id> <grade>",
		Short: "Record a graded review for an atom",
		Long: `Record a graded review and advance the atom's schedule.

Grades follow the SM-2 scale:
  0  total blackout
  1  wrong, but recognized the answer
  2  wrong, but it felt close
  3  correct with serious effort
  4  correct after hesitation
  5  perfect recall

Grades below 3 reset the schedule and trigger a cognitive diagnosis.

Example:
  atomloop review 3f1c... 4 --latency-ms 2300`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			latencyMS, _ := cmd.Flags().GetInt64("latency-ms")

			if err := requireInit(root); err != nil {
				return err
			}

			atomID := args[0]
			gradeNum, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("grade must be a number 0-5: %q", args[1])
			}
			grade := models.Grade(gradeNum)

			planner, st, _, err := openPlanner(root)
			if err != nil {
				return err
			}
			defer st.Close()

			now := time.Now().UTC()
			sess, err := session.LoadState(stateDir(root), now)
			if err != nil {
				return err
			}

			res, err := planner.GradeReview(context.Background(), atomID, grade, latencyMS, sess, now)
			if err != nil {
				return err
			}
			if err := session.SaveState(sess, stateDir(root)); err != nil {
				return err
			}

			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(res)
				return nil
			}

			out := cmd.OutOrStdout()
			if grade.Passing() {
				fmt.Fprintf(out, "Recorded grade %d for %q.\n", gradeNum, res.Atom.Concept)
				fmt.Fprintf(out, "Next review in %.0f day(s) (ease %.2f, repetition %d).\n",
					res.Next.IntervalDays, res.Next.EaseFactor, res.Next.RepetitionCount)
			} else {
				fmt.Fprintf(out, "Recorded grade %d for %q. Schedule reset; the atom returns tomorrow.\n",
					gradeNum, res.Atom.Concept)
			}

			if res.Diagnosis != nil {
				fmt.Fprintf(out, "\nDiagnosis: %s (confidence %.2f)\n", res.Diagnosis.State, res.Diagnosis.Confidence)
				for _, ev := range res.Diagnosis.Evidence {
					fmt.Fprintf(out, "  %s\n", ev)
				}
				fmt.Fprintf(out, "  Suggested: %s\n", res.Diagnosis.Remediation.Strategy)
			}
			if res.Struggle != nil {
				fmt.Fprintf(out, "\nStruggling with %q: %d of %d recent reviews failed (%s priority).\n",
					res.Struggle.Concept, res.Struggle.FailureCount, res.Struggle.Total, res.Struggle.Priority)
			}
			return nil
		},
	}

	cmd.Flags().Int64("latency-ms", 0, "Response time in milliseconds")

	return cmd
}
