package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atomloop/atomloop/internal/models"
	"github.com/atomloop/atomloop/internal/ratelimit"
	"github.com/atomloop/atomloop/internal/store"
)

// registerTools registers all atomloop MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "study_queue",
		Description: "Build today's study queue: due and high-relevance atoms, interleaved so no concept repeats back-to-back",
	}, s.handleStudyQueue)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "grade_review",
		Description: "Record a graded review (0-5) for an atom and advance its spaced-repetition schedule",
	}, s.handleGradeReview)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "diagnose_review",
		Description: "Explain the most recent review of an atom: likely cognitive state and a remediation strategy",
	}, s.handleDiagnoseReview)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "struggle_report",
		Description: "Report the concept the learner is currently struggling with most, if any",
	}, s.handleStruggleReport)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "session_stats",
		Description: "Summarize the current study session: accuracy, pace, and estimated cognitive load",
	}, s.handleSessionStats)
}

// registerResources registers MCP resources for auto-loading into context.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         "atomloop://queue/today",
		Name:        "atomloop-queue-today",
		Description: "Today's study queue in presentation order.",
		MIMEType:    "text/markdown",
	}, s.handleQueueResource)
}

// handleQueueResource renders today's queue as markdown for context injection.
func (s *Server) handleQueueResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	queue, err := s.planner.BuildQueue(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("building queue: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# Today's Study Queue\n\n")
	if len(queue) == 0 {
		sb.WriteString("Nothing to study right now. Import a deck with `atomloop import` or come back later.\n")
	} else {
		for i, item := range queue {
			sb.WriteString(fmt.Sprintf("%d. **%s** (%s) (score %.2f)\n", i+1, item.Atom.Front, item.Atom.Concept, item.Score.ZScore))
		}
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      "atomloop://queue/today",
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}

// handleStudyQueue implements the study_queue tool.
func (s *Server) handleStudyQueue(ctx context.Context, req *sdk.CallToolRequest, args StudyQueueInput) (*sdk.CallToolResult, StudyQueueOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "study_queue"); err != nil {
		return nil, StudyQueueOutput{}, err
	}

	queue, err := s.planner.BuildQueue(ctx, s.now())
	if err != nil {
		return nil, StudyQueueOutput{}, fmt.Errorf("building queue: %w", err)
	}
	if args.Limit > 0 && len(queue) > args.Limit {
		queue = queue[:args.Limit]
	}

	out := StudyQueueOutput{Count: len(queue)}
	for _, item := range queue {
		out.Queue = append(out.Queue, QueueEntry{
			AtomID:     item.Atom.ID,
			Front:      item.Atom.Front,
			Concept:    item.Atom.Concept,
			Module:     item.Atom.Module,
			Due:        item.State.Due.Format("2006-01-02"),
			Repetition: item.State.RepetitionCount,
			Score:      item.Score.ZScore,
		})
	}
	return nil, out, nil
}

// handleGradeReview implements the grade_review tool.
func (s *Server) handleGradeReview(ctx context.Context, req *sdk.CallToolRequest, args GradeReviewInput) (*sdk.CallToolResult, GradeReviewOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "grade_review"); err != nil {
		return nil, GradeReviewOutput{}, err
	}
	if args.AtomID == "" {
		return nil, GradeReviewOutput{}, errors.New("atom_id is required")
	}

	grade := models.Grade(args.Grade)
	res, err := s.planner.GradeReview(ctx, args.AtomID, grade, args.LatencyMS, s.session, s.now())
	if err != nil {
		return nil, GradeReviewOutput{}, err
	}

	out := GradeReviewOutput{
		AtomID:       args.AtomID,
		Correct:      grade.Passing(),
		IntervalDays: res.Next.IntervalDays,
		EaseFactor:   res.Next.EaseFactor,
		Due:          res.Next.Due,
		Diagnosis:    summarizeDiagnosis(res.Diagnosis),
		Struggle:     summarizeStruggle(res.Struggle),
	}
	if grade.Passing() {
		out.Message = fmt.Sprintf("Recorded grade %d. Next review in %.0f day(s).", args.Grade, res.Next.IntervalDays)
	} else {
		out.Message = fmt.Sprintf("Recorded grade %d. Schedule reset; atom returns tomorrow.", args.Grade)
	}
	return nil, out, nil
}

// handleDiagnoseReview implements the diagnose_review tool.
func (s *Server) handleDiagnoseReview(ctx context.Context, req *sdk.CallToolRequest, args DiagnoseReviewInput) (*sdk.CallToolResult, DiagnoseReviewOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "diagnose_review"); err != nil {
		return nil, DiagnoseReviewOutput{}, err
	}
	if args.AtomID == "" {
		return nil, DiagnoseReviewOutput{}, errors.New("atom_id is required")
	}

	diag, err := s.planner.DiagnoseAtom(ctx, args.AtomID, s.session, s.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, DiagnoseReviewOutput{}, fmt.Errorf("atom %s has no reviews to diagnose", args.AtomID)
		}
		return nil, DiagnoseReviewOutput{}, err
	}

	return nil, DiagnoseReviewOutput{
		AtomID:    args.AtomID,
		Diagnosis: *summarizeDiagnosis(diag),
	}, nil
}

// handleStruggleReport implements the struggle_report tool.
func (s *Server) handleStruggleReport(ctx context.Context, req *sdk.CallToolRequest, args StruggleReportInput) (*sdk.CallToolResult, StruggleReportOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "struggle_report"); err != nil {
		return nil, StruggleReportOutput{}, err
	}

	pattern, err := s.planner.Struggles(ctx)
	if err != nil {
		return nil, StruggleReportOutput{}, err
	}

	out := StruggleReportOutput{Struggle: summarizeStruggle(pattern)}
	if pattern == nil {
		out.Message = "No struggle pattern detected. Keep drilling."
	} else {
		out.Message = fmt.Sprintf("Struggling with %q: %d of %d recent reviews failed (%s priority).",
			pattern.Concept, pattern.FailureCount, pattern.Total, pattern.Priority)
	}
	return nil, out, nil
}

// handleSessionStats implements the session_stats tool.
func (s *Server) handleSessionStats(ctx context.Context, req *sdk.CallToolRequest, args SessionStatsInput) (*sdk.CallToolResult, SessionStatsOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "session_stats"); err != nil {
		return nil, SessionStatsOutput{}, err
	}

	now := s.now()
	load, err := s.planner.Load(ctx, s.session, now)
	if err != nil {
		return nil, SessionStatsOutput{}, err
	}

	return nil, SessionStatsOutput{
		Stats:          s.session.Snapshot(now),
		LoadPercent:    load.Percent,
		LoadLevel:      string(load.Level),
		Recommendation: load.Recommendation,
	}, nil
}
