// Package mcp provides an MCP (Model Context Protocol) server for atomloop.
package mcp

import (
	"time"

	"github.com/atomloop/atomloop/internal/diagnosis"
	"github.com/atomloop/atomloop/internal/session"
)

// StudyQueueInput defines the input for the study_queue tool.
type StudyQueueInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of atoms to return; defaults to the full daily budget"`
}

// StudyQueueOutput defines the output for the study_queue tool.
type StudyQueueOutput struct {
	Queue []QueueEntry `json:"queue" jsonschema:"Atoms to study in presentation order"`
	Count int          `json:"count" jsonschema:"Number of atoms in the queue"`
}

// QueueEntry is one position in the study queue.
type QueueEntry struct {
	AtomID     string  `json:"atom_id"`
	Front      string  `json:"front"`
	Concept    string  `json:"concept"`
	Module     string  `json:"module,omitempty"`
	Due        string  `json:"due"`
	Repetition int     `json:"repetition"`
	Score      float64 `json:"score"`
}

// GradeReviewInput defines the input for the grade_review tool.
type GradeReviewInput struct {
	AtomID    string `json:"atom_id" jsonschema:"ID of the reviewed atom"`
	Grade     int    `json:"grade" jsonschema:"Recall grade from 0 (blackout) to 5 (perfect); 3 is a pass with effort"`
	LatencyMS int64  `json:"latency_ms,omitempty" jsonschema:"Response time in milliseconds"`
}

// GradeReviewOutput defines the output for the grade_review tool.
type GradeReviewOutput struct {
	AtomID       string            `json:"atom_id"`
	Correct      bool              `json:"correct"`
	IntervalDays float64           `json:"interval_days" jsonschema:"Days until the next review"`
	EaseFactor   float64           `json:"ease_factor"`
	Due          time.Time         `json:"due"`
	Diagnosis    *DiagnosisSummary `json:"diagnosis,omitempty" jsonschema:"Cognitive diagnosis when the review failed"`
	Struggle     *StruggleSummary  `json:"struggle,omitempty" jsonschema:"Struggle pattern visible in recent history"`
	Message      string            `json:"message" jsonschema:"Human-readable result summary"`
}

// DiagnosisSummary is the wire form of a cognitive diagnosis.
type DiagnosisSummary struct {
	State          string         `json:"state"`
	Confidence     float64        `json:"confidence"`
	Evidence       []string       `json:"evidence,omitempty"`
	Strategy       string         `json:"strategy"`
	Params         map[string]any `json:"params,omitempty"`
	RelatedConcept string         `json:"related_concept,omitempty"`
}

// StruggleSummary is the wire form of a struggle pattern.
type StruggleSummary struct {
	Concept     string  `json:"concept"`
	Failures    int     `json:"failures"`
	Total       int     `json:"total"`
	FailureRate float64 `json:"failure_rate"`
	Priority    string  `json:"priority"`
}

// DiagnoseReviewInput defines the input for the diagnose_review tool.
type DiagnoseReviewInput struct {
	AtomID string `json:"atom_id" jsonschema:"ID of the atom whose latest review should be explained"`
}

// DiagnoseReviewOutput defines the output for the diagnose_review tool.
type DiagnoseReviewOutput struct {
	AtomID    string           `json:"atom_id"`
	Diagnosis DiagnosisSummary `json:"diagnosis"`
}

// StruggleReportInput defines the input for the struggle_report tool.
type StruggleReportInput struct{}

// StruggleReportOutput defines the output for the struggle_report tool.
type StruggleReportOutput struct {
	Struggle *StruggleSummary `json:"struggle,omitempty" jsonschema:"Dominant struggle pattern; absent when none detected"`
	Message  string           `json:"message"`
}

// SessionStatsInput defines the input for the session_stats tool.
type SessionStatsInput struct{}

// SessionStatsOutput defines the output for the session_stats tool.
type SessionStatsOutput struct {
	Stats          session.Stats `json:"stats"`
	LoadPercent    float64       `json:"load_percent" jsonschema:"Estimated cognitive load 0-100"`
	LoadLevel      string        `json:"load_level"`
	Recommendation string        `json:"recommendation"`
}

func summarizeDiagnosis(d *diagnosis.Diagnosis) *DiagnosisSummary {
	if d == nil {
		return nil
	}
	return &DiagnosisSummary{
		State:          string(d.State),
		Confidence:     d.Confidence,
		Evidence:       d.Evidence,
		Strategy:       string(d.Remediation.Strategy),
		Params:         d.Remediation.Params,
		RelatedConcept: d.RelatedConcept,
	}
}

func summarizeStruggle(p *diagnosis.StrugglePattern) *StruggleSummary {
	if p == nil {
		return nil
	}
	return &StruggleSummary{
		Concept:     p.Concept,
		Failures:    p.FailureCount,
		Total:       p.Total,
		FailureRate: p.FailureRate,
		Priority:    string(p.Priority),
	}
}
