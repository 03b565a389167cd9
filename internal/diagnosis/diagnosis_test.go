package diagnosis

import (
	"math"
	"testing"
	"time"

	"github.com/atomloop/atomloop/internal/models"
)

var tRef = time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(DefaultConfig())
}

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// record builds a history entry; correct=false implies a failing grade.
func record(concept, module string, correct bool, latencyMS int) models.InteractionRecord {
	grade := models.GradeWrong
	if correct {
		grade = models.GradeGood
	}
	return models.InteractionRecord{
		AtomID:    "a-" + concept,
		Concept:   concept,
		Module:    module,
		Correct:   correct,
		Grade:     grade,
		LatencyMS: int64(latencyMS),
		Timestamp: tRef,
	}
}

// settledMetrics rules out the encoding-failure candidate.
func settledMetrics() models.MemoryMetrics {
	return models.MemoryMetrics{Stability: 20, ReviewCount: 10}
}

// A 400ms wrong answer with no other signals is impulsivity at
// (1 - 400/1500) * 0.8.
func TestDiagnoseFastWrongAnswer(t *testing.T) {
	e := newTestEngine(t)
	d := e.Diagnose(Observation{
		Atom:            models.Atom{ID: "a1", Concept: "NAT"},
		Metrics:         settledMetrics(),
		ResponseTimeMS:  400,
		SessionDuration: time.Minute,
	})
	if d.State != StateImpulsivity {
		t.Fatalf("State = %v, want impulsivity", d.State)
	}
	assertClose(t, "Confidence", d.Confidence, (1.0-400.0/1500.0)*0.8)
	if d.Remediation.Strategy != StrategyInhibitionDelay {
		t.Errorf("Strategy = %v, want inhibition_delay", d.Remediation.Strategy)
	}
	if d.Remediation.Params["delay_ms"] != 3000 {
		t.Errorf("delay_ms = %v, want 3000", d.Remediation.Params["delay_ms"])
	}
}

// Impulsivity confidence is capped at 0.8 even for a 0ms response.
func TestImpulsivityConfidenceCap(t *testing.T) {
	e := newTestEngine(t)
	d := e.Diagnose(Observation{
		Atom:           models.Atom{ID: "a1"},
		Metrics:        settledMetrics(),
		ResponseTimeMS: 0,
	})
	if d.State != StateImpulsivity {
		t.Fatalf("State = %v, want impulsivity", d.State)
	}
	if d.Confidence > 0.8 {
		t.Errorf("Confidence = %v, exceeds 0.8 cap", d.Confidence)
	}
}

func TestDiagnoseFatigue(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name       string
		obs        Observation
		wantState  CognitiveState
		minSignals int
	}{
		{
			name: "slow response plus long session",
			obs: Observation{
				Metrics:         settledMetrics(),
				ResponseTimeMS:  12000,
				SessionDuration: 50 * time.Minute,
			},
			wantState: StateFatigue,
		},
		{
			name: "error streak alone carries double weight",
			obs: Observation{
				Metrics:         settledMetrics(),
				ResponseTimeMS:  4000,
				SessionDuration: 10 * time.Minute,
				ErrorStreak:     5,
			},
			wantState: StateFatigue,
		},
		{
			name: "single signal does not fire",
			obs: Observation{
				Metrics:         settledMetrics(),
				ResponseTimeMS:  12000,
				SessionDuration: 10 * time.Minute,
			},
			wantState: StateRetrievalFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.Diagnose(tt.obs)
			if d.State != tt.wantState {
				t.Errorf("State = %v, want %v", d.State, tt.wantState)
			}
			if tt.wantState == StateFatigue {
				if d.Remediation.Strategy != StrategyBreakSuggested {
					t.Errorf("Strategy = %v, want break_suggested", d.Remediation.Strategy)
				}
				if d.Confidence > 0.9 {
					t.Errorf("Confidence = %v, exceeds 0.9 cap", d.Confidence)
				}
			}
		})
	}
}

func TestFatigueConfidenceCapped(t *testing.T) {
	e := newTestEngine(t)
	// All signals: 1 + 1 + 2 = 4 -> 4*0.3 = 1.2, capped at 0.9.
	d := e.Diagnose(Observation{
		Metrics:         settledMetrics(),
		ResponseTimeMS:  20000,
		SessionDuration: 90 * time.Minute,
		ErrorStreak:     8,
	})
	if d.State != StateFatigue {
		t.Fatalf("State = %v, want fatigue", d.State)
	}
	assertClose(t, "Confidence", d.Confidence, 0.9)
}

func TestDiagnoseEncodingFailure(t *testing.T) {
	e := newTestEngine(t)
	d := e.Diagnose(Observation{
		Atom:            models.Atom{ID: "a1", Concept: "OSPF", SourceSection: "ch4 §1.2"},
		Metrics:         models.MemoryMetrics{Stability: 2, ReviewCount: 1},
		ResponseTimeMS:  6000,
		SessionDuration: 5 * time.Minute,
	})
	if d.State != StateEncodingFailure {
		t.Fatalf("State = %v, want encoding_failure", d.State)
	}
	assertClose(t, "Confidence", d.Confidence, 0.5) // 0.7 - 1*0.2
	if d.Remediation.Strategy != StrategyElaboration {
		t.Errorf("Strategy = %v, want elaboration", d.Remediation.Strategy)
	}
	if d.Remediation.Params["source_section"] != "ch4 §1.2" {
		t.Errorf("source_section = %v, want the atom's source reference", d.Remediation.Params["source_section"])
	}
}

func TestEncodingConfidenceFloor(t *testing.T) {
	e := newTestEngine(t)
	d := e.Diagnose(Observation{
		Metrics:        models.MemoryMetrics{Stability: 1, ReviewCount: 2},
		ResponseTimeMS: 6000,
	})
	if d.State != StateEncodingFailure {
		t.Fatalf("State = %v, want encoding_failure", d.State)
	}
	assertClose(t, "Confidence", d.Confidence, 0.3) // max(0.3, 0.7-0.4)
}

func TestEncodingRequiresLowStability(t *testing.T) {
	e := newTestEngine(t)
	d := e.Diagnose(Observation{
		Metrics:        models.MemoryMetrics{Stability: 12, ReviewCount: 1},
		ResponseTimeMS: 6000,
	})
	if d.State == StateEncodingFailure {
		t.Error("stable material should not diagnose as encoding failure")
	}
}

func TestDiagnoseInterferenceSameModule(t *testing.T) {
	e := newTestEngine(t)
	history := []models.InteractionRecord{
		record("BGP", "routing", false, 5000),
	}
	d := e.Diagnose(Observation{
		Atom:           models.Atom{ID: "a1", Concept: "OSPF", Module: "routing"},
		Metrics:        settledMetrics(),
		ResponseTimeMS: 6000,
		History:        history,
	})
	if d.State != StateInterference {
		t.Fatalf("State = %v, want interference", d.State)
	}
	assertClose(t, "Confidence", d.Confidence, 0.7)
	if d.RelatedConcept != "BGP" {
		t.Errorf("RelatedConcept = %q, want BGP", d.RelatedConcept)
	}
	if d.Remediation.Strategy != StrategyContrastiveReview {
		t.Errorf("Strategy = %v, want contrastive_review", d.Remediation.Strategy)
	}
}

func TestDiagnoseInterferenceNameSimilarity(t *testing.T) {
	e := newTestEngine(t)
	// Shared 5-char prefix: "subne..." / different module.
	history := []models.InteractionRecord{
		record("subnetting IPv4", "unit-2", false, 5000),
	}
	d := e.Diagnose(Observation{
		Atom:           models.Atom{ID: "a1", Concept: "subnet masks", Module: "unit-7"},
		Metrics:        settledMetrics(),
		ResponseTimeMS: 6000,
		History:        history,
	})
	if d.State != StateInterference {
		t.Fatalf("State = %v, want interference", d.State)
	}
}

func TestInterferenceIgnoresOldHistory(t *testing.T) {
	e := newTestEngine(t)
	history := []models.InteractionRecord{
		record("BGP", "routing", false, 5000), // pushed out of the window
	}
	for i := 0; i < 5; i++ {
		history = append(history, record("ARP", "switching", true, 3000))
	}
	d := e.Diagnose(Observation{
		Atom:           models.Atom{ID: "a1", Concept: "OSPF", Module: "routing"},
		Metrics:        settledMetrics(),
		ResponseTimeMS: 6000,
		History:        history,
	})
	if d.State == StateInterference {
		t.Error("interference fired on an error outside the 5-interaction window")
	}
}

func TestDiagnoseDefaultsToRetrievalFailure(t *testing.T) {
	e := newTestEngine(t)
	d := e.Diagnose(Observation{
		Atom:            models.Atom{ID: "a1", Concept: "NAT"},
		Metrics:         settledMetrics(),
		ResponseTimeMS:  6000,
		SessionDuration: 2 * time.Minute,
	})
	if d.State != StateRetrievalFailure {
		t.Fatalf("State = %v, want retrieval_failure", d.State)
	}
	assertClose(t, "Confidence", d.Confidence, 0.5)
	if d.Remediation.Strategy != StrategySpacedRepetition {
		t.Errorf("Strategy = %v, want spaced_repetition", d.Remediation.Strategy)
	}
}

// Cold start: empty history, no signals. Degrades to the default, never
// errors.
func TestDiagnoseEmptyHistory(t *testing.T) {
	e := newTestEngine(t)
	d := e.Diagnose(Observation{
		Metrics:        settledMetrics(),
		ResponseTimeMS: 5000,
	})
	if d.State != StateRetrievalFailure {
		t.Errorf("State = %v, want retrieval_failure on cold start", d.State)
	}
}

// On an exact confidence tie the earlier-registered candidate wins.
func TestTieBreakByRegistrationOrder(t *testing.T) {
	e := newTestEngine(t)
	// Impulsivity at rt where (1-rt/1500)*0.8 == 0.7 (interference's fixed
	// confidence): rt = 1500 * (1 - 0.7/0.8) = 187.5 -> not integral.
	// Use encoding (0.7 at rc=0) vs interference (0.7): encoding is
	// registered earlier and must win.
	history := []models.InteractionRecord{
		record("BGP", "routing", false, 5000),
	}
	d := e.Diagnose(Observation{
		Atom:           models.Atom{ID: "a1", Concept: "OSPF", Module: "routing"},
		Metrics:        models.MemoryMetrics{Stability: 1, ReviewCount: 0},
		ResponseTimeMS: 6000,
		History:        history,
	})
	if d.State != StateEncodingFailure {
		t.Errorf("State = %v, want encoding_failure (registered before interference on 0.7 tie)", d.State)
	}
	assertClose(t, "Confidence", d.Confidence, 0.7)
}

func TestHighestConfidenceWins(t *testing.T) {
	e := newTestEngine(t)
	// Impulsivity at 100ms -> (1-100/1500)*0.8 ~ 0.747, beats
	// interference's 0.7.
	history := []models.InteractionRecord{
		record("BGP", "routing", false, 5000),
	}
	d := e.Diagnose(Observation{
		Atom:           models.Atom{ID: "a1", Concept: "OSPF", Module: "routing"},
		Metrics:        settledMetrics(),
		ResponseTimeMS: 100,
		History:        history,
	})
	if d.State != StateImpulsivity {
		t.Errorf("State = %v, want impulsivity (higher confidence)", d.State)
	}
}
