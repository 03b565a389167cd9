// Package diagnosis classifies why a learner's response went the way it
// did (encoding failure, retrieval failure, interference, impulsivity,
// fatigue) and maps each cause to a remediation strategy.
//
// Classification is a pure function over a response snapshot: candidate
// evaluators run in a fixed registration order, candidates that fire are
// stable-sorted by confidence, and the first wins. The registration order
// is the deliberate tie-break policy for exactly equal confidences.
package diagnosis

import (
	"fmt"
	"sort"
	"time"

	"github.com/atomloop/atomloop/internal/models"
	"github.com/atomloop/atomloop/internal/similarity"
)

// CognitiveState is the diagnosed cause of a response.
type CognitiveState string

const (
	StateEncodingFailure  CognitiveState = "encoding_failure"  // Never properly learned.
	StateRetrievalFailure CognitiveState = "retrieval_failure" // Learned but not recalled.
	StateInterference     CognitiveState = "interference"      // Confused with related material.
	StateImpulsivity      CognitiveState = "impulsivity"       // Answered before thinking.
	StateFatigue          CognitiveState = "fatigue"           // Depleted, session too long.
	StateUnknown          CognitiveState = "unknown"
)

// Strategy names the remediation mapped 1:1 from a diagnosed state.
type Strategy string

const (
	StrategyInhibitionDelay   Strategy = "inhibition_delay"
	StrategyBreakSuggested    Strategy = "break_suggested"
	StrategyElaboration       Strategy = "elaboration"
	StrategyContrastiveReview Strategy = "contrastive_review"
	StrategySpacedRepetition  Strategy = "spaced_repetition"
)

// Remediation is the action suggested for a diagnosed state. The engine
// only suggests; executing remediation is the caller's job.
type Remediation struct {
	Strategy Strategy       `json:"strategy"`
	Params   map[string]any `json:"params,omitempty"`
}

// Diagnosis is the classification result for a single response.
type Diagnosis struct {
	State          CognitiveState `json:"state"`
	Confidence     float64        `json:"confidence"` // 0.0 - 1.0
	Evidence       []string       `json:"evidence,omitempty"`
	Remediation    Remediation    `json:"remediation"`
	RelatedConcept string         `json:"related_concept,omitempty"`
}

// Observation is the snapshot a single diagnosis runs over.
type Observation struct {
	Atom           models.Atom
	Metrics        models.MemoryMetrics
	Correct        bool
	ResponseTimeMS int

	// History is the learner's recent interaction log, most-recent-last.
	// Only the trailing interference window is read.
	History []models.InteractionRecord

	SessionDuration time.Duration
	ErrorStreak     int
}

// Config holds the evidence thresholds for the candidate evaluators.
type Config struct {
	// ImpulsivityMaxMS: responses faster than this suggest impulsivity.
	ImpulsivityMaxMS int `json:"impulsivity_max_ms" yaml:"impulsivity_max_ms"`

	// FatigueMinMS: responses slower than this count as a fatigue signal.
	FatigueMinMS int `json:"fatigue_min_ms" yaml:"fatigue_min_ms"`

	// FatigueSessionMinutes: sessions longer than this count as a signal.
	FatigueSessionMinutes int `json:"fatigue_session_minutes" yaml:"fatigue_session_minutes"`

	// FatigueErrorStreak: streaks at least this long count double.
	FatigueErrorStreak int `json:"fatigue_error_streak" yaml:"fatigue_error_streak"`

	// EncodingMinReviews: below this review count a failure can still be
	// an encoding problem rather than forgetting.
	EncodingMinReviews int `json:"encoding_min_reviews" yaml:"encoding_min_reviews"`

	// StruggleWindow is the interaction window for struggle detection.
	StruggleWindow int `json:"struggle_window_size" yaml:"struggle_window_size"`

	// StruggleFailureRate is the per-concept failure rate that flags a
	// struggle pattern.
	StruggleFailureRate float64 `json:"struggle_failure_rate" yaml:"struggle_failure_rate"`

	// CriticalFailureRate upgrades a struggle pattern to high priority.
	CriticalFailureRate float64 `json:"critical_failure_rate" yaml:"critical_failure_rate"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		ImpulsivityMaxMS:      1500,
		FatigueMinMS:          10000,
		FatigueSessionMinutes: 45,
		FatigueErrorStreak:    5,
		EncodingMinReviews:    3,
		StruggleWindow:        5,
		StruggleFailureRate:   0.40,
		CriticalFailureRate:   0.60,
	}
}

// encodingMaxStability: at or above this stability (days) the material is
// considered encoded, ruling encoding failure out.
const encodingMaxStability = 7.0

// interferenceWindow is how many trailing interactions the interference
// evaluator inspects.
const interferenceWindow = 5

// interferenceConfidence is fixed: the lexical heuristic is too crude to
// grade its own certainty.
const interferenceConfidence = 0.7

// Engine runs the candidate evaluators. It is stateless and safe for
// concurrent use.
type Engine struct {
	cfg        Config
	evaluators []evaluator
}

type evaluator func(obs Observation) (Diagnosis, bool)

// NewEngine creates a diagnosis engine. Zero-valued config fields are
// filled with defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.ImpulsivityMaxMS <= 0 {
		cfg.ImpulsivityMaxMS = def.ImpulsivityMaxMS
	}
	if cfg.FatigueMinMS <= 0 {
		cfg.FatigueMinMS = def.FatigueMinMS
	}
	if cfg.FatigueSessionMinutes <= 0 {
		cfg.FatigueSessionMinutes = def.FatigueSessionMinutes
	}
	if cfg.FatigueErrorStreak <= 0 {
		cfg.FatigueErrorStreak = def.FatigueErrorStreak
	}
	if cfg.EncodingMinReviews <= 0 {
		cfg.EncodingMinReviews = def.EncodingMinReviews
	}
	if cfg.StruggleWindow <= 0 {
		cfg.StruggleWindow = def.StruggleWindow
	}
	if cfg.StruggleFailureRate <= 0 {
		cfg.StruggleFailureRate = def.StruggleFailureRate
	}
	if cfg.CriticalFailureRate <= 0 {
		cfg.CriticalFailureRate = def.CriticalFailureRate
	}

	e := &Engine{cfg: cfg}
	// Registration order is the tie-break policy. Do not reorder.
	e.evaluators = []evaluator{
		e.evalImpulsivity,
		e.evalFatigue,
		e.evalEncodingFailure,
		e.evalInterference,
	}
	return e
}

// Config returns the thresholds the engine runs with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Diagnose classifies a single response. If no candidate fires, the
// default is retrieval failure at 0.5 confidence: the material was
// learned but did not surface, so the scheduler handles it.
func (e *Engine) Diagnose(obs Observation) Diagnosis {
	fired := make([]Diagnosis, 0, len(e.evaluators))
	for _, eval := range e.evaluators {
		if d, ok := eval(obs); ok {
			fired = append(fired, d)
		}
	}

	if len(fired) == 0 {
		return Diagnosis{
			State:       StateRetrievalFailure,
			Confidence:  0.5,
			Evidence:    []string{"no specific cognitive signal detected"},
			Remediation: remediationFor(StateRetrievalFailure, obs, ""),
		}
	}

	// Stable sort keeps registration order on exact confidence ties.
	sort.SliceStable(fired, func(i, j int) bool {
		return fired[i].Confidence > fired[j].Confidence
	})
	return fired[0]
}

// evalImpulsivity fires on very fast responses. Confidence is capped at
// 0.8: fast-but-correct is still possible.
func (e *Engine) evalImpulsivity(obs Observation) (Diagnosis, bool) {
	if obs.ResponseTimeMS >= e.cfg.ImpulsivityMaxMS {
		return Diagnosis{}, false
	}
	conf := (1.0 - float64(obs.ResponseTimeMS)/float64(e.cfg.ImpulsivityMaxMS)) * 0.8
	return Diagnosis{
		State:      StateImpulsivity,
		Confidence: conf,
		Evidence: []string{
			fmt.Sprintf("response in %dms, below the %dms reflection threshold", obs.ResponseTimeMS, e.cfg.ImpulsivityMaxMS),
		},
		Remediation: remediationFor(StateImpulsivity, obs, ""),
	}, true
}

// evalFatigue accumulates weighted session-strain signals and fires once
// their combined weight reaches 2.
func (e *Engine) evalFatigue(obs Observation) (Diagnosis, bool) {
	signals := 0
	evidence := make([]string, 0, 3)

	if obs.ResponseTimeMS > e.cfg.FatigueMinMS {
		signals++
		evidence = append(evidence, fmt.Sprintf("slow response (%dms)", obs.ResponseTimeMS))
	}
	if obs.SessionDuration.Minutes() > float64(e.cfg.FatigueSessionMinutes) {
		signals++
		evidence = append(evidence, fmt.Sprintf("session running %.0f minutes", obs.SessionDuration.Minutes()))
	}
	if obs.ErrorStreak >= e.cfg.FatigueErrorStreak {
		// A long error streak is the strongest strain signal.
		signals += 2
		evidence = append(evidence, fmt.Sprintf("%d consecutive errors", obs.ErrorStreak))
	}

	if signals < 2 {
		return Diagnosis{}, false
	}
	conf := float64(signals) * 0.3
	if conf > 0.9 {
		conf = 0.9
	}
	return Diagnosis{
		State:       StateFatigue,
		Confidence:  conf,
		Evidence:    evidence,
		Remediation: remediationFor(StateFatigue, obs, ""),
	}, true
}

// evalEncodingFailure fires when the atom was barely reviewed and never
// stabilized: the material likely never made it into memory at all.
func (e *Engine) evalEncodingFailure(obs Observation) (Diagnosis, bool) {
	rc := obs.Metrics.ReviewCount
	if rc >= e.cfg.EncodingMinReviews || obs.Metrics.Stability >= encodingMaxStability {
		return Diagnosis{}, false
	}
	conf := 0.7 - float64(rc)*0.2
	if conf < 0.3 {
		conf = 0.3
	}
	return Diagnosis{
		State:      StateEncodingFailure,
		Confidence: conf,
		Evidence: []string{
			fmt.Sprintf("only %d reviews with stability %.1f days", rc, obs.Metrics.Stability),
		},
		Remediation: remediationFor(StateEncodingFailure, obs, ""),
	}, true
}

// evalInterference looks for confusion with related material in the
// trailing interaction window: errors in the same module on different
// concepts, or errors on lexically related concept names.
func (e *Engine) evalInterference(obs Observation) (Diagnosis, bool) {
	window := models.LastN(obs.History, interferenceWindow)
	for _, rec := range window {
		if rec.Correct || rec.Concept == obs.Atom.Concept {
			continue
		}
		sameModule := rec.Module != "" && rec.Module == obs.Atom.Module
		related := similarity.ConceptsRelated(rec.Concept, obs.Atom.Concept)
		if !sameModule && !related {
			continue
		}

		var why string
		if sameModule {
			why = fmt.Sprintf("recent error on %q in the same module %q", rec.Concept, rec.Module)
		} else {
			why = fmt.Sprintf("recent error on the lexically similar concept %q", rec.Concept)
		}
		return Diagnosis{
			State:          StateInterference,
			Confidence:     interferenceConfidence,
			Evidence:       []string{why},
			RelatedConcept: rec.Concept,
			Remediation:    remediationFor(StateInterference, obs, rec.Concept),
		}, true
	}
	return Diagnosis{}, false
}

// remediationFor maps a diagnosed state to its remediation. The mapping is
// deterministic and 1:1.
func remediationFor(state CognitiveState, obs Observation, relatedConcept string) Remediation {
	switch state {
	case StateImpulsivity:
		return Remediation{
			Strategy: StrategyInhibitionDelay,
			Params:   map[string]any{"delay_ms": 3000},
		}
	case StateFatigue:
		return Remediation{
			Strategy: StrategyBreakSuggested,
			Params:   map[string]any{"duration_min": 10},
		}
	case StateEncodingFailure:
		params := map[string]any{}
		if obs.Atom.SourceSection != "" {
			params["source_section"] = obs.Atom.SourceSection
		}
		return Remediation{Strategy: StrategyElaboration, Params: params}
	case StateInterference:
		params := map[string]any{}
		if relatedConcept != "" {
			params["related_concept"] = relatedConcept
		}
		return Remediation{Strategy: StrategyContrastiveReview, Params: params}
	default:
		// Retrieval failure and unknown both defer to the scheduler.
		return Remediation{Strategy: StrategySpacedRepetition}
	}
}
