package focus

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/atomloop/atomloop/internal/models"
	"github.com/atomloop/atomloop/internal/scheduler"
)

// neutralScore is the fallback for components whose inputs are missing.
// Malformed metadata degrades to neutral rather than crashing a session.
const neutralScore = 0.5

// foundationalMarkers flag concepts that anchor a curriculum. Concepts
// containing one of these get a centrality boost.
var foundationalMarkers = []string{
	"basic", "fundamental", "introduction", "overview",
	"what is", "definition", "core", "principle",
}

// earlyWeekCutoff: atoms from week/module <= 3 count as early-curriculum
// and get an extra centrality boost.
const earlyWeekCutoff = 3

// Candidate pairs an atom with its scheduling state for scoring.
type Candidate struct {
	Atom  models.Atom
	State scheduler.State
}

// AtomScore is one scored queue entry: the four component signals, each in
// [0, 1], and their weighted combination. ZScore is a composite relevance
// score, not a statistical z-score.
type AtomScore struct {
	AtomID string `json:"atom_id"`

	Decay      float64 `json:"decay"`
	Centrality float64 `json:"centrality"`
	Project    float64 `json:"project_relevance"`
	Novelty    float64 `json:"novelty"`

	ZScore float64 `json:"z_score"`
}

// Stream scores candidates and assembles the study queue. The only state
// is a read-through centrality cache keyed by concept name, scoped to the
// Stream's lifetime (typically one session); dropping it between calls
// affects speed, not results.
type Stream struct {
	cfg   Config
	cache map[string]float64
}

// NewStream creates a focus stream after validating the config.
func NewStream(cfg Config) (*Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Stream{
		cfg:   cfg,
		cache: make(map[string]float64),
	}, nil
}

// Queue scores all candidates, drops those below the activation threshold,
// sorts the rest by descending relevance, and truncates to the configured
// daily budget. Equal scores keep input order (stable sort).
func (s *Stream) Queue(candidates []Candidate, active models.ActiveContext, now time.Time) []AtomScore {
	return s.QueueN(candidates, active, now, s.cfg.DailyBudget)
}

// QueueN is Queue with an explicit budget override.
func (s *Stream) QueueN(candidates []Candidate, active models.ActiveContext, now time.Time, budget int) []AtomScore {
	scored := make([]AtomScore, 0, len(candidates))
	for _, c := range candidates {
		sc := s.Score(c, active, now)
		if sc.ZScore < s.cfg.ActivationThreshold {
			continue
		}
		scored = append(scored, sc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].ZScore > scored[j].ZScore
	})

	if budget >= 0 && len(scored) > budget {
		scored = scored[:budget]
	}
	return scored
}

// Score computes the four components and their weighted combination for a
// single candidate. Pure apart from the centrality cache.
func (s *Stream) Score(c Candidate, active models.ActiveContext, now time.Time) AtomScore {
	sc := AtomScore{
		AtomID:     c.Atom.ID,
		Decay:      s.decay(c.State, now),
		Centrality: s.centrality(c.Atom),
		Project:    s.projectRelevance(c.Atom, active),
		Novelty:    s.novelty(c.State),
	}
	sc.ZScore = sc.Decay*s.cfg.WeightDecay +
		sc.Centrality*s.cfg.WeightCentrality +
		sc.Project*s.cfg.WeightProject +
		sc.Novelty*s.cfg.WeightNovelty
	return sc
}

// decay measures staleness urgency: 1.0 for never-reviewed atoms,
// otherwise 1 - e^(-days/halfLife). Approaches 1 as staleness grows and
// never exceeds it.
func (s *Stream) decay(state scheduler.State, now time.Time) float64 {
	days := state.DaysSinceReview(now)
	if days < 0 {
		return 1.0
	}
	return clamp01(1.0 - math.Exp(-days/float64(s.cfg.DecayHalfLifeDays)))
}

// centrality estimates how foundational a concept is. Baseline 0.5,
// boosted to 0.8 when the concept name carries a foundational marker,
// plus 0.2 (capped at 1.0) for early-curriculum atoms. Cached per concept
// name; the week boost is applied outside the cache since it is per-atom.
func (s *Stream) centrality(atom models.Atom) float64 {
	base := neutralScore
	if atom.Concept != "" {
		if cached, ok := s.cache[atom.Concept]; ok {
			base = cached
		} else {
			lower := strings.ToLower(atom.Concept)
			for _, marker := range foundationalMarkers {
				if strings.Contains(lower, marker) {
					base = 0.8
					break
				}
			}
			s.cache[atom.Concept] = base
		}
	}
	if atom.Week > 0 && atom.Week <= earlyWeekCutoff {
		base += 0.2
	}
	return clamp01(base)
}

// projectRelevance measures overlap with what the learner is actively
// working on. No active context scores neutral. Otherwise: course match
// +0.4, concept-name substring match against active concepts +0.3,
// keyword substring match against front text +0.2, capped at 1.0.
func (s *Stream) projectRelevance(atom models.Atom, active models.ActiveContext) float64 {
	if active.IsZero() {
		return neutralScore
	}

	score := 0.0
	if active.Course != "" && strings.EqualFold(atom.Course, active.Course) {
		score += 0.4
	}
	if atom.Concept != "" {
		lower := strings.ToLower(atom.Concept)
		for _, c := range active.Concepts {
			if c == "" {
				continue
			}
			lc := strings.ToLower(c)
			if strings.Contains(lower, lc) || strings.Contains(lc, lower) {
				score += 0.3
				break
			}
		}
	}
	if atom.Front != "" {
		front := strings.ToLower(atom.Front)
		for _, kw := range active.Keywords {
			if kw != "" && strings.Contains(front, strings.ToLower(kw)) {
				score += 0.2
				break
			}
		}
	}
	return clamp01(score)
}

// novelty decays exponentially with exposure: 1.0 for a never-reviewed
// atom, e^(-reviews/3) after that.
func (s *Stream) novelty(state scheduler.State) float64 {
	if state.TotalReviews == 0 {
		return 1.0
	}
	return clamp01(math.Exp(-float64(state.TotalReviews) / 3.0))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
