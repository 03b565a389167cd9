// Package focus builds the daily study queue. It scores every due atom on
// four signals (staleness decay, conceptual centrality, project relevance,
// novelty), combines them into a weighted relevance score, applies an
// activation threshold, and caps the result at the daily budget.
package focus

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned when focus weights do not sum to 1.0.
// Config validation fails fast at load time, never at query time.
var ErrInvalidConfig = errors.New("atomloop: invalid focus config")

// weightTolerance is how far the weight sum may drift from 1.0.
const weightTolerance = 0.01

// Config holds the focus-stream scoring configuration.
type Config struct {
	// Component weights. Must sum to 1.0 (within 0.01).
	WeightDecay      float64 `json:"weight_decay" yaml:"weight_decay"`
	WeightCentrality float64 `json:"weight_centrality" yaml:"weight_centrality"`
	WeightProject    float64 `json:"weight_project" yaml:"weight_project"`
	WeightNovelty    float64 `json:"weight_novelty" yaml:"weight_novelty"`

	// ActivationThreshold: atoms scoring below this never enter the queue.
	ActivationThreshold float64 `json:"activation_threshold" yaml:"activation_threshold"`

	// DecayHalfLifeDays controls how fast staleness urgency grows.
	DecayHalfLifeDays int `json:"decay_half_life_days" yaml:"decay_half_life_days"`

	// DailyBudget is the hard cap on queue length.
	DailyBudget int `json:"daily_budget" yaml:"daily_budget"`
}

// DefaultConfig returns the standard focus configuration:
// weights 0.30/0.25/0.25/0.20, threshold 0.40, half-life 7 days, budget 30.
func DefaultConfig() Config {
	return Config{
		WeightDecay:         0.30,
		WeightCentrality:    0.25,
		WeightProject:       0.25,
		WeightNovelty:       0.20,
		ActivationThreshold: 0.40,
		DecayHalfLifeDays:   7,
		DailyBudget:         30,
	}
}

// Validate checks the configuration. Weights that do not sum to 1.0
// (within tolerance) return ErrInvalidConfig.
func (c Config) Validate() error {
	sum := c.WeightDecay + c.WeightCentrality + c.WeightProject + c.WeightNovelty
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.3f, want 1.0", ErrInvalidConfig, sum)
	}
	for name, w := range map[string]float64{
		"weight_decay":      c.WeightDecay,
		"weight_centrality": c.WeightCentrality,
		"weight_project":    c.WeightProject,
		"weight_novelty":    c.WeightNovelty,
	} {
		if w < 0 {
			return fmt.Errorf("%w: %s is negative (%.3f)", ErrInvalidConfig, name, w)
		}
	}
	if c.ActivationThreshold < 0 || c.ActivationThreshold > 1 {
		return fmt.Errorf("%w: activation_threshold %.3f out of [0, 1]", ErrInvalidConfig, c.ActivationThreshold)
	}
	if c.DecayHalfLifeDays <= 0 {
		return fmt.Errorf("%w: decay_half_life_days must be positive, got %d", ErrInvalidConfig, c.DecayHalfLifeDays)
	}
	if c.DailyBudget < 0 {
		return fmt.Errorf("%w: daily_budget must be non-negative, got %d", ErrInvalidConfig, c.DailyBudget)
	}
	return nil
}
