package diagnosis

import (
	"time"

	"github.com/atomloop/atomloop/internal/models"
)

// LoadLevel buckets the cognitive-load percentage.
type LoadLevel string

const (
	LoadLow      LoadLevel = "low"      // < 30
	LoadModerate LoadLevel = "moderate" // < 50
	LoadHigh     LoadLevel = "high"     // < 75
	LoadCritical LoadLevel = "critical" // >= 75
)

// LoadFactors are the four components of the load estimate, each
// normalized to [0, 25].
type LoadFactors struct {
	ResponseTime float64 `json:"response_time"`
	ErrorRate    float64 `json:"error_rate"`
	Duration     float64 `json:"duration"`
	ErrorStreak  float64 `json:"error_streak"`
}

// CognitiveLoad is the session-strain estimate.
type CognitiveLoad struct {
	Percent        float64     `json:"percent"` // 0 - 100
	Level          LoadLevel   `json:"level"`
	Factors        LoadFactors `json:"factors"`
	Recommendation string      `json:"recommendation"`
}

var loadRecommendations = map[LoadLevel]string{
	LoadLow:      "Plenty of capacity left. Good time for new or difficult material.",
	LoadModerate: "Working at a sustainable pace. Keep going.",
	LoadHigh:     "Strain is building. Switch to easier reviews or plan a break soon.",
	LoadCritical: "Overloaded. Stop and take a break; further study will not stick.",
}

// ComputeCognitiveLoad estimates session strain on a 0-100 scale from the
// interaction history and elapsed session time. Four factors, each capped
// at 25 points: average response time, error rate, session duration, and
// the trailing error streak.
func ComputeCognitiveLoad(history []models.InteractionRecord, duration time.Duration) CognitiveLoad {
	var f LoadFactors

	if len(history) > 0 {
		var totalMS int64
		errorCount := 0
		for _, rec := range history {
			totalMS += rec.LatencyMS
			if !rec.Correct {
				errorCount++
			}
		}
		avgMS := float64(totalMS) / float64(len(history))
		f.ResponseTime = min25(avgMS / 400.0)
		f.ErrorRate = float64(errorCount) / float64(len(history)) * 25.0
		f.ErrorStreak = min25(float64(models.TrailingErrorStreak(history)) * 5.0)
	}
	f.Duration = min25(duration.Minutes() / 2.0)

	percent := f.ResponseTime + f.ErrorRate + f.Duration + f.ErrorStreak
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	level := levelForPercent(percent)
	return CognitiveLoad{
		Percent:        percent,
		Level:          level,
		Factors:        f,
		Recommendation: loadRecommendations[level],
	}
}

func levelForPercent(p float64) LoadLevel {
	switch {
	case p < 30:
		return LoadLow
	case p < 50:
		return LoadModerate
	case p < 75:
		return LoadHigh
	default:
		return LoadCritical
	}
}

func min25(v float64) float64 {
	if v > 25 {
		return 25
	}
	if v < 0 {
		return 0
	}
	return v
}
