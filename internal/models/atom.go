package models

import (
	"time"
)

// Atom is the smallest reviewable unit of course material: a single
// prompt/answer pair tied to one concept.
type Atom struct {
	ID    string `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back"`

	// Concept names the single idea this atom drills. Atoms sharing a
	// concept are grouped for interleaving and struggle detection.
	Concept string `json:"concept"`

	// Course/Module/Week locate the atom in the syllabus.
	Course string `json:"course,omitempty"`
	Module string `json:"module,omitempty"`
	Week   int    `json:"week,omitempty"`

	// SourceSection points back at the lecture notes or textbook section
	// the atom was extracted from.
	SourceSection string `json:"source_section,omitempty"`

	// Difficulty is an optional author-assigned label ("easy", "hard").
	Difficulty string `json:"difficulty,omitempty"`

	// Quality is an optional authoring-quality score in [0, 1].
	Quality float64 `json:"quality,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// GroupKey names the group an atom is interleaved under: its concept,
// or its module when no concept is set.
func (a Atom) GroupKey() string {
	if a.Concept != "" {
		return a.Concept
	}
	return a.Module
}

// ActiveContext describes what the learner is currently working on.
// The focus stream uses it to score atoms by relevance to the active
// course and project.
type ActiveContext struct {
	Course    string    `json:"course,omitempty"`
	Concepts  []string  `json:"concepts,omitempty"`
	Keywords  []string  `json:"keywords,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsZero reports whether no active context has been set.
func (a ActiveContext) IsZero() bool {
	return a.Course == "" && len(a.Concepts) == 0 && len(a.Keywords) == 0
}
