// Package deck imports study material from YAML deck files. A deck file
// carries course-level metadata plus a list of atoms; atoms without IDs
// receive generated ones at import time.
package deck

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/atomloop/atomloop/internal/models"
	"github.com/atomloop/atomloop/internal/sanitize"
)

// ErrInvalidDeck is returned when a deck file fails validation.
var ErrInvalidDeck = errors.New("deck: invalid deck")

// Deck is the on-disk deck file format.
type Deck struct {
	Course  string     `yaml:"course"`
	Module  string     `yaml:"module,omitempty"`
	Week    int        `yaml:"week,omitempty"`
	Atoms   []DeckAtom `yaml:"atoms"`
	Context *Context   `yaml:"context,omitempty"`
}

// DeckAtom is a single card in a deck file. Course, module, and week fall
// back to the deck-level values when unset.
type DeckAtom struct {
	ID            string  `yaml:"id,omitempty"`
	Front         string  `yaml:"front"`
	Back          string  `yaml:"back"`
	Concept       string  `yaml:"concept"`
	Module        string  `yaml:"module,omitempty"`
	Week          int     `yaml:"week,omitempty"`
	SourceSection string  `yaml:"source_section,omitempty"`
	Difficulty    string  `yaml:"difficulty,omitempty"`
	Quality       float64 `yaml:"quality,omitempty"`
}

// Context optionally declares the active study context alongside the deck.
type Context struct {
	Concepts []string `yaml:"concepts,omitempty"`
	Keywords []string `yaml:"keywords,omitempty"`
}

// Parse decodes and validates a deck from raw YAML.
func Parse(data []byte) (*Deck, error) {
	var d Deck
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing deck: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Load reads and parses a deck file from disk.
func Load(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deck file: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Validate checks deck-level and per-atom required fields.
func (d *Deck) Validate() error {
	if len(d.Atoms) == 0 {
		return fmt.Errorf("%w: no atoms", ErrInvalidDeck)
	}
	for i, a := range d.Atoms {
		if strings.TrimSpace(a.Front) == "" {
			return fmt.Errorf("%w: atom %d has an empty front", ErrInvalidDeck, i)
		}
		if strings.TrimSpace(a.Back) == "" {
			return fmt.Errorf("%w: atom %d has an empty back", ErrInvalidDeck, i)
		}
		if strings.TrimSpace(a.Concept) == "" {
			return fmt.Errorf("%w: atom %d has no concept", ErrInvalidDeck, i)
		}
		if a.Quality < 0 || a.Quality > 1 {
			return fmt.Errorf("%w: atom %d quality %v outside [0,1]", ErrInvalidDeck, i, a.Quality)
		}
	}
	return nil
}

// Materialize converts deck atoms into model atoms, filling in generated
// IDs, deck-level defaults, and the creation timestamp. Card text and
// concept names are sanitized on the way in: fronts end up injected into
// agent context, so deck files are untrusted input.
func (d *Deck) Materialize(now time.Time) []models.Atom {
	atoms := make([]models.Atom, 0, len(d.Atoms))
	for _, a := range d.Atoms {
		id := a.ID
		if id == "" {
			id = uuid.NewString()
		}
		module := a.Module
		if module == "" {
			module = d.Module
		}
		week := a.Week
		if week == 0 {
			week = d.Week
		}
		atoms = append(atoms, models.Atom{
			ID:            id,
			Front:         sanitize.CardText(a.Front),
			Back:          sanitize.CardText(a.Back),
			Concept:       sanitize.Concept(a.Concept),
			Course:        d.Course,
			Module:        module,
			Week:          week,
			SourceSection: a.SourceSection,
			Difficulty:    a.Difficulty,
			Quality:       a.Quality,
			CreatedAt:     now,
		})
	}
	return atoms
}

// ActiveContext builds the project-relevance context declared by the deck,
// or a zero context if the deck declares none.
func (d *Deck) ActiveContext(now time.Time) models.ActiveContext {
	if d.Context == nil {
		return models.ActiveContext{}
	}
	return models.ActiveContext{
		Course:    d.Course,
		Concepts:  d.Context.Concepts,
		Keywords:  d.Context.Keywords,
		UpdatedAt: now,
	}
}
