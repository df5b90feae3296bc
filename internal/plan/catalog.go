// Package plan holds the versioned reference catalog of routine steps.
// The catalog is static configuration loaded once at process start and
// injected into the engine; the user's active selection of steps comes
// from the persistence collaborator.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StepKind discriminates product steps from exercise steps.
type StepKind string

const (
	KindProduct  StepKind = "product"
	KindExercise StepKind = "exercise"
)

// TimingWindow is a session a step can belong to.
type TimingWindow string

const (
	TimingMorning TimingWindow = "morning"
	TimingEvening TimingWindow = "evening"
)

// Step is one catalog entry.
type Step struct {
	ID          string         `yaml:"id" json:"id"`
	Kind        StepKind       `yaml:"kind" json:"kind"`
	DisplayName string         `yaml:"display_name" json:"display_name"`
	Timing      []TimingWindow `yaml:"timing" json:"timing"`
	// Completable is false for continuous exercises that never "complete".
	Completable bool `yaml:"completable" json:"completable"`
	// TimerSeconds is the waiting period after applying a product, 0 if none.
	TimerSeconds int `yaml:"timer_seconds,omitempty" json:"timer_seconds,omitempty"`
	// DurationMinutes is the nominal length of an exercise, 0 for products.
	DurationMinutes int `yaml:"duration_minutes,omitempty" json:"duration_minutes,omitempty"`
}

// InMorning reports whether the step is tagged for the morning session.
func (s Step) InMorning() bool { return s.hasTiming(TimingMorning) }

// InEvening reports whether the step is tagged for the evening session.
func (s Step) InEvening() bool { return s.hasTiming(TimingEvening) }

// Flexible reports whether the step can run in either session. A flexible
// step is credited to whichever session actually ran that day.
func (s Step) Flexible() bool { return s.InMorning() && s.InEvening() }

func (s Step) hasTiming(w TimingWindow) bool {
	for _, t := range s.Timing {
		if t == w {
			return true
		}
	}
	return false
}

// Catalog is a versioned table of step definitions.
type Catalog struct {
	Version int    `yaml:"version" json:"version"`
	Steps   []Step `yaml:"steps" json:"steps"`

	byID map[string]Step
}

// Load reads a catalog from a yaml file. An empty path returns the
// built-in default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read step catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse step catalog: %w", err)
	}
	if c.Version == 0 {
		return nil, fmt.Errorf("step catalog is missing a version")
	}
	if len(c.Steps) == 0 {
		return nil, fmt.Errorf("step catalog has no steps")
	}

	c.index()
	return &c, nil
}

func (c *Catalog) index() {
	c.byID = make(map[string]Step, len(c.Steps))
	for _, s := range c.Steps {
		c.byID[s.ID] = s
	}
}

// Lookup returns the step definition for id.
func (c *Catalog) Lookup(id string) (Step, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// DisplayName resolves a step ID to its display name, falling back to the
// raw ID for steps no longer in the catalog.
func (c *Catalog) DisplayName(id string) string {
	if s, ok := c.byID[id]; ok {
		return s.DisplayName
	}
	return id
}

// IsProduct reports whether id names a product step.
func (c *Catalog) IsProduct(id string) bool {
	s, ok := c.byID[id]
	return ok && s.Kind == KindProduct
}

// Active resolves a user's active step selection against the catalog,
// preserving selection order and dropping unknown IDs.
func (c *Catalog) Active(stepIDs []string) []Step {
	steps := make([]Step, 0, len(stepIDs))
	for _, id := range stepIDs {
		if s, ok := c.byID[id]; ok {
			steps = append(steps, s)
		}
	}
	return steps
}

// CountProducts returns the number of product steps in the selection.
func CountProducts(steps []Step) int {
	n := 0
	for _, s := range steps {
		if s.Kind == KindProduct {
			n++
		}
	}
	return n
}

// CountExercises returns the number of exercise steps in the selection.
func CountExercises(steps []Step) int {
	n := 0
	for _, s := range steps {
		if s.Kind == KindExercise {
			n++
		}
	}
	return n
}

// AvgExerciseMinutes returns the mean nominal duration of the exercises in
// the selection, 0 when the selection has none.
func AvgExerciseMinutes(steps []Step) float64 {
	total, n := 0, 0
	for _, s := range steps {
		if s.Kind == KindExercise && s.DurationMinutes > 0 {
			total += s.DurationMinutes
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

// Default returns the built-in catalog used when no catalog file is
// configured.
func Default() *Catalog {
	c := &Catalog{
		Version: 1,
		Steps: []Step{
			{ID: "cleanser", Kind: KindProduct, DisplayName: "Cleanser", Timing: []TimingWindow{TimingMorning, TimingEvening}, Completable: true},
			{ID: "toner", Kind: KindProduct, DisplayName: "Toner", Timing: []TimingWindow{TimingMorning, TimingEvening}, Completable: true},
			{ID: "vitamin-c-serum", Kind: KindProduct, DisplayName: "Vitamin C Serum", Timing: []TimingWindow{TimingMorning}, Completable: true, TimerSeconds: 60},
			{ID: "retinol", Kind: KindProduct, DisplayName: "Retinol", Timing: []TimingWindow{TimingEvening}, Completable: true, TimerSeconds: 120},
			{ID: "moisturizer", Kind: KindProduct, DisplayName: "Moisturizer", Timing: []TimingWindow{TimingMorning, TimingEvening}, Completable: true},
			{ID: "eye-cream", Kind: KindProduct, DisplayName: "Eye Cream", Timing: []TimingWindow{TimingEvening}, Completable: true},
			{ID: "sunscreen", Kind: KindProduct, DisplayName: "Sunscreen", Timing: []TimingWindow{TimingMorning}, Completable: true},
			{ID: "face-mask", Kind: KindProduct, DisplayName: "Face Mask", Timing: []TimingWindow{TimingEvening}, Completable: true, TimerSeconds: 600},
			{ID: "jaw-sculpt", Kind: KindExercise, DisplayName: "Jaw Sculpt", Timing: []TimingWindow{TimingMorning, TimingEvening}, Completable: true, DurationMinutes: 5},
			{ID: "cheek-lift", Kind: KindExercise, DisplayName: "Cheek Lift", Timing: []TimingWindow{TimingMorning, TimingEvening}, Completable: true, DurationMinutes: 4},
			{ID: "forehead-smooth", Kind: KindExercise, DisplayName: "Forehead Smoother", Timing: []TimingWindow{TimingMorning, TimingEvening}, Completable: true, DurationMinutes: 3},
			{ID: "neck-posture", Kind: KindExercise, DisplayName: "Neck & Posture Hold", Timing: []TimingWindow{TimingMorning, TimingEvening}, Completable: false, DurationMinutes: 10},
		},
	}
	c.index()
	return c
}
