package plan

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Version != 1 {
		t.Errorf("Expected default catalog version 1, got %d", c.Version)
	}
	if _, ok := c.Lookup("cleanser"); !ok {
		t.Error("Expected the default catalog to contain cleanser")
	}
}

func TestLoad_ParsesYAMLCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `version: 2
steps:
  - id: serum
    kind: product
    display_name: Serum
    timing: [morning]
    completable: true
    timer_seconds: 45
  - id: face-yoga
    kind: exercise
    display_name: Face Yoga
    timing: [morning, evening]
    completable: true
    duration_minutes: 6
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Version != 2 {
		t.Errorf("Expected version 2, got %d", c.Version)
	}

	serum, ok := c.Lookup("serum")
	if !ok {
		t.Fatal("Expected serum in the catalog")
	}
	if !serum.InMorning() || serum.InEvening() {
		t.Error("Expected serum to be morning-only")
	}
	if serum.TimerSeconds != 45 {
		t.Errorf("Expected 45 second timer, got %d", serum.TimerSeconds)
	}

	yoga, _ := c.Lookup("face-yoga")
	if !yoga.Flexible() {
		t.Error("Expected face-yoga to be flexible")
	}
}

func TestLoad_RejectsMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `steps:
  - id: serum
    kind: product
    display_name: Serum
    timing: [morning]
    completable: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected an error for a catalog without a version")
	}
}

func TestLoad_RejectsEmptySteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nsteps: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected an error for a catalog without steps")
	}
}

func TestActive_PreservesOrderAndDropsUnknown(t *testing.T) {
	c := Default()

	steps := c.Active([]string{"retinol", "no-such-step", "cleanser"})
	if len(steps) != 2 {
		t.Fatalf("Expected 2 resolved steps, got %d", len(steps))
	}
	if steps[0].ID != "retinol" || steps[1].ID != "cleanser" {
		t.Errorf("Expected selection order preserved, got %v", []string{steps[0].ID, steps[1].ID})
	}
}

func TestDisplayName_FallsBackToID(t *testing.T) {
	c := Default()

	if got := c.DisplayName("retinol"); got != "Retinol" {
		t.Errorf("Expected Retinol, got %s", got)
	}
	if got := c.DisplayName("discontinued-step"); got != "discontinued-step" {
		t.Errorf("Expected raw ID fallback, got %s", got)
	}
}

func TestSelectionCounts(t *testing.T) {
	c := Default()
	steps := c.Active([]string{"cleanser", "retinol", "jaw-sculpt", "cheek-lift"})

	if got := CountProducts(steps); got != 2 {
		t.Errorf("Expected 2 products, got %d", got)
	}
	if got := CountExercises(steps); got != 2 {
		t.Errorf("Expected 2 exercises, got %d", got)
	}
	// jaw-sculpt is 5 minutes, cheek-lift is 4
	if got := AvgExerciseMinutes(steps); got != 4.5 {
		t.Errorf("Expected 4.5 average exercise minutes, got %v", got)
	}
}
