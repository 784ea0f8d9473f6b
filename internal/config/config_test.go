package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestEmbeddedDefaultsMatchBuiltins(t *testing.T) {
	cfg, err := decode(defaultSimYAML)
	if err != nil {
		t.Fatalf("decode(embedded) error = %v", err)
	}
	if diff := cmp.Diff(DefaultSimConfig(), cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("embedded defaults differ from DefaultSimConfig (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, expected nil", err)
	}
}

func TestLoadCustomPathPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := "display:\n  width: 800\n  height: 450\nclock:\n  speeds: [1, 3]\n  initial_speed: 3\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Display.Width != 800 || cfg.Display.Height != 450 {
		t.Errorf("Display = %+v, expected 800x450", cfg.Display)
	}
	if cfg.Train.CarSpacing != 40 {
		t.Errorf("CarSpacing = %v, expected default 40", cfg.Train.CarSpacing)
	}
	if diff := cmp.Diff([]float64{1, 3}, cfg.Clock.Speeds); diff != "" {
		t.Errorf("Speeds mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCustomPathErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load(missing) should fail")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("clock:\n  speeds: [2, 1]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(bad)
	if err == nil || !strings.Contains(err.Error(), "ascending") {
		t.Errorf("Load(descending speeds) error = %v, expected ascending complaint", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SimConfig)
		ok     bool
	}{
		{"defaults", func(*SimConfig) {}, true},
		{"zero width", func(c *SimConfig) { c.Display.Width = 0 }, false},
		{"rear before fore", func(c *SimConfig) { c.Train.RearBogeyOffset = 1 }, false},
		{"negative tolerance", func(c *SimConfig) { c.Track.BoundsTolerance = -1 }, false},
		{"no speeds", func(c *SimConfig) { c.Clock.Speeds = nil }, false},
		{"zero initial speed", func(c *SimConfig) { c.Clock.InitialSpeed = 0 }, false},
		{"zero hit margin", func(c *SimConfig) { c.Switch.HitMargin = 0 }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultSimConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err == nil) != tc.ok {
				t.Errorf("Validate() = %v, expected ok=%v", err, tc.ok)
			}
		})
	}
}

func TestTrainSpan(t *testing.T) {
	tc := DefaultSimConfig().Train
	tests := []struct {
		cars     int
		expected float64
	}{
		{0, 0},
		{1, 36},
		{3, 116},
	}
	for _, tt := range tests {
		if got := tc.TrainSpan(tt.cars); got != tt.expected {
			t.Errorf("TrainSpan(%d) = %v, expected %v", tt.cars, got, tt.expected)
		}
	}
}

func TestSpeedSelector(t *testing.T) {
	s := NewSpeedSelector(ClockConfig{Speeds: []float64{0.5, 1, 2}, InitialSpeed: 1})

	if s.Current() != 1 {
		t.Errorf("Current() = %v, expected 1", s.Current())
	}
	if got := s.Faster(); got != 2 {
		t.Errorf("Faster() = %v, expected 2", got)
	}
	if got := s.Faster(); got != 2 {
		t.Errorf("Faster() at top = %v, expected 2", got)
	}
	s.Slower()
	s.Slower()
	if got := s.Slower(); got != 0.5 {
		t.Errorf("Slower() at bottom = %v, expected 0.5", got)
	}
}
