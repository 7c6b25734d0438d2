package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/stockflow/internal/sd"
)

func testModel() *sd.Model {
	return &sd.Model{
		Name: "population",
		Time: sd.TimeConfig{Start: 0, Stop: 100, Dt: 1},
		Parameters: []sd.Parameter{
			{Name: "birth_rate", Value: 0.05},
			{Name: "death_rate", Value: 0.02},
		},
		Scenarios: []sd.Scenario{
			{Name: "boom", Overrides: map[string]float64{"birth_rate": 0.1}},
		},
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DataDir != DefaultDataDir {
		t.Errorf("data dir = %q, want %q", cfg.DataDir, DefaultDataDir)
	}
	if cfg.Parameters == nil {
		t.Error("parameters map should be initialized")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	dt := 0.25
	cfg := &Config{
		Model:      "population",
		Scenario:   "boom",
		Time:       TimeOverrides{Dt: &dt},
		Parameters: map[string]float64{"death_rate": 0.03},
		DataDir:    "runs",
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Model != "population" || got.Scenario != "boom" || got.DataDir != "runs" {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.Time.Dt == nil || *got.Time.Dt != 0.25 {
		t.Errorf("dt = %v, want 0.25", got.Time.Dt)
	}
	if got.Parameters["death_rate"] != 0.03 {
		t.Errorf("parameters = %v", got.Parameters)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	doc := `model: population
scenario: boom
time:
  stop: 50
parameters:
  death_rate: 0.01
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Scenario != "boom" {
		t.Errorf("scenario = %q", cfg.Scenario)
	}
	if cfg.Time.Stop == nil || *cfg.Time.Stop != 50 {
		t.Errorf("stop = %v, want 50", cfg.Time.Stop)
	}
	if cfg.Time.Start != nil {
		t.Errorf("start should be unset, got %v", *cfg.Time.Start)
	}
	if cfg.DataDir != DefaultDataDir {
		t.Errorf("absent data dir should keep default, got %q", cfg.DataDir)
	}
}

func TestResolvePrecedence(t *testing.T) {
	m := testModel()
	stop := 20.0
	cfg := &Config{
		Scenario: "boom",
		// Explicit parameter wins over the scenario override.
		Parameters: map[string]float64{"birth_rate": 0.2},
		Time:       TimeOverrides{Stop: &stop},
	}

	params, tc, err := cfg.Resolve(m)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if params["birth_rate"] != 0.2 {
		t.Errorf("birth_rate = %g, want explicit 0.2", params["birth_rate"])
	}
	if tc.Stop != 20 || tc.Start != 0 || tc.Dt != 1 {
		t.Errorf("time = %+v", tc)
	}
}

func TestResolveScenarioOnly(t *testing.T) {
	cfg := &Config{Scenario: "boom"}
	params, tc, err := cfg.Resolve(testModel())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if params["birth_rate"] != 0.1 {
		t.Errorf("birth_rate = %g, want scenario 0.1", params["birth_rate"])
	}
	if _, ok := params["death_rate"]; ok {
		t.Error("resolve should only return overrides, not defaults")
	}
	if tc != (sd.TimeConfig{Start: 0, Stop: 100, Dt: 1}) {
		t.Errorf("time = %+v", tc)
	}
}

func TestResolveErrors(t *testing.T) {
	m := testModel()

	cfg := &Config{Scenario: "ghost"}
	if _, _, err := cfg.Resolve(m); !errors.Is(err, sd.ErrUnknownScenario) {
		t.Errorf("unknown scenario: got %v", err)
	}

	cfg = &Config{Parameters: map[string]float64{"ghost": 1}}
	if _, _, err := cfg.Resolve(m); !errors.Is(err, sd.ErrUnknownParameter) {
		t.Errorf("unknown parameter: got %v", err)
	}

	bad := 0.0
	cfg = &Config{Time: TimeOverrides{Dt: &bad}}
	if _, _, err := cfg.Resolve(m); !errors.Is(err, sd.ErrBadTimeStep) {
		t.Errorf("bad dt: got %v", err)
	}
}
