package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/stockflow/internal/sd"
)

func testTrajectory() *sd.Trajectory {
	return &sd.Trajectory{
		Times: []float64{0, 0.5, 1},
		Names: []string{"population", "births"},
		Series: map[string][]float64{
			"population": {1000, 1025, 1050.625},
			"births":     {50, 51.25, 52.53125},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	tc := sd.TimeConfig{Start: 0, Stop: 1, Dt: 0.5}
	params := map[string]float64{"birth_rate": 0.05}
	runID, err := st.Save("population", "boom", params, tc, testTrajectory())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "population_") {
		t.Errorf("run id = %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Model != "population" || meta.Scenario != "boom" {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.Steps != 3 || meta.Dt != 0.5 {
		t.Errorf("steps = %d, dt = %g", meta.Steps, meta.Dt)
	}
	if meta.Parameters["birth_rate"] != 0.05 {
		t.Errorf("parameters = %v", meta.Parameters)
	}

	tr, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	want := testTrajectory()
	if len(tr.Times) != 3 {
		t.Fatalf("got %d samples", len(tr.Times))
	}
	for i, tv := range want.Times {
		if tr.Times[i] != tv {
			t.Errorf("times[%d] = %g, want %g", i, tr.Times[i], tv)
		}
	}
	for _, name := range want.Names {
		got := tr.At(name)
		if got == nil {
			t.Fatalf("series %s missing", name)
		}
		for i, v := range want.Series[name] {
			if got[i] != v {
				t.Errorf("%s[%d] = %v, want %v", name, i, got[i], v)
			}
		}
	}
	if tr.Names[0] != "population" || tr.Names[1] != "births" {
		t.Errorf("column order lost: %v", tr.Names)
	}
}

func TestList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	tc := sd.TimeConfig{Start: 0, Stop: 1, Dt: 0.5}
	if _, err := st.Save("population", "", nil, tc, testTrajectory()); err != nil {
		t.Fatal(err)
	}
	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Model != "population" {
		t.Errorf("model = %q", runs[0].Model)
	}
}

func TestListMissingBaseDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "never-created"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error for missing run")
	}
	if _, err := st.LoadSeries("nope"); err == nil {
		t.Error("expected error for missing series")
	}
}

func TestLoadSeriesMalformed(t *testing.T) {
	base := t.TempDir()
	st := New(base)
	runDir := filepath.Join(base, "bad_1")
	if err := os.MkdirAll(runDir, 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		csv  string
	}{
		{"empty", ""},
		{"header only", "time,x\n"},
		{"wrong header", "t,x\n0,1\n"},
		{"bad value", "time,x\n0,notanumber\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := os.WriteFile(filepath.Join(runDir, "series.csv"), []byte(tc.csv), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := st.LoadSeries("bad_1"); err == nil {
				t.Error("expected error")
			}
		})
	}
}
