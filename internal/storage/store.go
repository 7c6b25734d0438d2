package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/stockflow/internal/sd"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Scenario   string             `json:"scenario,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Start      float64            `json:"start"`
	Stop       float64            `json:"stop"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Parameters map[string]float64 `json:"parameters"`
	Variables  []string           `json:"variables"`
}

// Save writes one run directory: metadata.json plus series.csv with a
// time column and one column per variable in trajectory order.
func (s *Store) Save(model, scenario string, params map[string]float64, tc sd.TimeConfig, tr *sd.Trajectory) (string, error) {
	runID := fmt.Sprintf("%s_%d", model, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Model:      model,
		Scenario:   scenario,
		Timestamp:  time.Now(),
		Start:      tc.Start,
		Stop:       tc.Stop,
		Dt:         tc.Dt,
		Steps:      len(tr.Times),
		Parameters: params,
		Variables:  tr.Names,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "series.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := append([]string{"time"}, tr.Names...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range tr.Times {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatFloat(tr.Times[i], 'g', -1, 64))
		for _, name := range tr.Names {
			row = append(row, strconv.FormatFloat(tr.Series[name][i], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries reads a run's series back into a trajectory.
func (s *Store) LoadSeries(runID string) (*sd.Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("run %s: empty series", runID)
	}

	header := records[0]
	if len(header) < 2 || header[0] != "time" {
		return nil, fmt.Errorf("run %s: malformed series header", runID)
	}
	names := header[1:]

	tr := &sd.Trajectory{
		Times:  make([]float64, 0, len(records)-1),
		Names:  names,
		Series: make(map[string][]float64, len(names)),
	}
	for _, name := range names {
		tr.Series[name] = make([]float64, 0, len(records)-1)
	}

	for _, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("run %s: ragged series row", runID)
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s: bad time value %q", runID, record[0])
		}
		tr.Times = append(tr.Times, t)
		for i, name := range names {
			v, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: bad value %q for %s", runID, record[i+1], name)
			}
			tr.Series[name] = append(tr.Series[name], v)
		}
	}

	return tr, nil
}
