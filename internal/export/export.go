// Package export writes trajectories to interchange formats: CSV for
// spreadsheets, JSON for downstream tooling, SVG for standalone charts.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/stockflow/internal/sd"
)

// Document is the JSON export shape for one run.
type Document struct {
	Model      string               `json:"model"`
	Scenario   string               `json:"scenario,omitempty"`
	Start      float64              `json:"start"`
	Stop       float64              `json:"stop"`
	Dt         float64              `json:"dt"`
	Parameters map[string]float64   `json:"parameters,omitempty"`
	Times      []float64            `json:"times"`
	Variables  []string             `json:"variables"`
	Series     map[string][]float64 `json:"series"`
}

// JSON writes the full trajectory document, indented.
func JSON(w io.Writer, model, scenario string, params map[string]float64, tc sd.TimeConfig, tr *sd.Trajectory) error {
	doc := Document{
		Model:      model,
		Scenario:   scenario,
		Start:      tc.Start,
		Stop:       tc.Stop,
		Dt:         tc.Dt,
		Parameters: params,
		Times:      tr.Times,
		Variables:  tr.Names,
		Series:     tr.Series,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// CSV writes a time column plus one column per variable in trajectory order.
func CSV(w io.Writer, tr *sd.Trajectory) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := append([]string{"time"}, tr.Names...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range tr.Times {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatFloat(tr.Times[i], 'g', -1, 64))
		for _, name := range tr.Names {
			row = append(row, strconv.FormatFloat(tr.Series[name][i], 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}
