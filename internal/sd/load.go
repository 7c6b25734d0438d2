package sd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Load reads and structurally validates a model definition file.
// Equation compilation and evaluation-order resolution happen when an
// engine is built for the model; both stages reject the model before any
// run is attempted.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode parses a model definition document.
func Decode(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate performs the structural checks that need no expression
// compilation: name uniqueness, stock-to-flow wiring, time config,
// scenario override targets, lookup table shape.
func (m *Model) Validate() error {
	if m.Name == "" {
		return &ModelError{Model: "?", Wrapped: fmt.Errorf("model has no name")}
	}

	names := make(map[string]string)
	claim := func(name, what string) error {
		if name == "" {
			return &ModelError{Model: m.Name, Wrapped: fmt.Errorf("unnamed %s", what)}
		}
		if prev, ok := names[name]; ok {
			return &ModelError{Model: m.Name, Subject: name,
				Wrapped: fmt.Errorf("%w (%s and %s)", ErrDuplicateName, prev, what)}
		}
		names[name] = what
		return nil
	}

	for _, p := range m.Parameters {
		if err := claim(p.Name, "parameter"); err != nil {
			return err
		}
	}
	for _, s := range m.Stocks {
		if err := claim(s.Name, "stock"); err != nil {
			return err
		}
	}
	flows := make(map[string]bool, len(m.Flows))
	for _, f := range m.Flows {
		if err := claim(f.Name, "flow"); err != nil {
			return err
		}
		flows[f.Name] = true
	}
	for _, a := range m.Auxes {
		if err := claim(a.Name, "auxiliary"); err != nil {
			return err
		}
	}
	for _, l := range m.Lookups {
		if err := claim(l.Name, "lookup"); err != nil {
			return err
		}
		if len(l.Points) < 2 {
			return &ModelError{Model: m.Name, Subject: l.Name,
				Wrapped: fmt.Errorf("lookup needs at least 2 points")}
		}
		if !sort.SliceIsSorted(l.Points, func(i, j int) bool { return l.Points[i][0] < l.Points[j][0] }) {
			return &ModelError{Model: m.Name, Subject: l.Name,
				Wrapped: fmt.Errorf("lookup points not sorted by x")}
		}
	}

	for _, s := range m.Stocks {
		for _, f := range append(append([]string{}, s.Inflows...), s.Outflows...) {
			if !flows[f] {
				return &ModelError{Model: m.Name, Subject: s.Name,
					Wrapped: fmt.Errorf("%w: %s", ErrBadFlowWiring, f)}
			}
		}
	}

	if err := m.Time.Validate(); err != nil {
		return &ModelError{Model: m.Name, Wrapped: err}
	}

	for _, sc := range m.Scenarios {
		for name := range sc.Overrides {
			if m.Parameter(name) == nil {
				return &ModelError{Model: m.Name, Subject: "scenario " + sc.Name,
					Wrapped: fmt.Errorf("%w: %s", ErrUnknownParameter, name)}
			}
		}
	}

	return nil
}

// ListDir returns the model definition files under dir, sorted by name.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
