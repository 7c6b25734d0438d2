package sd

import "math"

// Kind distinguishes the three variable classes of a stock-flow model.
type Kind int

const (
	KindStock Kind = iota
	KindFlow
	KindAux
)

func (k Kind) String() string {
	switch k {
	case KindStock:
		return "stock"
	case KindFlow:
		return "flow"
	case KindAux:
		return "auxiliary"
	}
	return "unknown"
}

// Parameter is a user-tunable scalar. Bounds and step drive UI controls;
// the engine itself never clamps.
type Parameter struct {
	Name  string   `json:"name"`
	Value float64  `json:"value"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Step  *float64 `json:"step,omitempty"`
	Units string   `json:"units,omitempty"`
	Doc   string   `json:"doc,omitempty"`
}

// Clamp returns v limited to the parameter's bounds, if any.
func (p *Parameter) Clamp(v float64) float64 {
	if p.Min != nil && v < *p.Min {
		v = *p.Min
	}
	if p.Max != nil && v > *p.Max {
		v = *p.Max
	}
	return v
}

// Stock is a state variable accumulating net flow over time. Inflows and
// Outflows name Flow variables. Floor/Ceiling, when present, clamp the
// stock after each update.
type Stock struct {
	Name    string   `json:"name"`
	Initial float64  `json:"initial"`
	Inflows []string `json:"inflows,omitempty"`
	Outflows []string `json:"outflows,omitempty"`
	Floor   *float64 `json:"floor,omitempty"`
	Ceiling *float64 `json:"ceiling,omitempty"`
	Units   string   `json:"units,omitempty"`
	Doc     string   `json:"doc,omitempty"`
}

// Flow is a rate equation feeding into or out of stocks.
type Flow struct {
	Name     string `json:"name"`
	Equation string `json:"equation"`
	Units    string `json:"units,omitempty"`
	Doc      string `json:"doc,omitempty"`
}

// Aux is a derived quantity, not integrated over time.
type Aux struct {
	Name     string `json:"name"`
	Equation string `json:"equation"`
	Units    string `json:"units,omitempty"`
	Doc      string `json:"doc,omitempty"`
}

// Lookup is a piecewise-linear table callable from equations as a
// single-argument function. Points must be sorted by X.
type Lookup struct {
	Name   string       `json:"name"`
	Points [][2]float64 `json:"points"`
	Doc    string       `json:"doc,omitempty"`
}

// Interp evaluates the table at x with clamped endpoints.
func (l *Lookup) Interp(x float64) float64 {
	pts := l.Points
	if len(pts) == 0 {
		return math.NaN()
	}
	if x <= pts[0][0] {
		return pts[0][1]
	}
	last := pts[len(pts)-1]
	if x >= last[0] {
		return last[1]
	}
	for i := 1; i < len(pts); i++ {
		if x <= pts[i][0] {
			x0, y0 := pts[i-1][0], pts[i-1][1]
			x1, y1 := pts[i][0], pts[i][1]
			if x1 == x0 {
				return y1
			}
			return y0 + (y1-y0)*(x-x0)/(x1-x0)
		}
	}
	return last[1]
}

// Scenario is a named set of parameter overrides.
type Scenario struct {
	Name      string             `json:"name"`
	Doc       string             `json:"doc,omitempty"`
	Overrides map[string]float64 `json:"overrides"`
}

// TimeConfig fixes the simulated horizon and step size.
type TimeConfig struct {
	Start float64 `json:"start"`
	Stop  float64 `json:"stop"`
	Dt    float64 `json:"dt"`
}

// Steps is the number of recorded time points, inclusive of both ends.
func (tc TimeConfig) Steps() int {
	return int(math.Ceil((tc.Stop-tc.Start)/tc.Dt)) + 1
}

func (tc TimeConfig) Validate() error {
	if tc.Dt <= 0 {
		return ErrBadTimeStep
	}
	if tc.Stop <= tc.Start {
		return ErrBadHorizon
	}
	return nil
}

// Model is one scenario's complete declarative definition. Loaded once
// and never mutated; runs read it concurrently-safe by convention of
// never writing.
type Model struct {
	Name       string      `json:"name"`
	Title      string      `json:"title,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	Time       TimeConfig  `json:"time"`
	Parameters []Parameter `json:"parameters"`
	Stocks     []Stock     `json:"stocks"`
	Flows      []Flow      `json:"flows"`
	Auxes      []Aux       `json:"auxiliaries,omitempty"`
	Lookups    []Lookup    `json:"lookups,omitempty"`
	Scenarios  []Scenario  `json:"scenarios,omitempty"`
}

// Defaults returns the model's default parameter values.
func (m *Model) Defaults() map[string]float64 {
	out := make(map[string]float64, len(m.Parameters))
	for _, p := range m.Parameters {
		out[p.Name] = p.Value
	}
	return out
}

// Parameter returns the named parameter, or nil.
func (m *Model) Parameter(name string) *Parameter {
	for i := range m.Parameters {
		if m.Parameters[i].Name == name {
			return &m.Parameters[i]
		}
	}
	return nil
}

// Scenario returns the named scenario, or nil.
func (m *Model) Scenario(name string) *Scenario {
	for i := range m.Scenarios {
		if m.Scenarios[i].Name == name {
			return &m.Scenarios[i]
		}
	}
	return nil
}

// VarNames lists every named quantity in recording order: stocks, then
// flows, then auxiliaries, in declaration order.
func (m *Model) VarNames() []string {
	names := make([]string, 0, len(m.Stocks)+len(m.Flows)+len(m.Auxes))
	for _, s := range m.Stocks {
		names = append(names, s.Name)
	}
	for _, f := range m.Flows {
		names = append(names, f.Name)
	}
	for _, a := range m.Auxes {
		names = append(names, a.Name)
	}
	return names
}

// Trajectory is the full time series of every variable across the
// simulated horizon. Names preserves recording order for stable output.
type Trajectory struct {
	Times  []float64
	Names  []string
	Series map[string][]float64
}

// At returns the series for name, or nil.
func (tr *Trajectory) At(name string) []float64 {
	return tr.Series[name]
}
