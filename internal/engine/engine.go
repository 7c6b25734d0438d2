// Package engine evaluates a compiled stock-flow model over a fixed time
// horizon with explicit forward Euler stepping.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/stockflow/internal/expr"
	"github.com/san-kum/stockflow/internal/graph"
	"github.com/san-kum/stockflow/internal/sd"
)

// Runner holds one model compiled for repeated runs: every equation
// parsed, every reference checked, and the instantaneous variables in
// topological evaluation order. Run is a pure function of its arguments;
// the runner keeps no per-run state.
type Runner struct {
	model   *sd.Model
	order   []string
	exprs   map[string]*expr.Expr
	lookups map[string]*sd.Lookup
}

// New compiles m. All configuration errors surface here: malformed
// equations, unknown references, unknown functions, and dependency
// cycles among flows and auxiliaries.
func New(m *sd.Model) (*Runner, error) {
	r := &Runner{
		model:   m,
		exprs:   make(map[string]*expr.Expr, len(m.Flows)+len(m.Auxes)),
		lookups: make(map[string]*sd.Lookup, len(m.Lookups)),
	}
	for i := range m.Lookups {
		r.lookups[m.Lookups[i].Name] = &m.Lookups[i]
	}

	known := make(map[string]bool)
	known["time"] = true
	for _, p := range m.Parameters {
		known[p.Name] = true
	}
	for _, s := range m.Stocks {
		known[s.Name] = true
	}
	instantaneous := make(map[string]bool, len(m.Flows)+len(m.Auxes))
	for _, f := range m.Flows {
		known[f.Name] = true
		instantaneous[f.Name] = true
	}
	for _, a := range m.Auxes {
		known[a.Name] = true
		instantaneous[a.Name] = true
	}

	compile := func(name, equation string) error {
		e, err := expr.Parse(equation)
		if err != nil {
			return &sd.ModelError{Model: m.Name, Subject: name, Wrapped: err}
		}
		for _, ref := range e.Refs() {
			if !known[ref] {
				return &sd.ModelError{Model: m.Name, Subject: name,
					Wrapped: fmt.Errorf("%w: %s", sd.ErrUnknownReference, ref)}
			}
		}
		for _, call := range e.Calls() {
			if _, ok := r.lookups[call]; ok {
				continue
			}
			if !expr.IsBuiltin(call) {
				return &sd.ModelError{Model: m.Name, Subject: name,
					Wrapped: fmt.Errorf("%w: %s", expr.ErrUnknownFunction, call)}
			}
		}
		r.exprs[name] = e
		return nil
	}

	for _, f := range m.Flows {
		if err := compile(f.Name, f.Equation); err != nil {
			return nil, err
		}
	}
	for _, a := range m.Auxes {
		if err := compile(a.Name, a.Equation); err != nil {
			return nil, err
		}
	}

	deps := make(map[string][]string, len(r.exprs))
	for name, e := range r.exprs {
		reads := []string{}
		for _, ref := range e.Refs() {
			if instantaneous[ref] {
				reads = append(reads, ref)
			}
		}
		deps[name] = reads
	}

	order, err := graph.Order(deps)
	if err != nil {
		var cyc *graph.CycleError
		if errors.As(err, &cyc) {
			err = fmt.Errorf("%w: %v", sd.ErrCycle, cyc)
		}
		return nil, &sd.ModelError{Model: m.Name, Wrapped: err}
	}
	r.order = order

	return r, nil
}

// Model returns the compiled model definition.
func (r *Runner) Model() *sd.Model { return r.model }

// Order returns the evaluation order of flows and auxiliaries.
func (r *Runner) Order() []string {
	return append([]string{}, r.order...)
}

// Run integrates the model from tc.Start to tc.Stop at step tc.Dt under
// the given parameter values, which are merged over the model defaults.
// Identical inputs always yield a bit-for-bit identical trajectory.
func (r *Runner) Run(ctx context.Context, params map[string]float64, tc sd.TimeConfig) (*sd.Trajectory, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}

	values := r.model.Defaults()
	for name, v := range params {
		if _, ok := values[name]; !ok {
			return nil, fmt.Errorf("%w: %s", sd.ErrUnknownParameter, name)
		}
		values[name] = v
	}

	steps := tc.Steps()
	names := r.model.VarNames()
	series := make(map[string][]float64, len(names))
	for _, name := range names {
		series[name] = make([]float64, 0, steps)
	}
	times := make([]float64, 0, steps)

	stocks := make(map[string]float64, len(r.model.Stocks))
	for _, s := range r.model.Stocks {
		stocks[s.Name] = s.Initial
	}

	e := &env{
		params:  values,
		stocks:  stocks,
		curr:    make(map[string]float64, len(r.order)),
		lookups: r.lookups,
	}

	for step := 0; step < steps; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		t := tc.Start + float64(step)*tc.Dt
		e.time = t

		for _, name := range r.order {
			v, err := r.exprs[name].Eval(e)
			if err != nil {
				return nil, &sd.EvalError{Variable: name, Step: step, Time: t, Wrapped: err}
			}
			e.curr[name] = v
		}

		times = append(times, t)
		for _, s := range r.model.Stocks {
			series[s.Name] = append(series[s.Name], stocks[s.Name])
		}
		for _, name := range r.order {
			series[name] = append(series[name], e.curr[name])
		}

		// Stocks are not advanced past the final recorded time.
		if step == steps-1 {
			break
		}

		for i := range r.model.Stocks {
			s := &r.model.Stocks[i]
			net := 0.0
			for _, f := range s.Inflows {
				net += e.curr[f]
			}
			for _, f := range s.Outflows {
				net -= e.curr[f]
			}
			v := stocks[s.Name] + tc.Dt*net
			if s.Floor != nil && v < *s.Floor {
				v = *s.Floor
			}
			if s.Ceiling != nil && v > *s.Ceiling {
				v = *s.Ceiling
			}
			stocks[s.Name] = v
		}
	}

	return &sd.Trajectory{Times: times, Names: names, Series: series}, nil
}

// env resolves equation names against the current step's state.
// Resolution order: simulated time, already-evaluated instantaneous
// values, start-of-step stock values, parameters.
type env struct {
	params  map[string]float64
	stocks  map[string]float64
	curr    map[string]float64
	lookups map[string]*sd.Lookup
	time    float64
}

func (e *env) Value(name string) (float64, bool) {
	if name == "time" {
		return e.time, true
	}
	if v, ok := e.curr[name]; ok {
		return v, true
	}
	if v, ok := e.stocks[name]; ok {
		return v, true
	}
	v, ok := e.params[name]
	return v, ok
}

func (e *env) Call(name string, args []float64) (float64, error) {
	if l, ok := e.lookups[name]; ok {
		if len(args) != 1 {
			return 0, fmt.Errorf("%w: lookup %s takes 1 argument", expr.ErrArity, name)
		}
		return l.Interp(args[0]), nil
	}
	return expr.CallBuiltin(name, args)
}
