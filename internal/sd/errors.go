package sd

import (
	"errors"
	"fmt"
)

// Configuration and evaluation errors.
var (
	// ErrDuplicateName indicates two model quantities share a name.
	ErrDuplicateName = errors.New("sd: duplicate name in model")

	// ErrUnknownReference indicates an equation references a name the
	// model does not define.
	ErrUnknownReference = errors.New("sd: unknown variable reference")

	// ErrBadFlowWiring indicates a stock names a flow that does not exist.
	ErrBadFlowWiring = errors.New("sd: stock wired to unknown flow")

	// ErrCycle indicates a dependency cycle among flow/auxiliary variables.
	ErrCycle = errors.New("sd: dependency cycle among instantaneous variables")

	// ErrBadTimeStep indicates a non-positive dt.
	ErrBadTimeStep = errors.New("sd: time step must be positive")

	// ErrBadHorizon indicates stop <= start.
	ErrBadHorizon = errors.New("sd: stop time must exceed start time")

	// ErrUnknownParameter indicates an override names no model parameter.
	ErrUnknownParameter = errors.New("sd: unknown parameter")

	// ErrUnknownScenario indicates a scenario name the model does not define.
	ErrUnknownScenario = errors.New("sd: unknown scenario")
)

// ModelError is a model-authoring defect detected at load or compile
// time. Fatal for that model; no run is attempted.
type ModelError struct {
	Model   string
	Subject string
	Wrapped error
}

func (e *ModelError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("model %s: %v", e.Model, e.Wrapped)
	}
	return fmt.Sprintf("model %s: %s: %v", e.Model, e.Subject, e.Wrapped)
}

func (e *ModelError) Unwrap() error { return e.Wrapped }

// EvalError is a per-run numeric defect at a specific variable and time
// step. The run is aborted and its partial trajectory discarded.
type EvalError struct {
	Variable string
	Step     int
	Time     float64
	Wrapped  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating %s at step %d (t=%.4f): %v", e.Variable, e.Step, e.Time, e.Wrapped)
}

func (e *EvalError) Unwrap() error { return e.Wrapped }
