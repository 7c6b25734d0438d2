package expr

import (
	"errors"
	"fmt"
)

// Evaluation errors.
var (
	// ErrDivisionByZero indicates an exact zero divisor.
	ErrDivisionByZero = errors.New("expr: division by zero")

	// ErrDomain indicates an argument outside a function's domain.
	ErrDomain = errors.New("expr: argument outside function domain")

	// ErrUnknownName indicates a reference the environment cannot resolve.
	ErrUnknownName = errors.New("expr: unknown name")

	// ErrUnknownFunction indicates a call the environment cannot resolve.
	ErrUnknownFunction = errors.New("expr: unknown function")

	// ErrArity indicates a call with the wrong number of arguments.
	ErrArity = errors.New("expr: wrong argument count")
)

// Env resolves names and function calls during evaluation.
type Env interface {
	Value(name string) (float64, bool)
	Call(name string, args []float64) (float64, error)
}

type node interface {
	eval(env Env) (float64, error)
}

type numNode float64

func (n numNode) eval(Env) (float64, error) { return float64(n), nil }

type refNode string

func (n refNode) eval(env Env) (float64, error) {
	v, ok := env.Value(string(n))
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownName, string(n))
	}
	return v, nil
}

type negNode struct {
	x node
}

func (n *negNode) eval(env Env) (float64, error) {
	v, err := n.x.eval(env)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

type binNode struct {
	op   int
	l, r node
}

func (n *binNode) eval(env Env) (float64, error) {
	l, err := n.l.eval(env)
	if err != nil {
		return 0, err
	}
	r, err := n.r.eval(env)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case plusCode:
		return l + r, nil
	case minusCode:
		return l - r, nil
	case starCode:
		return l * r, nil
	case slashCode:
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	case caretCode:
		return pow(l, r)
	case lessCode:
		return bool01(l < r), nil
	case lessEqualCode:
		return bool01(l <= r), nil
	case greaterCode:
		return bool01(l > r), nil
	case greaterEqualCode:
		return bool01(l >= r), nil
	case equalCode:
		return bool01(l == r), nil
	case notEqualCode:
		return bool01(l != r), nil
	}
	return 0, fmt.Errorf("expr: bad operator code %d", n.op)
}

func bool01(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

type callNode struct {
	name string
	args []node
}

func (n *callNode) eval(env Env) (float64, error) {
	args := make([]float64, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(env)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	return env.Call(n.name, args)
}

// Expr is a compiled equation.
type Expr struct {
	src   string
	root  node
	refs  []string
	calls []string
}

// Source returns the original equation text.
func (e *Expr) Source() string { return e.src }

// Refs lists the names the expression reads as values, sorted, deduplicated.
func (e *Expr) Refs() []string { return e.refs }

// Calls lists the function names the expression invokes, sorted, deduplicated.
func (e *Expr) Calls() []string { return e.calls }

// Eval evaluates the expression against env.
func (e *Expr) Eval(env Env) (float64, error) {
	return e.root.eval(env)
}
