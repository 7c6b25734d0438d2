package expr

import (
	"fmt"
	"math"
)

// Builtin is a pure scalar function available to every model.
type Builtin struct {
	Arity int
	Fn    func(args []float64) (float64, error)
}

// Builtins is the fixed function set of the evaluator. Model lookup
// tables extend it per model at load time.
var Builtins = map[string]Builtin{
	"abs":   {1, func(a []float64) (float64, error) { return math.Abs(a[0]), nil }},
	"sqrt":  {1, func(a []float64) (float64, error) { return domain1(math.Sqrt, a[0], a[0] >= 0) }},
	"exp":   {1, func(a []float64) (float64, error) { return math.Exp(a[0]), nil }},
	"ln":    {1, func(a []float64) (float64, error) { return domain1(math.Log, a[0], a[0] > 0) }},
	"log10": {1, func(a []float64) (float64, error) { return domain1(math.Log10, a[0], a[0] > 0) }},
	"sin":   {1, func(a []float64) (float64, error) { return math.Sin(a[0]), nil }},
	"cos":   {1, func(a []float64) (float64, error) { return math.Cos(a[0]), nil }},
	"tan":   {1, func(a []float64) (float64, error) { return math.Tan(a[0]), nil }},
	"floor": {1, func(a []float64) (float64, error) { return math.Floor(a[0]), nil }},
	"ceil":  {1, func(a []float64) (float64, error) { return math.Ceil(a[0]), nil }},
	"min":   {2, func(a []float64) (float64, error) { return math.Min(a[0], a[1]), nil }},
	"max":   {2, func(a []float64) (float64, error) { return math.Max(a[0], a[1]), nil }},
	"pow":   {2, func(a []float64) (float64, error) { return pow(a[0], a[1]) }},
	"if_then_else": {3, func(a []float64) (float64, error) {
		if a[0] != 0 {
			return a[1], nil
		}
		return a[2], nil
	}},
}

// CallBuiltin resolves name against Builtins with arity checking.
func CallBuiltin(name string, args []float64) (float64, error) {
	b, ok := Builtins[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	if len(args) != b.Arity {
		return 0, fmt.Errorf("%w: %s expects %d args, got %d", ErrArity, name, b.Arity, len(args))
	}
	return b.Fn(args)
}

// IsBuiltin reports whether name is a fixed evaluator function.
func IsBuiltin(name string) bool {
	_, ok := Builtins[name]
	return ok
}

func domain1(fn func(float64) float64, x float64, ok bool) (float64, error) {
	if !ok {
		return 0, fmt.Errorf("%w: %g", ErrDomain, x)
	}
	return fn(x), nil
}

func pow(base, exponent float64) (float64, error) {
	if base == 0 && exponent < 0 {
		return 0, ErrDivisionByZero
	}
	if base < 0 && exponent != math.Trunc(exponent) {
		return 0, fmt.Errorf("%w: negative base with fractional exponent", ErrDomain)
	}
	return math.Pow(base, exponent), nil
}
