package expr

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

type testEnv map[string]float64

func (e testEnv) Value(name string) (float64, bool) {
	v, ok := e[name]
	return v, ok
}

func (e testEnv) Call(name string, args []float64) (float64, error) {
	return CallBuiltin(name, args)
}

func evalString(t *testing.T, src string, env testEnv) float64 {
	t.Helper()
	ex, err := Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	v, err := ex.Eval(env)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v
}

func TestParseEval(t *testing.T) {
	env := testEnv{"x": 4, "y": 2, "birth_rate": 0.05}

	tests := []struct {
		src  string
		want float64
	}{
		{"1 + 2", 3},
		{"2 * 3 + 4", 10},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 - 4 - 3", 3},
		{"16 / 4 / 2", 2},
		{"-x", -4},
		{"--x", 4},
		{"2 ^ 3", 8},
		{"2 ^ 3 ^ 2", 512},
		{"-2 ^ 2", -4},
		{"x / y", 2},
		{"birth_rate * 100", 5},
		{"1.5e2", 150},
		{"2.5E-1", 0.25},
		{"x < 5", 1},
		{"x > 5", 0},
		{"x <= 4", 1},
		{"x >= 5", 0},
		{"x = 4", 1},
		{"x <> 4", 0},
		{"min(x, y)", 2},
		{"max(x, y)", 4},
		{"abs(-3)", 3},
		{"sqrt(x)", 2},
		{"pow(y, 3)", 8},
		{"if_then_else(x > y, 10, 20)", 10},
		{"if_then_else(x < y, 10, 20)", 20},
		{"floor(2.7)", 2},
		{"ceil(2.1)", 3},
		{"min(x, 1e-6)", 1e-6},
	}

	for _, tc := range tests {
		got := evalString(t, tc.src, env)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("%q = %g, want %g", tc.src, got, tc.want)
		}
	}
}

func TestParseEvalTranscendental(t *testing.T) {
	env := testEnv{}
	if got := evalString(t, "ln(exp(1))", env); math.Abs(got-1) > 1e-12 {
		t.Errorf("ln(exp(1)) = %g, want 1", got)
	}
	if got := evalString(t, "sin(0) + cos(0)", env); math.Abs(got-1) > 1e-12 {
		t.Errorf("sin(0)+cos(0) = %g, want 1", got)
	}
	if got := evalString(t, "log10(100)", env); math.Abs(got-2) > 1e-12 {
		t.Errorf("log10(100) = %g, want 2", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"1 +",
		"* 2",
		"(1 + 2",
		"1 + 2)",
		"min(1,)",
		"min(1, 2",
		"1 2",
		"x y",
		"1 & 2",
	}

	for _, src := range tests {
		if _, err := Parse(src); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", src)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	env := testEnv{"x": 0}

	tests := []struct {
		src  string
		want error
	}{
		{"1 / x", ErrDivisionByZero},
		{"1 / 0", ErrDivisionByZero},
		{"ln(0)", ErrDomain},
		{"ln(-1)", ErrDomain},
		{"sqrt(-1)", ErrDomain},
		{"log10(0)", ErrDomain},
		{"pow(0, -1)", ErrDivisionByZero},
		{"0 ^ -1", ErrDivisionByZero},
		{"missing + 1", ErrUnknownName},
		{"nosuchfn(1)", ErrUnknownFunction},
		{"min(1)", ErrArity},
		{"abs(1, 2)", ErrArity},
	}

	for _, tc := range tests {
		ex, err := Parse(tc.src)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.src, err)
		}
		_, err = ex.Eval(env)
		if !errors.Is(err, tc.want) {
			t.Errorf("%q: got error %v, want %v", tc.src, err, tc.want)
		}
	}
}

func TestNaNPropagates(t *testing.T) {
	env := testEnv{"x": math.NaN()}
	ex, err := Parse("x * 2 + 1")
	if err != nil {
		t.Fatal(err)
	}
	v, err := ex.Eval(env)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !math.IsNaN(v) {
		t.Errorf("got %g, want NaN", v)
	}
}

func TestRefsAndCalls(t *testing.T) {
	ex, err := Parse("b * max(a, c) + a / lookup_fn(time)")
	if err != nil {
		t.Fatal(err)
	}
	wantRefs := []string{"a", "b", "c", "time"}
	if !reflect.DeepEqual(ex.Refs(), wantRefs) {
		t.Errorf("refs = %v, want %v", ex.Refs(), wantRefs)
	}
	wantCalls := []string{"lookup_fn", "max"}
	if !reflect.DeepEqual(ex.Calls(), wantCalls) {
		t.Errorf("calls = %v, want %v", ex.Calls(), wantCalls)
	}
}

func TestFunctionNameNotARef(t *testing.T) {
	ex, err := Parse("max(x, y)")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range ex.Refs() {
		if r == "max" {
			t.Error("function name recorded as value reference")
		}
	}
}

func TestSourcePreserved(t *testing.T) {
	src := "stock / max(total, 1e-6)"
	ex, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if ex.Source() != src {
		t.Errorf("source = %q, want %q", ex.Source(), src)
	}
}
