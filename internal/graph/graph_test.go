package graph

import (
	"errors"
	"reflect"
	"testing"
)

func indexOf(order []string, name string) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}

func TestOrderRespectsDependencies(t *testing.T) {
	deps := map[string][]string{
		"net_growth": {"births", "deaths"},
		"births":     {"fertility"},
		"deaths":     {},
		"fertility":  {},
	}

	order, err := Order(deps)
	if err != nil {
		t.Fatalf("order failed: %v", err)
	}
	if len(order) != len(deps) {
		t.Fatalf("expected %d entries, got %d", len(deps), len(order))
	}
	for name, reads := range deps {
		for _, dep := range reads {
			if indexOf(order, dep) > indexOf(order, name) {
				t.Errorf("%s evaluated before its dependency %s: %v", name, dep, order)
			}
		}
	}
}

func TestOrderDeterministic(t *testing.T) {
	deps := map[string][]string{
		"a": {}, "b": {}, "c": {}, "d": {"a", "b"}, "e": {"b", "c"},
	}

	first, err := Order(deps)
	if err != nil {
		t.Fatalf("order failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		got, err := Order(deps)
		if err != nil {
			t.Fatalf("order failed: %v", err)
		}
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("order not deterministic: %v vs %v", got, first)
		}
	}
	want := []string{"a", "b", "c", "d", "e"}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("expected lexicographic tie-break %v, got %v", want, first)
	}
}

func TestOrderEmpty(t *testing.T) {
	order, err := Order(map[string][]string{})
	if err != nil {
		t.Fatalf("order failed: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("expected empty order, got %v", order)
	}
}

func TestOrderCycle(t *testing.T) {
	deps := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
		"d": {},
	}

	_, err := Order(deps)
	if err == nil {
		t.Fatal("expected cycle error")
	}
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CycleError, got %T: %v", err, err)
	}
	if len(ce.Path) < 2 {
		t.Fatalf("expected concrete cycle path, got %v", ce.Path)
	}
	if ce.Path[0] != ce.Path[len(ce.Path)-1] {
		t.Errorf("cycle path should close on itself: %v", ce.Path)
	}
	for _, name := range []string{"a", "b", "c"} {
		if indexOf(ce.Path, name) < 0 {
			t.Errorf("cycle path %v missing %s", ce.Path, name)
		}
	}
}

func TestOrderSelfLoop(t *testing.T) {
	deps := map[string][]string{"a": {"a"}}

	_, err := Order(deps)
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CycleError, got %v", err)
	}
}

func TestOrderUnknownDependency(t *testing.T) {
	deps := map[string][]string{"a": {"ghost"}}

	_, err := Order(deps)
	if err == nil {
		t.Fatal("expected error for unknown dependency")
	}
	var ce *CycleError
	if errors.As(err, &ce) {
		t.Errorf("unknown dependency misreported as cycle: %v", err)
	}
}
