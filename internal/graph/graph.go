// Package graph resolves the evaluation order of a model's instantaneous
// variables (flows and auxiliaries). Stocks never appear here: an
// equation reads a stock's value from the start of the current step, so
// stock feedback is a cross-step dependency, not an edge.
package graph

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError reports one concrete dependency cycle by name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// Order returns a total evaluation order for deps, where deps maps each
// variable to the variables its equation reads. Every dependency must
// itself be a key of deps; callers filter out stocks, parameters and
// lookups before building the map.
//
// Ties are broken lexicographically so the order is deterministic. Any
// valid linearization yields identical trajectories; the determinism is
// only for stable human-facing output.
func Order(deps map[string][]string) ([]string, error) {
	indegree := make(map[string]int, len(deps))
	dependents := make(map[string][]string, len(deps))

	for name := range deps {
		indegree[name] = 0
	}
	for name, reads := range deps {
		for _, dep := range reads {
			if _, ok := deps[dep]; !ok {
				return nil, fmt.Errorf("graph: %s depends on unknown node %s", name, dep)
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	ready := make([]string, 0, len(deps))
	for name, n := range indegree {
		if n == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(deps))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		next := dependents[name]
		sort.Strings(next)
		for _, dep := range next {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = insertSorted(ready, dep)
			}
		}
	}

	if len(order) != len(deps) {
		return nil, &CycleError{Path: findCycle(deps, indegree)}
	}
	return order, nil
}

func insertSorted(list []string, s string) []string {
	i := sort.SearchStrings(list, s)
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = s
	return list
}

// findCycle walks the unresolved remainder of the graph until a node
// repeats, then trims the walk to the loop itself.
func findCycle(deps map[string][]string, indegree map[string]int) []string {
	remaining := make(map[string]bool)
	for name, n := range indegree {
		if n > 0 {
			remaining[name] = true
		}
	}

	start := ""
	for name := range remaining {
		if start == "" || name < start {
			start = name
		}
	}

	seen := make(map[string]int)
	path := []string{}
	cur := start
	for {
		if at, ok := seen[cur]; ok {
			cycle := append([]string{}, path[at:]...)
			return append(cycle, cur)
		}
		seen[cur] = len(path)
		path = append(path, cur)

		reads := append([]string{}, deps[cur]...)
		sort.Strings(reads)
		next := ""
		for _, dep := range reads {
			if remaining[dep] {
				next = dep
				break
			}
		}
		if next == "" {
			return path
		}
		cur = next
	}
}
