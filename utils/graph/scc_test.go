package graph

import (
	"sort"
	"testing"
)

func TestSCC(t *testing.T) {
	scc := _sampleGraph.SCC([]int{0})

	sameComponent := [][]int{
		{0, 1, 4},
		{2, 3, 7},
		{5, 6},
	}
	for _, group := range sameComponent {
		c := scc.ComponentOf(group[0])
		for _, n := range group[1:] {
			if scc.ComponentOf(n) != c {
				t.Errorf("%d and %d should share a component", group[0], n)
			}
		}
	}

	if scc.ComponentOf(8) == scc.ComponentOf(0) {
		t.Error("8 is not on a cycle with 0")
	}
	if scc.ComponentOf(42) != -1 {
		t.Error("unreachable node got a component")
	}

	// Components are produced in reverse topological order.
	if scc.ComponentOf(12) > scc.ComponentOf(9) || scc.ComponentOf(9) > scc.ComponentOf(0) {
		t.Error("components are not in reverse topological order")
	}
}

func TestSCCComponents(t *testing.T) {
	scc := _sampleGraph.SCC([]int{0})

	total := 0
	for i, comp := range scc.Components {
		total += len(comp)
		for _, n := range comp {
			if scc.ComponentOf(n) != i {
				t.Errorf("%d is listed in component %d but mapped to %d", n, i, scc.ComponentOf(n))
			}
		}
	}
	if total != len(edges) {
		t.Errorf("components cover %d nodes, expected %d", total, len(edges))
	}

	cycle := scc.Components[scc.ComponentOf(2)]
	sorted := append([]int(nil), cycle...)
	sort.Ints(sorted)
	if len(sorted) != 3 || sorted[0] != 2 || sorted[1] != 3 || sorted[2] != 7 {
		t.Errorf("component of 2 is %v", cycle)
	}
}

func TestPostorder(t *testing.T) {
	order, index := _sampleGraph.Postorder(0)
	scc := _sampleGraph.SCC([]int{0})
	if len(order) != len(edges) || order[len(order)-1] != 0 {
		t.Fatalf("unexpected postorder %v", order)
	}
	for n, succs := range edges {
		for _, s := range succs {
			// Successors finish first, unless the edge closes a cycle.
			if index[s] > index[n] && scc.ComponentOf(s) != scc.ComponentOf(n) {
				t.Errorf("%d finished after its predecessor %d", s, n)
			}
		}
	}
}
