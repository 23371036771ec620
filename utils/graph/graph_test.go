package graph

import (
	"sort"
	"testing"
)

var edges = map[int][]int{
	0:  {1, 8},
	1:  {4, 5, 2},
	2:  {6, 3, 9},
	3:  {2, 7},
	4:  {0, 5},
	5:  {6},
	6:  {5},
	7:  {3, 6},
	8:  {},
	9:  {10, 11},
	10: {12, 13},
	11: {12, 13},
	12: {},
	13: {},
}
var _sampleGraph = Of(func(i int) []int {
	return edges[i]
})

func TestDominatorTree(t *testing.T) {
	dom := _sampleGraph.DominatorTree(0)

	tests := []struct {
		nodes    []int
		expected int
	}{
		// A node dominates itself.
		{[]int{4}, 4},
		{[]int{12}, 12},
		{[]int{4, 2}, 1},
		{[]int{3, 9}, 2},
		{[]int{7, 10}, 2},
		{[]int{12, 13}, 9},
		{[]int{6, 4}, 1},
		{[]int{8, 9}, 0},
	}

	for _, test := range tests {
		if got := dom(test.nodes...); got != test.expected {
			t.Errorf("dom(%v) = %d, expected %d", test.nodes, got, test.expected)
		}
	}
}

func TestBFSStopsEarly(t *testing.T) {
	visited := []int{}
	stopped := _sampleGraph.BFS(0, func(n int) bool {
		visited = append(visited, n)
		return n == 9
	})

	if !stopped {
		t.Fatal("search should stop at 9")
	}
	for _, n := range visited {
		if n == 12 || n == 13 {
			t.Errorf("visited %d which is only reachable through 9", n)
		}
	}
}

func TestBFSReachesEverything(t *testing.T) {
	var visited []int
	_sampleGraph.BFS(0, func(n int) bool {
		visited = append(visited, n)
		return false
	})

	sort.Ints(visited)
	if len(visited) != len(edges) {
		t.Errorf("visited %v", visited)
	}
}

func TestToDotDrawsInducedSubgraph(t *testing.T) {
	dg := _sampleGraph.ToDot([]int{9, 10, 11, 12}, DotStyle[int]{Title: "sub"})
	if len(dg.Nodes) != 4 {
		t.Fatalf("drew %d nodes, expected 4", len(dg.Nodes))
	}
	// 9->10, 9->11, 10->12, 11->12; edges to 13 leave the subgraph.
	if len(dg.Edges) != 4 {
		t.Errorf("drew %d edges, expected 4", len(dg.Edges))
	}
	for _, e := range dg.Edges {
		if e.To.ID == "13" {
			t.Errorf("edge %s -> %s leaves the subgraph", e.From.ID, e.To.ID)
		}
	}
}
