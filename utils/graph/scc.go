package graph

// SCCDecomposition is the partition of the reachable part of a graph
// into strongly connected components. Components are numbered in
// reverse topological order: edges from component i only lead to
// components j <= i.
type SCCDecomposition[T comparable] struct {
	Components [][]T
	comp       map[T]int
}

// ComponentOf returns the index of the component of node, or -1 for
// nodes that were not reached.
func (scc SCCDecomposition[T]) ComponentOf(node T) int {
	if c, found := scc.comp[node]; found {
		return c
	}
	return -1
}

// SCC decomposes the subgraph reachable from the start nodes with
// Tarjan's algorithm.
func (G Graph[T]) SCC(start []T) SCCDecomposition[T] {
	res := SCCDecomposition[T]{comp: map[T]int{}}

	low := map[T]int{}
	var stack []T
	clock := 0

	var visit func(T) int
	visit = func(n T) int {
		clock++
		num := clock
		low[n] = num
		height := len(stack)
		stack = append(stack, n)

		for _, s := range G.Edges(n) {
			if _, done := res.comp[s]; done {
				continue
			}
			l, seen := low[s]
			if !seen {
				l = visit(s)
			}
			if l < low[n] {
				low[n] = l
			}
		}

		if low[n] == num {
			component := append([]T(nil), stack[height:]...)
			stack = stack[:height]
			for _, m := range component {
				res.comp[m] = len(res.Components)
			}
			res.Components = append(res.Components, component)
		}
		return low[n]
	}

	for _, n := range start {
		if _, done := res.comp[n]; !done {
			visit(n)
		}
	}
	return res
}
