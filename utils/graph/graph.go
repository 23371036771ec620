// Package graph implements the graph algorithms used on CFGs over any
// comparable node type. A graph is described by its successor function
// alone; successors are computed once per node.
package graph

type Graph[T comparable] struct {
	successors func(T) []T
	cache      map[T][]T
}

func Of[T comparable](successors func(T) []T) Graph[T] {
	return Graph[T]{successors: successors, cache: map[T][]T{}}
}

func (G Graph[T]) Edges(node T) []T {
	if es, found := G.cache[node]; found {
		return es
	}
	es := G.successors(node)
	G.cache[node] = es
	return es
}

// Postorder returns the nodes reachable from root in depth-first
// postorder, together with the position of every node in it.
func (G Graph[T]) Postorder(root T) ([]T, map[T]int) {
	index := map[T]int{}
	var order []T

	visiting := map[T]bool{}
	var visit func(T)
	visit = func(n T) {
		if visiting[n] {
			return
		}
		visiting[n] = true
		for _, s := range G.Edges(n) {
			visit(s)
		}
		index[n] = len(order)
		order = append(order, n)
	}
	visit(root)
	return order, index
}

// Predecessors inverts the edges between the given nodes.
func (G Graph[T]) Predecessors(nodes []T) map[T][]T {
	preds := make(map[T][]T, len(nodes))
	for _, n := range nodes {
		for _, s := range G.Edges(n) {
			preds[s] = append(preds[s], n)
		}
	}
	return preds
}
