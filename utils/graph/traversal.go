package graph

import W "github.com/chai-analysis/chai/utils/worklist"

// BFS visits the nodes reachable from start in breadth-first order
// until visit returns true. It reports whether the search was stopped.
func (G Graph[T]) BFS(start T, visit func(T) (stop bool)) bool {
	seen := map[T]bool{start: true}
	stopped := false

	W.StartV([]T{start}, func(n T, add func(T)) {
		if stopped {
			return
		}
		if visit(n) {
			stopped = true
			return
		}
		for _, s := range G.Edges(n) {
			if !seen[s] {
				seen[s] = true
				add(s)
			}
		}
	})
	return stopped
}
