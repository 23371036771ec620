package graph

import "fmt"

// DominatorTree computes the dominators of the nodes reachable from
// root with the iterative algorithm of Cooper, Harvey and Kennedy. The
// returned function gives the nearest common dominator of its
// arguments and panics for nodes that are not reachable.
func (G Graph[T]) DominatorTree(root T) func(...T) T {
	order, index := G.Postorder(root)
	preds := G.Predecessors(order)

	const undefined = -1
	idom := make([]int, len(order))
	for i := range idom {
		idom[i] = undefined
	}
	rootIdx := index[root]
	idom[rootIdx] = rootIdx

	// Walk up the tree from both nodes; postorder positions grow
	// towards the root.
	meet := func(a, b int) int {
		for a != b {
			for a < b {
				a = idom[a]
			}
			for b < a {
				b = idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for i := len(order) - 1; i >= 0; i-- {
			if i == rootIdx {
				continue
			}
			next := undefined
			for _, p := range preds[order[i]] {
				j := index[p]
				if idom[j] == undefined {
					continue
				}
				if next == undefined {
					next = j
				} else {
					next = meet(j, next)
				}
			}
			if next != idom[i] {
				idom[i] = next
				changed = true
			}
		}
	}

	return func(nodes ...T) T {
		if len(nodes) == 0 {
			panic("no nodes to find a dominator for")
		}
		dom := undefined
		for _, n := range nodes {
			i, found := index[n]
			if !found {
				panic(fmt.Errorf("%v is not reachable from the dominator tree root", n))
			}
			if dom == undefined {
				dom = i
			} else {
				dom = meet(i, dom)
			}
		}
		return order[dom]
	}
}
