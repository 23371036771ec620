package cfg

import (
	"github.com/chai-analysis/chai/utils/graph"
)

// Graph exposes the successor relation for the generic graph algorithms.
func (g *CFG) Graph() graph.Graph[*Node] {
	return graph.Of(func(n *Node) []*Node {
		return n.Successors()
	})
}

// ReversePostorder returns the position of every reachable node in the
// reverse post-order of a depth-first traversal from the entry.
// Processing nodes in that order visits a node after its predecessors,
// except along back edges.
func (g *CFG) ReversePostorder() map[*Node]int {
	post, index := g.Graph().Postorder(g.Entry)
	for n, i := range index {
		index[n] = len(post) - 1 - i
	}
	return index
}

// MarkLoopEdges marks every edge whose target dominates its source.
// Only edges between nodes reachable from the entry are considered.
func (g *CFG) MarkLoopEdges() {
	G := g.Graph()
	dom := G.DominatorTree(g.Entry)

	reachable := map[*Node]bool{}
	G.BFS(g.Entry, func(n *Node) bool {
		reachable[n] = true
		return false
	})

	for _, e := range g.Edges {
		e.Loop = reachable[e.From] && reachable[e.To] && dom(e.From, e.To) == e.To
	}
}

// Loops returns the node sets of the cycles of the graph: the strongly
// connected components with more than one node or a self-loop.
func (g *CFG) Loops() [][]*Node {
	scc := g.Graph().SCC([]*Node{g.Entry})

	var res [][]*Node
	for _, comp := range scc.Components {
		if len(comp) > 1 {
			res = append(res, comp)
			continue
		}
		for _, e := range comp[0].Out {
			if e.To == comp[0] {
				res = append(res, comp)
				break
			}
		}
	}
	return res
}
