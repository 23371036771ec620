package graph

import (
	"fmt"

	"github.com/chai-analysis/chai/utils/dot"
)

// DotStyle decides how nodes and edges are drawn. A nil NodeAttrs
// names nodes by their fmt rendering.
type DotStyle[T comparable] struct {
	Title     string
	Minlen    uint
	Nodesep   float64
	NodeAttrs func(T) (id string, attrs dot.Attrs)
	EdgeAttrs func(from, to T) dot.Attrs
}

// ToDot draws the subgraph induced by nodes.
func (G Graph[T]) ToDot(nodes []T, style DotStyle[T]) *dot.Graph {
	dg := &dot.Graph{Title: style.Title, Minlen: style.Minlen, Nodesep: style.Nodesep}

	drawn := make(map[T]*dot.Node, len(nodes))
	for _, n := range nodes {
		id, attrs := fmt.Sprint(n), dot.Attrs(nil)
		if style.NodeAttrs != nil {
			id, attrs = style.NodeAttrs(n)
		}
		drawn[n] = dg.AddNode(id, attrs)
	}

	for _, from := range nodes {
		for _, to := range G.Edges(from) {
			target, ok := drawn[to]
			if !ok {
				continue
			}
			var attrs dot.Attrs
			if style.EdgeAttrs != nil {
				attrs = style.EdgeAttrs(from, to)
			}
			dg.AddEdge(drawn[from], target, attrs)
		}
	}
	return dg
}
