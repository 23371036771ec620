package cfg

import (
	"bytes"
	"fmt"

	"github.com/chai-analysis/chai/utils"
	"github.com/chai-analysis/chai/utils/dot"
	"github.com/chai-analysis/chai/utils/graph"
)

// ToDot creates a dot graph of the CFG. Changed statements and edges
// guarded by changed conditions are highlighted; back edges are dashed.
func (g *CFG) ToDot(opts utils.Options) *dot.Graph {
	nodes := []*Node{}
	g.ForEach(func(n *Node) { nodes = append(nodes, n) })

	edgeOf := func(from, to *Node) *Edge {
		for _, e := range from.Out {
			if e.To == to {
				return e
			}
		}
		return nil
	}

	return g.Graph().ToDot(nodes, graph.DotStyle[*Node]{
		Title:   g.Name(),
		Minlen:  opts.Minlen,
		Nodesep: opts.Nodesep,
		NodeAttrs: func(n *Node) (string, dot.Attrs) {
			attrs := dot.Attrs{
				"label": fmt.Sprintf("%d: %s", n.Statement.Line, statementString(n.Statement)),
				"shape": "box",
			}
			if n.Statement.IsChanged() {
				attrs["style"] = "filled"
				attrs["fillcolor"] = "#ffd0d0"
			}
			return fmt.Sprintf("n%d", n.ID), attrs
		},
		EdgeAttrs: func(from, to *Node) dot.Attrs {
			attrs := dot.Attrs{}
			e := edgeOf(from, to)
			if e == nil {
				return attrs
			}
			if e.Condition != nil {
				attrs["label"] = e.Condition.Source()
			}
			if e.IsChanged() {
				attrs["color"] = "red"
			}
			if e.Loop {
				attrs["style"] = "dashed"
			}
			return attrs
		},
	})
}

// Visualize renders the CFG to an image in the configured format and
// returns the path of the image.
func (g *CFG) Visualize(opts utils.Options, outfname string) (string, error) {
	var buf bytes.Buffer
	if _, err := g.ToDot(opts).WriteTo(&buf); err != nil {
		return "", err
	}
	return dot.Render(outfname, opts.OutputFormat, buf.Bytes())
}
