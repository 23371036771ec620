// Package dot builds Graphviz documents and renders them to images.
package dot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Attrs are the attributes of a node, edge or graph.
type Attrs map[string]string

// String renders the attributes sorted by name, so equal attribute
// sets always print the same.
func (a Attrs) String() string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%q; ", k, a[k])
	}
	return strings.TrimSuffix(sb.String(), " ")
}

type Node struct {
	ID    string
	Attrs Attrs
}

type Edge struct {
	From, To *Node
	Attrs    Attrs
}

// Graph is a directed graph drawn top to bottom.
type Graph struct {
	Title   string
	Minlen  uint
	Nodesep float64
	Nodes   []*Node
	Edges   []*Edge
}

func (g *Graph) AddNode(id string, attrs Attrs) *Node {
	n := &Node{ID: id, Attrs: attrs}
	g.Nodes = append(g.Nodes, n)
	return n
}

func (g *Graph) AddEdge(from, to *Node, attrs Attrs) {
	g.Edges = append(g.Edges, &Edge{from, to, attrs})
}

// WriteTo writes the graph in the dot language.
func (g *Graph) WriteTo(w io.Writer) (int64, error) {
	minlen, nodesep := g.Minlen, g.Nodesep
	if minlen == 0 {
		minlen = 2
	}
	if nodesep == 0 {
		nodesep = 0.35
	}

	var sb strings.Builder
	sb.WriteString("digraph ControlFlow {\n")
	fmt.Fprintf(&sb, "\t%s\n", Attrs{
		"label":     g.Title,
		"labeljust": "l",
		"fontname":  "Arial",
		"rankdir":   "TB",
		"bgcolor":   "lightgray",
		"nodesep":   fmt.Sprint(nodesep),
	})
	fmt.Fprintf(&sb, "\tnode [ %s ]\n", Attrs{
		"shape":     "ellipse",
		"style":     "filled",
		"fillcolor": "honeydew",
		"fontname":  "Verdana",
	})
	fmt.Fprintf(&sb, "\tedge [ minlen=\"%d\"; ]\n\n", minlen)

	for _, n := range g.Nodes {
		fmt.Fprintf(&sb, "\t%q [ %s ]\n", n.ID, n.Attrs)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "\t%q -> %q [ %s ]\n", e.From.ID, e.To.ID, e.Attrs)
	}
	sb.WriteString("}\n")

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// Render lays out the dot source with the embedded Graphviz library
// and writes the image to outfname with the format as extension, or to
// the temporary directory if outfname is empty. It returns the path of
// the image.
func Render(outfname, format string, src []byte) (img string, err error) {
	gv := graphviz.New()
	defer gv.Close()

	g, err := graphviz.ParseBytes(src)
	if err != nil {
		return "", fmt.Errorf("parsing dot graph: %w", err)
	}
	defer func() {
		if cerr := g.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	img = outfname + "." + format
	if outfname == "" {
		img = filepath.Join(os.TempDir(), "chai_export."+format)
	}
	if err := gv.RenderFilename(g, graphviz.Format(format), img); err != nil {
		return "", fmt.Errorf("rendering %s: %w", img, err)
	}
	return img, nil
}
