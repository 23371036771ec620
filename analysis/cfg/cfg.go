package cfg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/utils"

	"github.com/fatih/color"
)

var colorize = struct {
	Node func(...interface{}) string
	Edge func(...interface{}) string
	Loop func(...interface{}) string
}{
	Node: utils.Colorizer(color.FgHiWhite),
	Edge: utils.Colorizer(color.FgHiBlue),
	Loop: utils.Colorizer(color.FgHiMagenta),
}

// State is the abstract state stored at CFG elements. The analysis
// provides the implementation; the graph only joins and compares them.
type State interface {
	Join(State) State
	Eq(State) bool
	String() string
}

// Node wraps one statement. The entry node of a CFG wraps the function
// (or script) itself, the exit node a synthetic Empty statement.
type Node struct {
	ID        int
	Statement *ast.Node
	In, Out   []*Edge

	before, after State
}

// Before is the state entering the statement, or nil if the node was
// never reached.
func (n *Node) Before() State { return n.before }

// After is the state leaving the statement.
func (n *Node) After() State { return n.after }

// Successors lists the target nodes of the outgoing edges.
func (n *Node) Successors() []*Node {
	res := make([]*Node, len(n.Out))
	for i, e := range n.Out {
		res[i] = e.To
	}
	return res
}

// IsBranch holds for nodes with more than one conditional outgoing edge.
func (n *Node) IsBranch() bool {
	conds := 0
	for _, e := range n.Out {
		if e.Condition != nil {
			conds++
		}
	}
	return conds > 1
}

func (n *Node) String() string {
	return fmt.Sprintf("%s %s", colorize.Node(fmt.Sprintf("n%d", n.ID)), statementString(n.Statement))
}

// Label is a one-line rendering of the statement of n. Branches and
// loops show only their condition.
func (n *Node) Label() string {
	return statementString(n.Statement)
}

// Label renders a statement the way CFG nodes are labelled.
func Label(s *ast.Node) string {
	return statementString(s)
}

func statementString(s *ast.Node) string {
	switch s.Kind {
	case ast.Script:
		return "[ script ]"
	case ast.Function:
		if s.Name == "" {
			return "[ function ]"
		}
		return "[ function " + s.Name + " ]"
	case ast.Empty:
		return "[ empty ]"
	case ast.If:
		return "if (" + s.Cond.Source() + ")"
	case ast.While:
		return "while (" + s.Cond.Source() + ")"
	case ast.DoLoop:
		return "do ... while (" + s.Cond.Source() + ")"
	case ast.For:
		cond := ""
		if s.Cond != nil {
			cond = s.Cond.Source()
		}
		return "for (" + cond + ")"
	}
	return strings.TrimSpace(s.Source())
}

// Edge is a control transfer between two nodes, guarded by Condition
// when it is not nil. Loop marks back edges.
type Edge struct {
	ID        int
	Condition *ast.Node
	From, To  *Node
	Loop      bool

	before, after State
}

// Before is the state before the condition is evaluated.
func (e *Edge) Before() State { return e.before }

// After is the state after the condition was assumed to hold.
func (e *Edge) After() State { return e.after }

// IsChanged holds when the guarding condition was changed by the commit.
func (e *Edge) IsChanged() bool {
	return e.Condition != nil && e.Condition.IsChanged()
}

// Line is the source line of the condition, or of the source node for
// unconditional edges.
func (e *Edge) Line() int {
	if e.Condition != nil {
		return e.Condition.Line
	}
	return e.From.Statement.Line
}

func (e *Edge) String() string {
	str := colorize.Edge(fmt.Sprintf("n%d → n%d", e.From.ID, e.To.ID))
	if e.Condition != nil {
		str += " [" + e.Condition.Source() + "]"
	}
	if e.Loop {
		str += " " + colorize.Loop("loop")
	}
	return str
}

// CFG is the control-flow graph of one function or script.
type CFG struct {
	Function *ast.Node
	Entry    *Node
	Exits    []*Node
	Nodes    []*Node
	Edges    []*Edge
}

// Record publishes the states of a node. States are joined into any
// states recorded before, so the stored states only grow. It reports
// whether the stored states changed.
func (g *CFG) Record(n *Node, before, after State) bool {
	var changed bool
	n.before, changed = record(n.before, before)
	var c bool
	n.after, c = record(n.after, after)
	return changed || c
}

// RecordEdge publishes the states of an edge, like Record.
func (g *CFG) RecordEdge(e *Edge, before, after State) bool {
	var changed bool
	e.before, changed = record(e.before, before)
	var c bool
	e.after, c = record(e.after, after)
	return changed || c
}

func record(old, new State) (State, bool) {
	switch {
	case new == nil:
		return old, false
	case old == nil:
		return new, true
	}
	joined := old.Join(new)
	return joined, !joined.Eq(old)
}

// Reset drops all recorded states.
func (g *CFG) Reset() {
	for _, n := range g.Nodes {
		n.before, n.after = nil, nil
	}
	for _, e := range g.Edges {
		e.before, e.after = nil, nil
	}
}

// ForEach executes the given procedure for each node reachable from
// the entry, in depth-first order following the outgoing edges in
// order. Nodes that cannot be reached from the entry are visited last.
func (g *CFG) ForEach(do func(*Node)) {
	visited := make(map[*Node]struct{})

	var visit func(*Node)
	visit = func(n *Node) {
		if _, ok := visited[n]; !ok {
			visited[n] = struct{}{}
			do(n)
			for _, e := range n.Out {
				visit(e.To)
			}
		}
	}

	visit(g.Entry)
	for _, n := range g.Nodes {
		visit(n)
	}
}

// Visitor is the contract of extraction code. Accept calls VisitNode
// once for every node and VisitEdge once for every edge.
type Visitor interface {
	VisitNode(*Node)
	VisitEdge(*Edge)
}

// Accept visits every node and edge of the graph exactly once. Nodes
// are visited in depth-first order, each followed by its outgoing
// edges. No other order is guaranteed.
func (g *CFG) Accept(v Visitor) {
	g.ForEach(func(n *Node) {
		v.VisitNode(n)
		for _, e := range n.Out {
			v.VisitEdge(e)
		}
	})
}

func (g *CFG) Name() string {
	if g.Function.Kind == ast.Script {
		return "script"
	}
	if g.Function.Name == "" {
		return fmt.Sprintf("function#%d", g.Function.ID)
	}
	return g.Function.Name
}

func (g *CFG) String() string {
	strs := []string{g.Name() + ":"}
	g.ForEach(func(n *Node) {
		strs = append(strs, "  "+n.String())
		for _, e := range n.Out {
			strs = append(strs, "    "+e.String())
		}
	})
	return strings.Join(strs, "\n")
}

// Map holds the CFGs of one program version, keyed by the AST
// identifier of the function or script they belong to.
type Map struct {
	Script *CFG
	cfgs   map[int]*CFG
}

func NewMap() *Map {
	return &Map{cfgs: make(map[int]*CFG)}
}

func (m *Map) Add(g *CFG) {
	m.cfgs[g.Function.ID] = g
	if g.Function.Kind == ast.Script {
		m.Script = g
	}
}

// Get finds the CFG of a function by the identifier of its AST node.
func (m *Map) Get(fn int) (*CFG, bool) {
	g, ok := m.cfgs[fn]
	return g, ok
}

// All returns the CFGs ordered by function identifier.
func (m *Map) All() []*CFG {
	res := make([]*CFG, 0, len(m.cfgs))
	for _, g := range m.cfgs {
		res = append(res, g)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Function.ID < res[j].Function.ID })
	return res
}

func (m *Map) Len() int { return len(m.cfgs) }

// Reset drops the states recorded in every CFG.
func (m *Map) Reset() {
	for _, g := range m.cfgs {
		g.Reset()
	}
}
