package cfg

import (
	"github.com/chai-analysis/chai/analysis/ast"
)

// dangling is an edge whose target is not known yet.
type dangling struct {
	from *Node
	cond *ast.Node
}

type loopContext struct {
	breaks    []dangling
	continues []dangling
}

// Builder lowers structured statements into CFGs.
type Builder struct {
	ids ast.IDSource
	neg *ast.Builder

	g     *CFG
	exit  *Node
	loops []*loopContext
}

// NewBuilder creates a builder drawing node, edge and synthetic AST
// identifiers from ids.
func NewBuilder(ids ast.IDSource) *Builder {
	return &Builder{ids: ids}
}

// Build creates the CFG of a function or script. Nested functions are
// not lowered; they are separate CFGs.
func (b *Builder) Build(fn *ast.Node) (*CFG, error) {
	body, err := ast.FunctionBody(fn)
	if err != nil {
		return nil, err
	}

	b.neg = ast.NewBuilder(b.ids, fn.Version)
	b.neg.Line = fn.Line
	b.g = &CFG{Function: fn}
	b.loops = nil

	b.g.Entry = b.node(fn)
	exitStmt := b.neg.Empty()
	exitStmt.Parent = fn
	exitStmt.Change = fn.Change
	b.exit = b.node(exitStmt)
	b.g.Exits = []*Node{b.exit}

	out := b.stmts(body, []dangling{{from: b.g.Entry}})
	b.connect(out, b.exit)

	g := b.g
	g.prune()
	g.MarkLoopEdges()
	return g, nil
}

// BuildAll creates the CFGs of a script and of every function nested
// in it.
func (b *Builder) BuildAll(script *ast.Node) (*Map, error) {
	if err := ast.Expect("BuildAll", script, ast.Script); err != nil {
		return nil, err
	}

	m := NewMap()
	for _, fn := range append([]*ast.Node{script}, ast.Functions(script)...) {
		g, err := b.Build(fn)
		if err != nil {
			return nil, err
		}
		m.Add(g)
	}
	return m, nil
}

func (b *Builder) node(stmt *ast.Node) *Node {
	n := &Node{ID: b.ids.Next(), Statement: stmt}
	b.g.Nodes = append(b.g.Nodes, n)
	return n
}

func (b *Builder) edge(from, to *Node, cond *ast.Node) *Edge {
	e := &Edge{ID: b.ids.Next(), Condition: cond, From: from, To: to}
	from.Out = append(from.Out, e)
	to.In = append(to.In, e)
	b.g.Edges = append(b.g.Edges, e)
	return e
}

func (b *Builder) connect(ds []dangling, to *Node) {
	for _, d := range ds {
		b.edge(d.from, to, d.cond)
	}
}

func (b *Builder) negate(cond *ast.Node) *ast.Node {
	b.neg.Line = cond.Line
	return b.neg.Negation(cond)
}

// stmts lowers a statement list entered through the dangling edges in,
// and returns the dangling edges leaving it.
func (b *Builder) stmts(list []*ast.Node, in []dangling) []dangling {
	for _, s := range list {
		in = b.stmt(s, in)
	}
	return in
}

// simple emits a node for a statement that falls through.
func (b *Builder) simple(s *ast.Node, in []dangling) []dangling {
	n := b.node(s)
	b.connect(in, n)
	return []dangling{{from: n}}
}

func (b *Builder) stmt(s *ast.Node, in []dangling) []dangling {
	switch s.Kind {
	case ast.Block:
		return b.stmts(s.Body, in)

	case ast.Return:
		n := b.node(s)
		b.connect(in, n)
		b.edge(n, b.exit, nil)
		return nil

	case ast.Break, ast.Continue:
		n := b.node(s)
		b.connect(in, n)
		if len(b.loops) == 0 {
			// Labels are not supported; a stray jump ends the path.
			return nil
		}
		loop := b.loops[len(b.loops)-1]
		if s.Kind == ast.Break {
			loop.breaks = append(loop.breaks, dangling{from: n})
		} else {
			loop.continues = append(loop.continues, dangling{from: n})
		}
		return nil

	case ast.If:
		n := b.node(s)
		b.connect(in, n)
		then := b.stmts(s.Body, []dangling{{from: n, cond: s.Cond}})
		els := b.stmts(s.Else, []dangling{{from: n, cond: b.negate(s.Cond)}})
		return append(then, els...)

	case ast.While:
		header := b.node(s)
		b.connect(in, header)
		loop := b.enterLoop()
		body := b.stmts(s.Body, []dangling{{from: header, cond: s.Cond}})
		b.exitLoop()
		b.connect(body, header)
		b.connect(loop.continues, header)
		return append([]dangling{{from: header, cond: b.negate(s.Cond)}}, loop.breaks...)

	case ast.DoLoop:
		// The body is entered unconditionally; the loop node evaluates
		// the condition after it.
		test := &Node{ID: b.ids.Next(), Statement: s}
		loop := b.enterLoop()
		bodyIn := len(b.g.Nodes)
		body := b.stmts(s.Body, in)
		b.exitLoop()
		b.g.Nodes = append(b.g.Nodes, test)
		b.connect(body, test)
		b.connect(loop.continues, test)

		// An empty body leaves the incoming edges pointing at the test.
		start := test
		if bodyIn < len(b.g.Nodes)-1 {
			start = b.g.Nodes[bodyIn]
		}
		b.edge(test, start, s.Cond)
		return append([]dangling{{from: test, cond: b.negate(s.Cond)}}, loop.breaks...)

	case ast.For:
		if s.Init != nil {
			in = b.simple(s.Init, in)
		}
		header := b.node(s)
		b.connect(in, header)
		loop := b.enterLoop()
		body := b.stmts(s.Body, []dangling{{from: header, cond: s.Cond}})
		b.exitLoop()

		back := append(body, loop.continues...)
		if s.Update != nil {
			back = b.simple(s.Update, back)
		}
		b.connect(back, header)

		out := loop.breaks
		if s.Cond != nil {
			out = append([]dangling{{from: header, cond: b.negate(s.Cond)}}, out...)
		}
		return out
	}

	return b.simple(s, in)
}

func (b *Builder) enterLoop() *loopContext {
	l := &loopContext{}
	b.loops = append(b.loops, l)
	return l
}

func (b *Builder) exitLoop() {
	b.loops = b.loops[:len(b.loops)-1]
}

// prune removes the nodes, and their edges, that cannot be reached
// from the entry. The exit node is always kept.
func (g *CFG) prune() {
	reachable := map[*Node]bool{}
	var visit func(*Node)
	visit = func(n *Node) {
		if reachable[n] {
			return
		}
		reachable[n] = true
		for _, e := range n.Out {
			visit(e.To)
		}
	}
	visit(g.Entry)
	for _, x := range g.Exits {
		reachable[x] = true
	}

	nodes := g.Nodes[:0]
	for _, n := range g.Nodes {
		if reachable[n] {
			nodes = append(nodes, n)
		}
	}
	g.Nodes = nodes

	edges := g.Edges[:0]
	for _, e := range g.Edges {
		if reachable[e.From] {
			edges = append(edges, e)
		}
	}
	g.Edges = edges

	for _, n := range g.Nodes {
		in := n.In[:0]
		for _, e := range n.In {
			if reachable[e.From] {
				in = append(in, e)
			}
		}
		n.In = in
	}
}
