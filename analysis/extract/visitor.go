package extract

import (
	"strings"

	"github.com/chai-analysis/chai/analysis/absint"
	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/cfg"
)

// Scope is what a visitor knows about the program version it visits.
type Scope struct {
	Version ast.Version
	// Every node of the version's tree by identifier.
	Nodes map[int]*ast.Node
	Sink  *Sink
}

// Factory creates the visitor for one CFG. Visitors are never shared
// between CFGs.
type Factory func(g *cfg.CFG, sc *Scope) cfg.Visitor

// Finisher is implemented by visitors that report facts only after
// they have seen the whole CFG.
type Finisher interface {
	Finish()
}

// Factories are the reference visitors.
var Factories = []Factory{
	NewControlVisitor,
	NewValueVisitor,
	NewEnvVisitor,
	NewCallVisitor,
}

// Accept runs a visitor from every factory over every CFG of an
// analysed program version.
func Accept(cfgs *cfg.Map, factories []Factory, sink *Sink) {
	if cfgs.Script == nil {
		return
	}
	script := cfgs.Script.Function
	sc := &Scope{
		Version: script.Version,
		Nodes:   ast.Index(script),
		Sink:    sink,
	}

	for _, g := range cfgs.All() {
		for _, mk := range factories {
			v := mk(g, sc)
			g.Accept(v)
			if f, ok := v.(Finisher); ok {
				f.Finish()
			}
		}
	}
}

// before is the state reaching n, if the analysis reached n at all.
func before(n *cfg.Node) (absint.State, bool) {
	s, ok := n.Before().(absint.State)
	return s, ok
}

func after(n *cfg.Node) (absint.State, bool) {
	s, ok := n.After().(absint.State)
	return s, ok
}

// isSynthetic holds for the entry and exit nodes of a CFG.
func isSynthetic(g *cfg.CFG, n *cfg.Node) bool {
	if n == g.Entry {
		return true
	}
	for _, x := range g.Exits {
		if n == x {
			return true
		}
	}
	return false
}

func (sc *Scope) report(f Fact) {
	f.Version = sc.Version
	sc.Sink.Add(f)
}

// roots are the expressions evaluated by the CFG node of stmt. Branches
// and loops evaluate only their condition; the entry node of a function
// evaluates nothing.
func roots(stmt *ast.Node) []*ast.Node {
	switch stmt.Kind {
	case ast.Script, ast.Function:
		return nil
	case ast.If, ast.While, ast.DoLoop, ast.For:
		if stmt.Cond == nil {
			return nil
		}
		return []*ast.Node{stmt.Cond}
	}
	return []*ast.Node{stmt}
}

// collect finds the nodes of the given kinds evaluated by stmt.
func collect(stmt *ast.Node, kinds ...ast.Kind) (res []*ast.Node) {
	for _, r := range roots(stmt) {
		res = append(res, ast.Collect(r, kinds...)...)
	}
	return
}

func lower(c ast.ChangeType) string {
	return strings.ToLower(c.String())
}
