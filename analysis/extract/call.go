package extract

import (
	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/cfg"
	L "github.com/chai-analysis/chai/analysis/lattice"
)

// CallVisitor reports calls changed by the commit, and the unchanged
// calls made by functions that were entered through a changed call.
type CallVisitor struct {
	g  *cfg.CFG
	sc *Scope
}

func NewCallVisitor(g *cfg.CFG, sc *Scope) cfg.Visitor {
	return &CallVisitor{g, sc}
}

func (v *CallVisitor) VisitEdge(*cfg.Edge) {}

func (v *CallVisitor) VisitNode(n *cfg.Node) {
	if isSynthetic(v.g, n) {
		return
	}
	s, ok := before(n)
	if !ok {
		return
	}

	for _, call := range collect(n.Statement, ast.Call, ast.New) {
		switch {
		case call.IsChanged():
			v.sc.report(Fact{
				Kind:    ChangedCall,
				Line:    call.Line,
				Subject: call.Source(),
				Change:  L.InsertedOrRemoved,
				Detail:  lower(call.Change),
			})
		case s.Control.Call.Changed():
			v.sc.report(Fact{
				Kind:    AffectedCall,
				Line:    call.Line,
				Subject: call.Source(),
				Change:  s.Control.Call,
			})
		}
	}
}
