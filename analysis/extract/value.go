package extract

import (
	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/cfg"
	L "github.com/chai-analysis/chai/analysis/lattice"
)

// ValueVisitor reports variables written with changed values, and
// functions returning changed values.
type ValueVisitor struct {
	g  *cfg.CFG
	sc *Scope
}

func NewValueVisitor(g *cfg.CFG, sc *Scope) cfg.Visitor {
	return &ValueVisitor{g, sc}
}

func (v *ValueVisitor) VisitEdge(*cfg.Edge) {}

func (v *ValueVisitor) VisitNode(n *cfg.Node) {
	if isSynthetic(v.g, n) {
		return
	}
	s, ok := after(n)
	if !ok {
		return
	}

	stmt := n.Statement
	if stmt.Kind == ast.Return {
		if ret, has := s.Scratch.Return(); has && ret.IsChanged() {
			v.report(stmt.Line, n.Label(), ret)
		}
		return
	}

	for _, name := range written(stmt) {
		vr, found := s.Env.Lookup(name.Name)
		if !found {
			continue
		}
		if val := s.Store.ApplyAll(vr.Addrs); val.IsChanged() {
			v.report(stmt.Line, name.Name, val)
		}
	}
}

func (v *ValueVisitor) report(line int, subject string, val L.BValue) {
	detail := ""
	if val.Dependent.Changed() {
		detail = "read through a changed expression"
	}
	v.sc.report(Fact{
		Kind:    ChangedValue,
		Line:    line,
		Subject: subject,
		Change:  valueChange(val),
		Detail:  detail,
	})
}

// written returns the variables assigned by stmt.
func written(stmt *ast.Node) (res []*ast.Node) {
	for _, n := range collect(stmt, ast.VariableInitializer, ast.Assignment, ast.Unary) {
		var target *ast.Node
		switch {
		case n.Kind == ast.VariableInitializer && n.Init != nil:
			target = n.Left
		case n.Kind == ast.Assignment:
			target = n.Left
		case n.Kind == ast.Unary && (n.Op == ast.OpInc || n.Op == ast.OpDec):
			target = n.Expr
		}
		for target != nil && target.Kind == ast.Paren {
			target = target.Expr
		}
		if target != nil && target.Kind == ast.Name {
			res = append(res, target)
		}
	}
	return
}

// valueChange joins the change of a value with the changes of its
// components.
func valueChange(v L.BValue) L.Change {
	return v.Change.
		Join(v.Undefined.Change).
		Join(v.Null.Change).
		Join(v.Bool.Change).
		Join(v.Num.Change).
		Join(v.Str.Change).
		Join(v.Addrs.Change)
}
