package absint

import (
	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/cfg"
	L "github.com/chai-analysis/chai/analysis/lattice"
)

// transferNode computes the state after the statement of n.
func (s State) transferNode(n *cfg.Node) State {
	s.Trace = s.Trace.Update(n.ID)
	s.interpret(n.Statement)
	return s
}

// transferEdge computes the state after following e: the condition is
// assumed to hold, and the control context steps into the branch.
func (s State) transferEdge(e *cfg.Edge) State {
	s.Trace = s.Trace.Update(e.ID)
	if e.Condition == nil {
		return s
	}

	s.refine(e.Condition, true)

	var siblings []L.Branch
	for _, o := range e.From.Out {
		if o != e && o.Condition != nil {
			siblings = append(siblings, branchOf(o))
		}
	}
	s.Control = s.Control.Update(branchOf(e), siblings...)
	return s
}

func branchOf(e *cfg.Edge) L.Branch {
	return L.Branch{Cond: e.Condition.ID, Changed: e.IsChanged()}
}

func (s *State) interpret(stmt *ast.Node) {
	switch stmt.Kind {
	case ast.Script, ast.Function, ast.Empty, ast.Break, ast.Continue:
		// Declarations were hoisted when the function was entered.

	case ast.ExpressionStatement:
		s.eval(stmt.Expr)

	case ast.VariableDeclaration:
		for _, vi := range stmt.List {
			s.initialize(vi)
		}

	case ast.VariableInitializer:
		s.initialize(stmt)

	case ast.Return:
		s.interpretReturn(stmt)

	case ast.If, ast.While, ast.DoLoop, ast.For:
		if stmt.Cond != nil {
			s.eval(stmt.Cond)
		}

	default:
		if stmt.Kind.IsExpression() {
			// Initializers and updates of for loops.
			s.eval(stmt)
			return
		}
		panic(ast.Expect("interpret", stmt,
			ast.Script, ast.Function, ast.Empty, ast.ExpressionStatement,
			ast.VariableDeclaration, ast.Return, ast.If, ast.While, ast.DoLoop,
			ast.For, ast.Break, ast.Continue))
	}
}

func (s *State) initialize(vi *ast.Node) {
	if err := ast.Expect("initialize", vi, ast.VariableInitializer); err != nil {
		panic(err)
	}
	if vi.Init == nil {
		return
	}
	v := introduce(vi, s.eval(vi.Init))
	s.assign(vi.Left, v)
}

// interpretReturn stages the returned value in the scratchpad and binds
// it to the return pseudo-variable, so values escaping through returns
// stay reachable from the environment.
func (s *State) interpretReturn(ret *ast.Node) {
	v := L.InjectUndefined(L.Unchanged)
	if ret.Expr != nil {
		v = s.eval(ret.Expr)
	}
	v = introduce(ret, v)

	a := s.Trace.MakeAddress(ret.ID, "")
	s.Env = s.Env.Bind(L.Variable{
		Name:    retval,
		Definer: ret.ID,
		Change:  changeOf(ret),
		Addrs:   L.AddressesOf(L.Unchanged, a),
	})
	s.Store = s.Store.Alloc(a, v)
	s.Scratch = s.Scratch.WithReturn(v)
}
