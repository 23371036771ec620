package absint

import (
	"github.com/chai-analysis/chai/analysis/ast"
	L "github.com/chai-analysis/chai/analysis/lattice"
)

// refine narrows the state to the executions in which cond is truthy,
// or falsy when truthy is false. Only single, non-summary locations are
// refined; anything else is left as it is.
func (s *State) refine(cond *ast.Node, truthy bool) {
	switch cond.Kind {
	case ast.Paren:
		s.refine(cond.Expr, truthy)

	case ast.Unary:
		if cond.Op == ast.OpNot {
			s.refine(cond.Expr, !truthy)
		}

	case ast.Name, ast.PropertyGet:
		if truthy {
			s.narrow(cond, truthyPart)
		} else {
			s.narrow(cond, falsyPart)
		}

	case ast.Infix:
		switch cond.Op {
		case ast.OpAnd:
			if truthy {
				s.refine(cond.Left, true)
				s.refine(cond.Right, true)
			}
		case ast.OpOr:
			if !truthy {
				s.refine(cond.Left, false)
				s.refine(cond.Right, false)
			}
		case ast.OpEq, ast.OpSheq:
			s.refineEquality(cond, truthy)
		case ast.OpNe, ast.OpShne:
			s.refineEquality(cond, !truthy)
		}
	}
}

// narrow strongly updates the location of lvalue n with f of its value.
func (s *State) narrow(n *ast.Node, f func(L.BValue) L.BValue) {
	addrs := s.resolve(n, false)
	a, ok := addrs.Single()
	if !ok || s.Store.IsMulti(a) {
		return
	}
	s.Store = s.Store.StrongUpdate(a, f(s.Store.Apply(a)))
}

// truthyPart keeps the components of v that may be truthy.
func truthyPart(v L.BValue) L.BValue {
	v.Undefined = L.Undefined{}
	v.Null = L.Null{}
	v.Bool = v.Bool.WithoutFalse()
	v.Num = v.Num.Truthy()
	v.Str = v.Str.WithoutBlank()
	return v
}

// falsyPart keeps the components of v that may be falsy.
func falsyPart(v L.BValue) L.BValue {
	v.Bool = v.Bool.OnlyFalse()
	v.Num = v.Num.Falsy()
	v.Str = v.Str.Falsy()
	v.Addrs = v.Addrs.Meet(L.AddressesOf(L.ChangeBot))
	return v
}

// refineEquality handles comparisons of an lvalue with a literal.
// Loose equality with null or undefined matches both; strict equality
// with an exact primitive keeps only that primitive.
func (s *State) refineEquality(cond *ast.Node, equal bool) {
	lhs, lit := cond.Left, cond.Right
	if !isLvalue(lhs) {
		lhs, lit = lit, lhs
	}
	if !isLvalue(lhs) || !isLiteral(lit) {
		return
	}

	loose := cond.Op == ast.OpEq || cond.Op == ast.OpNe
	if lit.Kind == ast.Keyword && (lit.Keyword == ast.KwNull || lit.Keyword == ast.KwUndefined) {
		isNull := lit.Keyword == ast.KwNull
		s.narrow(lhs, func(v L.BValue) L.BValue {
			keepUndef := loose || !isNull
			keepNull := loose || isNull
			if equal {
				if !keepUndef {
					v.Undefined = L.Undefined{}
				}
				if !keepNull {
					v.Null = L.Null{}
				}
				v.Bool, v.Num, v.Str = L.Bool{}, L.Num{}, L.Str{}
				v.Addrs = v.Addrs.Meet(L.AddressesOf(L.ChangeBot))
				return v
			}
			if keepUndef {
				v.Undefined = L.Undefined{}
			}
			if keepNull {
				v.Null = L.Null{}
			}
			return v
		})
		return
	}

	if loose || !equal {
		return
	}
	// Literals carry no state; evaluating one is free of effects.
	litVal := s.eval(lit)
	s.narrow(lhs, func(v L.BValue) L.BValue {
		return v.Meet(litVal)
	})
}

func isLvalue(n *ast.Node) bool {
	return n.Kind == ast.Name || n.Kind == ast.PropertyGet
}

func isLiteral(n *ast.Node) bool {
	switch n.Kind {
	case ast.Number, ast.String:
		return true
	case ast.Keyword:
		return n.Keyword != ast.KwThis
	}
	return false
}
