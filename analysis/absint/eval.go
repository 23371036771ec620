package absint

import (
	"strconv"

	"github.com/chai-analysis/chai/analysis/ast"
	L "github.com/chai-analysis/chai/analysis/lattice"
	loc "github.com/chai-analysis/chai/analysis/location"
)

// eval computes the abstract value of an expression. Evaluation may
// allocate and update the store and bind free names in the environment.
func (s *State) eval(n *ast.Node) L.BValue {
	switch n.Kind {
	case ast.Name, ast.PropertyGet, ast.ElementGet:
		return s.resolveValue(n)

	case ast.Number:
		return L.InjectNum(L.ParseNum(n.Text, changeOf(n))).WithDefiner(n.ID)

	case ast.String:
		return L.InjectStr(L.StrOf(n.Text, changeOf(n))).WithDefiner(n.ID)

	case ast.Keyword:
		return s.evalKeyword(n)

	case ast.ObjectLiteral:
		return s.evalObjectLiteral(n)

	case ast.ArrayLiteral:
		return s.evalArrayLiteral(n)

	case ast.Function:
		a := s.Trace.MakeAddress(n.ID, "")
		s.Store = s.Store.AllocObject(a, s.functionObject(n))
		return L.InjectAddress(changeOf(n), a).WithDefiner(n.ID)

	case ast.Infix:
		return s.evalInfix(n)

	case ast.Assignment:
		return s.evalAssignment(n)

	case ast.Unary:
		return s.evalUnary(n)

	case ast.Call, ast.New:
		return s.evalCall(n)

	case ast.Paren:
		return s.eval(n.Expr)

	case ast.Conditional:
		cond := s.eval(n.Cond)
		v := s.eval(n.Left).Join(s.eval(n.Right))
		if c := operatorChange(n, cond); c.Changed() {
			v = v.RaiseChange(c)
		}
		return v
	}

	panic(ast.Expect("eval", n,
		ast.Name, ast.Number, ast.String, ast.Keyword, ast.ObjectLiteral,
		ast.ArrayLiteral, ast.Function, ast.Infix, ast.Assignment, ast.Unary,
		ast.Call, ast.New, ast.PropertyGet, ast.ElementGet, ast.Paren,
		ast.Conditional))
}

func (s *State) evalKeyword(n *ast.Node) L.BValue {
	c := changeOf(n)
	switch n.Keyword {
	case ast.KwThis:
		return s.Store.Apply(s.Self)
	case ast.KwNull:
		return L.InjectNull(c).WithDefiner(n.ID)
	case ast.KwTrue:
		return L.InjectBool(true, c).WithDefiner(n.ID)
	case ast.KwFalse:
		return L.InjectBool(false, c).WithDefiner(n.ID)
	}
	return L.InjectUndefined(c).WithDefiner(n.ID)
}

func (s *State) evalObjectLiteral(n *ast.Node) L.BValue {
	obj := L.NewPlainObject("Object", loc.ObjectPrototype)
	for _, p := range n.List {
		if err := ast.Expect("eval", p, ast.ObjectProperty); err != nil {
			panic(err)
		}
		v := s.eval(p.Right)
		a := s.Trace.MakeAddress(p.ID, p.Name)
		s.Store = s.Store.Alloc(a, v)
		obj = obj.WithProperty(L.Property{
			Name:    p.Name,
			Definer: p.ID,
			Change:  changeOf(p),
			Addrs:   L.AddressesOf(L.Unchanged, a),
		})
	}

	a := s.Trace.MakeAddress(n.ID, "")
	s.Store = s.Store.AllocObject(a, obj)
	return L.InjectAddress(changeOf(n), a).WithDefiner(n.ID)
}

func (s *State) evalArrayLiteral(n *ast.Node) L.BValue {
	arr := L.NewPlainObject("Array", loc.ArrayPrototype)
	for idx, e := range n.List {
		if e == nil {
			continue
		}
		name := strconv.Itoa(idx)
		a := s.Trace.MakeAddress(e.ID, name)
		s.Store = s.Store.Alloc(a, s.eval(e))
		arr = arr.WithProperty(L.Property{
			Name:    name,
			Definer: e.ID,
			Change:  changeOf(e),
			Addrs:   L.AddressesOf(L.Unchanged, a),
		})
	}

	length := s.Trace.MakeAddress(n.ID, "length")
	s.Store = s.Store.Alloc(length, L.InjectNum(L.NumOf(float64(len(n.List)), changeOf(n))))
	arr = arr.WithProperty(L.Property{
		Name:    "length",
		Definer: n.ID,
		Change:  changeOf(n),
		Addrs:   L.AddressesOf(L.Unchanged, length),
	})

	a := s.Trace.MakeAddress(n.ID, "")
	s.Store = s.Store.AllocObject(a, arr)
	return L.InjectAddress(changeOf(n), a).WithDefiner(n.ID)
}

// operatorChange is the change of a value computed by n from operands:
// changed if n or any operand is.
func operatorChange(n *ast.Node, operands ...L.BValue) L.Change {
	if n.IsChanged() {
		return L.InsertedOrRemoved
	}
	for _, v := range operands {
		if v.IsChanged() {
			return L.InsertedOrRemoved
		}
	}
	return L.Unchanged
}

func (s *State) evalInfix(n *ast.Node) L.BValue {
	switch n.Op {
	case ast.OpComma:
		s.eval(n.Left)
		return s.eval(n.Right)

	case ast.OpAnd, ast.OpOr, ast.OpNullish:
		// Either operand may be the result.
		v := s.eval(n.Left).Join(s.eval(n.Right))
		if n.IsChanged() {
			v = v.RaiseChange(L.InsertedOrRemoved)
		}
		return v
	}

	l, r := s.eval(n.Left), s.eval(n.Right)
	return binary(n, n.Op, l, r)
}

// binary computes the result of a binary operator. Exact operands are
// folded; everything else is approximated by the type of the result.
func binary(n *ast.Node, op ast.Operator, l, r L.BValue) L.BValue {
	c := operatorChange(n, l, r)
	if v, ok := fold(op, l, r, c); ok {
		return v.WithDefiner(n.ID)
	}

	switch {
	case op == ast.OpAdd:
		maybeStr := !l.Str.IsBot() || !r.Str.IsBot() || l.IsAddress() || r.IsAddress()
		maybeNum := nonString(l) && nonString(r)
		v := L.BotValue()
		if maybeStr {
			v = v.Join(L.InjectStr(L.StrTop(c)))
		}
		if maybeNum || !maybeStr {
			v = v.Join(L.InjectNum(L.NumTop(c)))
		}
		return v.WithDefiner(n.ID)

	case op.IsArithmetic():
		return L.InjectNum(L.NumTop(c)).WithDefiner(n.ID)

	case op.IsComparison():
		return L.InjectBoolTop(c).WithDefiner(n.ID)
	}
	return L.TopValue(c)
}

// nonString holds when v has a primitive component other than a string.
func nonString(v L.BValue) bool {
	return v.Undefined.Present || v.Null.Present || !v.Bool.IsBot() || !v.Num.IsBot()
}

func onlyNum(v L.BValue) bool {
	return !v.Undefined.Present && !v.Null.Present && v.Bool.IsBot() &&
		v.Str.IsBot() && v.Addrs.IsBot()
}

func onlyStr(v L.BValue) bool {
	return !v.Undefined.Present && !v.Null.Present && v.Bool.IsBot() &&
		v.Num.IsBot() && v.Addrs.IsBot()
}

func onlyBool(v L.BValue) bool {
	return !v.Undefined.Present && !v.Null.Present && v.Num.IsBot() &&
		v.Str.IsBot() && v.Addrs.IsBot()
}

func exactNum(v L.BValue) (float64, bool) {
	if !onlyNum(v) {
		return 0, false
	}
	return v.Num.Value()
}

func exactStr(v L.BValue) (string, bool) {
	if !onlyStr(v) {
		return "", false
	}
	return v.Str.Value()
}

func exactBool(v L.BValue) (bool, bool) {
	if !onlyBool(v) {
		return false, false
	}
	switch t, f := v.Bool.MaybeTrue(), v.Bool.MaybeFalse(); {
	case t && !f:
		return true, true
	case f && !t:
		return false, true
	}
	return false, false
}

func fold(op ast.Operator, l, r L.BValue, c L.Change) (L.BValue, bool) {
	if x, ok := exactNum(l); ok {
		if y, ok := exactNum(r); ok {
			switch op {
			case ast.OpAdd:
				return L.InjectNum(L.NumOf(x+y, c)), true
			case ast.OpSub:
				return L.InjectNum(L.NumOf(x-y, c)), true
			case ast.OpMul:
				return L.InjectNum(L.NumOf(x*y, c)), true
			case ast.OpDiv:
				if y != 0 {
					return L.InjectNum(L.NumOf(x/y, c)), true
				}
			case ast.OpLt:
				return L.InjectBool(x < y, c), true
			case ast.OpLe:
				return L.InjectBool(x <= y, c), true
			case ast.OpGt:
				return L.InjectBool(x > y, c), true
			case ast.OpGe:
				return L.InjectBool(x >= y, c), true
			case ast.OpSheq, ast.OpEq:
				return L.InjectBool(x == y, c), true
			case ast.OpShne, ast.OpNe:
				return L.InjectBool(x != y, c), true
			}
		}
	}

	if x, ok := exactStr(l); ok {
		if y, ok := exactStr(r); ok {
			switch op {
			case ast.OpAdd:
				return L.InjectStr(L.StrOf(x+y, c)), true
			case ast.OpSheq, ast.OpEq:
				return L.InjectBool(x == y, c), true
			case ast.OpShne, ast.OpNe:
				return L.InjectBool(x != y, c), true
			}
		}
	}
	return L.BValue{}, false
}

func (s *State) evalAssignment(n *ast.Node) L.BValue {
	var v L.BValue
	if n.Op == ast.OpAssign {
		v = s.eval(n.Right)
	} else {
		l, r := s.eval(n.Left), s.eval(n.Right)
		v = binary(n, n.Op, l, r)
	}

	v = introduce(n, v)
	s.assign(n.Left, v)
	return v
}

func (s *State) evalUnary(n *ast.Node) L.BValue {
	switch n.Op {
	case ast.OpInc, ast.OpDec:
		old := s.eval(n.Expr)
		c := operatorChange(n, old)
		v := L.InjectNum(L.NumTop(c))
		if x, ok := exactNum(old); ok {
			if n.Op == ast.OpInc {
				v = L.InjectNum(L.NumOf(x+1, c))
			} else {
				v = L.InjectNum(L.NumOf(x-1, c))
			}
		}
		v = v.WithDefiner(n.ID)
		s.assign(n.Expr, introduce(n, v))
		return v

	case ast.OpNot:
		operand := s.eval(n.Expr)
		c := operatorChange(n, operand)
		if b, ok := exactBool(operand); ok {
			return L.InjectBool(!b, c).WithDefiner(n.ID)
		}
		return L.InjectBoolTop(c).WithDefiner(n.ID)

	case ast.OpNeg:
		operand := s.eval(n.Expr)
		c := operatorChange(n, operand)
		if x, ok := exactNum(operand); ok {
			return L.InjectNum(L.NumOf(-x, c)).WithDefiner(n.ID)
		}
		return L.InjectNum(L.NumTop(c)).WithDefiner(n.ID)

	case ast.OpPos, ast.OpBitNot:
		c := operatorChange(n, s.eval(n.Expr))
		return L.InjectNum(L.NumTop(c)).WithDefiner(n.ID)

	case ast.OpTypeof:
		c := operatorChange(n, s.eval(n.Expr))
		return L.InjectStr(L.StrTop(c)).WithDefiner(n.ID)

	case ast.OpVoid:
		c := operatorChange(n, s.eval(n.Expr))
		return L.InjectUndefined(c).WithDefiner(n.ID)

	case ast.OpDelete:
		c := operatorChange(n, s.eval(n.Expr))
		return L.InjectBoolTop(c).WithDefiner(n.ID)
	}

	return L.TopValue(operatorChange(n, s.eval(n.Expr)))
}

// assign writes v to the locations denoted by target. Writes to targets
// that denote no location are dropped.
func (s *State) assign(target *ast.Node, v L.BValue) {
	addrs := s.resolve(target, true)
	s.Store = s.Store.UpdateAll(addrs, v)
}

// resolveValue reads the value of a name or property access. Reads
// through changed expressions mark the value as dependent on a change.
func (s *State) resolveValue(n *ast.Node) L.BValue {
	return s.read(n, s.resolve(n, false))
}

func (s *State) read(n *ast.Node, addrs L.Addresses) L.BValue {
	var v L.BValue
	if addrs.IsBot() {
		v = L.TopValue(changeOf(n))
	} else {
		v = s.Store.ApplyAll(addrs)
	}
	if n.IsChanged() {
		v = v.WithDependent(L.InsertedOrRemoved).WithDefiner(n.ID)
	}
	return v
}

// resolve returns the addresses of the values denoted by an lvalue
// expression, creating the variables and properties that do not exist
// yet. Reads (write == false) find properties along the prototype
// chain; writes always target own properties.
func (s *State) resolve(n *ast.Node, write bool) L.Addresses {
	switch n.Kind {
	case ast.Name:
		if v, found := s.Env.Lookup(n.Name); found {
			return v.Addrs
		}
		// A free name of the program: its value is unknown.
		a := s.Trace.MakeAddress(n.ID, "")
		s.Env = s.Env.Bind(L.Variable{
			Name:    n.Name,
			Definer: n.ID,
			Change:  L.ChangeBot,
			Addrs:   L.AddressesOf(L.Unchanged, a),
		})
		if _, found := s.Store.Lookup(a); !found {
			s.Store = s.Store.Alloc(a, L.TopValue(L.ChangeBot))
		}
		return L.AddressesOf(L.Unchanged, a)

	case ast.Paren:
		return s.resolve(n.Expr, write)

	case ast.Keyword:
		if n.Keyword == ast.KwThis {
			return L.AddressesOf(L.Unchanged, s.Self)
		}

	case ast.PropertyGet:
		return s.property(s.objects(n.Left, n), n, n.Right.Name, write)

	case ast.ElementGet:
		objs := s.objects(n.Left, n)
		if name, ok := s.propertyName(n.Right); ok {
			return s.property(objs, n, name, write)
		}
		return L.AddressesTop(L.ChangeBot)
	}

	return L.AddressesOf(L.ChangeBot)
}

// objects returns the addresses of the objects the value of left refers
// to. A value that refers to no object is given a stand-in object,
// allocated at the access at, so that properties may be attached to it.
func (s *State) objects(left, at *ast.Node) L.Addresses {
	var (
		val   L.BValue
		slots L.Addresses
	)
	switch left.Kind {
	case ast.Name, ast.PropertyGet, ast.ElementGet, ast.Paren, ast.Keyword:
		slots = s.resolve(left, false)
		val = s.read(left, slots)
	default:
		val = s.eval(left)
	}

	if !val.Addrs.IsBot() {
		return val.Addrs
	}

	dummy := s.Trace.MakeAddress(at.ID, "")
	if _, found := s.Store.Object(dummy); !found {
		s.Store = s.Store.AllocObject(dummy, L.NewPlainObject("Object", loc.ObjectPrototype))
	}
	if !slots.IsTop() {
		for _, a := range slots.Entries() {
			s.Store = s.Store.WeakUpdate(a, L.InjectAddress(L.ChangeBot, dummy))
		}
	}
	return L.AddressesOf(L.ChangeBot, dummy)
}

// property returns the addresses of property name of the objects at
// objs, creating it where it is missing.
func (s *State) property(objs L.Addresses, at *ast.Node, name string, write bool) L.Addresses {
	if objs.IsTop() {
		return L.AddressesTop(L.ChangeBot)
	}

	res := L.AddressesOf(L.ChangeBot)
	for _, oa := range objs.Entries() {
		o, found := s.Store.Object(oa)
		if !found {
			o = L.NewPlainObject("Object", loc.ObjectPrototype)
			s.Store = s.Store.AllocObject(oa, o)
		}

		if p, found := o.Property(name); found {
			res = res.Join(p.Addrs)
			continue
		}
		if !write {
			if p, found := s.inherited(o, name); found {
				res = res.Join(p.Addrs)
				continue
			}
		}

		// Properties created by a read are unknown; those created by a
		// write hold nothing until the write happens.
		a := s.Trace.MakeAddress(at.ID, name)
		init := L.TopValue(L.ChangeBot)
		if write {
			init = L.BotValue()
		}
		s.Store = s.Store.Alloc(a, init)
		o = o.WithProperty(L.Property{
			Name:    name,
			Definer: at.ID,
			Change:  changeOf(at),
			Addrs:   L.AddressesOf(L.Unchanged, a),
		})
		s.Store = s.Store.UpdateObject(oa, o)
		res = res.Join(L.AddressesOf(L.Unchanged, a))
	}
	return res
}

// inherited looks name up along the prototype chain of o.
func (s *State) inherited(o L.Object, name string) (L.Property, bool) {
	seen := map[loc.Address]bool{}
	for a := o.Proto; !seen[a]; {
		seen[a] = true
		proto, found := s.Store.Object(a)
		if !found {
			break
		}
		if p, found := proto.Property(name); found {
			return p, true
		}
		a = proto.Proto
	}
	return L.Property{}, false
}

// propertyName evaluates a computed property key. Only exact strings
// and numbers name a single property.
func (s *State) propertyName(key *ast.Node) (string, bool) {
	v := s.eval(key)
	if str, ok := exactStr(v); ok {
		return str, true
	}
	if x, ok := exactNum(v); ok {
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}
