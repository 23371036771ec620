package absint

import (
	"strconv"

	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/cfg"
	L "github.com/chai-analysis/chai/analysis/lattice"
	loc "github.com/chai-analysis/chai/analysis/location"

	"go.uber.org/zap"
)

// summaryKey identifies the analysis of one closure entered through a
// calling context with a given receiver.
type summaryKey struct {
	fn      loc.Address
	code    int
	context uint32
	self    loc.Address
}

// summary records the entry state a closure was last analysed with and
// the state it exited in. returns is false when no path reached the exit.
type summary struct {
	entry   State
	exit    State
	returns bool
}

// evalCall evaluates a call or `new` expression.
func (s *State) evalCall(n *ast.Node) L.BValue {
	args, callbacks := s.evalArguments(n)
	target, self := s.callTarget(n)

	var created L.BValue
	if n.Kind == ast.New {
		self, created = s.construct(n, target)
	}

	ret, resolved := s.applyAll(n, target, self, args)
	switch {
	case !resolved:
		s.a.C.Metrics.unresolvedCall()
		s.a.log.Debug("unresolved call",
			zap.Int("call", n.ID),
			zap.Int("line", n.Line),
			zap.String("target", n.Expr.Source()))
		// The callee is unknown: so is its result. The store is kept.
		ret = L.TopValue(L.ChangeBot)
		if n.IsChanged() {
			ret = L.TopValue(L.InsertedOrRemoved)
		}
		if n.Kind == ast.New {
			ret = created
		}
	case n.Kind == ast.New && (!ret.IsAddress() || ret.Addrs.IsTop()):
		ret = created
	}

	if resolved && n.IsChanged() {
		ret = ret.RaiseChange(L.InsertedOrRemoved)
	}

	if s.a.C.AnalyzeCallbacks {
		s.analyzeCallbacks(n, callbacks)
	}
	return ret
}

// evalArguments allocates the arguments object of a call. It also
// returns the function objects reachable from the argument values.
func (s *State) evalArguments(n *ast.Node) (loc.Address, []loc.Address) {
	obj := L.NewPlainObject("Arguments", loc.ObjectPrototype)
	var callbacks []loc.Address
	seen := map[loc.Address]bool{}

	for idx, arg := range n.List {
		v := s.eval(arg)
		name := strconv.Itoa(idx)
		a := s.Trace.MakeAddress(arg.ID, name)
		s.Store = s.Store.Alloc(a, v)
		obj = obj.WithProperty(L.Property{
			Name:    name,
			Definer: arg.ID,
			Change:  changeOf(arg),
			Addrs:   L.AddressesOf(L.Unchanged, a),
		})
		s.functionsIn(v, seen, &callbacks)
	}

	length := s.Trace.MakeAddress(n.ID, "length")
	s.Store = s.Store.Alloc(length, L.InjectNum(L.NumOf(float64(len(n.List)), L.Unchanged)))
	obj = obj.WithProperty(L.Property{
		Name:    "length",
		Definer: n.ID,
		Change:  L.Unchanged,
		Addrs:   L.AddressesOf(L.Unchanged, length),
	})

	args := s.Trace.MakeAddress(n.ID, "~args~")
	s.Store = s.Store.AllocObject(args, obj)
	return args, callbacks
}

// functionsIn collects the program function objects reachable from v.
func (s *State) functionsIn(v L.BValue, seen map[loc.Address]bool, res *[]loc.Address) {
	if v.Addrs.IsTop() {
		return
	}
	for _, a := range v.Addrs.Entries() {
		if seen[a] || a.IsBuiltin() {
			continue
		}
		seen[a] = true

		o, found := s.Store.Object(a)
		switch {
		case !found:
		case o.IsFunction():
			*res = append(*res, a)
		default:
			for _, p := range o.Properties() {
				s.functionsIn(s.Store.ApplyAll(p.Addrs), seen, res)
			}
		}
	}
}

// callTarget evaluates the callee of a call and the receiver. Method
// calls pass the object the method was read from; plain calls the
// global object.
func (s *State) callTarget(n *ast.Node) (L.BValue, loc.Address) {
	callee := n.Expr
	for callee.Kind == ast.Paren {
		callee = callee.Expr
	}

	switch callee.Kind {
	case ast.PropertyGet, ast.ElementGet:
		objs := s.objects(callee.Left, callee)

		name, known := callee.Right.Name, true
		if callee.Kind == ast.ElementGet {
			name, known = s.propertyName(callee.Right)
		}
		addrs := L.AddressesTop(L.ChangeBot)
		if known {
			addrs = s.property(objs, callee, name, false)
		}

		self := s.Trace.MakeAddress(n.ID, "~this~")
		s.Store = s.Store.StrongUpdate(self, L.InjectAddresses(objs))
		return s.read(callee, addrs), self

	case ast.Name:
		return s.resolveValue(callee), loc.GlobalBinding
	}
	return s.eval(callee), loc.GlobalBinding
}

// construct allocates the object created by `new`, inheriting from the
// `prototype` of the constructor when it is known.
func (s *State) construct(n *ast.Node, target L.BValue) (loc.Address, L.BValue) {
	proto := loc.ObjectPrototype
	if !target.Addrs.IsTop() {
		for _, fa := range target.Addrs.Entries() {
			o, found := s.Store.Object(fa)
			if !found {
				continue
			}
			if p, found := o.Property("prototype"); found {
				if a, ok := s.Store.ApplyAll(p.Addrs).Addrs.Single(); ok {
					proto = a
				}
			}
		}
	}

	obj := s.Trace.MakeAddress(n.ID, "")
	s.Store = s.Store.AllocObject(obj, L.NewPlainObject("Object", proto))
	created := L.InjectAddress(changeOf(n), obj).WithDefiner(n.ID)

	self := s.Trace.MakeAddress(n.ID, "~this~")
	s.Store = s.Store.StrongUpdate(self, created)
	return self, created
}

// applyAll applies every closure of every function object target may
// refer to, and joins the outcomes. It reports false when target refers
// to no function. Recursive applications are cut off and return ⊤.
func (s *State) applyAll(call *ast.Node, target L.BValue, self, args loc.Address) (L.BValue, bool) {
	if target.Addrs.IsTop() {
		return L.BValue{}, false
	}

	var (
		ret      = L.BotValue()
		store    L.Store
		resolved bool
		returned bool
		base     = s.Store
	)
	join := func(r L.BValue, st L.Store) {
		ret = ret.Join(r)
		if returned {
			store = store.Join(st)
		} else {
			store, returned = st, true
		}
	}

	for _, fa := range target.Addrs.Entries() {
		o, found := base.Object(fa)
		if !found || !o.IsFunction() {
			continue
		}

		for _, cl := range o.Closures {
			if cl.IsNative() {
				nat, known := natives[cl.Code]
				if !known {
					continue
				}
				resolved = true
				sub := *s
				sub.Store = base
				r := nat(&sub, call, self, args)
				join(r, sub.Store)
				continue
			}

			resolved = true
			if s.OnStack(fa) {
				join(L.TopValue(L.ChangeBot), base)
				continue
			}

			from := *s
			from.Store = base
			site := loc.CallSite{ID: call.ID, Self: self, Args: args}
			exit, ok := s.a.enterClosure(from, site, fa, cl, s.Control.EnterCall(changeOf(call)), runCall)
			if !ok {
				// The callee never returns along any path.
				continue
			}
			r, has := exit.Scratch.Return()
			if !has {
				r = L.InjectUndefined(L.Unchanged)
			}
			join(r, exit.Store)
		}
	}

	if returned {
		s.Store = store
	}
	return ret, resolved
}

// analyzeCallbacks runs the closures passed to a call, as the callee
// may invoke them. Their effects on the heap are joined into the state.
func (s *State) analyzeCallbacks(call *ast.Node, callbacks []loc.Address) {
	for _, fa := range callbacks {
		if s.OnStack(fa) {
			continue
		}
		o, found := s.Store.Object(fa)
		if !found {
			continue
		}
		for _, cl := range o.Closures {
			if cl.IsNative() {
				continue
			}
			site := loc.CallSite{ID: call.ID, Self: loc.GlobalBinding, Args: loc.Arguments}
			exit, ok := s.a.enterClosure(*s, site, fa, cl, s.Control.EnterCall(changeOf(call)), runCallback)
			if ok {
				s.Store = s.Store.Join(exit.Store)
			}
		}
	}
}

// enterClosure analyses closure cl of the function object at fn, called
// from state from through site. The callee's entry state is built from
// the caller's store and the closure's environment, extended with the
// callee's declarations.
func (a *analysis) enterClosure(from State, site loc.CallSite, fn loc.Address, cl L.Closure, control L.Control, kind string) (State, bool) {
	g, found := a.cfgs.Get(cl.Code)
	if !found {
		panic(&CFGError{Function: cl.Code})
	}

	entry := State{
		Store:   from.Store,
		Env:     cl.Env.Extend(),
		Scratch: L.Scratchpad{}.WithArgs(site.Args),
		Trace:   from.Trace.Call(site),
		Control: control,
		Self:    site.Self,
		Stack:   from.push(fn),
		a:       a,
	}
	entry.hoist(g.Function, site.Args)

	return a.summarized(g, fn, entry, kind)
}

// summarized runs g from entry, unless an earlier run in the same
// context started from a state covering entry. In that case the
// earlier exit state is re-used, with the current heap joined in.
func (a *analysis) summarized(g *cfg.CFG, fn loc.Address, entry State, kind string) (State, bool) {
	key := summaryKey{
		fn:      fn,
		code:    g.Function.ID,
		context: entry.Trace.Context(),
		self:    entry.Self,
	}

	if sum, found := a.summaries[key]; found {
		joined := sum.entry.join(entry)
		if joined.eq(sum.entry) {
			a.C.Metrics.summaryHit()
			if !sum.returns {
				return State{}, false
			}
			exit := sum.exit
			exit.Store = exit.Store.Join(entry.Store)
			return exit, true
		}
		joined.Stack = entry.Stack
		entry = joined
	}

	exit, returns := a.run(g, entry, kind)
	a.summaries[key] = &summary{entry: entry, exit: exit, returns: returns}
	return exit, returns
}
