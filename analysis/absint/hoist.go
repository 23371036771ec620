package absint

import (
	"strconv"

	"github.com/chai-analysis/chai/analysis/ast"
	L "github.com/chai-analysis/chai/analysis/lattice"
	loc "github.com/chai-analysis/chai/analysis/location"
)

// Name of the pseudo-variable holding the values returned by a function.
const retval = "~retval~"

// changeOf converts the classification of a node into a change.
func changeOf(n *ast.Node) L.Change {
	if n != nil && n.IsChanged() {
		return L.InsertedOrRemoved
	}
	return L.Unchanged
}

// introduced holds for nodes the commit added or deleted, as opposed to
// nodes whose label was merely updated.
func introduced(n *ast.Node) L.Change {
	if n.Change == ast.Inserted || n.Change == ast.Removed {
		return L.InsertedOrRemoved
	}
	return L.Unchanged
}

// introduce tags a value produced by code the commit added or deleted:
// no such value exists in the other version.
func introduce(n *ast.Node, v L.BValue) L.BValue {
	if introduced(n).Changed() {
		return v.WithChange(L.InsertedOrRemoved)
	}
	return v
}

// hoist binds the declarations of fn in the innermost frame: the
// parameters (bound to the properties of the arguments object at args),
// the `var` declarations and the named function declarations. Function
// objects capture the environment with every declaration of fn bound,
// so that they may refer to each other.
func (s *State) hoist(fn *ast.Node, args loc.Address) {
	declared := map[string]bool{}

	if fn.Kind == ast.Function {
		for idx, p := range fn.List {
			s.bindParam(p, idx, args)
			declared[p.Name] = true
		}
		if !declared["arguments"] {
			a := s.Trace.MakeAddress(fn.ID, "arguments")
			s.Store = s.Store.Alloc(a, L.InjectAddress(L.Unchanged, args))
			s.Env = s.Env.Bind(L.Variable{
				Name:    "arguments",
				Definer: fn.ID,
				Change:  L.Unchanged,
				Addrs:   L.AddressesOf(L.Unchanged, a),
			})
		}
	}

	vars, err := ast.VarDeclarations(fn)
	if err != nil {
		panic(err)
	}
	for _, vi := range vars {
		name := vi.Left
		if declared[name.Name] {
			continue
		}
		declared[name.Name] = true

		a := s.Trace.MakeAddress(name.ID, "")
		s.Env = s.Env.Bind(L.Variable{
			Name:    name.Name,
			Definer: name.ID,
			Change:  changeOf(name),
			Addrs:   L.AddressesOf(L.Unchanged, a),
		})
		s.Store = s.Store.Alloc(a, L.InjectUndefined(introduced(vi)).WithDefiner(name.ID))
	}

	fns, err := ast.FunctionDeclarations(fn)
	if err != nil {
		panic(err)
	}
	addrs := make([]loc.Address, len(fns))
	for j, fd := range fns {
		addrs[j] = s.Trace.MakeAddress(fd.ID, "")
		s.Env = s.Env.Bind(L.Variable{
			Name:    fd.Name,
			Definer: fd.ID,
			Change:  changeOf(fd),
			Addrs:   L.AddressesOf(L.Unchanged, addrs[j]),
		})
	}
	for j, fd := range fns {
		// The variable and the function object share the address.
		s.Store = s.Store.Alloc(addrs[j], L.InjectAddress(introduced(fd), addrs[j]).WithDefiner(fd.ID))
		s.Store = s.Store.AllocObject(addrs[j], s.functionObject(fd))
	}
}

func (s *State) bindParam(p *ast.Node, idx int, args loc.Address) {
	var addrs L.Addresses
	if o, found := s.Store.Object(args); found {
		if prop, found := o.Property(strconv.Itoa(idx)); found {
			addrs = prop.Addrs
		}
	}

	if addrs.IsBot() {
		// Missing arguments are undefined, unless the function was
		// entered without a call, in which case they are unknown.
		v := L.InjectUndefined(L.Unchanged)
		if args == loc.Arguments {
			v = L.TopValue(changeOf(p))
		}
		a := s.Trace.MakeAddress(p.ID, "")
		s.Store = s.Store.Alloc(a, v)
		addrs = L.AddressesOf(L.Unchanged, a)
	}

	s.Env = s.Env.Bind(L.Variable{
		Name:    p.Name,
		Definer: p.ID,
		Change:  changeOf(p),
		Addrs:   addrs,
	})
}

// functionObject creates the function object of fn, closing over the
// current environment. Its `prototype` object is allocated alongside.
func (s *State) functionObject(fn *ast.Node) L.Object {
	length := s.Trace.MakeAddress(fn.ID, "length")
	s.Store = s.Store.Alloc(length, L.InjectNum(L.NumOf(float64(len(fn.List)), L.Unchanged)))

	proto := s.Trace.MakeAddress(fn.ID, "prototype")
	s.Store = s.Store.Alloc(proto, L.InjectAddress(L.Unchanged, proto))
	s.Store = s.Store.AllocObject(proto, L.NewPlainObject("Object", loc.ObjectPrototype))

	obj := L.NewFunctionObject(loc.FunctionPrototype, L.Closure{Code: fn.ID, Env: s.Env})
	obj = obj.WithProperty(L.Property{
		Name:    "length",
		Definer: fn.ID,
		Change:  L.Unchanged,
		Addrs:   L.AddressesOf(L.Unchanged, length),
	})
	obj = obj.WithProperty(L.Property{
		Name:    "prototype",
		Definer: fn.ID,
		Change:  L.Unchanged,
		Addrs:   L.AddressesOf(L.Unchanged, proto),
	})
	return obj
}
