package absint

import (
	"strconv"

	"github.com/chai-analysis/chai/analysis/ast"
	L "github.com/chai-analysis/chai/analysis/lattice"
	loc "github.com/chai-analysis/chai/analysis/location"
)

// Builtin objects double as the values referring to them: the value at
// a builtin address is that address. Properties of builtins therefore
// point directly at the builtin they name.
func withBuiltin(store L.Store, a loc.Address, o L.Object) L.Store {
	return store.Alloc(a, L.InjectAddress(L.Unchanged, a)).AllocObject(a, o)
}

func builtinProp(o L.Object, name string, a loc.Address) L.Object {
	return o.WithProperty(L.Property{
		Name:    name,
		Definer: a.Site,
		Change:  L.Unchanged,
		Addrs:   L.AddressesOf(L.Unchanged, a),
	})
}

func nativeFunction(a loc.Address) L.Object {
	return L.NewFunctionObject(loc.FunctionPrototype, L.Closure{
		Code: a.Site,
		Env:  L.NewEnvironment(nil),
	})
}

// globalNames are the builtins reachable by name from program code.
var globalNames = map[string]loc.Address{
	"Object":   loc.Object,
	"Function": loc.Function,
	"Array":    loc.Array,
}

// builtinStore creates the store holding the builtin objects.
func builtinStore() L.Store {
	store := L.NewStore()

	// `this` at the top level.
	store = store.Alloc(loc.GlobalBinding, L.InjectAddress(L.Unchanged, loc.Global))

	global := L.NewPlainObject("global", loc.ObjectPrototype)
	for name, a := range globalNames {
		global = builtinProp(global, name, a)
	}
	store = withBuiltin(store, loc.Global, global)

	// Object.prototype terminates every prototype chain.
	objProto := L.NewPlainObject("Object", loc.ObjectPrototype)
	objProto = builtinProp(objProto, "hasOwnProperty", loc.ObjectHasOwnProp)
	objProto = builtinProp(objProto, "toString", loc.ObjectToString)
	store = withBuiltin(store, loc.ObjectPrototype, objProto)

	object := nativeFunction(loc.Object)
	object = builtinProp(object, "prototype", loc.ObjectPrototype)
	object = builtinProp(object, "create", loc.ObjectCreate)
	object = builtinProp(object, "keys", loc.ObjectKeys)
	store = withBuiltin(store, loc.Object, object)

	fnProto := L.NewPlainObject("Function", loc.ObjectPrototype)
	fnProto = builtinProp(fnProto, "apply", loc.FunctionApply)
	fnProto = builtinProp(fnProto, "call", loc.FunctionCall)
	fnProto = builtinProp(fnProto, "toString", loc.FunctionToString)
	store = withBuiltin(store, loc.FunctionPrototype, fnProto)

	function := nativeFunction(loc.Function)
	function = builtinProp(function, "prototype", loc.FunctionPrototype)
	store = withBuiltin(store, loc.Function, function)

	arrProto := L.NewPlainObject("Array", loc.ObjectPrototype)
	arrProto = builtinProp(arrProto, "push", loc.ArrayPush)
	arrProto = builtinProp(arrProto, "length", loc.ArrayLength)
	store = withBuiltin(store, loc.ArrayPrototype, arrProto)
	store = store.Alloc(loc.ArrayLength, L.InjectNum(L.NumTop(L.Unchanged)))

	array := nativeFunction(loc.Array)
	array = builtinProp(array, "prototype", loc.ArrayPrototype)
	store = withBuiltin(store, loc.Array, array)

	for _, a := range []loc.Address{
		loc.ObjectCreate, loc.ObjectKeys, loc.ObjectHasOwnProp, loc.ObjectToString,
		loc.FunctionApply, loc.FunctionCall, loc.FunctionToString, loc.ArrayPush,
	} {
		store = withBuiltin(store, a, nativeFunction(a))
	}

	// The arguments object of functions analysed without a call.
	argsLength := loc.Address{Site: loc.Arguments.Site, Prop: "length"}
	args := L.NewPlainObject("Arguments", loc.ObjectPrototype)
	args = args.WithProperty(L.Property{
		Name:    "length",
		Definer: loc.Arguments.Site,
		Change:  L.Unchanged,
		Addrs:   L.AddressesOf(L.Unchanged, argsLength),
	})
	store = store.AllocObject(loc.Arguments, args)
	store = store.Alloc(argsLength, L.InjectNum(L.NumTop(L.Unchanged)))

	return store
}

// builtinEnv binds the global names of the builtins.
func builtinEnv() L.Environment {
	env := L.NewEnvironment(nil)
	for name, a := range globalNames {
		env = env.Bind(L.Variable{
			Name:    name,
			Definer: a.Site,
			Change:  L.Unchanged,
			Addrs:   L.AddressesOf(L.Unchanged, a),
		})
	}
	return env
}

// A native computes the return value of a builtin function. self is
// the address of the receiver value and args the address of the
// arguments object.
type native func(s *State, call *ast.Node, self, args loc.Address) L.BValue

var natives map[int]native

func init() {
	natives = map[int]native{
		loc.Object.Site: func(s *State, call *ast.Node, _, _ loc.Address) L.BValue {
			return s.allocObject(call, "Object", loc.ObjectPrototype)
		},
		loc.ObjectCreate.Site: func(s *State, call *ast.Node, _, args loc.Address) L.BValue {
			proto := loc.ObjectPrototype
			if v, ok := s.argument(args, 0); ok {
				if a, ok := v.Addrs.Single(); ok {
					proto = a
				}
			}
			return s.allocObject(call, "Object", proto)
		},
		loc.ObjectKeys.Site: func(s *State, call *ast.Node, _, _ loc.Address) L.BValue {
			return s.allocArray(call, L.InjectStr(L.StrTop(L.Unchanged)))
		},
		loc.ObjectHasOwnProp.Site: func(*State, *ast.Node, loc.Address, loc.Address) L.BValue {
			return L.InjectBoolTop(L.Unchanged)
		},
		loc.ObjectToString.Site:   nativeString,
		loc.FunctionToString.Site: nativeString,
		loc.Function.Site: func(*State, *ast.Node, loc.Address, loc.Address) L.BValue {
			// Code built from strings is not analysed.
			return L.TopValue(L.ChangeBot)
		},
		loc.Array.Site: func(s *State, call *ast.Node, _, _ loc.Address) L.BValue {
			return s.allocArray(call, L.TopValue(L.ChangeBot))
		},
		loc.ArrayPush.Site: func(s *State, _ *ast.Node, self, args loc.Address) L.BValue {
			// Pushed values join into every element of the receiver.
			if v, ok := s.argument(args, 0); ok {
				for _, arr := range s.Store.Apply(self).Addrs.Entries() {
					if o, found := s.Store.Object(arr); found {
						for _, p := range o.Properties() {
							if _, err := strconv.Atoi(p.Name); err == nil {
								for _, a := range p.Addrs.Entries() {
									s.Store = s.Store.WeakUpdate(a, v)
								}
							}
						}
					}
				}
			}
			return L.InjectNum(L.NumTop(L.Unchanged))
		},
		loc.FunctionCall.Site:  nativeCall,
		loc.FunctionApply.Site: nativeApply,
	}
}

func nativeString(*State, *ast.Node, loc.Address, loc.Address) L.BValue {
	return L.InjectStr(L.StrTop(L.Unchanged))
}

// nativeCall implements Function.prototype.call: the receiver is the
// function to invoke, the first argument its `this`, and the remaining
// arguments are shifted down.
func nativeCall(s *State, call *ast.Node, self, args loc.Address) L.BValue {
	target := s.Store.Apply(self)
	this := s.thisArgument(call, args)

	shifted := s.Trace.MakeAddress(call.ID, "~call~")
	obj := L.NewPlainObject("Arguments", loc.ObjectPrototype)
	if o, found := s.Store.Object(args); found {
		for _, p := range o.Properties() {
			idx, err := strconv.Atoi(p.Name)
			if err != nil || idx == 0 {
				continue
			}
			p.Name = strconv.Itoa(idx - 1)
			obj = obj.WithProperty(p)
		}
	}
	s.Store = s.Store.AllocObject(shifted, obj)

	return s.applyTo(call, target, this, shifted)
}

// nativeApply implements Function.prototype.apply. The array passed as
// second argument is used as the arguments object when it is known.
func nativeApply(s *State, call *ast.Node, self, args loc.Address) L.BValue {
	target := s.Store.Apply(self)
	this := s.thisArgument(call, args)

	spread := loc.Arguments
	if v, ok := s.argument(args, 1); ok {
		if a, ok := v.Addrs.Single(); ok {
			if _, found := s.Store.Object(a); found {
				spread = a
			}
		}
	}

	return s.applyTo(call, target, this, spread)
}

// applyTo applies the function a native received as its receiver. An
// unknown function returns an unknown value.
func (s *State) applyTo(call *ast.Node, target L.BValue, self, args loc.Address) L.BValue {
	ret, resolved := s.applyAll(call, target, self, args)
	if !resolved {
		return L.TopValue(L.ChangeBot)
	}
	return ret
}

// thisArgument returns the address of a value holding the first
// argument, or the global binding when there is none.
func (s *State) thisArgument(call *ast.Node, args loc.Address) loc.Address {
	o, found := s.Store.Object(args)
	if !found {
		return loc.GlobalBinding
	}
	p, found := o.Property("0")
	if !found {
		return loc.GlobalBinding
	}
	if a, ok := p.Addrs.Single(); ok {
		return a
	}
	this := s.Trace.MakeAddress(call.ID, "~thisarg~")
	s.Store = s.Store.Alloc(this, s.Store.ApplyAll(p.Addrs))
	return this
}

// argument reads argument idx from the arguments object at args.
func (s *State) argument(args loc.Address, idx int) (L.BValue, bool) {
	o, found := s.Store.Object(args)
	if !found {
		return L.BValue{}, false
	}
	p, found := o.Property(strconv.Itoa(idx))
	if !found {
		return L.BValue{}, false
	}
	return s.Store.ApplyAll(p.Addrs), true
}

// allocObject allocates a fresh plain object for the result of call.
func (s *State) allocObject(call *ast.Node, class string, proto loc.Address) L.BValue {
	a := s.Trace.MakeAddress(call.ID, "~native~")
	s.Store = s.Store.AllocObject(a, L.NewPlainObject(class, proto))
	return L.InjectAddress(L.Unchanged, a)
}

// allocArray allocates an array of unknown length whose elements are
// summarized by elem.
func (s *State) allocArray(call *ast.Node, elem L.BValue) L.BValue {
	a := s.Trace.MakeAddress(call.ID, "~native~")
	elemAddr := s.Trace.MakeAddress(call.ID, "~elem~")
	lengthAddr := s.Trace.MakeAddress(call.ID, "length")

	s.Store = s.Store.Alloc(elemAddr, elem)
	s.Store = s.Store.Alloc(lengthAddr, L.InjectNum(L.NumTop(L.Unchanged)))

	arr := L.NewPlainObject("Array", loc.ArrayPrototype)
	arr = arr.WithProperty(L.Property{Name: "0", Definer: call.ID, Change: L.Unchanged, Addrs: L.AddressesOf(L.Unchanged, elemAddr)})
	arr = arr.WithProperty(L.Property{Name: "length", Definer: call.ID, Change: L.Unchanged, Addrs: L.AddressesOf(L.Unchanged, lengthAddr)})
	s.Store = s.Store.AllocObject(a, arr)
	return L.InjectAddress(L.Unchanged, a)
}
