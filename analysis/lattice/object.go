package lattice

import (
	"fmt"
	"sort"

	loc "github.com/chai-analysis/chai/analysis/location"
	"github.com/chai-analysis/chai/utils"
	i "github.com/chai-analysis/chai/utils/indenter"
	"github.com/chai-analysis/chai/utils/tree"
)

// Property is an external property of an object: the addresses its
// value is stored at, the AST node that defined it, and its change.
type Property struct {
	Name    string
	Definer int
	Change  Change
	Addrs   Addresses
}

func (p Property) Join(o Property) Property {
	if p.Definer < o.Definer {
		p.Definer = o.Definer
	}
	p.Change = p.Change.Join(o.Change)
	p.Addrs = p.Addrs.Join(o.Addrs)
	return p
}

func (p Property) Eq(o Property) bool {
	return p.Name == o.Name && p.Definer == o.Definer &&
		p.Change == o.Change && p.Addrs.Eq(o.Addrs)
}

// ObjectKind tags the internal properties of an object.
type ObjectKind int

const (
	PlainObject ObjectKind = iota
	FunctionObject
)

func (k ObjectKind) String() string {
	if k == FunctionObject {
		return "function"
	}
	return "object"
}

// Closure pairs a function's code with the environment it captured
// when it was defined. Code is the AST identifier of the function, or
// a negative identifier for native builtins.
type Closure struct {
	Code int
	Env  Environment
}

// IsNative holds for closures of builtin functions, which have no code
// to analyse.
func (c Closure) IsNative() bool {
	return c.Code < 0
}

// Object is a heap object. Its external properties are name-indexed;
// its internal properties depend on the kind:
//
//	Plain:    Class, Proto
//	Function: Proto, Closures
//
// Objects are values; every update produces a new object.
type Object struct {
	props    tree.Tree[string, Property]
	Kind     ObjectKind
	Class    string
	Proto    loc.Address
	Closures []Closure
}

var stringHasher = utils.StringHasher()

func NewPlainObject(class string, proto loc.Address) Object {
	return Object{
		props: tree.NewTree[string, Property](stringHasher),
		Kind:  PlainObject,
		Class: class,
		Proto: proto,
	}
}

func NewFunctionObject(proto loc.Address, closures ...Closure) Object {
	return Object{
		props:    tree.NewTree[string, Property](stringHasher),
		Kind:     FunctionObject,
		Class:    "Function",
		Proto:    proto,
		Closures: closures,
	}
}

func (o Object) IsFunction() bool {
	return o.Kind == FunctionObject
}

// Property looks up an external property. Absence is not an error.
func (o Object) Property(name string) (Property, bool) {
	return o.props.Lookup(name)
}

// WithProperty sets (replaces) an external property.
func (o Object) WithProperty(p Property) Object {
	o.props = o.props.Insert(p.Name, p)
	return o
}

// Properties returns the external properties ordered by name.
func (o Object) Properties() []Property {
	names := o.props.SortedKeys(func(a, b string) bool { return a < b })
	res := make([]Property, len(names))
	for j, n := range names {
		res[j], _ = o.props.Lookup(n)
	}
	return res
}

func joinClosures(a, b []Closure) []Closure {
	res := append([]Closure(nil), a...)
OUTER:
	for _, cb := range b {
		for j, ca := range res {
			if ca.Code == cb.Code {
				res[j] = Closure{ca.Code, ca.Env.Join(cb.Env)}
				continue OUTER
			}
		}
		res = append(res, cb)
	}
	sort.Slice(res, func(x, y int) bool { return res[x].Code < res[y].Code })
	return res
}

// Join merges two objects allocated at the same address. Kinds only
// differ if a site produces both plain and function objects, in which
// case the result is a function object.
func (o Object) Join(p Object) Object {
	o.props = o.props.Merge(p.props, func(a, b Property) (Property, bool) {
		if a.Eq(b) {
			return a, true
		}
		return a.Join(b), false
	})
	switch {
	case o.Kind != p.Kind:
		o.Kind, o.Class = FunctionObject, "Function"
	case p.Class < o.Class:
		o.Class = p.Class
	}
	if p.Proto.Less(o.Proto) {
		o.Proto = p.Proto
	}
	o.Closures = joinClosures(o.Closures, p.Closures)
	return o
}

func (o Object) Eq(p Object) bool {
	if o.Kind != p.Kind || o.Class != p.Class || o.Proto != p.Proto ||
		len(o.Closures) != len(p.Closures) {
		return false
	}
	for j := range o.Closures {
		if o.Closures[j].Code != p.Closures[j].Code ||
			!o.Closures[j].Env.Eq(p.Closures[j].Env) {
			return false
		}
	}
	return o.props.Equal(p.props, Property.Eq)
}

func (o Object) String() string {
	strs := []string{}
	for _, p := range o.Properties() {
		strs = append(strs, fmt.Sprintf("%s ↦ %s %s", colorize.Key(p.Name), p.Addrs, p.Change))
	}
	head := colorize.Element(o.Kind.String())
	if o.Kind == FunctionObject {
		codes := make([]interface{}, len(o.Closures))
		for j, c := range o.Closures {
			codes[j] = c.Code
		}
		head += fmt.Sprintf("%v", codes)
	} else if o.Class != "" {
		head += "<" + o.Class + ">"
	}
	return i.Indenter().Start(head + " {").NestStrings(strs...).End("}")
}
