package lattice

import (
	"fmt"
	"sort"

	i "github.com/chai-analysis/chai/utils/indenter"
	"github.com/chai-analysis/chai/utils/tree"
)

// Variable is an identifier binding: the addresses holding its value,
// the declaring AST node and the change of the binding itself. A
// binding's change differs from its value's when, for instance, a
// variable is renamed but keeps its value.
type Variable struct {
	Name    string
	Definer int
	Change  Change
	Addrs   Addresses
}

func (v Variable) Join(o Variable) Variable {
	if v.Definer < o.Definer {
		v.Definer = o.Definer
	}
	v.Change = v.Change.Join(o.Change)
	v.Addrs = v.Addrs.Join(o.Addrs)
	return v
}

func (v Variable) Eq(o Variable) bool {
	return v.Name == o.Name && v.Definer == o.Definer &&
		v.Change == o.Change && v.Addrs.Eq(o.Addrs)
}

func (v Variable) String() string {
	return fmt.Sprintf("%s %s", v.Addrs, v.Change)
}

// Environment is a lexical scope: a frame of bindings and the
// environment it is nested in. Names are never removed, only shadowed
// by inner frames.
type Environment struct {
	frame  tree.Tree[string, Variable]
	parent *Environment
}

// NewEnvironment creates a frame nested in parent. A nil parent
// creates the global scope.
func NewEnvironment(parent *Environment) Environment {
	return Environment{
		frame:  tree.NewTree[string, Variable](stringHasher),
		parent: parent,
	}
}

// Extend opens a new frame nested in e.
func (e Environment) Extend() Environment {
	parent := e
	return NewEnvironment(&parent)
}

func (e Environment) Parent() (Environment, bool) {
	if e.parent == nil {
		return Environment{}, false
	}
	return *e.parent, true
}

// Lookup resolves name from the innermost frame outwards.
func (e Environment) Lookup(name string) (Variable, bool) {
	for cur := &e; cur != nil; cur = cur.parent {
		if v, found := cur.frame.Lookup(name); found {
			return v, true
		}
	}
	return Variable{}, false
}

// Bind binds a variable in the innermost frame, shadowing any outer
// binding of the same name.
func (e Environment) Bind(v Variable) Environment {
	e.frame = e.frame.Insert(v.Name, v)
	return e
}

// BindGlobal binds a variable in the outermost frame. The chain of
// frames leading to it is copied.
func (e Environment) BindGlobal(v Variable) Environment {
	if e.parent == nil {
		return e.Bind(v)
	}
	parent := e.parent.BindGlobal(v)
	e.parent = &parent
	return e
}

// Depth is the number of frames enclosing the innermost one.
func (e Environment) Depth() (d int) {
	for cur := e.parent; cur != nil; cur = cur.parent {
		d++
	}
	return
}

// Frame returns the bindings of the innermost frame ordered by name.
func (e Environment) Frame() []Variable {
	names := e.frame.SortedKeys(func(a, b string) bool { return a < b })
	res := make([]Variable, len(names))
	for j, n := range names {
		res[j], _ = e.frame.Lookup(n)
	}
	return res
}

// ForEach calls f for every visible binding, innermost first. Shadowed
// bindings are skipped.
func (e Environment) ForEach(f func(Variable)) {
	seen := map[string]bool{}
	for cur := &e; cur != nil; cur = cur.parent {
		for _, v := range cur.Frame() {
			if !seen[v.Name] {
				seen[v.Name] = true
				f(v)
			}
		}
	}
}

// Names lists the visible identifiers in sorted order.
func (e Environment) Names() []string {
	res := []string{}
	e.ForEach(func(v Variable) { res = append(res, v.Name) })
	sort.Strings(res)
	return res
}

func (e Environment) Join(o Environment) Environment {
	e.frame = e.frame.Merge(o.frame, func(a, b Variable) (Variable, bool) {
		if a.Eq(b) {
			return a, true
		}
		return a.Join(b), false
	})
	switch {
	case e.parent == nil:
		e.parent = o.parent
	case o.parent != nil && e.parent != o.parent:
		parent := e.parent.Join(*o.parent)
		e.parent = &parent
	}
	return e
}

func (e Environment) Eq(o Environment) bool {
	if !e.frame.Equal(o.frame, Variable.Eq) {
		return false
	}
	switch {
	case e.parent == o.parent:
		return true
	case e.parent == nil || o.parent == nil:
		return false
	}
	return e.parent.Eq(*o.parent)
}

func (e Environment) String() string {
	ind := i.Indenter().Start(colorize.Lattice("env") + " " + e.frame.String())
	if e.parent != nil {
		ind = ind.NestStrings(colorize.Key("↑ ") + e.parent.String())
	}
	return ind.End("")
}
