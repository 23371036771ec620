package lattice

import (
	"fmt"

	loc "github.com/chai-analysis/chai/analysis/location"
	"github.com/chai-analysis/chai/utils"
	i "github.com/chai-analysis/chai/utils/indenter"
	"github.com/chai-analysis/chai/utils/tree"
)

var addressHasher = utils.HashableHasher[loc.Address]()

// Store is the abstract heap. It is the single owner of every abstract
// value and object; addresses only index into it.
//
// An address allocated more than once along a path (in a loop, or by
// several contexts that collapse to the same heap context) is marked as
// multi-allocated. Updates at such addresses are always weak.
type Store struct {
	values  tree.Tree[loc.Address, BValue]
	objects tree.Tree[loc.Address, Object]
	multi   tree.Tree[loc.Address, bool]
}

func NewStore() Store {
	return Store{
		values:  tree.NewTree[loc.Address, BValue](addressHasher),
		objects: tree.NewTree[loc.Address, Object](addressHasher),
		multi:   tree.NewTree[loc.Address, bool](addressHasher),
	}
}

func joinValues(a, b BValue) (BValue, bool) {
	if a.Eq(b) {
		return a, true
	}
	return a.Join(b), false
}

func joinObjects(a, b Object) (Object, bool) {
	if a.Eq(b) {
		return a, true
	}
	return a.Join(b), false
}

// IsMulti reports whether the address may denote more than one concrete
// location.
func (s Store) IsMulti(a loc.Address) bool {
	m, _ := s.multi.Lookup(a)
	return m
}

func (s Store) markMulti(a loc.Address) Store {
	s.multi = s.multi.Insert(a, true)
	return s
}

// Alloc binds a fresh value at a. The first allocation is a strong
// update. Allocating an address that is already bound marks it as
// multi-allocated and joins the values.
func (s Store) Alloc(a loc.Address, v BValue) Store {
	if _, found := s.values.Lookup(a); found {
		return s.markMulti(a).WeakUpdate(a, v)
	}
	return s.StrongUpdate(a, v)
}

// Update writes v at a, strongly unless a is multi-allocated.
func (s Store) Update(a loc.Address, v BValue) Store {
	if s.IsMulti(a) {
		return s.WeakUpdate(a, v)
	}
	return s.StrongUpdate(a, v)
}

// UpdateAll writes v at every address in as. Only a singleton target may
// be updated strongly.
func (s Store) UpdateAll(as Addresses, v BValue) Store {
	if as.IsTop() {
		return s
	}
	if a, ok := as.Single(); ok {
		return s.Update(a, v)
	}
	for _, a := range as.Entries() {
		s = s.WeakUpdate(a, v)
	}
	return s
}

func (s Store) StrongUpdate(a loc.Address, v BValue) Store {
	s.values = s.values.Insert(a, v)
	return s
}

func (s Store) WeakUpdate(a loc.Address, v BValue) Store {
	s.values = s.values.InsertOrMerge(a, v, joinValues)
	return s
}

// Apply reads the value at a. The store is total: an unbound address
// holds ⊤ with no change information.
func (s Store) Apply(a loc.Address) BValue {
	if v, found := s.values.Lookup(a); found {
		return v
	}
	return TopValue(ChangeBot)
}

// ApplyAll joins the values at every address in as. Reading through ⊤
// yields ⊤.
func (s Store) ApplyAll(as Addresses) BValue {
	if as.IsTop() {
		return TopValue(ChangeBot)
	}
	res := BotValue()
	for _, a := range as.Entries() {
		res = res.Join(s.Apply(a))
	}
	return res
}

func (s Store) Lookup(a loc.Address) (BValue, bool) {
	return s.values.Lookup(a)
}

// AllocObject binds a fresh object at a, with the same multi-allocation
// rule as Alloc.
func (s Store) AllocObject(a loc.Address, o Object) Store {
	if _, found := s.objects.Lookup(a); found {
		s = s.markMulti(a)
		s.objects = s.objects.InsertOrMerge(a, o, joinObjects)
		return s
	}
	s.objects = s.objects.Insert(a, o)
	return s
}

// UpdateObject replaces the object at a, or joins into it when a is
// multi-allocated.
func (s Store) UpdateObject(a loc.Address, o Object) Store {
	if s.IsMulti(a) {
		s.objects = s.objects.InsertOrMerge(a, o, joinObjects)
	} else {
		s.objects = s.objects.Insert(a, o)
	}
	return s
}

func (s Store) Object(a loc.Address) (Object, bool) {
	return s.objects.Lookup(a)
}

func (s Store) ForEach(f func(loc.Address, BValue)) {
	s.values.ForEach(f)
}

func (s Store) ForEachObject(f func(loc.Address, Object)) {
	s.objects.ForEach(f)
}

func (s Store) Join(o Store) Store {
	s.values = s.values.Merge(o.values, joinValues)
	s.objects = s.objects.Merge(o.objects, joinObjects)
	s.multi = s.multi.Merge(o.multi, func(a, b bool) (bool, bool) {
		return a || b, a == b
	})
	return s
}

func (s Store) Eq(o Store) bool {
	return s.values.Equal(o.values, BValue.Eq) &&
		s.objects.Equal(o.objects, Object.Eq) &&
		s.multi.Equal(o.multi, func(a, b bool) bool { return a == b })
}

// Leq holds when every binding of s is covered by o.
func (s Store) Leq(o Store) bool {
	return !s.values.Any(func(a loc.Address, v BValue) bool {
		w, found := o.values.Lookup(a)
		return !found || !v.Leq(w)
	}) && !s.objects.Any(func(a loc.Address, ob Object) bool {
		w, found := o.objects.Lookup(a)
		return !found || !ob.Join(w).Eq(w)
	})
}

func (s Store) String() string {
	return i.Indenter().Start(colorize.Lattice("store") + " {").NestStrings(
		fmt.Sprintf("%s %s", colorize.Key("values:"), s.values),
		fmt.Sprintf("%s %s", colorize.Key("objects:"), s.objects),
	).End("}")
}
