package lattice

import (
	"testing"

	loc "github.com/chai-analysis/chai/analysis/location"
)

var changes = []Change{ChangeBot, Unchanged, InsertedOrRemoved, Mixed}

func TestChangeJoin(t *testing.T) {
	for _, c := range changes {
		if c.Join(ChangeBot) != c || ChangeBot.Join(c) != c {
			t.Errorf("%v ⊔ ⊥ should be %v", c, c)
		}
		if c.Join(c) != c {
			t.Errorf("%v ⊔ %v should be idempotent", c, c)
		}
		for _, d := range changes {
			if c.Join(d) != d.Join(c) {
				t.Errorf("%v ⊔ %v is not commutative", c, d)
			}
			if !c.Leq(c.Join(d)) {
				t.Errorf("%v is not below %v ⊔ %v", c, c, d)
			}
			for _, e := range changes {
				if c.Join(d).Join(e) != c.Join(d.Join(e)) {
					t.Errorf("(%v ⊔ %v) ⊔ %v is not associative", c, d, e)
				}
			}
		}
	}

	if Unchanged.Join(InsertedOrRemoved) != Mixed {
		t.Error("U ⊔ C should be Mixed")
	}
	if Unchanged.Changed() || ChangeBot.Changed() || !Mixed.Changed() || !InsertedOrRemoved.Changed() {
		t.Error("Changed() is wrong")
	}
}

func a(site int) loc.Address {
	return loc.Address{Site: site}
}

func sampleValues() []BValue {
	return []BValue{
		BotValue(),
		TopValue(ChangeBot),
		TopValue(InsertedOrRemoved),
		InjectUndefined(Unchanged),
		InjectNull(InsertedOrRemoved),
		InjectBool(true, Unchanged),
		InjectBool(false, InsertedOrRemoved),
		InjectNum(NumOf(0, Unchanged)),
		InjectNum(NumOf(3, Unchanged)),
		InjectNum(NumOf(4, InsertedOrRemoved)),
		InjectNum(ParseNum("NaN", Unchanged)),
		InjectStr(StrOf("", Unchanged)),
		InjectStr(StrOf("12", InsertedOrRemoved)),
		InjectStr(StrOf("foo", Unchanged)),
		InjectAddress(Unchanged, a(1), a(2)),
		InjectAddress(InsertedOrRemoved, a(3)),
		InjectNum(NumOf(3, Unchanged)).Join(InjectStr(StrOf("x", Mixed))).WithDefiner(7),
	}
}

func TestValueJoinLaws(t *testing.T) {
	vs := sampleValues()
	for _, x := range vs {
		if !x.Join(x).Eq(x) {
			t.Errorf("join is not idempotent on %v", x)
		}
		if !x.Join(BotValue()).Eq(x) {
			t.Errorf("⊥ is not neutral for %v", x)
		}
		for _, y := range vs {
			xy := x.Join(y)
			if !xy.Eq(y.Join(x)) {
				t.Errorf("join of %v and %v is not commutative", x, y)
			}
			if !x.Leq(xy) || !y.Leq(xy) {
				t.Errorf("%v is not an upper bound of %v and %v", xy, x, y)
			}
			for _, z := range vs {
				if !xy.Join(z).Eq(x.Join(y.Join(z))) {
					t.Errorf("join of %v, %v and %v is not associative", x, y, z)
				}
			}
		}
	}
}

func TestValueComponents(t *testing.T) {
	v := InjectNum(NumOf(3, Unchanged)).Join(InjectStr(StrOf("a", InsertedOrRemoved)))
	if v.Num.IsBot() || v.Str.IsBot() {
		t.Fatal("a number-or-string value lost a component")
	}
	if v.Change != Mixed {
		t.Errorf("overall change is %v, expected Mixed", v.Change)
	}
	if v.Num.Change != Unchanged || v.Str.Change != InsertedOrRemoved {
		t.Error("components must keep their own changes")
	}

	w := v.WithChange(InsertedOrRemoved)
	if w.Num.Change != InsertedOrRemoved || w.Bool.Change != ChangeBot {
		t.Error("WithChange must retag present components only")
	}

	if !TopValue(ChangeBot).IsTop() || TopValue(ChangeBot).IsChanged() {
		t.Error("unexpected ⊤")
	}
}

func TestValueMeet(t *testing.T) {
	v := InjectUndefined(Unchanged).Join(InjectNum(NumOf(0, Unchanged))).Join(InjectStr(StrOf("s", Unchanged)))
	truthy := BValue{
		Bool: BoolOf(true, ChangeBot),
		Num:  NumTop(ChangeBot).Truthy(),
		Str:  StrTop(ChangeBot).WithoutBlank(),
	}
	m := v.Meet(truthy)
	if m.IsUndefined() || m.IsZero() {
		t.Errorf("meeting with truthy values should drop undefined and zero: %v", m)
	}
	if s, ok := m.Str.Value(); !ok || s != "s" {
		t.Errorf("meet lost the exact string: %v", m)
	}
	if m.Change != v.Change {
		t.Error("meet changed the provenance of the value")
	}
}

func TestAddressesWidening(t *testing.T) {
	as := AddressesOf(Unchanged)
	for j := 0; j < MaxAddresses; j++ {
		as = as.Join(AddressesOf(Unchanged, a(j)))
	}
	if as.IsTop() || as.Size() != MaxAddresses {
		t.Fatalf("%d addresses should not widen", MaxAddresses)
	}
	if !as.Join(AddressesOf(Unchanged, a(100))).IsTop() {
		t.Error("address set beyond the bound should widen to ⊤")
	}
}

func TestStoreAlloc(t *testing.T) {
	s := NewStore()
	s = s.Alloc(a(1), InjectNum(NumOf(1, Unchanged)))
	if s.IsMulti(a(1)) {
		t.Error("first allocation should be unique")
	}

	s2 := s.Update(a(1), InjectNum(NumOf(2, Unchanged)))
	if n, _ := s2.Apply(a(1)).Num.Value(); n != 2 {
		t.Error("unique address should be strongly updated")
	}

	s3 := s.Alloc(a(1), InjectStr(StrOf("x", Unchanged)))
	if !s3.IsMulti(a(1)) {
		t.Fatal("second allocation should mark the address")
	}
	v := s3.Apply(a(1))
	if v.Num.IsBot() || v.Str.IsBot() {
		t.Errorf("reallocation should join: %v", v)
	}
	v = s3.Update(a(1), InjectBool(true, Unchanged)).Apply(a(1))
	if v.Num.IsBot() || v.Bool.IsBot() {
		t.Errorf("multi-allocated address should be weakly updated: %v", v)
	}

	if u := s.Apply(a(99)); !u.IsTop() || u.Change != ChangeBot {
		t.Errorf("unbound reads should be ⊤ with ⊥ change, got %v", u)
	}
	if _, found := s.Lookup(a(99)); found {
		t.Error("Lookup found an unbound address")
	}
}

func sampleStores() []Store {
	s0 := NewStore()
	s1 := s0.Alloc(a(1), InjectNum(NumOf(1, Unchanged)))
	s2 := s0.Alloc(a(1), InjectStr(StrOf("x", InsertedOrRemoved))).
		AllocObject(a(5), NewPlainObject("Object", loc.ObjectPrototype))
	s3 := s1.Alloc(a(1), BotValue()).Alloc(a(2), InjectUndefined(Unchanged))
	return []Store{s0, s1, s2, s3}
}

func TestStoreJoinLaws(t *testing.T) {
	ss := sampleStores()
	for _, x := range ss {
		if !x.Join(x).Eq(x) {
			t.Errorf("store join is not idempotent on %v", x)
		}
		for _, y := range ss {
			xy := x.Join(y)
			if !xy.Eq(y.Join(x)) {
				t.Errorf("store join is not commutative:\n%v\n%v", x, y)
			}
			if !x.Leq(xy) {
				t.Errorf("store join is not an upper bound")
			}
			for _, z := range ss {
				if !xy.Join(z).Eq(x.Join(y.Join(z))) {
					t.Error("store join is not associative")
				}
			}
		}
	}
}

func TestObjects(t *testing.T) {
	o := NewPlainObject("Object", loc.ObjectPrototype)
	if _, found := o.Property("x"); found {
		t.Error("absent property found")
	}
	o = o.WithProperty(Property{Name: "x", Definer: 3, Change: Unchanged, Addrs: AddressesOf(Unchanged, a(10))})

	env := NewEnvironment(nil)
	f := NewFunctionObject(loc.FunctionPrototype, Closure{Code: 4, Env: env})
	j := o.Join(f)
	if !j.IsFunction() || len(j.Closures) != 1 {
		t.Errorf("joining with a function object should give a function: %v", j)
	}
	if _, found := j.Property("x"); !found {
		t.Error("join lost a property")
	}
	if !j.Eq(f.Join(o)) {
		t.Error("object join is not commutative")
	}

	g := NewFunctionObject(loc.FunctionPrototype, Closure{Code: 2, Env: env})
	if cs := f.Join(g).Closures; len(cs) != 2 || cs[0].Code != 2 {
		t.Errorf("closures should be joined and ordered, got %v", cs)
	}
}

func variable(name string, c Change, site int) Variable {
	return Variable{Name: name, Change: c, Addrs: AddressesOf(c, a(site))}
}

func TestEnvironmentScopes(t *testing.T) {
	global := NewEnvironment(nil).Bind(variable("x", Unchanged, 1))
	inner := global.Extend().Bind(variable("y", Unchanged, 2))

	if _, found := inner.Lookup("x"); !found {
		t.Error("outer binding not visible")
	}
	if _, found := global.Lookup("y"); found {
		t.Error("inner binding leaked")
	}

	shadow := inner.Bind(variable("x", InsertedOrRemoved, 3))
	if v, _ := shadow.Lookup("x"); !v.Addrs.Contains(a(3)) {
		t.Error("inner binding does not shadow")
	}
	if v, _ := inner.Lookup("x"); !v.Addrs.Contains(a(1)) {
		t.Error("environments are not persistent")
	}

	withGlobal := inner.BindGlobal(variable("g", Unchanged, 4))
	parent, _ := withGlobal.Parent()
	if len(parent.Frame()) != 2 {
		t.Errorf("global binding not in outermost frame: %v", parent)
	}
	if _, found := global.Lookup("g"); found {
		t.Error("BindGlobal modified a shared frame")
	}
	if names := withGlobal.Names(); len(names) != 3 {
		t.Errorf("visible names: %v", names)
	}
}

func TestEnvironmentJoinLaws(t *testing.T) {
	g := NewEnvironment(nil).Bind(variable("x", Unchanged, 1))
	envs := []Environment{
		g,
		g.Bind(variable("x", InsertedOrRemoved, 2)),
		g.Bind(variable("y", Unchanged, 3)),
		NewEnvironment(nil),
	}
	for _, x := range envs {
		if !x.Join(x).Eq(x) {
			t.Errorf("environment join is not idempotent on %v", x)
		}
		for _, y := range envs {
			if !x.Join(y).Eq(y.Join(x)) {
				t.Errorf("environment join is not commutative")
			}
			for _, z := range envs {
				if !x.Join(y).Join(z).Eq(x.Join(y.Join(z))) {
					t.Error("environment join is not associative")
				}
			}
		}
	}

	j := envs[1].Join(envs[0])
	if v, _ := j.Lookup("x"); v.Change != Mixed || v.Addrs.Size() != 2 {
		t.Errorf("joined binding: %v", v)
	}

	inner := g.Extend().Bind(variable("z", Unchanged, 4))
	nested := inner.Join(envs[2].Extend())
	if _, found := nested.Lookup("y"); !found {
		t.Error("join did not merge the enclosing frames")
	}
	if nested.Depth() != 1 {
		t.Errorf("join changed the nesting depth to %d", nested.Depth())
	}
}

func TestControl(t *testing.T) {
	c := NewControl()
	if c.Affected() {
		t.Error("fresh control is affected")
	}

	// if (cond#1) { ... } else { ... } where cond#1 changed; #2 is !cond.
	then := c.Update(Branch{Cond: 1, Changed: true}, Branch{Cond: 2, Changed: true})
	els := c.Update(Branch{Cond: 2, Changed: true}, Branch{Cond: 1, Changed: true})
	if !then.DependsOn(1) || !then.Affected() {
		t.Errorf("then branch should depend on the changed condition: %v", then)
	}
	if !els.DependsOn(2) {
		t.Errorf("else branch should depend on the negation: %v", els)
	}
	merged := then.Join(els)
	if merged.Affected() {
		t.Errorf("control dependence should end at the merge: %v", merged)
	}

	unchanged := c.Update(Branch{Cond: 5}, Branch{Cond: 6})
	if unchanged.Affected() {
		t.Error("unchanged condition affected control")
	}

	call := c.EnterCall(InsertedOrRemoved)
	if !call.Affected() || call.Change() != InsertedOrRemoved {
		t.Error("changed call does not affect control")
	}
}

func TestControlJoinLaws(t *testing.T) {
	c := NewControl()
	cs := []Control{
		c,
		c.Update(Branch{Cond: 1, Changed: true}, Branch{Cond: 2}),
		c.Update(Branch{Cond: 2}, Branch{Cond: 1, Changed: true}),
		c.Update(Branch{Cond: 3, Changed: true}),
		c.EnterCall(Unchanged),
	}
	for _, x := range cs {
		if !x.Join(x).Eq(x) {
			t.Errorf("control join is not idempotent on %v", x)
		}
		for _, y := range cs {
			if !x.Join(y).Eq(y.Join(x)) {
				t.Errorf("control join is not commutative on %v, %v", x, y)
			}
			for _, z := range cs {
				if !x.Join(y).Join(z).Eq(x.Join(y.Join(z))) {
					t.Error("control join is not associative")
				}
			}
		}
	}
}

func TestScratchpad(t *testing.T) {
	var p Scratchpad
	if _, ok := p.Return(); ok {
		t.Error("empty scratchpad has a return value")
	}
	p = p.WithReturn(InjectNum(NumOf(1, Unchanged))).WithReturn(InjectUndefined(Unchanged))
	ret, _ := p.Return()
	if ret.Num.IsBot() || !ret.IsUndefined() {
		t.Errorf("returns should be joined: %v", ret)
	}

	q := Scratchpad{}.WithArgs(a(7))
	if !p.Join(q).Eq(q.Join(p)) {
		t.Error("scratchpad join is not commutative")
	}
	if _, ok := p.ResetReturn().Return(); ok {
		t.Error("ResetReturn kept the value")
	}
}
