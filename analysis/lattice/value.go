package lattice

import (
	"strings"

	loc "github.com/chai-analysis/chai/analysis/location"
	i "github.com/chai-analysis/chai/utils/indenter"
)

// BValue is the abstract value: the product of one lattice per
// JavaScript type, each tagged with its own Change. A value such as
// "a number or a string" has both components non-bottom.
//
// Change is the provenance of the value as a whole; it is the join of
// the component changes, raised when the value itself was produced by
// a changed expression. Dependent records whether the value was read
// through a changed expression, and Definers the AST nodes that may
// have produced it.
type BValue struct {
	Undefined Undefined
	Null      Null
	Bool      Bool
	Num       Num
	Str       Str
	Addrs     Addresses

	Change    Change
	Dependent Change
	Definers  DefinerIDs
}

// BotValue is the value of nothing.
func BotValue() BValue {
	return BValue{}
}

// TopValue is any value, tagged with change c.
func TopValue(c Change) BValue {
	return BValue{
		Undefined: Undefined{true, c},
		Null:      Null{true, c},
		Bool:      BoolTop(c),
		Num:       NumTop(c),
		Str:       StrTop(c),
		Addrs:     AddressesTop(c),
		Change:    c,
	}
}

func InjectUndefined(c Change) BValue {
	return BValue{Undefined: Undefined{true, c}, Change: c}
}

func InjectNull(c Change) BValue {
	return BValue{Null: Null{true, c}, Change: c}
}

func InjectBool(b bool, c Change) BValue {
	return BValue{Bool: BoolOf(b, c), Change: c}
}

func InjectBoolTop(c Change) BValue {
	return BValue{Bool: BoolTop(c), Change: c}
}

func InjectNum(n Num) BValue {
	return BValue{Num: n, Change: n.Change}
}

func InjectStr(s Str) BValue {
	return BValue{Str: s, Change: s.Change}
}

func InjectAddresses(as Addresses) BValue {
	return BValue{Addrs: as, Change: as.Change}
}

func InjectAddress(c Change, a ...loc.Address) BValue {
	return InjectAddresses(AddressesOf(c, a...))
}

func (v BValue) IsBot() bool {
	return !v.Undefined.Present && !v.Null.Present && v.Bool.IsBot() &&
		v.Num.IsBot() && v.Str.IsBot() && v.Addrs.IsBot()
}

// IsTop holds when every type is possible with its top element.
func (v BValue) IsTop() bool {
	return v.Undefined.Present && v.Null.Present && v.Bool.bits == boolTop &&
		v.Num.regions == numAll && !v.Num.exact &&
		v.Str.regions == strAll && !v.Str.exact && v.Addrs.IsTop()
}

func (v BValue) IsUndefined() bool { return v.Undefined.Present }
func (v BValue) IsNull() bool      { return v.Null.Present }
func (v BValue) IsBlank() bool     { return v.Str.MaybeBlank() }
func (v BValue) IsNaN() bool       { return v.Num.MaybeNaN() }
func (v BValue) IsZero() bool      { return v.Num.MaybeZero() }
func (v BValue) IsFalse() bool     { return v.Bool.MaybeFalse() }
func (v BValue) IsAddress() bool   { return !v.Addrs.IsBot() }

// IsChanged holds when the value or any of its components is changed.
func (v BValue) IsChanged() bool {
	return v.Change.Changed() || v.componentChange().Changed()
}

func (v BValue) componentChange() Change {
	return v.Undefined.Change.Join(v.Null.Change).Join(v.Bool.Change).
		Join(v.Num.Change).Join(v.Str.Change).Join(v.Addrs.Change)
}

// WithChange retags the value and every present component with c.
func (v BValue) WithChange(c Change) BValue {
	if v.Undefined.Present {
		v.Undefined.Change = c
	}
	if v.Null.Present {
		v.Null.Change = c
	}
	if !v.Bool.IsBot() {
		v.Bool.Change = c
	}
	if !v.Num.IsBot() {
		v.Num.Change = c
	}
	if !v.Str.IsBot() {
		v.Str.Change = c
	}
	if !v.Addrs.IsBot() {
		v.Addrs.Change = c
	}
	v.Change = c
	return v
}

// RaiseChange joins c into the value's overall change.
func (v BValue) RaiseChange(c Change) BValue {
	v.Change = v.Change.Join(c)
	return v
}

func (v BValue) WithDependent(c Change) BValue {
	v.Dependent = v.Dependent.Join(c)
	return v
}

func (v BValue) WithDefiner(id int) BValue {
	v.Definers = v.Definers.Add(id)
	return v
}

func (v BValue) WithAddresses(as Addresses) BValue {
	v.Addrs = as
	return v
}

func (v BValue) Join(o BValue) BValue {
	return BValue{
		Undefined: v.Undefined.Join(o.Undefined),
		Null:      v.Null.Join(o.Null),
		Bool:      v.Bool.Join(o.Bool),
		Num:       v.Num.Join(o.Num),
		Str:       v.Str.Join(o.Str),
		Addrs:     v.Addrs.Join(o.Addrs),
		Change:    v.Change.Join(o.Change),
		Dependent: v.Dependent.Join(o.Dependent),
		Definers:  v.Definers.Union(o.Definers),
	}
}

// Meet refines the value by o. Changes and definers of the receiver
// are kept: refinement never alters provenance.
func (v BValue) Meet(o BValue) BValue {
	v.Undefined = v.Undefined.Meet(o.Undefined)
	v.Null = v.Null.Meet(o.Null)
	v.Bool = v.Bool.Meet(o.Bool)
	v.Num = v.Num.Meet(o.Num)
	v.Str = v.Str.Meet(o.Str)
	v.Addrs = v.Addrs.Meet(o.Addrs)
	return v
}

func (v BValue) Leq(o BValue) bool {
	return v.Undefined.Leq(o.Undefined) &&
		v.Null.Leq(o.Null) &&
		v.Bool.Leq(o.Bool) &&
		v.Num.Leq(o.Num) &&
		v.Str.Leq(o.Str) &&
		v.Addrs.Leq(o.Addrs) &&
		v.Change.Leq(o.Change) &&
		v.Dependent.Leq(o.Dependent) &&
		v.Definers.Leq(o.Definers)
}

func (v BValue) Eq(o BValue) bool {
	return v.Undefined == o.Undefined &&
		v.Null == o.Null &&
		v.Bool == o.Bool &&
		v.Num.Eq(o.Num) &&
		v.Str.Eq(o.Str) &&
		v.Addrs.Eq(o.Addrs) &&
		v.Change == o.Change &&
		v.Dependent == o.Dependent &&
		v.Definers.Eq(o.Definers)
}

// Render prints the value without its change annotations.
func (v BValue) Render() string {
	if v.IsBot() {
		return "⊥"
	}
	if v.IsTop() {
		return colorize.Lattice("⊤")
	}

	parts := []string{}
	if v.Undefined.Present {
		parts = append(parts, v.Undefined.String())
	}
	if v.Null.Present {
		parts = append(parts, v.Null.String())
	}
	if !v.Bool.IsBot() {
		parts = append(parts, v.Bool.String())
	}
	if !v.Num.IsBot() {
		parts = append(parts, v.Num.String())
	}
	if !v.Str.IsBot() {
		parts = append(parts, v.Str.String())
	}
	if !v.Addrs.IsBot() {
		parts = append(parts, v.Addrs.String())
	}
	return strings.Join(parts, " | ")
}

func (v BValue) String() string {
	str := v.Render() + " " + colorize.Attr("Δ") + v.Change.String()
	if v.Dependent != ChangeBot {
		str += " " + colorize.Attr("dep") + v.Dependent.String()
	}
	return str
}

// Verbose prints every component with its change.
func (v BValue) Verbose() string {
	return i.Indenter().Start("⟨").NestStrings(
		colorize.Key("undefined: ")+v.Undefined.String()+" "+v.Undefined.Change.String(),
		colorize.Key("null: ")+v.Null.String()+" "+v.Null.Change.String(),
		colorize.Key("bool: ")+v.Bool.String()+" "+v.Bool.Change.String(),
		colorize.Key("num: ")+v.Num.String()+" "+v.Num.Change.String(),
		colorize.Key("str: ")+v.Str.String()+" "+v.Str.Change.String(),
		colorize.Key("addrs: ")+v.Addrs.String()+" "+v.Addrs.Change.String(),
		colorize.Key("change: ")+v.Change.String(),
		colorize.Key("definers: ")+v.Definers.String(),
	).End("⟩")
}
