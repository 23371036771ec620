package lattice

import "fmt"

// Undefined is the two-point lattice for the undefined value.
type Undefined struct {
	Present bool
	Change  Change
}

func (u Undefined) Join(o Undefined) Undefined {
	return Undefined{u.Present || o.Present, u.Change.Join(o.Change)}
}

func (u Undefined) Meet(o Undefined) Undefined {
	return Undefined{u.Present && o.Present, u.Change}
}

func (u Undefined) Leq(o Undefined) bool {
	return (!u.Present || o.Present) && u.Change.Leq(o.Change)
}

func (u Undefined) String() string {
	if u.Present {
		return colorize.Const("undefined")
	}
	return "⊥"
}

// Null is the two-point lattice for the null value.
type Null struct {
	Present bool
	Change  Change
}

func (n Null) Join(o Null) Null {
	return Null{n.Present || o.Present, n.Change.Join(o.Change)}
}

func (n Null) Meet(o Null) Null {
	return Null{n.Present && o.Present, n.Change}
}

func (n Null) Leq(o Null) bool {
	return (!n.Present || o.Present) && n.Change.Leq(o.Change)
}

func (n Null) String() string {
	if n.Present {
		return colorize.Const("null")
	}
	return "⊥"
}

type boolBits uint8

const (
	boolTrue boolBits = 1 << iota
	boolFalse
	boolTop = boolTrue | boolFalse
)

// Bool is the four-point boolean lattice.
type Bool struct {
	bits   boolBits
	Change Change
}

func BoolOf(b bool, c Change) Bool {
	if b {
		return Bool{boolTrue, c}
	}
	return Bool{boolFalse, c}
}

func BoolTop(c Change) Bool { return Bool{boolTop, c} }

func (b Bool) IsBot() bool      { return b.bits == 0 }
func (b Bool) MaybeTrue() bool  { return b.bits&boolTrue != 0 }
func (b Bool) MaybeFalse() bool { return b.bits&boolFalse != 0 }

// WithoutFalse removes false from the element.
func (b Bool) WithoutFalse() Bool {
	b.bits &^= boolFalse
	return b
}

// OnlyFalse keeps only false, if present.
func (b Bool) OnlyFalse() Bool {
	b.bits &= boolFalse
	return b
}

func (b Bool) Join(o Bool) Bool {
	return Bool{b.bits | o.bits, b.Change.Join(o.Change)}
}

func (b Bool) Meet(o Bool) Bool {
	return Bool{b.bits & o.bits, b.Change}
}

func (b Bool) Leq(o Bool) bool {
	return b.bits&^o.bits == 0 && b.Change.Leq(o.Change)
}

func (b Bool) String() string {
	switch b.bits {
	case boolTrue:
		return colorize.Const("true")
	case boolFalse:
		return colorize.Const("false")
	case boolTop:
		return colorize.Element("bool")
	}
	return "⊥"
}

var _ fmt.Stringer = Bool{}
