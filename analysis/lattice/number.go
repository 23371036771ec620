package lattice

import (
	"math"
	"strconv"
)

type numRegion uint8

const (
	numZero numRegion = 1 << iota
	numNaN
	// Every number that is neither zero nor NaN.
	numOther
	numAll = numZero | numNaN | numOther
)

// Num abstracts numbers by the regions zero, NaN and the rest. The
// rest may be pinned to a single exact value.
type Num struct {
	regions numRegion
	exact   bool
	val     float64
	Change  Change
}

func NumTop(c Change) Num { return Num{regions: numAll, Change: c} }

// NumOf abstracts the concrete number v.
func NumOf(v float64, c Change) Num {
	switch {
	case v == 0:
		return Num{regions: numZero, Change: c}
	case math.IsNaN(v):
		return Num{regions: numNaN, Change: c}
	}
	return Num{regions: numOther, exact: true, val: v, Change: c}
}

// ParseNum abstracts a numeric literal. Unparsable literals abstract
// to any number.
func ParseNum(text string, c Change) Num {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		if i, err := strconv.ParseInt(text, 0, 64); err == nil {
			return NumOf(float64(i), c)
		}
		return NumTop(c)
	}
	return NumOf(v, c)
}

func (n Num) IsBot() bool     { return n.regions == 0 }
func (n Num) MaybeZero() bool { return n.regions&numZero != 0 }
func (n Num) MaybeNaN() bool  { return n.regions&numNaN != 0 }

// MaybeNonZero holds when some number other than zero and NaN is possible.
func (n Num) MaybeNonZero() bool { return n.regions&numOther != 0 }

// Value returns the exact number, if n denotes exactly one.
func (n Num) Value() (float64, bool) {
	switch {
	case n.regions == numZero:
		return 0, true
	case n.regions == numOther && n.exact:
		return n.val, true
	}
	return 0, false
}

func (n Num) without(r numRegion) Num {
	n.regions &^= r
	if n.regions&numOther == 0 {
		n.exact, n.val = false, 0
	}
	return n
}

func (n Num) WithoutZero() Num { return n.without(numZero) }
func (n Num) WithoutNaN() Num  { return n.without(numNaN) }

// Falsy keeps the falsy numbers, zero and NaN.
func (n Num) Falsy() Num { return n.without(numOther) }

// Truthy removes the falsy numbers.
func (n Num) Truthy() Num { return n.without(numZero | numNaN) }

func (n Num) Join(o Num) Num {
	r := Num{regions: n.regions | o.regions, Change: n.Change.Join(o.Change)}
	nOther, oOther := n.regions&numOther != 0, o.regions&numOther != 0
	switch {
	case nOther && oOther:
		if n.exact && o.exact && n.val == o.val {
			r.exact, r.val = true, n.val
		}
	case nOther:
		r.exact, r.val = n.exact, n.val
	case oOther:
		r.exact, r.val = o.exact, o.val
	}
	return r
}

func (n Num) Meet(o Num) Num {
	r := Num{regions: n.regions & o.regions, Change: n.Change}
	if r.regions&numOther == 0 {
		return r
	}
	switch {
	case n.exact && o.exact:
		if n.val != o.val {
			return r.without(numOther)
		}
		r.exact, r.val = true, n.val
	case n.exact:
		r.exact, r.val = true, n.val
	case o.exact:
		r.exact, r.val = true, o.val
	}
	return r
}

func (n Num) Leq(o Num) bool {
	if n.regions&^o.regions != 0 || !n.Change.Leq(o.Change) {
		return false
	}
	if n.regions&numOther != 0 && o.exact {
		return n.exact && n.val == o.val
	}
	return true
}

func (n Num) Eq(o Num) bool {
	return n == o
}

func (n Num) String() string {
	if v, ok := n.Value(); ok {
		return colorize.Const(strconv.FormatFloat(v, 'g', -1, 64))
	}
	switch n.regions {
	case 0:
		return "⊥"
	case numNaN:
		return colorize.Const("NaN")
	case numAll:
		if !n.exact {
			return colorize.Element("num")
		}
	case numOther:
		return colorize.Element("num≠0")
	case numZero | numNaN:
		return colorize.Element("0|NaN")
	case numOther | numNaN:
		if !n.exact {
			return colorize.Element("num≠0|NaN")
		}
	case numOther | numZero:
		if !n.exact {
			return colorize.Element("num≠NaN")
		}
	}

	str := ""
	sep := ""
	if n.regions&numZero != 0 {
		str, sep = "0", "|"
	}
	if n.regions&numNaN != 0 {
		str, sep = str+sep+"NaN", "|"
	}
	if n.regions&numOther != 0 {
		str += sep + strconv.FormatFloat(n.val, 'g', -1, 64)
	}
	return colorize.Element(str)
}
