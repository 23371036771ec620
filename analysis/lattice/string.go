package lattice

import (
	"strconv"
	"strings"
)

type strRegion uint8

const (
	strBlank strRegion = 1 << iota
	// Non-blank strings that parse as numbers.
	strNumeric
	// Non-blank strings that do not.
	strOther
	strAll = strBlank | strNumeric | strOther
)

// Str abstracts strings by the regions blank, numeric and the rest.
// When only one non-blank region is possible it may be pinned to an
// exact value.
type Str struct {
	regions strRegion
	exact   bool
	val     string
	Change  Change
}

func StrTop(c Change) Str { return Str{regions: strAll, Change: c} }

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

// StrOf abstracts the concrete string s.
func StrOf(s string, c Change) Str {
	r := regionOf(s)
	if r == strBlank {
		return Str{regions: strBlank, Change: c}
	}
	return Str{regions: r, exact: true, val: s, Change: c}
}

func regionOf(s string) strRegion {
	switch {
	case s == "":
		return strBlank
	case isNumeric(s):
		return strNumeric
	}
	return strOther
}

func (s Str) IsBot() bool      { return s.regions == 0 }
func (s Str) MaybeBlank() bool { return s.regions&strBlank != 0 }

// Value returns the exact string, if s denotes exactly one.
func (s Str) Value() (string, bool) {
	switch {
	case s.regions == strBlank:
		return "", true
	case s.exact && s.regions&strBlank == 0:
		return s.val, true
	}
	return "", false
}

func (s Str) nonBlank() strRegion { return s.regions &^ strBlank }

func (s Str) without(r strRegion) Str {
	s.regions &^= r
	if s.nonBlank() == 0 {
		s.exact, s.val = false, ""
	}
	return s
}

func (s Str) WithoutBlank() Str { return s.without(strBlank) }

// Falsy keeps only the blank string.
func (s Str) Falsy() Str { return s.without(strNumeric | strOther) }

func (s Str) Join(o Str) Str {
	r := Str{regions: s.regions | o.regions, Change: s.Change.Join(o.Change)}
	sNB, oNB := s.nonBlank() != 0, o.nonBlank() != 0
	switch {
	case sNB && oNB:
		if s.exact && o.exact && s.val == o.val {
			r.exact, r.val = true, s.val
		}
	case sNB:
		r.exact, r.val = s.exact, s.val
	case oNB:
		r.exact, r.val = o.exact, o.val
	}
	return r
}

func (s Str) Meet(o Str) Str {
	r := Str{regions: s.regions & o.regions, Change: s.Change}
	if r.nonBlank() == 0 {
		return r
	}
	switch {
	case s.exact && o.exact:
		if s.val != o.val {
			return r.without(strNumeric | strOther)
		}
		r.exact, r.val = true, s.val
	case s.exact:
		r.exact, r.val = true, s.val
	case o.exact:
		r.exact, r.val = true, o.val
	}
	if r.exact && r.regions&regionOf(r.val) == 0 {
		return r.without(strNumeric | strOther)
	}
	return r
}

func (s Str) Leq(o Str) bool {
	if s.regions&^o.regions != 0 || !s.Change.Leq(o.Change) {
		return false
	}
	if s.nonBlank() != 0 && o.exact {
		return s.exact && s.val == o.val
	}
	return true
}

func (s Str) Eq(o Str) bool {
	return s == o
}

func (s Str) String() string {
	if v, ok := s.Value(); ok {
		return colorize.Const(strconv.Quote(v))
	}
	switch {
	case s.regions == 0:
		return "⊥"
	case s.regions == strAll && !s.exact:
		return colorize.Element("str")
	}

	parts := []string{}
	if s.regions&strBlank != 0 {
		parts = append(parts, `""`)
	}
	if s.exact {
		parts = append(parts, strconv.Quote(s.val))
	} else {
		if s.regions&strNumeric != 0 {
			parts = append(parts, "numeric")
		}
		if s.regions&strOther != 0 {
			parts = append(parts, "non-numeric")
		}
	}
	return colorize.Element(strings.Join(parts, "|"))
}
