package lattice

import (
	"sort"
	"strings"

	loc "github.com/chai-analysis/chai/analysis/location"
)

// MaxAddresses bounds the size of an address set before it is widened
// to ⊤.
const MaxAddresses = 10

// Addresses is a bounded set of heap addresses. Sets that grow beyond
// MaxAddresses become ⊤, meaning "any address".
type Addresses struct {
	top    bool
	addrs  []loc.Address
	Change Change
}

func AddressesOf(c Change, as ...loc.Address) Addresses {
	res := Addresses{Change: c}
	for _, a := range as {
		res = res.add(a)
	}
	return res
}

func AddressesTop(c Change) Addresses {
	return Addresses{top: true, Change: c}
}

func (s Addresses) add(a loc.Address) Addresses {
	if s.top {
		return s
	}
	i := sort.Search(len(s.addrs), func(i int) bool { return !s.addrs[i].Less(a) })
	if i < len(s.addrs) && s.addrs[i] == a {
		return s
	}
	if len(s.addrs) == MaxAddresses {
		return Addresses{top: true, Change: s.Change}
	}

	addrs := make([]loc.Address, 0, len(s.addrs)+1)
	addrs = append(addrs, s.addrs[:i]...)
	addrs = append(addrs, a)
	addrs = append(addrs, s.addrs[i:]...)
	s.addrs = addrs
	return s
}

func (s Addresses) IsTop() bool { return s.top }
func (s Addresses) IsBot() bool { return !s.top && len(s.addrs) == 0 }
func (s Addresses) Size() int   { return len(s.addrs) }

// Entries returns the addresses of a non-⊤ set in ascending order.
func (s Addresses) Entries() []loc.Address {
	return append([]loc.Address(nil), s.addrs...)
}

func (s Addresses) Contains(a loc.Address) bool {
	if s.top {
		return true
	}
	i := sort.Search(len(s.addrs), func(i int) bool { return !s.addrs[i].Less(a) })
	return i < len(s.addrs) && s.addrs[i] == a
}

// Single returns the only address of a singleton set.
func (s Addresses) Single() (loc.Address, bool) {
	if s.top || len(s.addrs) != 1 {
		return loc.Address{}, false
	}
	return s.addrs[0], true
}

// Remove removes the given addresses. ⊤ is unaffected.
func (s Addresses) Remove(o Addresses) Addresses {
	if s.top || o.top {
		return s
	}
	res := Addresses{Change: s.Change}
	for _, a := range s.addrs {
		if !o.Contains(a) {
			res.addrs = append(res.addrs, a)
		}
	}
	return res
}

func (s Addresses) Join(o Addresses) Addresses {
	c := s.Change.Join(o.Change)
	if s.top || o.top {
		return AddressesTop(c)
	}
	res := Addresses{addrs: s.addrs, Change: c}
	for _, a := range o.addrs {
		res = res.add(a)
		if res.top {
			break
		}
	}
	return res
}

func (s Addresses) Meet(o Addresses) Addresses {
	switch {
	case s.top:
		return Addresses{top: o.top, addrs: o.addrs, Change: s.Change}
	case o.top:
		return s
	}
	res := Addresses{Change: s.Change}
	for _, a := range s.addrs {
		if o.Contains(a) {
			res.addrs = append(res.addrs, a)
		}
	}
	return res
}

func (s Addresses) Leq(o Addresses) bool {
	if !s.Change.Leq(o.Change) {
		return false
	}
	if o.top {
		return true
	}
	if s.top {
		return false
	}
	for _, a := range s.addrs {
		if !o.Contains(a) {
			return false
		}
	}
	return true
}

func (s Addresses) Eq(o Addresses) bool {
	if s.top != o.top || s.Change != o.Change || len(s.addrs) != len(o.addrs) {
		return false
	}
	for i := range s.addrs {
		if s.addrs[i] != o.addrs[i] {
			return false
		}
	}
	return true
}

func (s Addresses) String() string {
	if s.top {
		return colorize.Element("addr")
	}
	if len(s.addrs) == 0 {
		return "⊥"
	}
	strs := make([]string, len(s.addrs))
	for i, a := range s.addrs {
		strs[i] = a.String()
	}
	return "{" + strings.Join(strs, ", ") + "}"
}
