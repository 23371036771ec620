package lattice

import (
	"fmt"
	"sort"
	"strings"
)

// DefinerIDs is the set of AST nodes that may have produced a value.
type DefinerIDs struct {
	ids []int
}

func DefinersOf(ids ...int) DefinerIDs {
	var d DefinerIDs
	for _, id := range ids {
		d = d.Add(id)
	}
	return d
}

func (d DefinerIDs) Add(id int) DefinerIDs {
	i := sort.SearchInts(d.ids, id)
	if i < len(d.ids) && d.ids[i] == id {
		return d
	}
	ids := make([]int, 0, len(d.ids)+1)
	ids = append(ids, d.ids[:i]...)
	ids = append(ids, id)
	ids = append(ids, d.ids[i:]...)
	return DefinerIDs{ids}
}

func (d DefinerIDs) Contains(id int) bool {
	i := sort.SearchInts(d.ids, id)
	return i < len(d.ids) && d.ids[i] == id
}

func (d DefinerIDs) IDs() []int { return append([]int(nil), d.ids...) }
func (d DefinerIDs) Empty() bool { return len(d.ids) == 0 }

func (d DefinerIDs) Union(o DefinerIDs) DefinerIDs {
	if len(o.ids) == 0 {
		return d
	}
	res := d
	for _, id := range o.ids {
		res = res.Add(id)
	}
	return res
}

func (d DefinerIDs) Leq(o DefinerIDs) bool {
	for _, id := range d.ids {
		if !o.Contains(id) {
			return false
		}
	}
	return true
}

func (d DefinerIDs) Eq(o DefinerIDs) bool {
	if len(d.ids) != len(o.ids) {
		return false
	}
	for i := range d.ids {
		if d.ids[i] != o.ids[i] {
			return false
		}
	}
	return true
}

func (d DefinerIDs) String() string {
	strs := make([]string, len(d.ids))
	for i, id := range d.ids {
		strs[i] = fmt.Sprint(id)
	}
	return "{" + strings.Join(strs, ",") + "}"
}
