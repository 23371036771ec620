package lattice

import (
	"fmt"

	"golang.org/x/tools/container/intsets"
)

// Branch is a conditional edge leaving a branching node, identified by
// the AST node of its condition.
type Branch struct {
	Cond    int
	Changed bool
}

// Control tracks which branch conditions the current program point is
// control dependent on and whose outcome may differ between versions,
// and whether the enclosing call was itself changed.
//
// A condition taken on one branch is recorded in the condition set,
// and the conditions of the sibling branches in the negated set. At a
// merge point every condition whose negation also reached the merge is
// dropped, which ends its region of influence.
//
// The sets are shared between controls; they are never mutated after
// construction.
type Control struct {
	conds *intsets.Sparse
	negs  *intsets.Sparse
	Call  Change
}

func NewControl() Control {
	return Control{}
}

func copySet(s *intsets.Sparse) *intsets.Sparse {
	res := new(intsets.Sparse)
	if s != nil {
		res.Copy(s)
	}
	return res
}

func (c Control) sets() (*intsets.Sparse, *intsets.Sparse) {
	conds, negs := c.conds, c.negs
	if conds == nil {
		conds = new(intsets.Sparse)
	}
	if negs == nil {
		negs = new(intsets.Sparse)
	}
	return conds, negs
}

// Update steps along the branch taken. If its condition changed, the
// program point becomes control dependent on it. Changed sibling
// conditions are always negated.
func (c Control) Update(taken Branch, siblings ...Branch) Control {
	conds, negs := c.sets()
	conds, negs = copySet(conds), copySet(negs)

	if taken.Changed {
		conds.Insert(taken.Cond)
		for _, s := range siblings {
			negs.Insert(s.Cond)
		}
	}
	for _, s := range siblings {
		if s.Changed {
			negs.Insert(s.Cond)
		}
	}

	c.conds, c.negs = conds, negs
	return c
}

// EnterCall produces the control of a callee entered through a call
// with the given change.
func (c Control) EnterCall(change Change) Control {
	c.Call = c.Call.Join(change)
	return c
}

func (c Control) Join(o Control) Control {
	cc, cn := c.sets()
	oc, on := o.sets()

	conds, negs := copySet(cc), copySet(cn)
	conds.UnionWith(oc)
	negs.UnionWith(on)
	conds.DifferenceWith(negs)

	return Control{conds: conds, negs: negs, Call: c.Call.Join(o.Call)}
}

func (c Control) Eq(o Control) bool {
	cc, cn := c.sets()
	oc, on := o.sets()
	return c.Call == o.Call && cc.Equals(oc) && cn.Equals(on)
}

// Conditions returns the identifiers of the changed conditions the
// program point depends on, in ascending order.
func (c Control) Conditions() []int {
	conds, _ := c.sets()
	return conds.AppendTo(nil)
}

func (c Control) DependsOn(cond int) bool {
	conds, _ := c.sets()
	return conds.Has(cond)
}

// Affected holds when the program point may execute differently in
// the two versions.
func (c Control) Affected() bool {
	conds, _ := c.sets()
	return !conds.IsEmpty() || c.Call.Changed()
}

// Change is the change of the control context as a whole.
func (c Control) Change() Change {
	if c.Affected() {
		return InsertedOrRemoved
	}
	return Unchanged
}

func (c Control) String() string {
	conds, negs := c.sets()
	return fmt.Sprintf("%s { %s %s %s %s %s %s }",
		colorize.Lattice("control"),
		colorize.Key("conds:"), conds,
		colorize.Key("negs:"), negs,
		colorize.Key("call:"), c.Call)
}
