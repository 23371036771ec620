package lattice

import (
	"fmt"

	loc "github.com/chai-analysis/chai/analysis/location"
)

// Scratchpad stages the values crossing a call boundary: the address of
// the arguments object going in, and the return value coming out.
type Scratchpad struct {
	ret     BValue
	hasRet  bool
	args    loc.Address
	hasArgs bool
}

// Return reads the staged return value.
func (p Scratchpad) Return() (BValue, bool) {
	return p.ret, p.hasRet
}

// WithReturn stages a return value. Returns along several paths of the
// same callee are joined.
func (p Scratchpad) WithReturn(v BValue) Scratchpad {
	if p.hasRet {
		v = p.ret.Join(v)
	}
	p.ret, p.hasRet = v, true
	return p
}

func (p Scratchpad) ResetReturn() Scratchpad {
	p.ret, p.hasRet = BValue{}, false
	return p
}

func (p Scratchpad) Args() (loc.Address, bool) {
	return p.args, p.hasArgs
}

func (p Scratchpad) WithArgs(a loc.Address) Scratchpad {
	p.args, p.hasArgs = a, true
	return p
}

func (p Scratchpad) Join(o Scratchpad) Scratchpad {
	switch {
	case !p.hasRet:
		p.ret, p.hasRet = o.ret, o.hasRet
	case o.hasRet:
		p.ret = p.ret.Join(o.ret)
	}
	if o.hasArgs && (!p.hasArgs || o.args.Less(p.args)) {
		p.args, p.hasArgs = o.args, true
	}
	return p
}

func (p Scratchpad) Eq(o Scratchpad) bool {
	return p.hasRet == o.hasRet && p.hasArgs == o.hasArgs &&
		p.args == o.args && (!p.hasRet || p.ret.Eq(o.ret))
}

func (p Scratchpad) String() string {
	ret, args := "-", "-"
	if p.hasRet {
		ret = p.ret.String()
	}
	if p.hasArgs {
		args = p.args.String()
	}
	return fmt.Sprintf("%s { %s %s %s %s }", colorize.Lattice("scratch"),
		colorize.Key("ret:"), ret, colorize.Key("args:"), args)
}
