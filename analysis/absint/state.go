package absint

import (
	"fmt"
	"strings"

	"github.com/chai-analysis/chai/analysis/cfg"
	L "github.com/chai-analysis/chai/analysis/lattice"
	loc "github.com/chai-analysis/chai/analysis/location"
	"github.com/chai-analysis/chai/utils"
	i "github.com/chai-analysis/chai/utils/indenter"

	"github.com/fatih/color"
)

var colorize = struct {
	State func(...interface{}) string
	Key   func(...interface{}) string
}{
	State: utils.Colorizer(color.FgHiRed),
	Key:   utils.Colorizer(color.Faint),
}

// State is the abstract state at a program point. States are values:
// transfer functions work on a copy and return it.
//
// Self is the address of the value bound to `this`. Stack holds the
// addresses of the function objects whose closures are being analysed,
// innermost last; it is used to cut off recursion.
type State struct {
	Store   L.Store
	Env     L.Environment
	Scratch L.Scratchpad
	Trace   loc.Trace
	Control L.Control
	Self    loc.Address
	Stack   []loc.Address

	a *analysis
}

var _ cfg.State = State{}

// Join joins the lattice components. The trace, self address and call
// stack are taken from the receiver: two states meeting at a program
// point always share them.
func (s State) Join(o cfg.State) cfg.State {
	return s.join(o.(State))
}

func (s State) join(o State) State {
	s.Store = s.Store.Join(o.Store)
	s.Env = s.Env.Join(o.Env)
	s.Scratch = s.Scratch.Join(o.Scratch)
	s.Control = s.Control.Join(o.Control)
	return s
}

func (s State) Eq(o cfg.State) bool {
	return s.eq(o.(State))
}

func (s State) eq(o State) bool {
	return s.Store.Eq(o.Store) &&
		s.Env.Eq(o.Env) &&
		s.Scratch.Eq(o.Scratch) &&
		s.Control.Eq(o.Control)
}

// OnStack reports whether the closures of the function object at a are
// currently being analysed.
func (s State) OnStack(a loc.Address) bool {
	for _, b := range s.Stack {
		if a == b {
			return true
		}
	}
	return false
}

func (s State) push(a loc.Address) []loc.Address {
	stack := make([]loc.Address, len(s.Stack), len(s.Stack)+1)
	copy(stack, s.Stack)
	return append(stack, a)
}

func (s State) String() string {
	frames := make([]string, len(s.Stack))
	for j, a := range s.Stack {
		frames[j] = a.String()
	}

	return i.Indenter().Start(colorize.State("state") + " {").NestStrings(
		fmt.Sprintf("%s %s", colorize.Key("trace:"), s.Trace),
		fmt.Sprintf("%s %s", colorize.Key("self:"), s.Self),
		fmt.Sprintf("%s [%s]", colorize.Key("stack:"), strings.Join(frames, ", ")),
		s.Control.String(),
		s.Scratch.String(),
		s.Env.String(),
		s.Store.String(),
	).End("}")
}
