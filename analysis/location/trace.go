package location

import (
	"errors"
	"fmt"
	"strings"
)

// CallSite describes a call step: the call expression's identifier and
// the addresses of the receiver and the arguments object.
type CallSite struct {
	ID   int
	Self Address
	Args Address
}

// Trace turns program points and call contexts into addresses.
// Traces are values: every step returns a new trace.
type Trace interface {
	// Update performs an intra-procedural step to program point pp.
	Update(pp int) Trace
	// Call performs the step into a callee at the given call site.
	Call(site CallSite) Trace
	// ToAddress returns the address of property prop allocated at the
	// current program point.
	ToAddress(prop string) Address
	// MakeAddress returns the address of site (and property prop) in
	// the current context.
	MakeAddress(site int, prop string) Address
	// Context identifies the calling context, for keying callee summaries.
	Context() uint32
	String() string
}

var ErrInvalidContext = errors.New("invalid context sensitivity")

// ContextError reports an impossible context-sensitivity configuration.
type ContextError struct {
	K, H int
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("stack-cfa(k=%d, h=%d): heap sensitivity must be between 0 and k", e.K, e.H)
}

func (e *ContextError) Unwrap() error { return ErrInvalidContext }

// FSCI is the flow-sensitive, context-insensitive trace. Addresses
// depend on the current program point; a call step collapses the
// context to the call site.
type FSCI struct {
	pp int
}

func NewFSCI(pp int) FSCI {
	return FSCI{pp}
}

func (t FSCI) Update(pp int) Trace { return FSCI{pp} }

func (t FSCI) Call(site CallSite) Trace { return FSCI{site.ID} }

func (t FSCI) ToAddress(prop string) Address {
	return Address{Site: t.pp, Prop: prop}
}

func (t FSCI) MakeAddress(site int, prop string) Address {
	return Address{Site: site, Prop: prop}
}

func (t FSCI) Context() uint32 { return 0 }

func (t FSCI) String() string {
	return fmt.Sprintf("fsci(%s)", colorize.Site(t.pp))
}

// StackCFA keeps the last k call sites. Heap addresses only use the
// last h of them, which bounds the number of distinct addresses a
// finite program can generate.
type StackCFA struct {
	k, h  int
	pp    int
	calls []int
}

// NewStackCFA creates a call-string trace at program point pp.
func NewStackCFA(k, h, pp int) (StackCFA, error) {
	if k < 0 || h < 0 || h > k {
		return StackCFA{}, &ContextError{K: k, H: h}
	}
	return StackCFA{k: k, h: h, pp: pp}, nil
}

func (t StackCFA) Update(pp int) Trace {
	t.pp = pp
	return t
}

func (t StackCFA) Call(site CallSite) Trace {
	calls := append(append([]int(nil), t.calls...), site.ID)
	if len(calls) > t.k {
		calls = calls[len(calls)-t.k:]
	}
	return StackCFA{k: t.k, h: t.h, pp: site.ID, calls: calls}
}

func (t StackCFA) heapContext() uint32 {
	frames := t.calls
	if len(frames) > t.h {
		frames = frames[len(frames)-t.h:]
	}
	return FoldCallString(frames)
}

func (t StackCFA) ToAddress(prop string) Address {
	return Address{Site: t.pp, Context: t.heapContext(), Prop: prop}
}

func (t StackCFA) MakeAddress(site int, prop string) Address {
	return Address{Site: site, Context: t.heapContext(), Prop: prop}
}

func (t StackCFA) Context() uint32 {
	return FoldCallString(t.calls)
}

// Calls returns the retained call string, oldest first.
func (t StackCFA) Calls() []int {
	return append([]int(nil), t.calls...)
}

func (t StackCFA) String() string {
	strs := make([]string, len(t.calls))
	for i, c := range t.calls {
		strs[i] = fmt.Sprint(c)
	}
	return fmt.Sprintf("stack-cfa(%s | %s)",
		colorize.Site(t.pp), colorize.Context(strings.Join(strs, " ")))
}

// FoldCallString folds a call string into a 32-bit context:
//
//	fold([])          = 0
//	fold(cs ++ [c])   = fold(cs) * 16777619 + (c + 1)   (mod 2^32)
//
// Every frame contributes, in order. Collisions only merge contexts,
// which costs precision but never soundness.
func FoldCallString(frames []int) uint32 {
	var h uint32
	for _, f := range frames {
		h = h*16777619 + uint32(f) + 1
	}
	return h
}

// Strategy selects and parameterizes a trace.
type Strategy struct {
	Name string
	K, H int
}

const (
	StrategyFSCI     = "fsci"
	StrategyStackCFA = "stack-cfa"
)

// New creates the initial trace at program point pp.
func (s Strategy) New(pp int) (Trace, error) {
	switch s.Name {
	case StrategyFSCI:
		return NewFSCI(pp), nil
	case StrategyStackCFA, "":
		return NewStackCFA(s.K, s.H, pp)
	}
	return nil, fmt.Errorf("%w: unknown trace %q", ErrInvalidContext, s.Name)
}
