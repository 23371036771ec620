package absint

import (
	L "github.com/chai-analysis/chai/analysis/lattice"
	loc "github.com/chai-analysis/chai/analysis/location"
	"github.com/chai-analysis/chai/utils/worklist"
)

// reachable is a value location found while walking the heap from an
// environment, together with the state it was found in.
type reachable struct {
	addr  loc.Address
	state State
	depth int
}

// analyzeReachable analyses the closures reachable from the bindings of
// final that were never invoked. Such closures are entered without a
// call, with unknown arguments. The bindings of the closures analysed
// this way are walked in turn, up to depth levels.
func (a *analysis) analyzeReachable(final State, depth int) {
	var start []reachable
	final.Env.ForEach(func(v L.Variable) {
		if v.Addrs.IsTop() {
			return
		}
		for _, addr := range v.Addrs.Entries() {
			start = append(start, reachable{addr, final, depth})
		}
	})

	seen := map[loc.Address]bool{}
	analysed := map[loc.Address]bool{}

	worklist.StartV(start, func(next reachable, add func(reachable)) {
		if a.aborted || seen[next.addr] {
			return
		}
		seen[next.addr] = true

		s := next.state
		v := s.Store.Apply(next.addr)
		if v.Addrs.IsTop() {
			return
		}

		for _, oa := range v.Addrs.Entries() {
			if oa.IsBuiltin() {
				continue
			}
			o, found := s.Store.Object(oa)
			if !found {
				continue
			}

			for _, p := range o.Properties() {
				if p.Addrs.IsTop() {
					continue
				}
				for _, pa := range p.Addrs.Entries() {
					add(reachable{pa, s, next.depth})
				}
			}

			if !o.IsFunction() || analysed[oa] {
				continue
			}
			analysed[oa] = true

			for _, cl := range o.Closures {
				if cl.IsNative() {
					continue
				}
				g, found := a.cfgs.Get(cl.Code)
				if !found || g.Entry.Before() != nil {
					// Invoked during the fixpoint.
					continue
				}

				from := s
				from.Stack = nil
				site := loc.CallSite{ID: cl.Code, Self: s.Self, Args: loc.Arguments}
				exit, ok := a.enterClosure(from, site, oa, cl, L.NewControl(), runReachable)
				if !ok || next.depth <= 1 {
					continue
				}
				// Locals of the closure, including the closures it returns.
				for _, local := range exit.Env.Frame() {
					if !isLocal(local.Name) || local.Addrs.IsTop() {
						continue
					}
					for _, la := range local.Addrs.Entries() {
						add(reachable{la, exit, next.depth - 1})
					}
				}
			}
		}
	})
}

// isLocal holds for the bindings of a closure frame worth walking. The
// arguments object only holds what the caller passed in.
func isLocal(name string) bool {
	return name != "arguments"
}
