package absint

import (
	"context"
	"errors"
	"time"

	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/cfg"
	L "github.com/chai-analysis/chai/analysis/lattice"
	loc "github.com/chai-analysis/chai/analysis/location"
	"github.com/chai-analysis/chai/utils/pq"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result summarizes the analysis of one program version. The states at
// every program point are recorded in the CFGs themselves.
type Result struct {
	Session uuid.UUID
	Version ast.Version
	// State at the end of the script.
	Exit State
	// Whether the end of the script was reached at all.
	Returns bool
	// Set when the watchdog cut the analysis short. The recorded states
	// are those computed until then.
	Aborted bool
	// CFG runs that ran out of worklist steps.
	Exhausted []*cfg.CFG
	Steps     int
	Duration  time.Duration
}

// analysis is the mutable bookkeeping of one Analyze call.
type analysis struct {
	C    *AnalysisContext
	ctx  context.Context
	cfgs *cfg.Map
	log  *zap.Logger

	summaries map[summaryKey]*summary
	exhausted map[*cfg.CFG]bool
	aborted   bool
	steps     int
}

// Analyze runs the abstract interpreter over one program version: the
// script CFG is run to a fixpoint from the initial state, after which
// the closures reachable from the final environment that were never
// invoked are analysed. The states computed for every node and edge
// are recorded in cfgs, replacing any states recorded before.
//
// Kind errors in the input trees are returned; approximations never
// produce errors. When ctx is cancelled, the partial result is
// returned together with the context's error.
func Analyze(ctx context.Context, C *AnalysisContext, script *ast.Node, cfgs *cfg.Map) (res *Result, err error) {
	if err := ast.Expect("Analyze", script, ast.Script); err != nil {
		return nil, err
	}
	g, found := cfgs.Get(script.ID)
	if !found {
		return nil, &CFGError{Function: script.ID}
	}

	parent := ctx
	if C.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, C.TimeBudget)
		defer cancel()
	}

	log := C.logger().Named("fixpoint").With(
		zap.Stringer("session", C.Session),
		zap.Stringer("version", script.Version))

	a := &analysis{
		C:         C,
		ctx:       ctx,
		cfgs:      cfgs,
		log:       log,
		summaries: make(map[summaryKey]*summary),
		exhausted: make(map[*cfg.CFG]bool),
	}

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && (errors.Is(e, ast.ErrWrongKind) || errors.Is(e, ErrNoCFG)) {
				log.Error("analysis failed", zap.Error(e))
				res, err = nil, e
				return
			}
			panic(r)
		}
	}()

	cfgs.Reset()
	start := time.Now()
	log.Debug("analysis started", zap.Int("cfgs", cfgs.Len()))

	entry, err := a.initialState(script)
	if err != nil {
		return nil, err
	}

	exit, returns := a.run(g, entry, runScript)
	if returns && C.ReachableDepth > 0 {
		a.analyzeReachable(exit, C.ReachableDepth)
	}

	duration := time.Since(start)
	C.Metrics.observe(script.Version.String(), duration)

	res = &Result{
		Session:  C.Session,
		Version:  script.Version,
		Exit:     exit,
		Returns:  returns,
		Aborted:  a.aborted,
		Steps:    a.steps,
		Duration: duration,
	}
	for _, g := range cfgs.All() {
		if a.exhausted[g] {
			res.Exhausted = append(res.Exhausted, g)
		}
	}

	log.Debug("analysis finished",
		zap.Int("steps", a.steps),
		zap.Bool("aborted", a.aborted),
		zap.Duration("took", duration))

	return res, parent.Err()
}

// initialState is the state before the first statement of the script:
// the builtins are allocated, the script's declarations are hoisted
// into the global scope and `this` refers to the global object.
func (a *analysis) initialState(script *ast.Node) (State, error) {
	trace, err := a.C.TraceStrategy.New(script.ID)
	if err != nil {
		return State{}, err
	}

	s := State{
		Store:   builtinStore(),
		Env:     builtinEnv(),
		Trace:   trace,
		Control: L.NewControl(),
		Self:    loc.GlobalBinding,
		a:       a,
	}
	s.hoist(script, loc.Arguments)
	return s, nil
}

// run computes the fixpoint of one CFG from the given entry state.
// States are kept in a table local to the run, so that re-entrant runs
// of the same CFG do not interfere, and are published to the CFG by
// join. It returns the join of the states reaching the exits, and false
// if no exit was reached.
func (a *analysis) run(g *cfg.CFG, entry State, kind string) (State, bool) {
	a.C.Metrics.run(kind)

	order := g.ReversePostorder()
	local := map[*cfg.Node]State{g.Entry: entry}
	worklist := pq.Empty(func(x, y *cfg.Node) bool {
		return order[x] < order[y]
	})
	worklist.Add(g.Entry)

	steps := 0
FIXPOINT:
	for !worklist.IsEmpty() {
		select {
		case <-a.ctx.Done():
			if !a.aborted {
				a.aborted = true
				a.C.Metrics.abort(abortDeadline)
				a.log.Warn("watchdog expired", zap.String("cfg", g.Name()), zap.Int("steps", a.steps))
			}
			break FIXPOINT
		default:
		}

		if steps >= a.C.StepBudget {
			a.exhausted[g] = true
			a.C.Metrics.abort(abortSteps)
			a.log.Warn("step budget exhausted", zap.String("cfg", g.Name()), zap.Int("budget", a.C.StepBudget))
			break FIXPOINT
		}
		steps++
		a.steps++
		a.C.Metrics.step()

		n := worklist.GetNext()
		before := local[n]
		after := before.transferNode(n)
		g.Record(n, before, after)

		for _, e := range n.Out {
			out := after.transferEdge(e)
			g.RecordEdge(e, after, out)

			if prev, found := local[e.To]; found {
				joined := prev.join(out)
				if joined.eq(prev) {
					continue
				}
				out = joined
			}
			local[e.To] = out
			worklist.Add(e.To)
		}
	}

	var (
		exit    State
		reached bool
	)
	for _, x := range g.Exits {
		if st, found := local[x]; found {
			if reached {
				exit = exit.join(st)
			} else {
				exit, reached = st, true
			}
		}
	}
	return exit, reached
}
