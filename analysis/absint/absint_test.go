package absint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/cfg"
	L "github.com/chai-analysis/chai/analysis/lattice"
	loc "github.com/chai-analysis/chai/analysis/location"
	fixtures "github.com/chai-analysis/chai/testutil"
	"github.com/chai-analysis/chai/utils"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	ids *utils.IDGenerator
	b   *ast.Builder
}

func newFixture() fixture {
	ids := utils.NewIDGenerator(1)
	return fixture{ids, ast.NewBuilder(ids, ast.Destination)}
}

// analyze builds the CFGs of script and runs the analysis with opts.
func (f fixture) analyze(t *testing.T, opts utils.Options, script *ast.Node) (*Result, *cfg.Map, *AnalysisContext) {
	t.Helper()
	cfgs, err := cfg.NewBuilder(f.ids).BuildAll(script)
	if err != nil {
		t.Fatal(err)
	}
	C, err := NewContext(opts, f.ids)
	if err != nil {
		t.Fatal(err)
	}
	C = C.WithLogger(zaptest.NewLogger(t))

	res, err := Analyze(context.Background(), C, script, cfgs)
	if err != nil {
		t.Fatal(err)
	}
	return res, cfgs, C
}

// nodeOf finds the CFG node of stmt.
func nodeOf(t *testing.T, cfgs *cfg.Map, stmt *ast.Node) *cfg.Node {
	t.Helper()
	for _, g := range cfgs.All() {
		for _, n := range g.Nodes {
			if n.Statement == stmt {
				return n
			}
		}
	}
	t.Fatalf("no CFG node for %s", stmt.Source())
	return nil
}

func before(t *testing.T, cfgs *cfg.Map, stmt *ast.Node) State {
	t.Helper()
	st, ok := nodeOf(t, cfgs, stmt).Before().(State)
	if !ok {
		t.Fatalf("%s was never reached", stmt.Source())
	}
	return st
}

func variable(t *testing.T, s State, name string) (L.Variable, L.BValue) {
	t.Helper()
	v, found := s.Env.Lookup(name)
	if !found {
		t.Fatalf("%s is not bound in\n%v", name, s.Env)
	}
	return v, s.Store.ApplyAll(v.Addrs)
}

func exactly(t *testing.T, v L.BValue, want float64) {
	t.Helper()
	if x, ok := exactNum(v); !ok || x != want {
		t.Errorf("expected exactly %v, got %v", want, v)
	}
}

func TestChangedConditionAffectsBranch(t *testing.T) {
	f := newFixture()
	b := f.b

	decl := b.Var("x", b.Num("1"))
	b.Change = ast.Updated
	cond := b.Infix(ast.OpGt, b.Name("x"), b.Num("0"))
	b.Change = ast.Unchanged
	then := b.ExprStmt(b.Assign(b.Name("y"), b.Num("2")))
	after := b.ExprStmt(b.Assign(b.Name("z"), b.Num("3")))
	script := b.Script(decl, b.If(cond, []*ast.Node{then}, nil), after)

	_, cfgs, _ := f.analyze(t, utils.DefaultOptions(), script)

	if c := before(t, cfgs, then).Control; !c.Affected() || !c.DependsOn(cond.ID) {
		t.Errorf("then-branch should depend on the changed condition: %v", c)
	}
	if c := before(t, cfgs, after).Control; c.Affected() {
		t.Errorf("merge point should not be affected: %v", c)
	}
	if c := before(t, cfgs, decl).Control; c.Affected() {
		t.Errorf("first statement should not be affected: %v", c)
	}
}

func TestInsertedDeclaration(t *testing.T) {
	f := newFixture()
	b := f.b

	obj := b.Var("x", b.Object(b.Prop("foo", b.Num("1"))))
	b.Change = ast.Inserted
	decl := b.Var("y", b.Get(b.Name("x"), "foo"))
	b.Change = ast.Unchanged
	use := b.ExprStmt(b.Name("y"))
	script := b.Script(obj, decl, use)

	_, cfgs, _ := f.analyze(t, utils.DefaultOptions(), script)

	st := before(t, cfgs, use)
	y, val := variable(t, st, "y")
	if y.Change != L.InsertedOrRemoved {
		t.Errorf("binding of y should be inserted, got %v", y.Change)
	}
	if val.Change != L.InsertedOrRemoved || val.Num.Change != L.InsertedOrRemoved {
		t.Errorf("value of y should be inserted, got %v", val.Verbose())
	}
	if val.Dependent != L.InsertedOrRemoved {
		t.Errorf("value of y is read through an inserted access, got %v", val.Verbose())
	}
	exactly(t, val, 1)

	x, xv := variable(t, st, "x")
	if x.Change.Changed() || xv.IsChanged() {
		t.Errorf("x should be unchanged, got %v %v", x, xv.Verbose())
	}
}

func TestRenameKeepsValue(t *testing.T) {
	f := newFixture()
	b := f.b

	init := b.Init("b", b.Num("1"))
	init.Left.Change = ast.Updated
	use := b.ExprStmt(b.Name("b"))
	script := b.Script(b.Vars(init), use)

	_, cfgs, _ := f.analyze(t, utils.DefaultOptions(), script)

	v, val := variable(t, before(t, cfgs, use), "b")
	if !v.Change.Changed() {
		t.Errorf("renamed binding should be changed, got %v", v.Change)
	}
	if val.IsChanged() {
		t.Errorf("value of a renamed variable should be unchanged, got %v", val.Verbose())
	}
	exactly(t, val, 1)
}

func TestUnresolvedCall(t *testing.T) {
	f := newFixture()
	b := f.b

	decl := b.Var("r", b.Call(b.Name("foo"), b.Num("1")))
	use := b.ExprStmt(b.Name("r"))
	script := b.Script(decl, use)

	opts := utils.DefaultOptions()
	opts.Metrics = true
	_, cfgs, C := f.analyze(t, opts, script)

	_, r := variable(t, before(t, cfgs, use), "r")
	if !r.IsTop() {
		t.Errorf("result of an unknown call should be ⊤, got %v", r.Verbose())
	}
	if r.Num.Change != L.ChangeBot || r.Addrs.Change != L.ChangeBot {
		t.Errorf("result of an unknown call carries no change information, got %v", r.Verbose())
	}
	if got := testutil.ToFloat64(C.Metrics.unresolved); got != 1 {
		t.Errorf("expected 1 unresolved call, got %v", got)
	}
}

func TestCallWithoutChanges(t *testing.T) {
	f := newFixture()
	b := f.b

	fn := b.Function("f", []string{"a"},
		b.Return(b.Infix(ast.OpAdd, b.Name("a"), b.Num("1"))))
	decl := b.Var("r", b.Call(b.Name("f"), b.Num("2")))
	script := b.Script(fn, decl)

	opts := utils.DefaultOptions()
	opts.Metrics = true
	res, _, C := f.analyze(t, opts, script)

	if !res.Returns || res.Aborted || len(res.Exhausted) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	_, r := variable(t, res.Exit, "r")
	exactly(t, r, 3)

	res.Exit.Store.ForEach(func(a loc.Address, v L.BValue) {
		if v.IsChanged() {
			t.Errorf("%v holds changed value %v without a diff", a, v.Verbose())
		}
	})
	res.Exit.Env.ForEach(func(v L.Variable) {
		if v.Change.Changed() {
			t.Errorf("binding %s is changed without a diff", v.Name)
		}
	})
	if res.Exit.Control.Affected() {
		t.Error("control should not be affected without a diff")
	}

	if got := testutil.ToFloat64(C.Metrics.runs.WithLabelValues(runCall)); got != 1 {
		t.Errorf("expected one call run, got %v", got)
	}
	if got := testutil.ToFloat64(C.Metrics.steps); got != float64(res.Steps) {
		t.Errorf("steps metric %v does not match result %d", got, res.Steps)
	}
}

func TestChangedCallRaisesResult(t *testing.T) {
	f := newFixture()
	b := f.b

	fn := b.Function("f", nil, b.Return(b.Num("1")))
	b.Change = ast.Inserted
	call := b.Call(b.Name("f"))
	b.Change = ast.Unchanged
	decl := b.Var("r", call)
	ret := fn.Body[0]
	script := b.Script(fn, decl)

	res, cfgs, _ := f.analyze(t, utils.DefaultOptions(), script)

	_, r := variable(t, res.Exit, "r")
	if !r.IsChanged() {
		t.Errorf("result of an inserted call should be changed, got %v", r.Verbose())
	}
	if c := before(t, cfgs, ret).Control; !c.Affected() || c.Call != L.InsertedOrRemoved {
		t.Errorf("callee of an inserted call should be affected, got %v", c)
	}
}

func TestConstructor(t *testing.T) {
	f := newFixture()
	b := f.b

	ctor := b.Function("P", []string{"v"},
		b.ExprStmt(b.Assign(b.Get(b.This(), "v"), b.Name("v"))))
	script := b.Script(ctor,
		b.Var("p", b.New(b.Name("P"), b.Num("7"))),
		b.Var("w", b.Get(b.Name("p"), "v")))

	res, _, _ := f.analyze(t, utils.DefaultOptions(), script)

	_, w := variable(t, res.Exit, "w")
	exactly(t, w, 7)

	_, p := variable(t, res.Exit, "p")
	a, ok := p.Addrs.Single()
	if !ok {
		t.Fatalf("p should refer to one object, got %v", p)
	}
	o, found := res.Exit.Store.Object(a)
	if !found {
		t.Fatalf("no object at %v", a)
	}
	if o.Proto.Site != ctor.ID || o.Proto.Prop != "prototype" {
		t.Errorf("object should inherit from P.prototype, got %v", o.Proto)
	}
}

func TestLoopTerminates(t *testing.T) {
	f := newFixture()
	b := f.b

	loop := b.While(b.Infix(ast.OpLt, b.Name("i"), b.Num("10")),
		b.ExprStmt(b.Assign(b.Name("i"), b.Infix(ast.OpAdd, b.Name("i"), b.Num("1")))))
	script := b.Script(b.Var("i", b.Num("0")), loop)

	res, _, _ := f.analyze(t, utils.DefaultOptions(), script)

	if !res.Returns || len(res.Exhausted) != 0 {
		t.Fatalf("loop did not converge: %+v", res)
	}
	_, i := variable(t, res.Exit, "i")
	if _, exact := exactNum(i); exact || i.Num.IsBot() {
		t.Errorf("i should be an unknown number, got %v", i)
	}
}

func TestRecursionTerminates(t *testing.T) {
	f := newFixture()
	b := f.b

	fn := b.Function("f", []string{"n"},
		b.If(b.Name("n"),
			[]*ast.Node{b.Return(b.Call(b.Name("f"), b.Infix(ast.OpSub, b.Name("n"), b.Num("1"))))},
			[]*ast.Node{b.Return(b.Num("0"))}))
	script := b.Script(fn, b.Var("r", b.Call(b.Name("f"), b.Num("3"))))

	res, _, _ := f.analyze(t, utils.DefaultOptions(), script)
	if !res.Returns {
		t.Fatal("script should return")
	}
	_, r := variable(t, res.Exit, "r")
	if r.Num.IsBot() {
		t.Errorf("r should include the base case, got %v", r)
	}
}

func TestRefinement(t *testing.T) {
	f := newFixture()
	b := f.b

	then := b.ExprStmt(b.Name("x"))
	els := b.ExprStmt(b.Name("x"))
	script := b.Script(
		b.Var("x", b.Call(b.Name("unknown"))),
		b.If(b.Name("x"), []*ast.Node{then}, []*ast.Node{els}))

	_, cfgs, _ := f.analyze(t, utils.DefaultOptions(), script)

	_, tv := variable(t, before(t, cfgs, then), "x")
	if tv.IsUndefined() || tv.IsNull() || tv.IsFalse() || tv.IsZero() || tv.IsBlank() {
		t.Errorf("x should be truthy in the then-branch, got %v", tv)
	}
	_, ev := variable(t, before(t, cfgs, els), "x")
	if !ev.IsUndefined() || ev.Num.MaybeNonZero() || ev.Bool.MaybeTrue() || ev.IsAddress() {
		t.Errorf("x should be falsy in the else-branch, got %v", ev)
	}
}

func TestRefineEquality(t *testing.T) {
	for _, test := range []struct {
		name       string
		op         ast.Operator
		lit        func(*ast.Builder) *ast.Node
		undef, nul bool
	}{
		{"loose null", ast.OpEq, (*ast.Builder).Null, true, true},
		{"strict null", ast.OpSheq, (*ast.Builder).Null, false, true},
		{"strict undefined", ast.OpSheq, (*ast.Builder).Undefined, true, false},
	} {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture()
			b := f.b

			then := b.ExprStmt(b.Name("x"))
			script := b.Script(
				b.Var("x", b.Call(b.Name("unknown"))),
				b.If(b.Infix(test.op, b.Name("x"), test.lit(b)), []*ast.Node{then}, nil))

			_, cfgs, _ := f.analyze(t, utils.DefaultOptions(), script)

			_, v := variable(t, before(t, cfgs, then), "x")
			if v.IsUndefined() != test.undef || v.IsNull() != test.nul {
				t.Errorf("expected undefined=%v null=%v, got %v", test.undef, test.nul, v)
			}
			if !v.Num.IsBot() || !v.Str.IsBot() || v.IsAddress() {
				t.Errorf("only null or undefined may remain, got %v", v)
			}
		})
	}
}

func TestCallbacks(t *testing.T) {
	build := func(f fixture) *ast.Node {
		b := f.b
		return b.Script(
			b.Var("called", b.Num("0")),
			b.Function("cb", nil, b.ExprStmt(b.Assign(b.Name("called"), b.Num("1")))),
			b.ExprStmt(b.Call(b.Name("register"), b.Name("cb"))))
	}

	t.Run("analysed", func(t *testing.T) {
		f := newFixture()
		res, _, _ := f.analyze(t, utils.DefaultOptions(), build(f))
		_, v := variable(t, res.Exit, "called")
		if _, exact := exactNum(v); exact {
			t.Errorf("callback effects should reach the caller, got %v", v)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		f := newFixture()
		opts := utils.DefaultOptions()
		opts.NoCallbacks = true
		res, _, _ := f.analyze(t, opts, build(f))
		_, v := variable(t, res.Exit, "called")
		exactly(t, v, 0)
	})
}

func TestReachableFunctions(t *testing.T) {
	build := func(f fixture) (*ast.Node, *ast.Node) {
		b := f.b
		body := b.ExprStmt(b.Assign(b.Name("g"), b.Num("5")))
		return b.Script(b.Var("g", b.Num("0")), b.Function("h", nil, body)), body
	}

	for _, test := range []struct {
		depth    int
		analysed bool
	}{
		{0, false},
		{1, true},
	} {
		f := newFixture()
		script, body := build(f)
		opts := utils.DefaultOptions()
		opts.ReachableDepth = test.depth
		_, cfgs, _ := f.analyze(t, opts, script)

		if got := nodeOf(t, cfgs, body).Before() != nil; got != test.analysed {
			t.Errorf("depth %d: expected analysed=%v, got %v", test.depth, test.analysed, got)
		}
	}
}

func TestTraceStrategies(t *testing.T) {
	for _, trace := range []string{utils.TraceFSCI, utils.TraceStackCFA} {
		t.Run(trace, func(t *testing.T) {
			f := newFixture()
			b := f.b
			fn := b.Function("id", []string{"a"}, b.Return(b.Name("a")))
			script := b.Script(fn,
				b.Var("x", b.Call(b.Name("id"), b.Num("1"))),
				b.Var("y", b.Call(b.Name("id"), b.Str("s"))))

			opts := utils.DefaultOptions()
			opts.Trace = trace
			res, _, _ := f.analyze(t, opts, script)

			_, x := variable(t, res.Exit, "x")
			if x.Num.IsBot() {
				t.Errorf("x should be a number, got %v", x)
			}
			if trace == utils.TraceStackCFA {
				exactly(t, x, 1)
			}
		})
	}
}

func TestCancelled(t *testing.T) {
	f := newFixture()
	b := f.b
	script := b.Script(b.Var("x", b.Num("1")))
	cfgs, err := cfg.NewBuilder(f.ids).BuildAll(script)
	if err != nil {
		t.Fatal(err)
	}
	opts := utils.DefaultOptions()
	opts.Metrics = true
	C, err := NewContext(opts, f.ids)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Analyze(ctx, C, script, cfgs)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
	if res == nil || !res.Aborted || res.Returns {
		t.Fatalf("expected an aborted partial result, got %+v", res)
	}
	if got := testutil.ToFloat64(C.Metrics.aborts.WithLabelValues(abortDeadline)); got != 1 {
		t.Errorf("expected one deadline abort, got %v", got)
	}
}

func TestTimeBudgetExpires(t *testing.T) {
	ids := utils.NewIDGenerator(1)
	script := fixtures.MutualRecursion(ids).Destination
	cfgs, err := cfg.NewBuilder(ids).BuildAll(script)
	if err != nil {
		t.Fatal(err)
	}
	opts := utils.DefaultOptions()
	opts.K, opts.H = 3, 3
	opts.TimeBudget = time.Microsecond
	opts.Metrics = true
	C, err := NewContext(opts, ids)
	if err != nil {
		t.Fatal(err)
	}

	res, err := Analyze(context.Background(), C, script, cfgs)
	if err != nil {
		t.Fatalf("an expired budget should not be an error, got %v", err)
	}
	if res == nil || !res.Aborted {
		t.Fatalf("expected an aborted partial result, got %+v", res)
	}
	if got := testutil.ToFloat64(C.Metrics.aborts.WithLabelValues(abortDeadline)); got != 1 {
		t.Errorf("expected one deadline abort, got %v", got)
	}
}

func TestStepBudget(t *testing.T) {
	f := newFixture()
	b := f.b
	script := b.Script(
		b.Var("a", b.Num("1")),
		b.Var("b", b.Num("2")),
		b.Var("c", b.Num("3")),
		b.Var("d", b.Num("4")))

	opts := utils.DefaultOptions()
	opts.StepBudget = 2
	res, cfgs, _ := f.analyze(t, opts, script)

	g, _ := cfgs.Get(script.ID)
	if len(res.Exhausted) != 1 || res.Exhausted[0] != g {
		t.Errorf("script CFG should be exhausted, got %v", res.Exhausted)
	}
	if res.Returns || res.Steps != 2 {
		t.Errorf("expected 2 steps without reaching the exit, got %+v", res)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	f := newFixture()
	b := f.b
	C, err := NewContext(utils.DefaultOptions(), f.ids)
	if err != nil {
		t.Fatal(err)
	}

	fn := b.Function("f", nil)
	if _, err := Analyze(context.Background(), C, fn, cfg.NewMap()); !errors.Is(err, ast.ErrWrongKind) {
		t.Errorf("expected a kind error, got %v", err)
	}

	script := b.Script(b.Var("x", nil))
	_, err = Analyze(context.Background(), C, script, cfg.NewMap())
	var cerr *CFGError
	if !errors.As(err, &cerr) || cerr.Function != script.ID || !errors.Is(err, ErrNoCFG) {
		t.Errorf("expected a missing CFG error, got %v", err)
	}

	// The CFG of a nested function is missing.
	inner := b.Function("g", nil)
	script = b.Script(inner, b.ExprStmt(b.Call(b.Name("g"))))
	g, err := cfg.NewBuilder(f.ids).Build(script)
	if err != nil {
		t.Fatal(err)
	}
	cfgs := cfg.NewMap()
	cfgs.Add(g)
	if _, err := Analyze(context.Background(), C, script, cfgs); !errors.Is(err, ErrNoCFG) {
		t.Errorf("expected a missing CFG error, got %v", err)
	}
}

func TestNewContext(t *testing.T) {
	opts := utils.DefaultOptions()
	opts.K, opts.H = 1, 2
	if _, err := NewContext(opts, nil); !errors.Is(err, loc.ErrInvalidContext) {
		t.Errorf("expected a context error, got %v", err)
	}

	opts = utils.DefaultOptions()
	opts.Trace = "nope"
	if _, err := NewContext(opts, nil); !errors.Is(err, utils.ErrInvalidOption) {
		t.Errorf("expected an option error, got %v", err)
	}

	C, err := NewContext(utils.DefaultOptions(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if C.IDs == nil || C.Metrics.Enabled() || !C.AnalyzeCallbacks {
		t.Errorf("unexpected defaults %+v", C)
	}
}
