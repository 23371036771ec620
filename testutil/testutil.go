// Package testutil provides paired program versions shared by the tests
// of the analysis packages. Every pair models one kind of commit.
package testutil

import (
	"testing"

	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/cfg"
)

// Pair is the source and destination version of one file, with the
// nodes the two versions share linked to each other.
type Pair struct {
	Name                string
	Source, Destination *ast.Node
}

// Scenarios builds every pair, drawing identifiers from ids.
func Scenarios(ids ast.IDSource) []Pair {
	return []Pair{
		ChangedCondition(ids),
		InsertedDeclaration(ids),
		Rename(ids),
		UnresolvedCall(ids),
	}
}

func builder(ids ast.IDSource, v ast.Version) *ast.Builder {
	b := ast.NewBuilder(ids, v)
	b.Change = ast.Unchanged
	return b
}

// both builds the two versions with the same function. The function
// tells them apart by the version of the builder.
func both(ids ast.IDSource, name string, build func(b *ast.Builder) *ast.Node) Pair {
	p := Pair{
		Name:        name,
		Source:      build(builder(ids, ast.Source)),
		Destination: build(builder(ids, ast.Destination)),
	}
	Link(p.Source, p.Destination)
	return p
}

// at sets the line of the nodes built next.
func at(b *ast.Builder, line int) *ast.Builder {
	b.Line = line
	return b
}

// ChangedCondition negates the condition of a branch:
//
//	var x = input;
//	if (x) {       // if (!x) {
//	  y = 1;
//	}
//	z = 2;
func ChangedCondition(ids ast.IDSource) Pair {
	return both(ids, "changed-condition", func(b *ast.Builder) *ast.Node {
		decl := at(b, 1).Var("x", b.Name("input"))

		at(b, 2).Change = ast.Updated
		cond := b.Name("x")
		if b.Version() == ast.Destination {
			cond = b.Not(cond)
		}
		b.Change = ast.Unchanged

		body := at(b, 3).ExprStmt(b.Assign(b.Name("y"), b.Num("1")))
		branch := at(b, 2).If(cond, []*ast.Node{body}, nil)
		after := at(b, 5).ExprStmt(b.Assign(b.Name("z"), b.Num("2")))
		return at(b, 0).Script(decl, branch, after)
	})
}

// InsertedDeclaration adds a declaration reading a property:
//
//	var x = {foo: 1};
//	                   // var y = x.foo;
//	use(x);
func InsertedDeclaration(ids ast.IDSource) Pair {
	return both(ids, "inserted-declaration", func(b *ast.Builder) *ast.Node {
		body := []*ast.Node{at(b, 1).Var("x", b.Object(b.Prop("foo", b.Num("1"))))}
		if b.Version() == ast.Destination {
			b.Change = ast.Inserted
			body = append(body, at(b, 2).Var("y", b.Get(b.Name("x"), "foo")))
			b.Change = ast.Unchanged
		}
		line := len(body) + 1
		body = append(body, at(b, line).ExprStmt(b.Call(b.Name("use"), b.Name("x"))))
		return at(b, 0).Script(body...)
	})
}

// Rename renames a variable without touching its value:
//
//	var x = 1;   // var z = 1;
//	use(x);      // use(z);
func Rename(ids ast.IDSource) Pair {
	return both(ids, "rename", func(b *ast.Builder) *ast.Node {
		name := "x"
		if b.Version() == ast.Destination {
			name = "z"
		}

		init := at(b, 1).Init(name, b.Num("1"))
		init.Left.Change = ast.Updated

		at(b, 2).Change = ast.Updated
		ref := b.Name(name)
		b.Change = ast.Unchanged
		use := b.ExprStmt(b.Call(b.Name("use"), ref))

		return at(b, 0).Script(at(b, 1).Vars(init), use)
	})
}

// UnresolvedCall calls a function through a parameter whose value is
// unknown, and adds a call in the destination:
//
//	function run(cb) {
//	  var r = cb(1);
//	  return r;
//	}
//	var out = run(input);
//	                       // log(out);
func UnresolvedCall(ids ast.IDSource) Pair {
	return both(ids, "unresolved-call", func(b *ast.Builder) *ast.Node {
		decl := at(b, 2).Var("r", b.Call(b.Name("cb"), b.Num("1")))
		ret := at(b, 3).Return(b.Name("r"))
		run := at(b, 1).Function("run", []string{"cb"}, decl, ret)

		body := []*ast.Node{run, at(b, 5).Var("out", b.Call(b.Name("run"), b.Name("input")))}
		if b.Version() == ast.Destination {
			b.Change = ast.Inserted
			body = append(body, at(b, 6).ExprStmt(b.Call(b.Name("log"), b.Name("out"))))
			b.Change = ast.Unchanged
		}
		return at(b, 0).Script(body...)
	})
}

// MutualRecursion is the same pair of mutually recursive functions in
// both versions, with a counter changed between them:
//
//	function even(n) { if (n) { return odd(n - 1); } return true; }
//	function odd(n) { if (n) { return even(n - 1); } return false; }
//	var r = even(input + 1);   // var r = even(input + 2);
func MutualRecursion(ids ast.IDSource) Pair {
	return both(ids, "mutual-recursion", func(b *ast.Builder) *ast.Node {
		fn := func(line int, name, other string, base *ast.Node) *ast.Node {
			step := b.Infix(ast.OpSub, b.Name("n"), b.Num("1"))
			return at(b, line).Function(name, []string{"n"},
				b.If(b.Name("n"), []*ast.Node{b.Return(b.Call(b.Name(other), step))}, nil),
				b.Return(base))
		}
		even := fn(1, "even", "odd", b.True())
		odd := fn(2, "odd", "even", b.False())

		offset := "1"
		if b.Version() == ast.Destination {
			offset = "2"
		}
		inc := at(b, 3).Num(offset)
		inc.Change = ast.Updated
		call := b.Call(b.Name("even"), b.Infix(ast.OpAdd, b.Name("input"), inc))
		return at(b, 0).Script(even, odd, at(b, 3).Var("r", call))
	})
}

// Link maps the nodes of src and dst to each other, walking both trees
// in parallel. Removed source nodes and inserted destination nodes have
// no counterpart and are skipped; children of differing kinds end the
// walk below them.
func Link(src, dst *ast.Node) {
	src.Mapping, dst.Mapping = dst, src

	sc := kept(src.Children(), ast.Removed)
	dc := kept(dst.Children(), ast.Inserted)
	for i := 0; i < len(sc) && i < len(dc); i++ {
		if sc[i].Kind == dc[i].Kind {
			Link(sc[i], dc[i])
		}
	}
}

func kept(ns []*ast.Node, drop ast.ChangeType) (res []*ast.Node) {
	for _, n := range ns {
		if n.Change != drop {
			res = append(res, n)
		}
	}
	return
}

// CFGs builds the CFGs of a version, failing the test on error.
func CFGs(t testing.TB, ids ast.IDSource, script *ast.Node) *cfg.Map {
	t.Helper()
	cfgs, err := cfg.NewBuilder(ids).BuildAll(script)
	if err != nil {
		t.Fatal(err)
	}
	return cfgs
}
