package jsfront

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chai-analysis/chai/analysis/absint"
	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/engine"
	"github.com/chai-analysis/chai/analysis/extract"
	"github.com/chai-analysis/chai/utils"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, ids ast.IDSource, v ast.Version, src string) *ast.Node {
	t.Helper()
	script, err := Parse(context.Background(), []byte(src), v, ids)
	require.NoError(t, err)
	return script
}

func statements(script *ast.Node) []string {
	res := make([]string, len(script.Body))
	for i, s := range script.Body {
		res[i] = s.Source()
	}
	return res
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			"branch",
			"var x = input;\nif (x) {\n  y = 1;\n}\nz = 2;\n",
			[]string{"var x = input;", "if (x) { y = 1; }", "z = 2;"},
		},
		{
			"function",
			"function run(cb) {\n  var r = cb(1);\n  return r;\n}\nvar out = run(input);\n",
			[]string{"function run(cb) { var r = cb(1); return r; }", "var out = run(input);"},
		},
		{
			"else",
			"if (a) b(); else c();",
			[]string{"if (a) { b(); } else { c(); }"},
		},
		{
			"loops",
			"while (i < 3) { i += 1; }\nfor (var j = 0; j < 3; j++) { s = s + j; }",
			[]string{"while (i < 3) { i += 1; }", "for (var j = 0; j < 3; ++j) { s = s + j; }"},
		},
		{
			"objects",
			"var o = {a: 1, b: 'x'};\no.a = [1, 2];\no['b'] = null;",
			[]string{`var o = {a: 1, b: "x"};`, "o.a = [1, 2];", `o["b"] = null;`},
		},
		{
			"operators",
			"var a = !b && typeof c, d = x ? y : undefined;",
			[]string{"var a = !b && typeof c, d = x ? y : undefined;"},
		},
		{
			"arrow",
			"var f = x => x + 1;\nnew Foo(this);",
			[]string{"var f = function (x) { return x + 1; };", "new Foo(this);"},
		},
		{
			"comments",
			"// leading\nvar x = 1; /* trailing */",
			[]string{"var x = 1;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := parse(t, utils.NewIDGenerator(1), ast.Source, tt.src)
			if diff := cmp.Diff(tt.want, statements(script)); diff != "" {
				t.Errorf("statements differ (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTagsNodes(t *testing.T) {
	ids := utils.NewIDGenerator(1)
	p := NewParser(ids, ast.Destination)
	p.Change = ast.Unchanged
	script, err := p.Parse(context.Background(), []byte("var x = input;\nif (x) {\n  y = 1;\n}\nz = 2;\n"))
	require.NoError(t, err)

	lines := []int{}
	for _, s := range script.Body {
		lines = append(lines, s.Line)
	}
	assert.Equal(t, []int{1, 2, 5}, lines)
	assert.Equal(t, 3, script.Body[1].Body[0].Line)

	seen := map[int]bool{}
	ast.Walk(script, func(n *ast.Node) ast.Descent {
		assert.Equal(t, ast.Destination, n.Version)
		assert.Equal(t, ast.Unchanged, n.Change)
		assert.False(t, seen[n.ID], "identifier %d reused", n.ID)
		seen[n.ID] = true
		for _, c := range n.Children() {
			assert.Same(t, n, c.Parent)
		}
		return ast.DescendAll
	})
}

func TestParseLowersUnsupportedSyntax(t *testing.T) {
	p := NewParser(utils.NewIDGenerator(1), ast.Source)
	script, err := p.Parse(context.Background(), []byte(
		"class A {}\nvar s = `a${b}`;\nfor (k in o) { f(k); }\n"))
	require.NoError(t, err)

	want := []string{
		";",
		"var s = " + Unknown + ";",
		"while (" + Unknown + ") { k = " + Unknown + "; f(k); }",
	}
	if diff := cmp.Diff(want, statements(script)); diff != "" {
		t.Errorf("statements differ (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, p.Unsupported["class_declaration"])
	assert.Equal(t, 1, p.Unsupported["template_string"])
	assert.Equal(t, 1, p.Unsupported["for_in_statement"])
}

func TestParseErrors(t *testing.T) {
	ids := utils.NewIDGenerator(1)

	_, err := Parse(context.Background(), []byte("var = ;"), ast.Source, ids)
	assert.ErrorIs(t, err, ErrSyntax)

	_, err = Parse(context.Background(), []byte{0xff, 0xfe}, ast.Source, ids)
	assert.ErrorIs(t, err, ErrInvalidContent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Parse(ctx, []byte("var x;"), ast.Source, ids)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildCFGs(t *testing.T) {
	ids := utils.NewIDGenerator(1)
	script := parse(t, ids, ast.Source, "function f() { return 1; }\nvar g = function () {};\nf();")
	cfgs, err := BuildCFGs(ids, script)
	require.NoError(t, err)
	assert.Equal(t, 3, cfgs.Len())
}

func TestMatch(t *testing.T) {
	ids := utils.NewIDGenerator(1)
	src := parse(t, ids, ast.Source, "var x = {foo: 1};\nuse(x);\nif (x) { y = 1; }")
	dst := parse(t, ids, ast.Destination, "var x = {foo: 1};\nvar y = x.foo;\nuse(x);\nif (!x) { y = 1; }")
	require.NoError(t, Match(src, dst))

	// Identical statements are mapped to each other.
	for i, j := range map[int]int{0: 0, 1: 2} {
		s, d := src.Body[i], dst.Body[j]
		assert.Same(t, d, s.Mapping)
		assert.Equal(t, ast.Unchanged, s.Change)
		assert.Equal(t, ast.Unchanged, d.Change)
	}

	inserted := dst.Body[1]
	ast.Walk(inserted, func(n *ast.Node) ast.Descent {
		assert.Equal(t, ast.Inserted, n.Change, "%v", n)
		assert.Nil(t, n.Mapping)
		return ast.DescendAll
	})

	sb, db := src.Body[2], dst.Body[3]
	assert.Same(t, db, sb.Mapping)
	assert.Same(t, db.Cond, sb.Cond.Mapping)
	ast.Walk(db.Cond, func(n *ast.Node) ast.Descent {
		assert.Equal(t, ast.Updated, n.Change, "%v", n)
		return ast.DescendAll
	})
	assert.Equal(t, ast.Updated, sb.Cond.Change)
	assert.Same(t, db.Body[0], sb.Body[0].Mapping)
	assert.Equal(t, ast.Unchanged, db.Body[0].Change)

	assert.Error(t, Match(src.Body[0], dst))
}

func TestMatchRename(t *testing.T) {
	ids := utils.NewIDGenerator(1)
	src := parse(t, ids, ast.Source, "var x = 1;\nuse(x);")
	dst := parse(t, ids, ast.Destination, "var z = 1;\nuse(z);")
	require.NoError(t, Match(src, dst))

	sl, dl := src.Body[0].List[0].Left, dst.Body[0].List[0].Left
	assert.Same(t, dl, sl.Mapping)
	assert.Equal(t, ast.Updated, sl.Change)
	assert.Equal(t, ast.Updated, dl.Change)
	assert.Equal(t, ast.Unchanged, dst.Body[0].List[0].Init.Change)

	call := dst.Body[1].Expr
	assert.Equal(t, ast.Unchanged, call.Change)
	assert.Equal(t, ast.Updated, call.List[0].Change)
}

// Parsed and matched sources report the same facts as the hand-built
// trees of the same commit.
func TestAnalyzeParsedPair(t *testing.T) {
	for _, test := range []struct {
		name     string
		src, dst string
	}{
		{"rename", "var x = 1;\nuse(x);\n", "var z = 1;\nuse(z);\n"},
		{"changed-condition",
			"var x = input;\nif (x) {\n  y = 1;\n}\nz = 2;\n",
			"var x = input;\nif (!x) {\n  y = 1;\n}\nz = 2;\n"},
	} {
		t.Run(test.name, func(t *testing.T) {
			ids := utils.NewIDGenerator(1)
			src := parse(t, ids, ast.Source, test.src)
			dst := parse(t, ids, ast.Destination, test.dst)
			require.NoError(t, Match(src, dst))

			pair := engine.FilePair{Name: test.name}
			var err error
			pair.Source, err = engine.NewVersion(ids, src)
			require.NoError(t, err)
			pair.Destination, err = engine.NewVersion(ids, dst)
			require.NoError(t, err)

			C, err := absint.NewContext(utils.DefaultOptions(), ids)
			require.NoError(t, err)
			rep, err := engine.AnalyzePair(context.Background(), C, pair, extract.Factories)
			require.NoError(t, err)

			data, err := os.ReadFile(filepath.Join("..", "extract", "testdata", test.name+".golden"))
			require.NoError(t, err)
			want := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")

			got := make([]string, len(rep.Facts))
			for i, f := range rep.Facts {
				got[i] = f.String()
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("facts differ (-want +got):\n%s", diff)
			}
		})
	}
}
