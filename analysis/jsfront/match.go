package jsfront

import "github.com/chai-analysis/chai/analysis/ast"

// Match is a coarse structural differencer for two versions of a
// script. Statement lists are aligned on their longest common
// subsequence of identical statements. Between two aligned statements,
// statements of the same kind are matched in order and compared
// recursively; the others are classified as removed from the source or
// inserted into the destination. Matched nodes whose tokens differ are
// classified as updated.
//
// Match only serves callers without a real AST differencer: it never
// detects moves, and it prefers matching statements in place to
// reporting them as moved.
func Match(src, dst *ast.Node) error {
	if err := ast.Expect("Match", src, ast.Script); err != nil {
		return err
	}
	if err := ast.Expect("Match", dst, ast.Script); err != nil {
		return err
	}
	ast.Link(src, dst, ast.Unchanged)
	matchLists(src.Body, dst.Body)
	return nil
}

func matchLists(a, b []*ast.Node) {
	n, m := len(a), len(b)
	// lcs[i][j] is the length of the common subsequence of a[i:], b[j:].
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			switch {
			case ast.Identical(a[i], b[j]):
				lcs[i][j] = lcs[i+1][j+1] + 1
			case lcs[i+1][j] >= lcs[i][j+1]:
				lcs[i][j] = lcs[i+1][j]
			default:
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var gapA, gapB []*ast.Node
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case ast.Identical(a[i], b[j]) && lcs[i][j] == lcs[i+1][j+1]+1:
			matchGap(gapA, gapB)
			gapA, gapB = nil, nil
			ast.MapIdentical(a[i], b[j])
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			gapA = append(gapA, a[i])
			i++
		default:
			gapB = append(gapB, b[j])
			j++
		}
	}
	matchGap(append(gapA, a[i:]...), append(gapB, b[j:]...))
}

// matchGap pairs the statements between two aligned ones.
func matchGap(a, b []*ast.Node) {
	k := 0
	for ; k < len(a) && k < len(b) && similar(a[k], b[k]); k++ {
		matchNode(a[k], b[k])
	}
	for _, s := range a[k:] {
		ast.Tag(s, ast.Removed)
	}
	for _, s := range b[k:] {
		ast.Tag(s, ast.Inserted)
	}
}

// similar decides whether two differing statements are versions of
// each other. Function declarations must keep their name.
func similar(a, b *ast.Node) bool {
	if a.Kind != b.Kind {
		return false
	}
	return a.Kind != ast.Function || a.Name == b.Name
}

func matchNode(a, b *ast.Node) {
	switch {
	case a == nil && b == nil:
		return
	case a == nil:
		ast.Tag(b, ast.Inserted)
		return
	case b == nil:
		ast.Tag(a, ast.Removed)
		return
	case ast.MapIdentical(a, b):
		return
	case a.Kind != b.Kind:
		ast.Tag(a, ast.Removed)
		ast.Tag(b, ast.Inserted)
		return
	}

	switch a.Kind {
	case ast.Script, ast.Function, ast.Block:
		ast.Link(a, b, tokens(a, b))
		matchLists(a.List, b.List)
		matchLists(a.Body, b.Body)

	case ast.VariableDeclaration:
		ast.Link(a, b, ast.Unchanged)
		matchLists(a.List, b.List)

	case ast.If:
		ast.Link(a, b, ast.Unchanged)
		matchCond(a.Cond, b.Cond)
		matchLists(a.Body, b.Body)
		matchLists(a.Else, b.Else)

	case ast.While, ast.DoLoop:
		ast.Link(a, b, ast.Unchanged)
		matchCond(a.Cond, b.Cond)
		matchLists(a.Body, b.Body)

	case ast.For:
		ast.Link(a, b, ast.Unchanged)
		matchNode(a.Init, b.Init)
		matchCond(a.Cond, b.Cond)
		matchNode(a.Update, b.Update)
		matchLists(a.Body, b.Body)

	default:
		// Expressions and simple statements: the children are compared
		// slot by slot.
		ast.Link(a, b, tokens(a, b))
		ac, bc := a.Children(), b.Children()
		k := 0
		for ; k < len(ac) && k < len(bc); k++ {
			matchNode(ac[k], bc[k])
		}
		for _, c := range ac[k:] {
			ast.Tag(c, ast.Removed)
		}
		for _, c := range bc[k:] {
			ast.Tag(c, ast.Inserted)
		}
	}
}

// matchCond matches the conditions of two matched statements. A
// condition rewritten into an expression of another kind, such as a
// negation, is an update of the whole condition.
func matchCond(a, b *ast.Node) {
	if a == nil || b == nil || a.Kind == b.Kind {
		matchNode(a, b)
		return
	}
	ast.Tag(a, ast.Updated)
	ast.Tag(b, ast.Updated)
	ast.Link(a, b, ast.Updated)
}

// tokens classifies a matched pair by the tokens of the nodes
// themselves, ignoring their children.
func tokens(a, b *ast.Node) ast.ChangeType {
	if a.Name != b.Name || a.Text != b.Text || a.Op != b.Op || a.Keyword != b.Keyword {
		return ast.Updated
	}
	return ast.Unchanged
}
