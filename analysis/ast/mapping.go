package ast

// Tag sets the change classification of root and all its descendants.
func Tag(root *Node, change ChangeType) {
	Walk(root, func(n *Node) Descent {
		n.Change = change
		return DescendAll
	})
}

// Index maps node identifiers to nodes for the tree below root.
func Index(root *Node) map[int]*Node {
	idx := map[int]*Node{}
	Walk(root, func(n *Node) Descent {
		idx[n.ID] = n
		return DescendAll
	})
	return idx
}

// Identical reports whether two trees have the same shape and tokens.
// Identifiers, versions and classifications are ignored.
func Identical(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Name != b.Name || a.Text != b.Text ||
		a.Op != b.Op || a.Keyword != b.Keyword {
		return false
	}

	slots := [][2]*Node{
		{a.Left, b.Left}, {a.Right, b.Right}, {a.Cond, b.Cond},
		{a.Init, b.Init}, {a.Update, b.Update}, {a.Expr, b.Expr},
	}
	for _, s := range slots {
		if !Identical(s[0], s[1]) {
			return false
		}
	}

	lists := [][2][]*Node{{a.List, b.List}, {a.Body, b.Body}, {a.Else, b.Else}}
	for _, l := range lists {
		if len(l[0]) != len(l[1]) {
			return false
		}
		for i := range l[0] {
			if !Identical(l[0][i], l[1][i]) {
				return false
			}
		}
	}
	return true
}

// MapIdentical links two identical trees node by node and classifies
// every node on both sides as Unchanged. It reports false, and leaves
// both trees untouched, when the trees differ.
func MapIdentical(src, dst *Node) bool {
	if !Identical(src, dst) {
		return false
	}

	var pair func(a, b *Node)
	pair = func(a, b *Node) {
		a.Mapping, b.Mapping = b, a
		a.Change, b.Change = Unchanged, Unchanged
		ac, bc := a.Children(), b.Children()
		for i := range ac {
			pair(ac[i], bc[i])
		}
	}
	pair(src, dst)
	return true
}

// Link pairs two nodes across versions and gives both the same
// classification. Differencers use it to record matches.
func Link(src, dst *Node, change ChangeType) {
	src.Mapping, dst.Mapping = dst, src
	src.Change, dst.Change = change, change
}
