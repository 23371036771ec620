package ast

// Descent decides how Walk continues below a visited node.
type Descent int

const (
	// Visit all children.
	DescendAll Descent = iota
	// Do not visit any children.
	SkipChildren
	// Only visit the condition of a branch or loop.
	ConditionOnly
	// Abort the whole walk.
	Stop
)

// Walk visits root and its descendants in pre-order. For every visited
// node, decide chooses how to continue. It reports false if the walk
// was stopped.
func Walk(root *Node, decide func(*Node) Descent) bool {
	if root == nil {
		return true
	}

	switch decide(root) {
	case Stop:
		return false
	case SkipChildren:
		return true
	case ConditionOnly:
		return Walk(root.Cond, decide)
	}

	for _, c := range root.Children() {
		if !Walk(c, decide) {
			return false
		}
	}
	return true
}

// BodyBoundary wraps a visit function into the common decision for
// statement-local walks: nested function bodies are not entered and
// branches and loops contribute only their conditions. root itself is
// always entered.
func BodyBoundary(root *Node, visit func(*Node) bool) func(*Node) Descent {
	return func(n *Node) Descent {
		if !visit(n) {
			return Stop
		}
		if n == root {
			return DescendAll
		}
		switch n.Kind {
		case Function:
			return SkipChildren
		case If, While, DoLoop, For:
			return ConditionOnly
		}
		return DescendAll
	}
}

// Collect returns the nodes of the given kinds that are reachable from
// root within its body boundary.
func Collect(root *Node, kinds ...Kind) (res []*Node) {
	Walk(root, BodyBoundary(root, func(n *Node) bool {
		for _, k := range kinds {
			if n.Kind == k {
				res = append(res, n)
				break
			}
		}
		return true
	}))
	return
}

// FunctionBody returns the statements of a Script or Function.
func FunctionBody(fn *Node) ([]*Node, error) {
	if err := Expect("FunctionBody", fn, Script, Function); err != nil {
		return nil, err
	}
	return fn.Body, nil
}

// Params returns the parameter names of a Function. Scripts have none.
func Params(fn *Node) ([]string, error) {
	if err := Expect("Params", fn, Script, Function); err != nil {
		return nil, err
	}
	var res []string
	for _, p := range fn.List {
		if p.Kind == Name {
			res = append(res, p.Name)
		}
	}
	return res, nil
}

// VarDeclarations returns the variable initializers hoisted to the scope
// of fn: every `var` in its body, including those nested in blocks and
// loops, but not those of nested functions.
func VarDeclarations(fn *Node) ([]*Node, error) {
	if err := Expect("VarDeclarations", fn, Script, Function); err != nil {
		return nil, err
	}

	var res []*Node
	for _, stmt := range fn.Body {
		Walk(stmt, func(n *Node) Descent {
			switch n.Kind {
			case Function:
				return SkipChildren
			case VariableInitializer:
				if n.Left != nil && n.Left.Kind == Name {
					res = append(res, n)
				}
				return SkipChildren
			}
			return DescendAll
		})
	}
	return res, nil
}

// FunctionDeclarations returns the named functions declared in the
// statement lists of fn, including nested blocks, excluding those of
// nested functions and function expressions.
func FunctionDeclarations(fn *Node) ([]*Node, error) {
	if err := Expect("FunctionDeclarations", fn, Script, Function); err != nil {
		return nil, err
	}

	var res []*Node
	var stmts func([]*Node)
	stmts = func(list []*Node) {
		for _, s := range list {
			switch s.Kind {
			case Function:
				if s.Name != "" {
					res = append(res, s)
				}
			case Block, If, While, DoLoop, For:
				stmts(s.Body)
				stmts(s.Else)
			}
		}
	}
	stmts(fn.Body)
	return res, nil
}

// Functions returns every Function node below root, in pre-order.
func Functions(root *Node) (res []*Node) {
	Walk(root, func(n *Node) Descent {
		if n.Kind == Function {
			res = append(res, n)
		}
		return DescendAll
	})
	return
}
