package ast

import (
	"fmt"
	"strings"
)

// Node is a single syntax tree node. Which slots are populated depends
// on Kind:
//
//	Script               Body
//	Function             Name (optional), List (parameter Names), Body
//	ExpressionStatement  Expr
//	VariableDeclaration  List (VariableInitializers)
//	VariableInitializer  Left (target Name), Init (optional value)
//	Return               Expr (optional)
//	If                   Cond, Body, Else
//	While, DoLoop        Cond, Body
//	For                  Init, Cond, Update (all optional), Body
//	Block                Body
//	Name                 Name
//	Number, String       Text
//	Keyword              Keyword
//	ObjectLiteral        List (ObjectProperties)
//	ObjectProperty       Name (key), Right (value)
//	ArrayLiteral         List (nil entries are holes)
//	Infix                Op, Left, Right
//	Assignment           Op (OpAssign or the compound operator), Left, Right
//	Unary                Op, Expr
//	Call, New            Expr (target), List (arguments)
//	PropertyGet          Left (object), Right (property Name)
//	ElementGet           Left (object), Right (index)
//	Paren                Expr
//	Conditional          Cond, Left (consequent), Right (alternative)
type Node struct {
	ID      int
	Kind    Kind
	Version Version
	Change  ChangeType
	// Matched node in the other version, if any.
	Mapping *Node
	Parent  *Node
	Line    int

	Name    string
	Text    string
	Op      Operator
	Keyword KeywordValue

	Left, Right *Node
	Cond        *Node
	Init        *Node
	Update      *Node
	Expr        *Node

	List []*Node
	Body []*Node
	Else []*Node
}

// Children returns the child nodes in source order.
func (n *Node) Children() []*Node {
	var res []*Node
	add := func(ns ...*Node) {
		for _, c := range ns {
			if c != nil {
				res = append(res, c)
			}
		}
	}

	switch n.Kind {
	case VariableInitializer:
		add(n.Left, n.Init)
	case If:
		add(n.Cond)
		add(n.Body...)
		add(n.Else...)
	case While:
		add(n.Cond)
		add(n.Body...)
	case DoLoop:
		add(n.Body...)
		add(n.Cond)
	case For:
		add(n.Init, n.Cond, n.Update)
		add(n.Body...)
	case Conditional:
		add(n.Cond, n.Left, n.Right)
	case Call, New:
		add(n.Expr)
		add(n.List...)
	case Function:
		add(n.List...)
		add(n.Body...)
	default:
		add(n.Left, n.Right, n.Expr)
		add(n.List...)
		add(n.Body...)
	}
	return res
}

// IsChanged reports whether the differencer classified the node as
// inserted, removed or updated.
func (n *Node) IsChanged() bool {
	switch n.Change {
	case Inserted, Removed, Updated:
		return true
	}
	return false
}

// Function returns the innermost enclosing Function or Script of n,
// or n itself when it is one.
func (n *Node) Function() *Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Kind == Function || cur.Kind == Script {
			return cur
		}
	}
	return nil
}

// Source renders the node as (approximate) JavaScript.
func (n *Node) Source() string {
	if n == nil {
		return ""
	}
	list := func(ns []*Node, sep string) string {
		strs := make([]string, len(ns))
		for i, c := range ns {
			strs[i] = c.Source()
		}
		return strings.Join(strs, sep)
	}
	block := func(ns []*Node) string {
		return "{ " + list(ns, " ") + " }"
	}

	switch n.Kind {
	case Script:
		return list(n.Body, "\n")
	case Function:
		return fmt.Sprintf("function %s(%s) %s", n.Name, list(n.List, ", "), block(n.Body))
	case Empty:
		return ";"
	case ExpressionStatement:
		return n.Expr.Source() + ";"
	case VariableDeclaration:
		return "var " + list(n.List, ", ") + ";"
	case VariableInitializer:
		if n.Init == nil {
			return n.Left.Source()
		}
		return n.Left.Source() + " = " + n.Init.Source()
	case Return:
		if n.Expr == nil {
			return "return;"
		}
		return "return " + n.Expr.Source() + ";"
	case If:
		s := "if (" + n.Cond.Source() + ") " + block(n.Body)
		if len(n.Else) > 0 {
			s += " else " + block(n.Else)
		}
		return s
	case While:
		return "while (" + n.Cond.Source() + ") " + block(n.Body)
	case DoLoop:
		return "do " + block(n.Body) + " while (" + n.Cond.Source() + ");"
	case For:
		return fmt.Sprintf("for (%s; %s; %s) %s",
			strings.TrimSuffix(n.Init.Source(), ";"), n.Cond.Source(), n.Update.Source(), block(n.Body))
	case Break:
		return "break;"
	case Continue:
		return "continue;"
	case Block:
		return block(n.Body)
	case Name:
		return n.Name
	case Number:
		return n.Text
	case String:
		return fmt.Sprintf("%q", n.Text)
	case Keyword:
		return n.Keyword.String()
	case ObjectLiteral:
		return "{" + list(n.List, ", ") + "}"
	case ObjectProperty:
		return n.Name + ": " + n.Right.Source()
	case ArrayLiteral:
		return "[" + list(n.List, ", ") + "]"
	case Infix:
		return n.Left.Source() + " " + n.Op.String() + " " + n.Right.Source()
	case Assignment:
		op := "="
		if n.Op != OpAssign {
			op = n.Op.String() + "="
		}
		return n.Left.Source() + " " + op + " " + n.Right.Source()
	case Unary:
		switch n.Op {
		case OpTypeof, OpVoid, OpDelete:
			return n.Op.String() + " " + n.Expr.Source()
		}
		return n.Op.String() + n.Expr.Source()
	case Call:
		return n.Expr.Source() + "(" + list(n.List, ", ") + ")"
	case New:
		return "new " + n.Expr.Source() + "(" + list(n.List, ", ") + ")"
	case PropertyGet:
		return n.Left.Source() + "." + n.Right.Source()
	case ElementGet:
		return n.Left.Source() + "[" + n.Right.Source() + "]"
	case Paren:
		return "(" + n.Expr.Source() + ")"
	case Conditional:
		return n.Cond.Source() + " ? " + n.Left.Source() + " : " + n.Right.Source()
	}
	return "?"
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	src := n.Source()
	if i := strings.IndexByte(src, '\n'); i >= 0 {
		src = src[:i] + " ..."
	}
	return fmt.Sprintf("%d:%s %s", n.ID, n.Kind, src)
}
