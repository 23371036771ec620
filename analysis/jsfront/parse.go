// Package jsfront turns JavaScript sources into the syntax trees and
// CFGs the analysis runs on. Parsing is done by tree-sitter; syntax
// the analysis has no model for is lowered to empty statements or to
// expressions of unknown value.
package jsfront

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/cfg"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"go.uber.org/zap"
)

var (
	ErrSyntax         = errors.New("syntax error")
	ErrInvalidContent = errors.New("source is not valid UTF-8")
)

// Unknown names the free variable unsupported expressions are lowered
// to. It is never bound, so reading it yields an unknown value.
const Unknown = "~unknown~"

// Parser converts tree-sitter syntax trees into trees of one version.
type Parser struct {
	ids     ast.IDSource
	version ast.Version

	// Classification given to every node. Differencers refine it
	// after parsing.
	Change ast.ChangeType
	Logger *zap.Logger

	// Syntax node types lowered because they are not modelled, with
	// the number of occurrences in the last parsed source.
	Unsupported map[string]int

	src []byte
	b   *ast.Builder
}

func NewParser(ids ast.IDSource, version ast.Version) *Parser {
	return &Parser{
		ids:     ids,
		version: version,
		Logger:  zap.NewNop(),
	}
}

// Parse parses src as the given version of a script.
func Parse(ctx context.Context, src []byte, version ast.Version, ids ast.IDSource) (*ast.Node, error) {
	return NewParser(ids, version).Parse(ctx, src)
}

// BuildCFGs builds the CFG of the script and of every function in it.
func BuildCFGs(ids ast.IDSource, script *ast.Node) (*cfg.Map, error) {
	return cfg.NewBuilder(ids).BuildAll(script)
}

func (p *Parser) Parse(ctx context.Context, src []byte) (*ast.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}
	if !utf8.Valid(src) {
		return nil, ErrInvalidContent
	}

	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root)
	}

	p.src = src
	p.b = ast.NewBuilder(p.ids, p.version)
	p.b.Change = p.Change
	p.Unsupported = map[string]int{}
	defer func() { p.src = nil }()

	body := p.statements(root)
	p.at(root)
	script := p.b.Script(body...)

	if len(p.Unsupported) > 0 {
		p.Logger.Debug("lowered unsupported syntax",
			zap.Stringer("version", p.version),
			zap.Any("types", p.Unsupported))
	}
	return script, nil
}

// syntaxError locates the first erroneous node below n.
func syntaxError(n *sitter.Node) error {
	var first *sitter.Node
	var find func(*sitter.Node)
	find = func(n *sitter.Node) {
		if first != nil || !n.HasError() {
			return
		}
		if n.IsError() || n.IsMissing() {
			first = n
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			find(n.Child(i))
		}
	}
	find(n)
	if first == nil {
		return ErrSyntax
	}
	pt := first.StartPoint()
	return fmt.Errorf("%w at line %d, column %d", ErrSyntax, pt.Row+1, pt.Column+1)
}

// at makes the builder tag the next nodes with the line of n.
func (p *Parser) at(n *sitter.Node) *ast.Builder {
	p.b.Line = int(n.StartPoint().Row) + 1
	return p.b
}

func (p *Parser) text(n *sitter.Node) string {
	return n.Content(p.src)
}

func (p *Parser) unsupported(n *sitter.Node) {
	p.Unsupported[n.Type()]++
}

// named returns the named children of n, comments excluded.
func named(n *sitter.Node) []*sitter.Node {
	var res []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() != "comment" {
			res = append(res, c)
		}
	}
	return res
}

func (p *Parser) statements(n *sitter.Node) []*ast.Node {
	var res []*ast.Node
	for _, c := range named(n) {
		if s := p.statement(c); s != nil {
			res = append(res, s)
		}
	}
	return res
}

// body lowers the statement of a branch or loop to a statement list.
func (p *Parser) body(n *sitter.Node) []*ast.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "statement_block" {
		return p.statements(n)
	}
	if s := p.statement(n); s != nil {
		return []*ast.Node{s}
	}
	return nil
}

func (p *Parser) statement(n *sitter.Node) *ast.Node {
	switch n.Type() {
	case "hash_bang_line":
		return nil

	case "expression_statement":
		children := named(n)
		if len(children) == 0 {
			return p.at(n).Empty()
		}
		e := p.expression(children[0])
		return p.at(n).ExprStmt(e)

	case "variable_declaration", "lexical_declaration":
		return p.declaration(n)

	case "function_declaration", "generator_function_declaration":
		return p.function(n)

	case "return_statement":
		var e *ast.Node
		if children := named(n); len(children) > 0 {
			e = p.expression(children[0])
		}
		return p.at(n).Return(e)

	case "if_statement":
		cond := p.condition(n.ChildByFieldName("condition"))
		then := p.body(n.ChildByFieldName("consequence"))
		var els []*ast.Node
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			// else_clause wraps the statement.
			if children := named(alt); len(children) > 0 {
				els = p.body(children[0])
			}
		}
		return p.at(n).If(cond, then, els)

	case "while_statement":
		cond := p.condition(n.ChildByFieldName("condition"))
		body := p.body(n.ChildByFieldName("body"))
		return p.at(n).While(cond, body...)

	case "do_statement":
		body := p.body(n.ChildByFieldName("body"))
		cond := p.condition(n.ChildByFieldName("condition"))
		return p.at(n).Do(cond, body...)

	case "for_statement":
		return p.forLoop(n)

	case "for_in_statement":
		// The iterated keys or values are unknown.
		p.unsupported(n)
		left := n.ChildByFieldName("left")
		body := p.body(n.ChildByFieldName("body"))
		if left != nil {
			if target := p.forTarget(n, left); target != nil {
				body = append([]*ast.Node{target}, body...)
			}
		}
		return p.at(n).While(p.unknown(n), body...)

	case "break_statement":
		return p.at(n).Break()

	case "continue_statement":
		return p.at(n).Continue()

	case "statement_block":
		body := p.statements(n)
		return p.at(n).Block(body...)

	case "empty_statement":
		return p.at(n).Empty()

	case "try_statement":
		// Exceptions are not modelled: the protected block and the
		// finalizer run in sequence.
		p.unsupported(n)
		body := p.body(n.ChildByFieldName("body"))
		if fin := n.ChildByFieldName("finalizer"); fin != nil {
			body = append(body, p.body(fin.ChildByFieldName("body"))...)
		}
		return p.at(n).Block(body...)

	case "labeled_statement":
		p.unsupported(n)
		return p.statement(n.ChildByFieldName("body"))
	}

	p.unsupported(n)
	return p.at(n).Empty()
}

// condition unwraps the parentheses required around conditions.
func (p *Parser) condition(n *sitter.Node) *ast.Node {
	if n == nil {
		return p.b.True()
	}
	if n.Type() == "parenthesized_expression" {
		if children := named(n); len(children) == 1 {
			return p.expression(children[0])
		}
	}
	return p.expression(n)
}

func (p *Parser) forLoop(n *sitter.Node) *ast.Node {
	var init, cond, update *ast.Node
	if c := n.ChildByFieldName("initializer"); c != nil {
		switch c.Type() {
		case "empty_statement":
		case "variable_declaration", "lexical_declaration", "expression_statement":
			init = p.statement(c)
		default:
			init = p.expression(c)
		}
	}
	if c := n.ChildByFieldName("condition"); c != nil {
		switch c.Type() {
		case "empty_statement":
		case "expression_statement":
			if children := named(c); len(children) > 0 {
				cond = p.expression(children[0])
			}
		default:
			cond = p.expression(c)
		}
	}
	if c := n.ChildByFieldName("increment"); c != nil {
		update = p.expression(c)
	}
	body := p.body(n.ChildByFieldName("body"))
	return p.at(n).For(init, cond, update, body...)
}

// forTarget binds the loop variable of a for-in/of loop to an unknown
// value at the start of every iteration.
func (p *Parser) forTarget(loop, left *sitter.Node) *ast.Node {
	switch left.Type() {
	case "identifier":
		if loop.ChildByFieldName("kind") != nil {
			return p.at(left).Var(p.text(left), p.unknown(left))
		}
		target := p.at(left).Name(p.text(left))
		return p.b.ExprStmt(p.b.Assign(target, p.unknown(left)))
	case "variable_declaration", "lexical_declaration":
		for _, d := range named(left) {
			if id := d.ChildByFieldName("name"); id != nil && id.Type() == "identifier" {
				return p.at(left).Var(p.text(id), p.unknown(left))
			}
			if d.Type() == "identifier" {
				return p.at(left).Var(p.text(d), p.unknown(left))
			}
		}
	}
	p.unsupported(left)
	return nil
}

func (p *Parser) declaration(n *sitter.Node) *ast.Node {
	var inits []*ast.Node
	for _, d := range named(n) {
		if d.Type() != "variable_declarator" {
			continue
		}
		name := d.ChildByFieldName("name")
		if name == nil || name.Type() != "identifier" {
			// Destructuring patterns.
			p.unsupported(d)
			continue
		}
		var value *ast.Node
		if v := d.ChildByFieldName("value"); v != nil {
			value = p.expression(v)
		}
		inits = append(inits, p.at(d).Init(p.text(name), value))
	}
	if len(inits) == 0 {
		return p.at(n).Empty()
	}
	return p.at(n).Vars(inits...)
}

// function lowers declarations, expressions, arrows and methods.
func (p *Parser) function(n *sitter.Node) *ast.Node {
	var name string
	if id := n.ChildByFieldName("name"); id != nil && id.Type() == "identifier" {
		name = p.text(id)
	}

	var params []string
	if single := n.ChildByFieldName("parameter"); single != nil {
		params = append(params, p.text(single))
	} else if list := n.ChildByFieldName("parameters"); list != nil {
		for _, param := range named(list) {
			switch param.Type() {
			case "identifier":
				params = append(params, p.text(param))
			case "assignment_pattern":
				// Defaults are ignored.
				if left := param.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
					params = append(params, p.text(left))
					continue
				}
				fallthrough
			default:
				p.unsupported(param)
				params = append(params, fmt.Sprintf("~param%d~", len(params)))
			}
		}
	}

	var body []*ast.Node
	if b := n.ChildByFieldName("body"); b != nil {
		if b.Type() == "statement_block" {
			body = p.statements(b)
		} else {
			// Expression bodied arrow.
			e := p.expression(b)
			body = []*ast.Node{p.at(b).Return(e)}
		}
	}
	return p.at(n).Function(name, params, body...)
}

func (p *Parser) unknown(n *sitter.Node) *ast.Node {
	return p.at(n).Name(Unknown)
}

func (p *Parser) expressions(ns []*sitter.Node) []*ast.Node {
	res := make([]*ast.Node, 0, len(ns))
	for _, c := range ns {
		if c.Type() == "spread_element" {
			p.unsupported(c)
			res = append(res, p.unknown(c))
			continue
		}
		res = append(res, p.expression(c))
	}
	return res
}

func (p *Parser) expression(n *sitter.Node) *ast.Node {
	switch n.Type() {
	case "identifier", "shorthand_property_identifier":
		name := p.text(n)
		if name == "undefined" {
			return p.at(n).Undefined()
		}
		return p.at(n).Name(name)

	case "number":
		return p.at(n).Num(p.text(n))

	case "string":
		var sb strings.Builder
		for _, c := range named(n) {
			switch c.Type() {
			case "string_fragment":
				sb.WriteString(p.text(c))
			case "escape_sequence":
				sb.WriteString(unescape(p.text(c)))
			}
		}
		return p.at(n).Str(sb.String())

	case "template_string":
		for _, c := range named(n) {
			if c.Type() == "template_substitution" {
				p.unsupported(n)
				return p.unknown(n)
			}
		}
		return p.at(n).Str(strings.Trim(p.text(n), "`"))

	case "true":
		return p.at(n).True()
	case "false":
		return p.at(n).False()
	case "null":
		return p.at(n).Null()
	case "undefined":
		return p.at(n).Undefined()
	case "this":
		return p.at(n).This()

	case "object":
		return p.object(n)

	case "array":
		elems := p.expressions(named(n))
		return p.at(n).Array(elems...)

	case "function", "function_expression", "arrow_function",
		"generator_function", "method_definition":
		return p.function(n)

	case "binary_expression":
		op, ok := ast.OperatorFor(n.ChildByFieldName("operator").Type(), false)
		left := p.expression(n.ChildByFieldName("left"))
		right := p.expression(n.ChildByFieldName("right"))
		if !ok {
			p.unsupported(n)
			return p.unknown(n)
		}
		return p.at(n).Infix(op, left, right)

	case "sequence_expression":
		children := named(n)
		if len(children) == 0 {
			return p.unknown(n)
		}
		e := p.expression(children[0])
		for _, c := range children[1:] {
			right := p.expression(c)
			e = p.at(n).Infix(ast.OpComma, e, right)
		}
		return e

	case "assignment_expression":
		left := p.target(n.ChildByFieldName("left"))
		right := p.expression(n.ChildByFieldName("right"))
		return p.at(n).Assign(left, right)

	case "augmented_assignment_expression":
		token := strings.TrimSuffix(n.ChildByFieldName("operator").Type(), "=")
		left := p.target(n.ChildByFieldName("left"))
		right := p.expression(n.ChildByFieldName("right"))
		op, ok := ast.OperatorFor(token, false)
		if !ok {
			// Logical assignments.
			p.unsupported(n)
			return p.at(n).Assign(left, p.unknown(n))
		}
		return p.at(n).AssignOp(op, left, right)

	case "unary_expression":
		op, ok := ast.OperatorFor(n.ChildByFieldName("operator").Type(), true)
		arg := p.expression(n.ChildByFieldName("argument"))
		if !ok {
			p.unsupported(n)
			return p.unknown(n)
		}
		return p.at(n).Unary(op, arg)

	case "update_expression":
		op := ast.OpInc
		if n.ChildByFieldName("operator").Type() == "--" {
			op = ast.OpDec
		}
		arg := p.target(n.ChildByFieldName("argument"))
		return p.at(n).Unary(op, arg)

	case "call_expression":
		fn := n.ChildByFieldName("function")
		args := n.ChildByFieldName("arguments")
		if args == nil || args.Type() != "arguments" {
			// Tagged templates.
			p.unsupported(n)
			return p.unknown(n)
		}
		target := p.expression(fn)
		list := p.expressions(named(args))
		return p.at(n).Call(target, list...)

	case "new_expression":
		target := p.expression(n.ChildByFieldName("constructor"))
		var list []*ast.Node
		if args := n.ChildByFieldName("arguments"); args != nil {
			list = p.expressions(named(args))
		}
		return p.at(n).New(target, list...)

	case "member_expression":
		obj := p.expression(n.ChildByFieldName("object"))
		prop := n.ChildByFieldName("property")
		if prop.Type() == "private_property_identifier" {
			p.unsupported(prop)
		}
		return p.at(n).Get(obj, p.text(prop))

	case "subscript_expression":
		obj := p.expression(n.ChildByFieldName("object"))
		idx := p.expression(n.ChildByFieldName("index"))
		return p.at(n).Index(obj, idx)

	case "parenthesized_expression":
		children := named(n)
		if len(children) != 1 {
			return p.unknown(n)
		}
		e := p.expression(children[0])
		return p.at(n).Paren(e)

	case "ternary_expression":
		cond := p.expression(n.ChildByFieldName("condition"))
		then := p.expression(n.ChildByFieldName("consequence"))
		els := p.expression(n.ChildByFieldName("alternative"))
		return p.at(n).Cond(cond, then, els)
	}

	p.unsupported(n)
	return p.unknown(n)
}

// target lowers the left-hand side of an assignment. Patterns are not
// modelled and assign to nothing.
func (p *Parser) target(n *sitter.Node) *ast.Node {
	switch n.Type() {
	case "identifier", "member_expression", "subscript_expression", "parenthesized_expression":
		return p.expression(n)
	}
	p.unsupported(n)
	return p.unknown(n)
}

func (p *Parser) object(n *sitter.Node) *ast.Node {
	var props []*ast.Node
	for _, c := range named(n) {
		switch c.Type() {
		case "pair":
			key, ok := p.key(c.ChildByFieldName("key"))
			if !ok {
				p.unsupported(c)
				continue
			}
			value := p.expression(c.ChildByFieldName("value"))
			props = append(props, p.at(c).Prop(key, value))
		case "shorthand_property_identifier":
			value := p.expression(c)
			props = append(props, p.at(c).Prop(p.text(c), value))
		case "method_definition":
			key, ok := p.key(c.ChildByFieldName("name"))
			if !ok {
				p.unsupported(c)
				continue
			}
			fn := p.function(c)
			props = append(props, p.at(c).Prop(key, fn))
		default:
			p.unsupported(c)
		}
	}
	return p.at(n).Object(props...)
}

// key returns the static name of a property key.
func (p *Parser) key(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "property_identifier", "number":
		return p.text(n), true
	case "string":
		return strings.Trim(p.text(n), `"'`), true
	}
	return "", false
}

func unescape(seq string) string {
	switch seq {
	case `\n`:
		return "\n"
	case `\t`:
		return "\t"
	case `\r`:
		return "\r"
	case `\\`:
		return `\`
	case `\'`:
		return "'"
	case `\"`:
		return `"`
	case `\0`:
		return "\x00"
	}
	return seq
}
