package ast

// IDSource hands out node identifiers.
type IDSource interface {
	Next() int
}

// Builder constructs well-formed trees for one version. Every node it
// creates is tagged with the builder's current Change classification
// and line, and children are linked to their parents.
type Builder struct {
	ids     IDSource
	version Version

	Change ChangeType
	Line   int
}

func NewBuilder(ids IDSource, version Version) *Builder {
	return &Builder{ids: ids, version: version}
}

// Version is the version of the trees the builder creates.
func (b *Builder) Version() Version { return b.version }

func (b *Builder) node(kind Kind) *Node {
	return &Node{
		ID:      b.ids.Next(),
		Kind:    kind,
		Version: b.version,
		Change:  b.Change,
		Line:    b.Line,
	}
}

func (b *Builder) link(n *Node) *Node {
	for _, c := range n.Children() {
		c.Parent = n
	}
	return n
}

func (b *Builder) Script(body ...*Node) *Node {
	n := b.node(Script)
	n.Body = body
	return b.link(n)
}

// Function builds a function; an empty name makes it anonymous.
func (b *Builder) Function(name string, params []string, body ...*Node) *Node {
	n := b.node(Function)
	n.Name = name
	for _, p := range params {
		n.List = append(n.List, b.Name(p))
	}
	n.Body = body
	return b.link(n)
}

func (b *Builder) Empty() *Node {
	return b.node(Empty)
}

func (b *Builder) ExprStmt(e *Node) *Node {
	n := b.node(ExpressionStatement)
	n.Expr = e
	return b.link(n)
}

// Var builds `var name = init`. A nil init leaves it uninitialized.
func (b *Builder) Var(name string, init *Node) *Node {
	return b.Vars(b.Init(name, init))
}

func (b *Builder) Init(name string, init *Node) *Node {
	n := b.node(VariableInitializer)
	n.Left = b.Name(name)
	n.Init = init
	return b.link(n)
}

func (b *Builder) Vars(inits ...*Node) *Node {
	n := b.node(VariableDeclaration)
	n.List = inits
	return b.link(n)
}

func (b *Builder) Return(e *Node) *Node {
	n := b.node(Return)
	n.Expr = e
	return b.link(n)
}

func (b *Builder) If(cond *Node, then []*Node, els []*Node) *Node {
	n := b.node(If)
	n.Cond, n.Body, n.Else = cond, then, els
	return b.link(n)
}

func (b *Builder) While(cond *Node, body ...*Node) *Node {
	n := b.node(While)
	n.Cond, n.Body = cond, body
	return b.link(n)
}

func (b *Builder) Do(cond *Node, body ...*Node) *Node {
	n := b.node(DoLoop)
	n.Cond, n.Body = cond, body
	return b.link(n)
}

func (b *Builder) For(init, cond, update *Node, body ...*Node) *Node {
	n := b.node(For)
	n.Init, n.Cond, n.Update, n.Body = init, cond, update, body
	return b.link(n)
}

func (b *Builder) Break() *Node    { return b.node(Break) }
func (b *Builder) Continue() *Node { return b.node(Continue) }

func (b *Builder) Block(body ...*Node) *Node {
	n := b.node(Block)
	n.Body = body
	return b.link(n)
}

func (b *Builder) Name(name string) *Node {
	n := b.node(Name)
	n.Name = name
	return n
}

func (b *Builder) Num(text string) *Node {
	n := b.node(Number)
	n.Text = text
	return n
}

func (b *Builder) Str(text string) *Node {
	n := b.node(String)
	n.Text = text
	return n
}

func (b *Builder) Kw(kw KeywordValue) *Node {
	n := b.node(Keyword)
	n.Keyword = kw
	return n
}

func (b *Builder) This() *Node      { return b.Kw(KwThis) }
func (b *Builder) True() *Node      { return b.Kw(KwTrue) }
func (b *Builder) False() *Node     { return b.Kw(KwFalse) }
func (b *Builder) Null() *Node      { return b.Kw(KwNull) }
func (b *Builder) Undefined() *Node { return b.Kw(KwUndefined) }

func (b *Builder) Object(props ...*Node) *Node {
	n := b.node(ObjectLiteral)
	n.List = props
	return b.link(n)
}

func (b *Builder) Prop(key string, value *Node) *Node {
	n := b.node(ObjectProperty)
	n.Name, n.Right = key, value
	return b.link(n)
}

func (b *Builder) Array(elems ...*Node) *Node {
	n := b.node(ArrayLiteral)
	n.List = elems
	return b.link(n)
}

func (b *Builder) Infix(op Operator, l, r *Node) *Node {
	n := b.node(Infix)
	n.Op, n.Left, n.Right = op, l, r
	return b.link(n)
}

func (b *Builder) Assign(l, r *Node) *Node {
	return b.AssignOp(OpAssign, l, r)
}

// AssignOp builds a compound assignment such as `l += r` (op = OpAdd).
func (b *Builder) AssignOp(op Operator, l, r *Node) *Node {
	n := b.node(Assignment)
	n.Op, n.Left, n.Right = op, l, r
	return b.link(n)
}

func (b *Builder) Unary(op Operator, e *Node) *Node {
	n := b.node(Unary)
	n.Op, n.Expr = op, e
	return b.link(n)
}

func (b *Builder) Not(e *Node) *Node { return b.Unary(OpNot, e) }

func (b *Builder) Call(target *Node, args ...*Node) *Node {
	n := b.node(Call)
	n.Expr, n.List = target, args
	return b.link(n)
}

func (b *Builder) New(target *Node, args ...*Node) *Node {
	n := b.node(New)
	n.Expr, n.List = target, args
	return b.link(n)
}

// Get builds the property access `obj.prop`.
func (b *Builder) Get(obj *Node, prop string) *Node {
	n := b.node(PropertyGet)
	n.Left, n.Right = obj, b.Name(prop)
	return b.link(n)
}

// Index builds the element access `obj[idx]`.
func (b *Builder) Index(obj, idx *Node) *Node {
	n := b.node(ElementGet)
	n.Left, n.Right = obj, idx
	return b.link(n)
}

func (b *Builder) Paren(e *Node) *Node {
	n := b.node(Paren)
	n.Expr = e
	return b.link(n)
}

func (b *Builder) Cond(cond, then, els *Node) *Node {
	n := b.node(Conditional)
	n.Cond, n.Left, n.Right = cond, then, els
	return b.link(n)
}

// Negation builds the synthetic `!cond` used for the false branch of a
// condition. It carries the classification of cond and is attached to
// cond's parent without being one of its children.
func (b *Builder) Negation(cond *Node) *Node {
	n := b.node(Unary)
	n.Op, n.Expr = OpNot, cond
	n.Change = cond.Change
	n.Line = cond.Line
	n.Parent = cond.Parent
	return n
}
