package ast

// Kind is the closed set of syntactic forms the analysis understands.
type Kind int

const (
	Script Kind = iota
	Function
	Empty
	ExpressionStatement
	VariableDeclaration
	VariableInitializer
	Return
	If
	While
	DoLoop
	For
	Break
	Continue
	Block
	Name
	Number
	String
	Keyword
	ObjectLiteral
	ObjectProperty
	ArrayLiteral
	Infix
	Assignment
	Unary
	Call
	New
	PropertyGet
	ElementGet
	Paren
	Conditional

	numKinds
)

var kindNames = [numKinds]string{
	Script:              "Script",
	Function:            "Function",
	Empty:               "Empty",
	ExpressionStatement: "ExpressionStatement",
	VariableDeclaration: "VariableDeclaration",
	VariableInitializer: "VariableInitializer",
	Return:              "Return",
	If:                  "If",
	While:               "While",
	DoLoop:              "DoLoop",
	For:                 "For",
	Break:               "Break",
	Continue:            "Continue",
	Block:               "Block",
	Name:                "Name",
	Number:              "Number",
	String:              "String",
	Keyword:             "Keyword",
	ObjectLiteral:       "ObjectLiteral",
	ObjectProperty:      "ObjectProperty",
	ArrayLiteral:        "ArrayLiteral",
	Infix:               "Infix",
	Assignment:          "Assignment",
	Unary:               "Unary",
	Call:                "Call",
	New:                 "New",
	PropertyGet:         "PropertyGet",
	ElementGet:          "ElementGet",
	Paren:               "Paren",
	Conditional:         "Conditional",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "Kind(?)"
	}
	return kindNames[k]
}

// IsStatement holds for kinds that may appear directly in a statement list.
// Function counts as a statement when it is a declaration.
func (k Kind) IsStatement() bool {
	switch k {
	case Script, Function, Empty, ExpressionStatement, VariableDeclaration,
		Return, If, While, DoLoop, For, Break, Continue, Block:
		return true
	}
	return false
}

// IsExpression holds for kinds that produce a value. Function is both.
func (k Kind) IsExpression() bool {
	switch k {
	case Function, Name, Number, String, Keyword, ObjectLiteral, ArrayLiteral,
		Infix, Assignment, Unary, Call, New, PropertyGet, ElementGet, Paren,
		Conditional:
		return true
	}
	return false
}

// IsLoop holds for the looping statements.
func (k Kind) IsLoop() bool {
	return k == While || k == DoLoop || k == For
}

// Version tells which side of a commit a node belongs to.
type Version int

const (
	Source Version = iota
	Destination
)

func (v Version) String() string {
	if v == Source {
		return "source"
	}
	return "destination"
}

// ChangeType is the classification assigned by the AST differencer.
type ChangeType int

const (
	Unknown ChangeType = iota
	Unchanged
	Inserted
	Removed
	Updated
	Moved
)

func (c ChangeType) String() string {
	switch c {
	case Unchanged:
		return "UNCHANGED"
	case Inserted:
		return "INSERTED"
	case Removed:
		return "REMOVED"
	case Updated:
		return "UPDATED"
	case Moved:
		return "MOVED"
	}
	return "UNKNOWN"
}

// Operator covers infix, assignment and unary operators.
type Operator int

const (
	OpNone Operator = iota

	OpAssign

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpExp
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpUShr

	OpEq
	OpNe
	OpSheq
	OpShne
	OpLt
	OpLe
	OpGt
	OpGe
	OpIn
	OpInstanceof

	OpAnd
	OpOr
	OpNullish
	OpComma

	OpNot
	OpNeg
	OpPos
	OpBitNot
	OpTypeof
	OpVoid
	OpDelete
	OpInc
	OpDec
)

var opNames = map[Operator]string{
	OpAssign: "=", OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpExp: "**", OpBitAnd: "&", OpBitOr: "|", OpBitXor: "^", OpShl: "<<",
	OpShr: ">>", OpUShr: ">>>", OpEq: "==", OpNe: "!=", OpSheq: "===",
	OpShne: "!==", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=", OpIn: "in",
	OpInstanceof: "instanceof", OpAnd: "&&", OpOr: "||", OpNullish: "??",
	OpComma: ",", OpNot: "!", OpNeg: "-", OpPos: "+", OpBitNot: "~",
	OpTypeof: "typeof", OpVoid: "void", OpDelete: "delete", OpInc: "++",
	OpDec: "--",
}

func (op Operator) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return ""
}

// OperatorFor maps operator tokens to operators. Unary and binary
// minus/plus share tokens; unary reports the unary reading.
func OperatorFor(token string, unary bool) (Operator, bool) {
	if unary {
		switch token {
		case "-":
			return OpNeg, true
		case "+":
			return OpPos, true
		}
	}
	for op, s := range opNames {
		if s == token && op != OpNeg && op != OpPos {
			return op, true
		}
	}
	return OpNone, false
}

// IsArithmetic holds for operators that always produce a number.
func (op Operator) IsArithmetic() bool {
	return op >= OpSub && op <= OpUShr
}

// IsComparison holds for operators that always produce a boolean.
func (op Operator) IsComparison() bool {
	return op >= OpEq && op <= OpInstanceof
}

// KeywordValue enumerates the keyword literals.
type KeywordValue int

const (
	KwThis KeywordValue = iota
	KwNull
	KwTrue
	KwFalse
	KwUndefined
)

func (k KeywordValue) String() string {
	return [...]string{"this", "null", "true", "false", "undefined"}[k]
}
