package ast

type Expr interface {
	Node
	exprNode()
}

type Operator int

const (
	AddOp Operator = iota
	SubOp
	MulOp
	DivOp
	ModOp
	LessOp
	GreaterOp
	LessEqualOp
	GreaterEqualOp
	EqualOp
	NotEqualOp
	AndAndOp
	OrOrOp
	AndOp
	OrOp
	NotOp
	NegOp
)

var operatorNames = map[Operator]string{
	AddOp:          "+",
	SubOp:          "-",
	MulOp:          "*",
	DivOp:          "/",
	ModOp:          "%",
	LessOp:         "<",
	GreaterOp:      ">",
	LessEqualOp:    "<=",
	GreaterEqualOp: ">=",
	EqualOp:        "==",
	NotEqualOp:     "!=",
	AndAndOp:       "&&",
	OrOrOp:         "||",
	AndOp:          "&",
	OrOp:           "|",
	NotOp:          "!",
	NegOp:          "-",
}

func (op Operator) String() string {
	return operatorNames[op]
}

func (op Operator) IsArithmetic() bool {
	return op == AddOp || op == SubOp || op == MulOp || op == DivOp || op == ModOp
}

func (op Operator) IsRelational() bool {
	return op == LessOp || op == GreaterOp || op == LessEqualOp || op == GreaterEqualOp
}

func (op Operator) IsEquality() bool {
	return op == EqualOp || op == NotEqualOp
}

func (op Operator) IsLogical() bool {
	return op == AndAndOp || op == OrOrOp || op == AndOp || op == OrOp
}

type IntLiteral struct {
	Meta
	Value int64
}

type BoolLiteral struct {
	Meta
	Value bool
}

type CharLiteral struct {
	Meta
	Value byte
}

type StringLiteral struct {
	Meta
	Value string
}

type NullLiteral struct {
	Meta
}

type ThisExpr struct {
	Meta
}

type InfixExpr struct {
	Meta
	Op  Operator
	LHS Expr
	RHS Expr
}

type PrefixExpr struct {
	Meta
	Op Operator
	X  Expr
}

type AssignExpr struct {
	Meta
	LHS Expr
	RHS Expr
}

// FieldAccess is `primary.name` where the receiver is not a plain name.
type FieldAccess struct {
	Meta
	X    Expr
	Name string
}

// MethodInvocation has two shapes: `name(args)` where Target holds the (possibly qualified) method name and
// Receiver is nil, or `primary.name(args)` where Receiver holds the primary and Name the method identifier.
type MethodInvocation struct {
	Meta
	Target   Name
	Receiver Expr
	Name     string
	Args     []Expr
}

func (call *MethodInvocation) MethodName() string {
	if call.Target != nil {
		return LastIdent(call.Target)
	}
	return call.Name
}

// Qualifier returns the qualifier of the name form, nil for `m(args)` and for the primary form.
func (call *MethodInvocation) Qualifier() Name {
	if qualified, ok := call.Target.(*QualifiedName); ok {
		return qualified.Qualifier
	}
	return nil
}

type ClassInstanceCreation struct {
	Meta
	Type *SimpleType
	Args []Expr
}

type ArrayCreation struct {
	Meta
	Elem Type
	Size Expr
}

type ArrayAccess struct {
	Meta
	X     Expr
	Index Expr
}

type CastExpr struct {
	Meta
	Type Type
	X    Expr
}

type InstanceOfExpr struct {
	Meta
	X    Expr
	Type Type
}

func (*IntLiteral) exprNode()            {}
func (*BoolLiteral) exprNode()           {}
func (*CharLiteral) exprNode()           {}
func (*StringLiteral) exprNode()         {}
func (*NullLiteral) exprNode()           {}
func (*ThisExpr) exprNode()              {}
func (*SimpleName) exprNode()            {}
func (*QualifiedName) exprNode()         {}
func (*InfixExpr) exprNode()             {}
func (*PrefixExpr) exprNode()            {}
func (*AssignExpr) exprNode()            {}
func (*FieldAccess) exprNode()           {}
func (*MethodInvocation) exprNode()      {}
func (*ClassInstanceCreation) exprNode() {}
func (*ArrayCreation) exprNode()         {}
func (*ArrayAccess) exprNode()           {}
func (*CastExpr) exprNode()              {}
func (*InstanceOfExpr) exprNode()        {}
