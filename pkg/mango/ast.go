package mango

// Expr is a node of a predicate expression tree.
type Expr interface {
	isExpr()
}

// Param is the document parameter the predicate ranges over.
type Param struct{}

func (Param) isExpr() {}

// Member accesses a named field on Target. When the chain of Targets ends in
// Param, the member is a field reference; otherwise it is evaluated.
type Member struct {
	Target Expr
	Name   string
}

func (Member) isExpr() {}

type Const struct {
	Value any
}

func (Const) isExpr() {}

// Captured reads the current value behind a pointer at translation time.
type Captured struct {
	Name string
	Ptr  any
}

func (Captured) isExpr() {}

// Closure is evaluated once per translation. Fn must not have side effects.
type Closure struct {
	Name string
	Fn   func() (any, error)
}

func (Closure) isExpr() {}

// Conversion wraps an operand in a type conversion. It is transparent to
// analysis.
type Conversion struct {
	Operand Expr
	Type    string
}

func (Conversion) isExpr() {}

type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (Binary) isExpr() {}

type Unary struct {
	Op      UnaryOp
	Operand Expr
}

func (Unary) isExpr() {}

// Call is a method call such as Foo.contains("a"). Calls are never evaluated.
type Call struct {
	Target Expr
	Method string
	Args   []Expr
}

func (Call) isExpr() {}

// BinaryOp identifies the operator of a Binary node.
type BinaryOp int

const (
	BinaryUnknown BinaryOp = iota
	BinaryEqual
	BinaryNotEqual
	BinaryGreaterThan
	BinaryGreaterThanOrEqual
	BinaryLessThan
	BinaryLessThanOrEqual
	BinaryAndAlso
	BinaryOrElse
	BinaryAdd
	BinarySubtract
	BinaryMultiply
	BinaryDivide
	BinaryModulo
	BinaryBitAnd
	BinaryBitOr
	BinaryXor
)

var binaryTokens = map[BinaryOp]string{
	BinaryEqual:              "==",
	BinaryNotEqual:           "!=",
	BinaryGreaterThan:        ">",
	BinaryGreaterThanOrEqual: ">=",
	BinaryLessThan:           "<",
	BinaryLessThanOrEqual:    "<=",
	BinaryAndAlso:            "&&",
	BinaryOrElse:             "||",
	BinaryAdd:                "+",
	BinarySubtract:           "-",
	BinaryMultiply:           "*",
	BinaryDivide:             "/",
	BinaryModulo:             "%",
	BinaryBitAnd:             "&",
	BinaryBitOr:              "|",
	BinaryXor:                "^",
}

func (op BinaryOp) String() string {
	if tok, ok := binaryTokens[op]; ok {
		return tok
	}
	return "?"
}

// Logical reports whether op combines two boolean expressions.
func (op BinaryOp) Logical() bool {
	return op == BinaryAndAlso || op == BinaryOrElse
}

// UnaryOp identifies the operator of a Unary node.
type UnaryOp int

const (
	UnaryNot UnaryOp = iota + 1
	UnaryNegate
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryNot:
		return "!"
	case UnaryNegate:
		return "-"
	default:
		return "?"
	}
}
