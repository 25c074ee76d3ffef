package mango

import "strings"

// Term wraps an expression with fluent comparison helpers so predicates can
// be written as Field("Baz").Gt(5) or Value(5).Eq(Field("Baz")).
type Term struct {
	Expr
}

// Field references a document field. Dotted paths address nested fields.
func Field(path string) Term {
	var expr Expr = Param{}
	for _, name := range strings.Split(path, ".") {
		expr = Member{Target: expr, Name: name}
	}
	return Term{expr}
}

// Value is a literal operand.
func Value(v any) Term {
	return Term{Const{Value: v}}
}

// Var captures a variable by pointer. The pointed-to value is read when the
// predicate is translated, not when it is built.
func Var(ptr any) Term {
	return Term{Captured{Ptr: ptr}}
}

// NamedVar is Var with a name used when the predicate is printed.
func NamedVar(name string, ptr any) Term {
	return Term{Captured{Name: name, Ptr: ptr}}
}

// Eval defers computing an operand until translation.
func Eval(name string, fn func() (any, error)) Term {
	return Term{Closure{Name: name, Fn: fn}}
}

// Convert marks a type conversion around e.
func Convert(e Expr, typeName string) Term {
	return Term{Conversion{Operand: operand(e), Type: typeName}}
}

func And(left, right Expr) Term {
	return Term{Binary{Op: BinaryAndAlso, Left: operand(left), Right: operand(right)}}
}

func Or(left, right Expr) Term {
	return Term{Binary{Op: BinaryOrElse, Left: operand(left), Right: operand(right)}}
}

func Not(e Expr) Term {
	return Term{Unary{Op: UnaryNot, Operand: operand(e)}}
}

// Field accesses a member of the term's value, e.g. Value(cfg).Field("Limit").
func (t Term) Field(name string) Term {
	return Term{Member{Target: t.Expr, Name: name}}
}

func (t Term) Eq(v any) Term  { return t.Op(BinaryEqual, v) }
func (t Term) Ne(v any) Term  { return t.Op(BinaryNotEqual, v) }
func (t Term) Gt(v any) Term  { return t.Op(BinaryGreaterThan, v) }
func (t Term) Gte(v any) Term { return t.Op(BinaryGreaterThanOrEqual, v) }
func (t Term) Lt(v any) Term  { return t.Op(BinaryLessThan, v) }
func (t Term) Lte(v any) Term { return t.Op(BinaryLessThanOrEqual, v) }

func (t Term) Add(v any) Term { return t.Op(BinaryAdd, v) }
func (t Term) Sub(v any) Term { return t.Op(BinarySubtract, v) }
func (t Term) Mul(v any) Term { return t.Op(BinaryMultiply, v) }
func (t Term) Div(v any) Term { return t.Op(BinaryDivide, v) }
func (t Term) Mod(v any) Term { return t.Op(BinaryModulo, v) }

// Op applies an arbitrary binary operator. v may be an Expr or a plain value.
func (t Term) Op(op BinaryOp, v any) Term {
	return Term{Binary{Op: op, Left: t.Expr, Right: operand(v)}}
}

func (t Term) Neg() Term {
	return Term{Unary{Op: UnaryNegate, Operand: t.Expr}}
}

// Call records a method call on the term. Calls are never evaluated.
func (t Term) Call(method string, args ...any) Term {
	exprs := make([]Expr, 0, len(args))
	for _, a := range args {
		exprs = append(exprs, operand(a))
	}
	return Term{Call{Target: t.Expr, Method: method, Args: exprs}}
}

func (t Term) Contains(v any) Term {
	return t.Call("contains", v)
}

func (t Term) String() string {
	return Format(t.Expr)
}

func operand(v any) Expr {
	switch e := v.(type) {
	case Term:
		return e.Expr
	case Expr:
		return e
	default:
		return Const{Value: v}
	}
}

// unwrap strips builder wrappers and type conversions.
func unwrap(e Expr) Expr {
	for {
		switch n := e.(type) {
		case Term:
			e = n.Expr
		case Conversion:
			e = n.Operand
		default:
			return e
		}
	}
}
