package mango

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	predicateLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "QuotedIdent", Pattern: "`[^`]+`"},
		{Name: "Keyword", Pattern: `(?i)\b(AND|OR|NOT|TRUE|FALSE|NULL)\b`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Float", Pattern: `\d+\.\d+([eE][-+]?\d+)?`},
		{Name: "Int", Pattern: `\d+`},
		{Name: "String", Pattern: `"(\\"|[^"])*"`},
		{Name: "Operator", Pattern: `==|!=|<>|<=|>=|&&|\|\||[-+*/%=<>!&|^]`},
		{Name: "Punct", Pattern: `[().,]`},
		{Name: "whitespace", Pattern: `\s+`},
	})

	predicateParser = participle.MustBuild[textOr](
		participle.Lexer(predicateLexer),
		participle.Unquote("String"),
		participle.CaseInsensitive("Keyword"),
		participle.UseLookahead(2),
	)
)

type textOr struct {
	Left  *textAnd   `parser:"@@"`
	Right []*textAnd `parser:"( ( '||' | 'OR' | 'or' ) @@ )*"`
}

type textAnd struct {
	Left  *textNot   `parser:"@@"`
	Right []*textNot `parser:"( ( '&&' | 'AND' | 'and' ) @@ )*"`
}

type textNot struct {
	Not        *textNot        `parser:"  ( '!' | 'NOT' | 'not' ) @@"`
	Comparison *textComparison `parser:"| @@"`
}

type textComparison struct {
	Left  *textArith `parser:"@@"`
	Op    string     `parser:"( @( '==' | '!=' | '<>' | '<=' | '>=' | '<' | '>' | '=' | '&' | '|' | '^' )"`
	Right *textArith `parser:"  @@ )?"`
}

type textArith struct {
	Left *textTerm      `parser:"@@"`
	Rest []*textArithOp `parser:"@@*"`
}

type textArithOp struct {
	Op    string    `parser:"@( '+' | '-' | '*' | '/' | '%' )"`
	Right *textTerm `parser:"@@"`
}

type textTerm struct {
	Neg     *textTerm    `parser:"  '-' @@"`
	Group   *textOr      `parser:"| '(' @@ ')'"`
	Literal *textLiteral `parser:"| @@"`
	Path    *textPath    `parser:"| @@"`
}

type textLiteral struct {
	Float  *float64 `parser:"  @Float"`
	Int    *int64   `parser:"| @Int"`
	String *string  `parser:"| @String"`
	Bool   *string  `parser:"| @( 'TRUE' | 'true' | 'FALSE' | 'false' )"`
	Null   bool     `parser:"| @( 'NULL' | 'null' )"`
}

type textPath struct {
	Segments []string  `parser:"@( Ident | QuotedIdent ) ( '.' @( Ident | QuotedIdent ) )*"`
	Call     *textCall `parser:"@@?"`
}

type textCall struct {
	Open bool      `parser:"@'('"`
	Args []*textOr `parser:"( @@ ( ',' @@ )* )? ')'"`
}

// ParsePredicate parses predicate text such as `Baz >= 5`, `5 == Baz`,
// `Foo == "a" && Baz == 5` or `Foo.contains("a")`. Bare identifiers and
// dotted paths refer to document fields. AND, OR, NOT, TRUE, FALSE and NULL
// are keywords in any case; a field with one of those names, or with
// characters outside [A-Za-z0-9_], is written in backticks: `not` == 5.
func ParsePredicate(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("%w: empty predicate", ErrSyntax)
	}
	tree, err := predicateParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return tree.expr(), nil
}

func (o *textOr) expr() Expr {
	result := o.Left.expr()
	for _, next := range o.Right {
		result = Binary{Op: BinaryOrElse, Left: result, Right: next.expr()}
	}
	return result
}

func (a *textAnd) expr() Expr {
	result := a.Left.expr()
	for _, next := range a.Right {
		result = Binary{Op: BinaryAndAlso, Left: result, Right: next.expr()}
	}
	return result
}

func (n *textNot) expr() Expr {
	if n.Not != nil {
		return Unary{Op: UnaryNot, Operand: n.Not.expr()}
	}
	return n.Comparison.expr()
}

var textOperators = map[string]BinaryOp{
	"==": BinaryEqual,
	"=":  BinaryEqual,
	"!=": BinaryNotEqual,
	"<>": BinaryNotEqual,
	">":  BinaryGreaterThan,
	">=": BinaryGreaterThanOrEqual,
	"<":  BinaryLessThan,
	"<=": BinaryLessThanOrEqual,
	"+":  BinaryAdd,
	"-":  BinarySubtract,
	"*":  BinaryMultiply,
	"/":  BinaryDivide,
	"%":  BinaryModulo,
	"&":  BinaryBitAnd,
	"|":  BinaryBitOr,
	"^":  BinaryXor,
}

func (c *textComparison) expr() Expr {
	if c.Op == "" {
		return c.Left.expr()
	}
	return Binary{Op: textOperators[c.Op], Left: c.Left.expr(), Right: c.Right.expr()}
}

func (a *textArith) expr() Expr {
	result := a.Left.expr()
	for _, next := range a.Rest {
		result = Binary{Op: textOperators[next.Op], Left: result, Right: next.Right.expr()}
	}
	return result
}

func (t *textTerm) expr() Expr {
	switch {
	case t.Neg != nil:
		return Unary{Op: UnaryNegate, Operand: t.Neg.expr()}
	case t.Group != nil:
		return t.Group.expr()
	case t.Literal != nil:
		return t.Literal.expr()
	default:
		return t.Path.expr()
	}
}

func (l *textLiteral) expr() Expr {
	switch {
	case l.Float != nil:
		return Const{Value: *l.Float}
	case l.Int != nil:
		return Const{Value: int(*l.Int)}
	case l.String != nil:
		return Const{Value: *l.String}
	case l.Bool != nil:
		return Const{Value: strings.EqualFold(*l.Bool, "true")}
	default:
		return Const{Value: nil}
	}
}

func (p *textPath) expr() Expr {
	segments := p.Segments
	if p.Call != nil {
		segments = segments[:len(segments)-1]
	}
	var target Expr = Param{}
	for _, name := range segments {
		target = Member{Target: target, Name: strings.Trim(name, "`")}
	}
	if p.Call == nil {
		return target
	}
	args := make([]Expr, 0, len(p.Call.Args))
	for _, a := range p.Call.Args {
		args = append(args, a.expr())
	}
	return Call{Target: target, Method: p.Segments[len(p.Segments)-1], Args: args}
}
