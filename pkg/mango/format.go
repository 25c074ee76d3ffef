package mango

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders an expression as predicate text. Fields on the document
// parameter are printed as bare paths, so the output of Format can be read
// back with ParsePredicate for expressions built from fields and literals.
func Format(e Expr) string {
	return format(e, 0)
}

func precedence(op BinaryOp) int {
	switch op {
	case BinaryOrElse:
		return 1
	case BinaryAndAlso:
		return 2
	case BinaryEqual, BinaryNotEqual, BinaryGreaterThan, BinaryGreaterThanOrEqual, BinaryLessThan, BinaryLessThanOrEqual:
		return 3
	case BinaryAdd, BinarySubtract, BinaryBitOr, BinaryXor:
		return 4
	default:
		return 5
	}
}

func format(e Expr, parent int) string {
	switch n := e.(type) {
	case nil:
		return ""
	case Term:
		return format(n.Expr, parent)
	case Param:
		return "doc"
	case Member:
		if _, ok := n.Target.(Param); ok {
			return n.Name
		}
		return format(n.Target, 6) + "." + n.Name
	case Const:
		return formatLiteral(n.Value)
	case Captured:
		if n.Name != "" {
			return n.Name
		}
		return "var"
	case Closure:
		if n.Name != "" {
			return n.Name + "()"
		}
		return "func()"
	case Conversion:
		if n.Type == "" {
			return format(n.Operand, parent)
		}
		return fmt.Sprintf("%s(%s)", n.Type, format(n.Operand, 0))
	case Unary:
		return n.Op.String() + format(n.Operand, 6)
	case Binary:
		p := precedence(n.Op)
		s := fmt.Sprintf("%s %s %s", format(n.Left, p), n.Op, format(n.Right, p+1))
		if p < parent {
			s = "(" + s + ")"
		}
		return s
	case Call:
		args := make([]string, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, format(a, 0))
		}
		target := format(n.Target, 6)
		if _, ok := n.Target.(Param); ok {
			return fmt.Sprintf("%s(%s)", n.Method, strings.Join(args, ", "))
		}
		return fmt.Sprintf("%s.%s(%s)", target, n.Method, strings.Join(args, ", "))
	default:
		return fmt.Sprintf("%T", e)
	}
}

func formatLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	case float32, float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
