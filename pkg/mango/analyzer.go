package mango

import (
	"fmt"
	"reflect"
	"strings"
)

// Analyze extracts the field, operator and operand of a single-comparison
// predicate. The field may appear on either side of the comparison. The
// returned entry always keys on the field, with ordering operators mirrored
// when the field is on the right.
func Analyze[T any](p Predicate[T]) (Entry, error) {
	return analyze(p.body, reflect.TypeFor[T]())
}

type side struct {
	field   string
	value   any
	isField bool
}

func analyze(body Expr, docType reflect.Type) (Entry, error) {
	root := unwrap(body)
	bin, ok := root.(Binary)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s is not a comparison", ErrUnsupportedExpressionShape, describe(root))
	}
	if bin.Op.Logical() {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnsupportedBooleanCombinator, Format(bin))
	}
	op, ok := comparisonOperator(bin.Op)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q in %s", ErrUnsupportedOperator, bin.Op.String(), Format(bin))
	}

	left, err := classify(bin.Left, docType)
	if err != nil {
		return Entry{}, err
	}
	right, err := classify(bin.Right, docType)
	if err != nil {
		return Entry{}, err
	}

	switch {
	case left.isField && right.isField:
		return Entry{}, fmt.Errorf("%w: %s compares two fields", ErrUnsupportedExpressionShape, Format(bin))
	case !left.isField && !right.isField:
		return Entry{}, fmt.Errorf("%w: %s does not reference a document field", ErrUnsupportedExpressionShape, Format(bin))
	case left.isField:
		return Entry{Field: left.field, Operator: op, Operand: right.value}, nil
	default:
		return Entry{Field: right.field, Operator: op.Mirror(), Operand: left.value}, nil
	}
}

func classify(e Expr, docType reflect.Type) (side, error) {
	e = unwrap(e)
	if path, ok := fieldPath(e); ok {
		name, err := resolveField(docType, path)
		if err != nil {
			return side{}, err
		}
		return side{field: name, isField: true}, nil
	}

	v, err := evaluate(e)
	if err != nil {
		return side{}, err
	}
	v, err = normalizeOperand(v)
	if err != nil {
		return side{}, fmt.Errorf("%w in %s", err, Format(e))
	}
	return side{value: v}, nil
}

// fieldPath returns the member names of a chain rooted at the document
// parameter, outermost last.
func fieldPath(e Expr) ([]string, bool) {
	var names []string
	for {
		switch n := unwrap(e).(type) {
		case Member:
			names = append(names, n.Name)
			e = n.Target
		case Param:
			if len(names) == 0 {
				return nil, false
			}
			for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
				names[i], names[j] = names[j], names[i]
			}
			return names, true
		default:
			return nil, false
		}
	}
}

func describe(e Expr) string {
	switch n := e.(type) {
	case nil:
		return "empty expression"
	case Call:
		return fmt.Sprintf("method call %s", Format(n))
	case Unary:
		return fmt.Sprintf("unary expression %s", Format(n))
	case Member:
		return fmt.Sprintf("member access %s", Format(n))
	default:
		return strings.TrimSpace(Format(n))
	}
}
