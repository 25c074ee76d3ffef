package mango

import "fmt"

// Operator is one of the six comparisons a Mango selector entry can carry.
type Operator int

const (
	Equal Operator = iota + 1
	NotEqual
	GreaterThan
	GreaterThanOrEqual
	LessThan
	LessThanOrEqual
)

var operatorSymbols = map[Operator]string{
	Equal:              "$eq",
	NotEqual:           "$neq",
	GreaterThan:        "$gt",
	GreaterThanOrEqual: "$gte",
	LessThan:           "$lt",
	LessThanOrEqual:    "$lte",
}

var operatorNames = map[Operator]string{
	Equal:              "Equal",
	NotEqual:           "NotEqual",
	GreaterThan:        "GreaterThan",
	GreaterThanOrEqual: "GreaterThanOrEqual",
	LessThan:           "LessThan",
	LessThanOrEqual:    "LessThanOrEqual",
}

// Operators lists every supported operator in declaration order.
func Operators() []Operator {
	return []Operator{Equal, NotEqual, GreaterThan, GreaterThanOrEqual, LessThan, LessThanOrEqual}
}

// Symbol returns the selector token for o, e.g. "$gte".
func (o Operator) Symbol() string {
	return operatorSymbols[o]
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// Valid reports whether o is one of the supported operators.
func (o Operator) Valid() bool {
	_, ok := operatorSymbols[o]
	return ok
}

// ParseOperator maps a selector token back to its Operator.
func ParseOperator(symbol string) (Operator, error) {
	for op, sym := range operatorSymbols {
		if sym == symbol {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedOperator, symbol)
}

// Mirror returns the operator that keeps the comparison true when its sides
// are swapped, so 5 < x becomes x > 5. Equality operators mirror to
// themselves.
func (o Operator) Mirror() Operator {
	switch o {
	case GreaterThan:
		return LessThan
	case GreaterThanOrEqual:
		return LessThanOrEqual
	case LessThan:
		return GreaterThan
	case LessThanOrEqual:
		return GreaterThanOrEqual
	default:
		return o
	}
}

func comparisonOperator(op BinaryOp) (Operator, bool) {
	switch op {
	case BinaryEqual:
		return Equal, true
	case BinaryNotEqual:
		return NotEqual, true
	case BinaryGreaterThan:
		return GreaterThan, true
	case BinaryGreaterThanOrEqual:
		return GreaterThanOrEqual, true
	case BinaryLessThan:
		return LessThan, true
	case BinaryLessThanOrEqual:
		return LessThanOrEqual, true
	default:
		return 0, false
	}
}
