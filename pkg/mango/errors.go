package mango

import "errors"

var (
	// ErrUnsupportedExpressionShape is returned when the predicate is not a
	// single comparison between one document field and one value.
	ErrUnsupportedExpressionShape = errors.New("mango: unsupported expression shape, expected e.g. Field(\"Foo\").Eq(5)")
	// ErrUnsupportedBooleanCombinator is returned for && and || predicates.
	// Selectors built here hold a single comparison; combine conditions in a
	// view instead.
	ErrUnsupportedBooleanCombinator = errors.New("mango: boolean combinators are not supported, construct a view instead")
	// ErrUnsupportedOperator is returned for comparisons outside ==, !=, >, >=, <, <=.
	ErrUnsupportedOperator = errors.New("mango: unsupported operator")
	// ErrUnsupportedOperandType is returned when a value is not a string, bool, integer or null.
	ErrUnsupportedOperandType = errors.New("mango: unsupported operand type")
	// ErrUnknownField is returned when a field reference does not resolve on the document type.
	ErrUnknownField = errors.New("mango: unknown field")
	// ErrSyntax is returned by ParsePredicate for malformed input.
	ErrSyntax = errors.New("mango: syntax error")
)
