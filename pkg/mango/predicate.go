package mango

// Predicate is a single-comparison boolean expression over documents of type T.
type Predicate[T any] struct {
	body Expr
}

// Where builds a predicate over T from body.
func Where[T any](body Expr) Predicate[T] {
	return Predicate[T]{body: operand(body)}
}

// ParseWhere parses a textual predicate such as `Baz >= 5` over T.
func ParseWhere[T any](text string) (Predicate[T], error) {
	body, err := ParsePredicate(text)
	if err != nil {
		return Predicate[T]{}, err
	}
	return Predicate[T]{body: body}, nil
}

func (p Predicate[T]) Body() Expr {
	return p.body
}

func (p Predicate[T]) String() string {
	return Format(p.body)
}
