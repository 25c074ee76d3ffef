package mango

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePredicateMatchesBuilder(t *testing.T) {
	tests := []struct {
		input string
		want  Expr
	}{
		{`Baz == 5`, Field("Baz").Eq(5).Expr},
		{`Baz = 5`, Field("Baz").Eq(5).Expr},
		{`Baz != 5`, Field("Baz").Ne(5).Expr},
		{`Baz <> 5`, Field("Baz").Ne(5).Expr},
		{`Baz > 5`, Field("Baz").Gt(5).Expr},
		{`Baz >= 5`, Field("Baz").Gte(5).Expr},
		{`Baz < 5`, Field("Baz").Lt(5).Expr},
		{`Baz <= 5`, Field("Baz").Lte(5).Expr},
		{`5 == Baz`, Value(5).Eq(Field("Baz")).Expr},
		{`Foo == "test"`, Field("Foo").Eq("test").Expr},
		{`Foo == "say \"hi\""`, Field("Foo").Eq(`say "hi"`).Expr},
		{`Bar == false`, Field("Bar").Eq(false).Expr},
		{`Bar == TRUE`, Field("Bar").Eq(true).Expr},
		{`Bat == null`, Field("Bat").Eq(nil).Expr},
		{`Score > 1.5`, Field("Score").Gt(1.5).Expr},
		{`Address.City == "Oslo"`, Field("Address.City").Eq("Oslo").Expr},
		{`Baz > -5`, Field("Baz").Gt(Value(5).Neg()).Expr},
		{`Baz == 2 + 3 * 4`, Field("Baz").Eq(Value(2).Add(Value(3).Mul(4))).Expr},
		{`Baz == (2 + 3) * 4`, Field("Baz").Eq(Value(2).Add(3).Mul(4)).Expr},
		{`Baz % 2`, Field("Baz").Mod(2).Expr},
		{`Foo == "a" && Baz == 5`, And(Field("Foo").Eq("a"), Field("Baz").Eq(5)).Expr},
		{`Foo == "a" and Baz == 5`, And(Field("Foo").Eq("a"), Field("Baz").Eq(5)).Expr},
		{`Foo == "a" OR Baz == 5`, Or(Field("Foo").Eq("a"), Field("Baz").Eq(5)).Expr},
		{`!(Bar == true)`, Not(Field("Bar").Eq(true)).Expr},
		{`Foo.contains("a")`, Field("Foo").Contains("a").Expr},
		{"`not` == 5", Field("not").Eq(5).Expr},
		{"`null` != null", Field("null").Ne(nil).Expr},
		{"Address.`first-name` == \"a\"", Field("Address.first-name").Eq("a").Expr},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePredicate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePredicatePrecedence(t *testing.T) {
	got, err := ParsePredicate(`A == 1 || B == 2 && C == 3`)
	require.NoError(t, err)

	or, ok := got.(Binary)
	require.True(t, ok)
	assert.Equal(t, BinaryOrElse, or.Op)
	and, ok := or.Right.(Binary)
	require.True(t, ok)
	assert.Equal(t, BinaryAndAlso, and.Op)
}

func TestParsePredicateErrors(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"Baz ==",
		"== 5",
		`Foo == "unterminated`,
		"Baz == 5)",
		"Baz @ 5",
		"not == 5",
		"`` == 5",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParsePredicate(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestParseWhereTranslate(t *testing.T) {
	p, err := ParseWhere[testDoc](`5 <= Baz`)
	require.NoError(t, err)

	sel, err := Translate(p)
	require.NoError(t, err)
	assert.Equal(t, Selector{"Baz": Condition{"$gte": 5}}, sel)

	p, err = ParseWhere[testDoc](`title == "x"`)
	require.NoError(t, err)
	sel, err = Translate(p)
	require.NoError(t, err)
	assert.Equal(t, Selector{"title": Condition{"$eq": "x"}}, sel)

	p, err = ParseWhere[testDoc](`Foo == "a" AND Baz == 1`)
	require.NoError(t, err)
	_, err = Translate(p)
	assert.ErrorIs(t, err, ErrUnsupportedBooleanCombinator)

	_, err = ParseWhere[testDoc](`Foo ==`)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestFormatRoundTrip(t *testing.T) {
	exprs := []Term{
		Field("Baz").Gte(5),
		Value(5).Eq(Field("Baz")),
		Field("Foo").Ne("quote \" inside"),
		Field("Bat").Eq(nil),
		Field("Address.City").Eq("Oslo"),
		Field("Baz").Eq(Value(2).Add(3).Mul(4)),
		Field("Baz").Eq(Value(10).Sub(Value(3).Sub(2))),
		Or(Field("Foo").Eq("a"), And(Field("Baz").Gt(1), Field("Baz").Lt(9))),
		Field("Foo").Contains("a"),
	}
	for _, e := range exprs {
		t.Run(e.String(), func(t *testing.T) {
			got, err := ParsePredicate(e.String())
			require.NoError(t, err)
			assert.Equal(t, e.Expr, got)
		})
	}
}
