package mango

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string `json:"city"`
	Zip  int
}

type base struct {
	ID  string `json:"_id,omitempty"`
	Rev string `json:"_rev,omitempty"`
}

type testDoc struct {
	base
	Foo     string
	Bar     bool
	Baz     int
	Bat     *string
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Address address `json:"address"`
	Hidden  string  `json:"-"`
}

type level int

func TestAnalyzeOperators(t *testing.T) {
	tests := []struct {
		name string
		expr Term
		op   Operator
	}{
		{"equal", Field("Baz").Eq(5), Equal},
		{"not equal", Field("Baz").Ne(5), NotEqual},
		{"greater than", Field("Baz").Gt(5), GreaterThan},
		{"greater than or equal", Field("Baz").Gte(5), GreaterThanOrEqual},
		{"less than", Field("Baz").Lt(5), LessThan},
		{"less than or equal", Field("Baz").Lte(5), LessThanOrEqual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := Analyze(Where[testDoc](tt.expr))
			require.NoError(t, err)
			assert.Equal(t, Entry{Field: "Baz", Operator: tt.op, Operand: 5}, entry)

			sel, err := Translate(Where[testDoc](tt.expr))
			require.NoError(t, err)
			assert.Equal(t, Selector{"Baz": Condition{tt.op.Symbol(): 5}}, sel)
		})
	}
}

func TestAnalyzeOperandSources(t *testing.T) {
	t.Run("value on the left", func(t *testing.T) {
		forward, err := Translate(Where[testDoc](Field("Baz").Eq(5)))
		require.NoError(t, err)
		backward, err := Translate(Where[testDoc](Value(5).Eq(Field("Baz"))))
		require.NoError(t, err)
		assert.Equal(t, Selector{"Baz": Condition{"$eq": 5}}, backward)
		assert.Equal(t, forward, backward)
	})

	t.Run("ordering with the value on the left", func(t *testing.T) {
		tests := []struct {
			expr Term
			want Selector
		}{
			{Value(5).Lt(Field("Baz")), Selector{"Baz": Condition{"$gt": 5}}},
			{Value(5).Lte(Field("Baz")), Selector{"Baz": Condition{"$gte": 5}}},
			{Value(5).Gt(Field("Baz")), Selector{"Baz": Condition{"$lt": 5}}},
			{Value(5).Gte(Field("Baz")), Selector{"Baz": Condition{"$lte": 5}}},
			{Value(5).Ne(Field("Baz")), Selector{"Baz": Condition{"$neq": 5}}},
		}
		for _, tt := range tests {
			t.Run(tt.expr.String(), func(t *testing.T) {
				sel, err := Translate(Where[testDoc](tt.expr))
				require.NoError(t, err)
				assert.Equal(t, tt.want, sel)
			})
		}
	})

	t.Run("null", func(t *testing.T) {
		sel, err := Translate(Where[testDoc](Field("Bat").Eq(nil)))
		require.NoError(t, err)
		assert.Equal(t, Selector{"Bat": Condition{"$eq": nil}}, sel)
	})

	t.Run("captured variable", func(t *testing.T) {
		s := "test"
		sel, err := Translate(Where[testDoc](Field("Foo").Eq(Var(&s))))
		require.NoError(t, err)
		assert.Equal(t, Selector{"Foo": Condition{"$eq": "test"}}, sel)
	})

	t.Run("captured variable is read at translation", func(t *testing.T) {
		n := 1
		p := Where[testDoc](Field("Baz").Gt(Var(&n)))
		n = 7
		entry, err := Analyze(p)
		require.NoError(t, err)
		assert.Equal(t, 7, entry.Operand)
	})

	t.Run("boolean constant", func(t *testing.T) {
		sel, err := Translate(Where[testDoc](Field("Bar").Eq(false)))
		require.NoError(t, err)
		assert.Equal(t, Selector{"Bar": Condition{"$eq": false}}, sel)
	})

	t.Run("member of another value", func(t *testing.T) {
		other := testDoc{Baz: 5}
		entry, err := Analyze(Where[testDoc](Field("Baz").Eq(Value(other).Field("Baz"))))
		require.NoError(t, err)
		assert.Equal(t, 5, entry.Operand)
	})

	t.Run("member of a pointer by json name", func(t *testing.T) {
		other := &testDoc{Title: "hello"}
		entry, err := Analyze(Where[testDoc](Field("title").Eq(Value(other).Field("title"))))
		require.NoError(t, err)
		assert.Equal(t, "hello", entry.Operand)
	})

	t.Run("map member", func(t *testing.T) {
		params := map[string]any{"min": 3}
		entry, err := Analyze(Where[testDoc](Field("Baz").Gte(Value(params).Field("min"))))
		require.NoError(t, err)
		assert.Equal(t, 3, entry.Operand)
	})

	t.Run("closure", func(t *testing.T) {
		entry, err := Analyze(Where[testDoc](Field("Foo").Eq(Eval("name", func() (any, error) {
			return "computed", nil
		}))))
		require.NoError(t, err)
		assert.Equal(t, "computed", entry.Operand)
	})

	t.Run("conversion is transparent", func(t *testing.T) {
		entry, err := Analyze(Where[testDoc](Convert(Field("Baz"), "int64").Eq(Convert(Value(int32(4)), "int64"))))
		require.NoError(t, err)
		assert.Equal(t, "Baz", entry.Field)
		assert.Equal(t, int32(4), entry.Operand)
	})

	t.Run("constant folding", func(t *testing.T) {
		entry, err := Analyze(Where[testDoc](Field("Baz").Eq(Value(2).Add(3))))
		require.NoError(t, err)
		assert.Equal(t, 5, entry.Operand)

		entry, err = Analyze(Where[testDoc](Field("Baz").Eq(Value(5).Neg())))
		require.NoError(t, err)
		assert.Equal(t, -5, entry.Operand)

		entry, err = Analyze(Where[testDoc](Field("Foo").Eq(Value("a").Add("b"))))
		require.NoError(t, err)
		assert.Equal(t, "ab", entry.Operand)

		entry, err = Analyze(Where[testDoc](Field("Baz").Eq(Value(uint8(200)).Add(uint8(55)))))
		require.NoError(t, err)
		assert.Equal(t, uint8(255), entry.Operand)

		entry, err = Analyze(Where[testDoc](Field("Baz").Eq(Value(int8(-127)).Sub(int8(1)))))
		require.NoError(t, err)
		assert.Equal(t, int8(-128), entry.Operand)
	})

	t.Run("named types and pointers", func(t *testing.T) {
		entry, err := Analyze(Where[testDoc](Field("Baz").Eq(level(3))))
		require.NoError(t, err)
		assert.Equal(t, 3, entry.Operand)

		s := "x"
		entry, err = Analyze(Where[testDoc](Field("Foo").Eq(&s)))
		require.NoError(t, err)
		assert.Equal(t, "x", entry.Operand)

		var nilPtr *string
		entry, err = Analyze(Where[testDoc](Field("Bat").Eq(nilPtr)))
		require.NoError(t, err)
		assert.Nil(t, entry.Operand)
	})

	t.Run("integers are not widened", func(t *testing.T) {
		entry, err := Analyze(Where[testDoc](Field("Baz").Eq(int64(9))))
		require.NoError(t, err)
		assert.Equal(t, int64(9), entry.Operand)

		entry, err = Analyze(Where[testDoc](Field("Baz").Eq(uint8(9))))
		require.NoError(t, err)
		assert.Equal(t, uint8(9), entry.Operand)
	})
}

func TestAnalyzeFieldResolution(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  string
	}{
		{"go name", "Foo", "Foo"},
		{"json tag by go name", "Title", "title"},
		{"json tag by json name", "title", "title"},
		{"embedded struct", "ID", "_id"},
		{"embedded by json name", "_rev", "_rev"},
		{"nested path", "Address.City", "address.city"},
		{"nested untagged", "address.Zip", "address.Zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := Analyze(Where[testDoc](Field(tt.field).Eq("x")))
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry.Field)
		})
	}

	t.Run("pointer document type", func(t *testing.T) {
		entry, err := Analyze(Where[*testDoc](Field("Baz").Eq(1)))
		require.NoError(t, err)
		assert.Equal(t, "Baz", entry.Field)
	})

	t.Run("map documents accept any field", func(t *testing.T) {
		entry, err := Analyze(Where[map[string]any](Field("anything.at.all").Eq(1)))
		require.NoError(t, err)
		assert.Equal(t, "anything.at.all", entry.Field)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := Analyze(Where[testDoc](Field("Missing").Eq(1)))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownField))
	})

	t.Run("ignored field", func(t *testing.T) {
		_, err := Analyze(Where[testDoc](Field("Hidden").Eq(1)))
		assert.ErrorIs(t, err, ErrUnknownField)
	})

	t.Run("empty path segments", func(t *testing.T) {
		for _, path := range []string{"", "Address.", ".Foo", "Address..City"} {
			_, err := Analyze(Where[testDoc](Field(path).Eq("x")))
			assert.ErrorIs(t, err, ErrUnknownField, "path %q", path)
		}

		_, err := Analyze(Where[map[string]any](Field("").Eq("x")))
		assert.ErrorIs(t, err, ErrUnknownField)
	})

	t.Run("path through a scalar", func(t *testing.T) {
		_, err := Analyze(Where[testDoc](Field("Baz.Value").Eq(1)))
		assert.ErrorIs(t, err, ErrUnknownField)
	})
}

func TestAnalyzeRejections(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		err  error
	}{
		{"and", And(Field("Foo").Eq("a"), Field("Baz").Eq(5)), ErrUnsupportedBooleanCombinator},
		{"or", Or(Field("Foo").Eq("a"), Field("Baz").Eq(5)), ErrUnsupportedBooleanCombinator},
		{"method call", Field("Foo").Contains("a"), ErrUnsupportedExpressionShape},
		{"bare boolean field", Field("Bar"), ErrUnsupportedExpressionShape},
		{"negation", Not(Field("Bar").Eq(true)), ErrUnsupportedExpressionShape},
		{"constant", Value(true), ErrUnsupportedExpressionShape},
		{"nil body", nil, ErrUnsupportedExpressionShape},
		{"modulus", Field("Baz").Mod(2), ErrUnsupportedOperator},
		{"bitwise", Field("Baz").Op(BinaryBitAnd, 1), ErrUnsupportedOperator},
		{"float operand", Field("Score").Gt(1.5), ErrUnsupportedOperandType},
		{"slice operand", Field("Foo").Eq([]string{"a"}), ErrUnsupportedOperandType},
		{"struct operand", Field("Foo").Eq(address{}), ErrUnsupportedOperandType},
		{"two fields", Field("Foo").Eq(Field("Title")), ErrUnsupportedExpressionShape},
		{"two literals", Value(5).Eq(6), ErrUnsupportedExpressionShape},
		{"call as operand", Field("Foo").Eq(Value("a").Call("upper")), ErrUnsupportedExpressionShape},
		{"field inside arithmetic", Field("Baz").Eq(Field("Baz").Add(1)), ErrUnsupportedExpressionShape},
		{"nil captured pointer", Field("Foo").Eq(Var(nil)), ErrUnsupportedExpressionShape},
		{"division by zero", Field("Baz").Eq(Value(1).Div(0)), ErrUnsupportedExpressionShape},
		{"missing member", Field("Baz").Eq(Value(address{}).Field("Nope")), ErrUnsupportedExpressionShape},
		{"uint8 overflow", Field("Baz").Eq(Value(uint8(200)).Add(uint8(100))), ErrUnsupportedOperandType},
		{"unsigned underflow", Field("Baz").Eq(Value(uint(1)).Sub(uint(2))), ErrUnsupportedOperandType},
		{"int64 overflow", Field("Baz").Eq(Value(int64(math.MaxInt64)).Add(int64(1))), ErrUnsupportedOperandType},
		{"int64 product overflow", Field("Baz").Eq(Value(int64(math.MinInt64)).Mul(int64(-1))), ErrUnsupportedOperandType},
		{"negated int8 minimum", Field("Baz").Eq(Value(int8(math.MinInt8)).Neg()), ErrUnsupportedOperandType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyze(Where[testDoc](tt.expr))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAnalyzeCombinatorMessage(t *testing.T) {
	_, err := Analyze(Where[testDoc](Or(Field("Foo").Eq("a"), Field("Foo").Eq("b"))))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "view")
	assert.Contains(t, err.Error(), `Foo == "a" || Foo == "b"`)
	assert.False(t, errors.Is(err, ErrUnsupportedExpressionShape))
}

func TestAnalyzeClosureError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Analyze(Where[testDoc](Field("Foo").Eq(Eval("lookup", func() (any, error) {
		return nil, boom
	}))))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedExpressionShape)
	assert.Contains(t, err.Error(), "boom")
}

func TestTranslateIdempotent(t *testing.T) {
	s := "test"
	p := Where[testDoc](Field("Foo").Ne(Var(&s)))
	first, err := Translate(p)
	require.NoError(t, err)
	second, err := Translate(p)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
