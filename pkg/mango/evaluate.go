package mango

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// evaluate computes the value of an expression that does not reference the
// document parameter. Method calls are rejected rather than invoked.
func evaluate(e Expr) (any, error) {
	switch n := unwrap(e).(type) {
	case Const:
		return n.Value, nil
	case Captured:
		rv := reflect.ValueOf(n.Ptr)
		if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
			return nil, fmt.Errorf("%w: captured variable %s must be a non-nil pointer", ErrUnsupportedExpressionShape, Format(n))
		}
		return rv.Elem().Interface(), nil
	case Closure:
		if n.Fn == nil {
			return nil, fmt.Errorf("%w: %s has no function", ErrUnsupportedExpressionShape, Format(n))
		}
		v, err := n.Fn()
		if err != nil {
			return nil, fmt.Errorf("%w: evaluate %s: %v", ErrUnsupportedExpressionShape, Format(n), err)
		}
		return v, nil
	case Member:
		target, err := evaluate(n.Target)
		if err != nil {
			return nil, err
		}
		return memberValue(target, n.Name)
	case Unary:
		return evalUnary(n)
	case Binary:
		return evalBinary(n)
	case Param:
		return nil, fmt.Errorf("%w: the document itself cannot be used as a value", ErrUnsupportedExpressionShape)
	case Call:
		return nil, fmt.Errorf("%w: method call %s cannot be evaluated", ErrUnsupportedExpressionShape, Format(n))
	case nil:
		return nil, fmt.Errorf("%w: missing operand", ErrUnsupportedExpressionShape)
	default:
		return nil, fmt.Errorf("%w: %T cannot be evaluated", ErrUnsupportedExpressionShape, n)
	}
}

func memberValue(target any, name string) (any, error) {
	rv := reflect.ValueOf(target)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: member %s accessed on nil", ErrUnsupportedExpressionShape, name)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, fmt.Errorf("%w: member %s accessed on nil", ErrUnsupportedExpressionShape, name)
	}

	switch rv.Kind() {
	case reflect.Struct:
		if f, ok := rv.Type().FieldByName(name); ok && f.IsExported() {
			return rv.FieldByIndex(f.Index).Interface(), nil
		}
		for i := 0; i < rv.NumField(); i++ {
			f := rv.Type().Field(i)
			if f.IsExported() && jsonName(f) == name {
				return rv.Field(i).Interface(), nil
			}
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if v.IsValid() {
				return v.Interface(), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s has no member %s", ErrUnsupportedExpressionShape, rv.Type(), name)
}

func evalUnary(n Unary) (any, error) {
	v, err := evaluate(n.Operand)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case UnaryNot:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: cannot negate %T", ErrUnsupportedOperandType, v)
		}
		return !b, nil
	case UnaryNegate:
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || !isSigned(rv.Kind()) {
			return nil, fmt.Errorf("%w: cannot negate %T", ErrUnsupportedOperandType, v)
		}
		if rv.Int() == math.MinInt64 {
			return nil, fmt.Errorf("%w: %s overflows int64", ErrUnsupportedOperandType, Format(n))
		}
		return convertInt(-rv.Int(), rv.Type(), Format(n))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperator, n.Op)
	}
}

// evalBinary folds a binary expression over constant operands. Integer
// arithmetic keeps the operand type when both sides share it.
func evalBinary(n Binary) (any, error) {
	lv, err := evaluate(n.Left)
	if err != nil {
		return nil, err
	}
	rv, err := evaluate(n.Right)
	if err != nil {
		return nil, err
	}

	if n.Op.Logical() {
		lb, lok := lv.(bool)
		rb, rok := rv.(bool)
		if !lok || !rok {
			return nil, fmt.Errorf("%w: %s needs boolean operands", ErrUnsupportedOperandType, n.Op)
		}
		if n.Op == BinaryAndAlso {
			return lb && rb, nil
		}
		return lb || rb, nil
	}

	if ls, ok := lv.(string); ok {
		if rs, ok := rv.(string); ok {
			return foldStrings(n.Op, ls, rs)
		}
	}

	li, lok := toInt64(lv)
	ri, rok := toInt64(rv)
	if lok && rok {
		res, err := foldInts(n.Op, li, ri)
		if err != nil {
			return nil, err
		}
		if i, ok := res.(int64); ok {
			lt, rt := reflect.TypeOf(lv), reflect.TypeOf(rv)
			if lt == rt {
				return convertInt(i, lt, Format(n))
			}
		}
		return res, nil
	}

	switch n.Op {
	case BinaryEqual:
		return reflect.DeepEqual(lv, rv), nil
	case BinaryNotEqual:
		return !reflect.DeepEqual(lv, rv), nil
	}
	return nil, fmt.Errorf("%w: %T %s %T", ErrUnsupportedOperandType, lv, n.Op, rv)
}

func foldStrings(op BinaryOp, l, r string) (any, error) {
	switch op {
	case BinaryAdd:
		return l + r, nil
	case BinaryEqual:
		return l == r, nil
	case BinaryNotEqual:
		return l != r, nil
	case BinaryGreaterThan:
		return l > r, nil
	case BinaryGreaterThanOrEqual:
		return l >= r, nil
	case BinaryLessThan:
		return l < r, nil
	case BinaryLessThanOrEqual:
		return l <= r, nil
	}
	return nil, fmt.Errorf("%w: %s on strings", ErrUnsupportedOperator, op)
}

// convertInt converts a folded result back to the operand type, failing when
// it does not fit.
func convertInt(i int64, t reflect.Type, desc string) (any, error) {
	out := reflect.New(t).Elem()
	switch {
	case isSigned(t.Kind()):
		if out.OverflowInt(i) {
			return nil, fmt.Errorf("%w: %s overflows %s", ErrUnsupportedOperandType, desc, t)
		}
		out.SetInt(i)
	case isUnsigned(t.Kind()):
		if i < 0 || out.OverflowUint(uint64(i)) {
			return nil, fmt.Errorf("%w: %s overflows %s", ErrUnsupportedOperandType, desc, t)
		}
		out.SetUint(uint64(i))
	default:
		return i, nil
	}
	return out.Interface(), nil
}

func foldInts(op BinaryOp, l, r int64) (any, error) {
	overflow := func() error {
		return fmt.Errorf("%w: %d %s %d overflows int64", ErrUnsupportedOperandType, l, op, r)
	}
	switch op {
	case BinaryAdd:
		sum := l + r
		if (r > 0 && sum < l) || (r < 0 && sum > l) {
			return nil, overflow()
		}
		return sum, nil
	case BinarySubtract:
		diff := l - r
		if (r > 0 && diff > l) || (r < 0 && diff < l) {
			return nil, overflow()
		}
		return diff, nil
	case BinaryMultiply:
		if l == 0 || r == 0 {
			return int64(0), nil
		}
		prod := l * r
		if prod/r != l || (l == -1 && r == math.MinInt64) || (r == -1 && l == math.MinInt64) {
			return nil, overflow()
		}
		return prod, nil
	case BinaryDivide, BinaryModulo:
		if r == 0 {
			return nil, fmt.Errorf("%w: division by zero", ErrUnsupportedExpressionShape)
		}
		if r == -1 && l == math.MinInt64 {
			if op == BinaryModulo {
				return int64(0), nil
			}
			return nil, overflow()
		}
		if op == BinaryDivide {
			return l / r, nil
		}
		return l % r, nil
	case BinaryBitAnd:
		return l & r, nil
	case BinaryBitOr:
		return l | r, nil
	case BinaryXor:
		return l ^ r, nil
	case BinaryEqual:
		return l == r, nil
	case BinaryNotEqual:
		return l != r, nil
	case BinaryGreaterThan:
		return l > r, nil
	case BinaryGreaterThanOrEqual:
		return l >= r, nil
	case BinaryLessThan:
		return l < r, nil
	case BinaryLessThanOrEqual:
		return l <= r, nil
	}
	return nil, fmt.Errorf("%w: %s on integers", ErrUnsupportedOperator, op)
}

func toInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return 0, false
	}
	switch {
	case isSigned(rv.Kind()):
		return rv.Int(), true
	case isUnsigned(rv.Kind()):
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

var builtinKinds = map[reflect.Kind]reflect.Type{
	reflect.String: reflect.TypeFor[string](),
	reflect.Bool:   reflect.TypeFor[bool](),
	reflect.Int:    reflect.TypeFor[int](),
	reflect.Int8:   reflect.TypeFor[int8](),
	reflect.Int16:  reflect.TypeFor[int16](),
	reflect.Int32:  reflect.TypeFor[int32](),
	reflect.Int64:  reflect.TypeFor[int64](),
	reflect.Uint:   reflect.TypeFor[uint](),
	reflect.Uint8:  reflect.TypeFor[uint8](),
	reflect.Uint16: reflect.TypeFor[uint16](),
	reflect.Uint32: reflect.TypeFor[uint32](),
	reflect.Uint64: reflect.TypeFor[uint64](),
}

// normalizeOperand accepts strings, bools, integers and nil. Named types are
// converted to their builtin kind and non-nil pointers are dereferenced.
func normalizeOperand(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if n, ok := v.(json.Number); ok {
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: non-integer number %s", ErrUnsupportedOperandType, n)
		}
		return i, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return normalizeOperand(rv.Elem().Interface())
	}
	if t, ok := builtinKinds[rv.Kind()]; ok {
		if rv.Type() == t {
			return v, nil
		}
		return rv.Convert(t).Interface(), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedOperandType, v)
}

func isSigned(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUnsigned(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}
