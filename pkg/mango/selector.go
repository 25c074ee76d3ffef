package mango

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Entry is the result of analyzing one predicate: field → {operator: operand}.
type Entry struct {
	Field    string
	Operator Operator
	Operand  any
}

// Condition maps operator symbols to operands, e.g. {"$gt": 10}.
type Condition map[string]any

// Selector is the value sent under the "selector" key of a _find request.
type Selector map[string]Condition

// Condition returns the entry as a one-operator condition.
func (e Entry) Condition() Condition {
	return Condition{e.Operator.Symbol(): e.Operand}
}

// Fragment renders the entry as `"field": { "$op": value }`.
func (e Entry) Fragment() (string, error) {
	return fragment(e.Field, e.Condition())
}

// NewSelector merges entries into a selector.
func NewSelector(entries ...Entry) (Selector, error) {
	s := make(Selector, len(entries))
	for _, e := range entries {
		if err := s.Add(e); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Translate analyzes p and returns its selector.
func Translate[T any](p Predicate[T]) (Selector, error) {
	entry, err := Analyze(p)
	if err != nil {
		return nil, err
	}
	return NewSelector(entry)
}

// Add merges e into s. A second operator on the same field joins the
// existing condition; the same operator replaces its operand. s must be
// non-nil.
func (s Selector) Add(e Entry) error {
	if !e.Operator.Valid() {
		return fmt.Errorf("%w: %s on field %q", ErrUnsupportedOperator, e.Operator, e.Field)
	}
	cond, ok := s[e.Field]
	if !ok {
		cond = make(Condition, 1)
		s[e.Field] = cond
	}
	cond[e.Operator.Symbol()] = e.Operand
	return nil
}

// Fields returns the selector's field names in sorted order.
func (s Selector) Fields() []string {
	fields := make([]string, 0, len(s))
	for f := range s {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Fragment renders s as comma-separated `"field": { "$op": value }` pairs.
func (s Selector) Fragment() (string, error) {
	parts := make([]string, 0, len(s))
	for _, f := range s.Fields() {
		part, err := fragment(f, s[f])
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", "), nil
}

// JSON encodes s without HTML escaping.
func (s Selector) JSON() ([]byte, error) {
	return encode(s)
}

func fragment(field string, cond Condition) (string, error) {
	key, err := encode(field)
	if err != nil {
		return "", err
	}
	ops := make([]string, 0, len(cond))
	for op := range cond {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		val, err := encode(cond[op])
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%q: %s", op, val))
	}
	return fmt.Sprintf("%s: { %s }", key, strings.Join(parts, ", ")), nil
}

func encode(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
