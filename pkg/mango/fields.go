package mango

import (
	"fmt"
	"reflect"
	"strings"
)

// resolveField maps a member path to the selector key for docType. Struct
// fields are matched by Go name or JSON name and reported by JSON name when
// tagged. Maps and interfaces accept any path verbatim.
func resolveField(docType reflect.Type, path []string) (string, error) {
	for _, seg := range path {
		if seg == "" {
			return "", fmt.Errorf("%w: empty segment in %q", ErrUnknownField, strings.Join(path, "."))
		}
	}
	names := make([]string, 0, len(path))
	t := docType
	for i, seg := range path {
		for t != nil && t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t == nil || t.Kind() == reflect.Map || t.Kind() == reflect.Interface {
			names = append(names, path[i:]...)
			break
		}
		if t.Kind() != reflect.Struct {
			return "", fmt.Errorf("%w: %s has no field %q", ErrUnknownField, t, seg)
		}
		f, name, ok := lookupField(t, seg)
		if !ok {
			return "", fmt.Errorf("%w: %q on %s", ErrUnknownField, strings.Join(path[:i+1], "."), docType)
		}
		names = append(names, name)
		t = f.Type
	}
	return strings.Join(names, "."), nil
}

// lookupField searches direct fields first, then anonymous embedded structs.
func lookupField(t reflect.Type, seg string) (reflect.StructField, string, bool) {
	var embedded []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := jsonName(f)
		if tag == "-" {
			continue
		}
		if f.Anonymous && tag == "" {
			embedded = append(embedded, f)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if f.Name == seg || (tag != "" && tag == seg) {
			if tag != "" {
				return f, tag, true
			}
			return f, f.Name, true
		}
	}
	for _, f := range embedded {
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() != reflect.Struct {
			continue
		}
		if found, name, ok := lookupField(ft, seg); ok {
			return found, name, true
		}
	}
	return reflect.StructField{}, "", false
}
