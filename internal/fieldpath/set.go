package fieldpath

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/tidwall/sjson"
)

var (
	ErrEmptyPath    = errors.New("empty path")
	ErrNotSettable  = errors.New("path segment cannot hold a value")
	ErrTypeMismatch = errors.New("value type does not match field type")
)

// Setter is implemented by containers that accept named values.
type Setter interface {
	Set(name string, value any)
}

// Set writes value at path inside root and returns the updated root.
// A nil root becomes a map[string]any. Missing intermediate containers
// are created; maps and struct pointers are updated in place, while
// RawJSON documents and struct values are replaced by updated copies.
func Set(root any, path string, value any) (any, error) {
	segments := Split(path)
	if len(segments) == 0 {
		return root, ErrEmptyPath
	}

	if doc, ok := rawDocument(root); ok {
		updated, err := sjson.SetBytes(doc, jsonPath(segments), value)
		if err != nil {
			return root, fmt.Errorf("set %q: %w", path, err)
		}

		return RawJSON(updated), nil
	}

	if root == nil {
		root = map[string]any{}
	}

	updated, err := setIn(root, segments, value)
	if err != nil {
		return root, fmt.Errorf("set %q: %w", path, err)
	}

	return updated, nil
}

func setIn(container any, segments []string, value any) (any, error) {
	seg := segments[0]
	if len(segments) == 1 {
		return assign(container, seg, value)
	}

	child := step(container, seg)
	if child == nil {
		child = newChild(container, seg)
	}

	if doc, ok := rawDocument(child); ok {
		updated, err := sjson.SetBytes(doc, jsonPath(segments[1:]), value)
		if err != nil {
			return container, err
		}

		return assign(container, seg, RawJSON(updated))
	}

	updated, err := setIn(child, segments[1:], value)
	if err != nil {
		return container, err
	}

	return assign(container, seg, updated)
}

// newChild builds an empty container for a missing segment, honoring the
// declared type of a struct field when there is one.
func newChild(container any, seg string) any {
	rv := indirect(reflect.ValueOf(container))
	if rv.IsValid() && rv.Kind() == reflect.Struct {
		if f, ok := fieldByName(rv, seg); ok {
			switch {
			case f.Kind() == reflect.Pointer && f.Type().Elem().Kind() == reflect.Struct:
				return reflect.New(f.Type().Elem()).Interface()
			case f.Kind() == reflect.Struct:
				return reflect.New(f.Type()).Elem().Interface()
			case f.Kind() == reflect.Map && f.Type().Key().Kind() == reflect.String:
				return reflect.MakeMap(f.Type()).Interface()
			}
		}
	}

	return map[string]any{}
}

func assign(container any, seg string, value any) (any, error) {
	switch c := container.(type) {
	case Setter:
		c.Set(seg, value)
		return c, nil
	case map[string]any:
		c[seg] = value
		return c, nil
	case []any:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx > len(c) {
			return c, fmt.Errorf("%w: index %q", ErrNotSettable, seg)
		}

		if idx == len(c) {
			return append(c, value), nil
		}

		c[idx] = value

		return c, nil
	}

	return reflectAssign(container, seg, value)
}

func reflectAssign(container any, seg string, value any) (any, error) {
	rv := reflect.ValueOf(container)
	target := indirect(rv)

	if !target.IsValid() {
		return container, fmt.Errorf("%w: nil container at %q", ErrNotSettable, seg)
	}

	switch target.Kind() {
	case reflect.Map:
		if target.Type().Key().Kind() != reflect.String {
			return container, fmt.Errorf("%w: map key is not a string", ErrNotSettable)
		}

		v, err := convert(value, target.Type().Elem())
		if err != nil {
			return container, err
		}

		target.SetMapIndex(reflect.ValueOf(seg).Convert(target.Type().Key()), v)

		return container, nil

	case reflect.Struct:
		// Struct values are copied so the field becomes addressable.
		addressable := target.CanAddr()
		if !addressable {
			cp := reflect.New(target.Type()).Elem()
			cp.Set(target)
			target = cp
		}

		f, ok := fieldByName(target, seg)
		if !ok || !f.CanSet() {
			return container, fmt.Errorf("%w: no settable field %q on %s", ErrNotSettable, seg, target.Type())
		}

		v, err := convert(value, f.Type())
		if err != nil {
			return container, fmt.Errorf("field %q: %w", seg, err)
		}

		f.Set(v)

		if !addressable {
			return target.Interface(), nil
		}

		return container, nil

	default:
		return container, fmt.Errorf("%w: %T at %q", ErrNotSettable, container, seg)
	}
}

// convert adapts value to t: assignable values pass, numeric and named
// types convert, and values are lifted into pointers when t is a pointer.
func convert(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(value)

	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case t.Kind() == reflect.Pointer && rv.Type().AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(rv)

		return p, nil
	case convertible(rv.Type(), t):
		out := rv.Convert(t)
		if lossy(rv, out) {
			return reflect.Value{}, fmt.Errorf("%w: %v does not fit %s", ErrTypeMismatch, value, t)
		}

		return out, nil
	default:
		return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", ErrTypeMismatch, rv.Type(), t)
	}
}

// convertible rejects the integer-to-string conversion reflect allows.
func convertible(from, to reflect.Type) bool {
	if to.Kind() == reflect.String && from.Kind() != reflect.String {
		return false
	}

	return from.ConvertibleTo(to)
}

// lossy reports a float converted to an integer kind that does not convert
// back to the same value: fractions and out of range values.
func lossy(from, to reflect.Value) bool {
	if !from.CanFloat() {
		return false
	}

	switch {
	case to.CanInt():
		return float64(to.Int()) != from.Float()
	case to.CanUint():
		return float64(to.Uint()) != from.Float()
	}

	return false
}
