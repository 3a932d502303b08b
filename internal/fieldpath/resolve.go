package fieldpath

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"transformer/internal/naming"
)

// Separator splits path segments.
const Separator = "."

// RawJSON is an encoded JSON document used as a data container.
type RawJSON []byte

// Getter is implemented by containers that expose named values.
type Getter interface {
	Get(name string) (any, bool)
}

// Split splits a path into its segments. An empty path has no segments.
func Split(path string) []string {
	if path == "" {
		return nil
	}

	return strings.Split(path, Separator)
}

// Resolve returns the value found at path inside root, or nil on any miss.
func Resolve(root any, path string) (result any) {
	defer func() {
		if recover() != nil {
			result = nil
		}
	}()

	segments := Split(path)
	if len(segments) == 0 {
		return nil
	}

	current := root

	for i, seg := range segments {
		if doc, ok := rawDocument(current); ok {
			return resolveJSON(doc, segments[i:])
		}

		current = step(current, seg)
		if current == nil {
			return nil
		}
	}

	return current
}

// step descends one segment; it returns nil when the segment does not exist.
func step(current any, seg string) any {
	switch c := current.(type) {
	case nil:
		return nil
	case Getter:
		v, _ := c.Get(seg)
		return Absent(v)
	case map[string]any:
		return Absent(c[seg])
	case []any:
		idx, ok := index(seg, len(c))
		if !ok {
			return nil
		}

		return Absent(c[idx])
	}

	return reflectStep(reflect.ValueOf(current), seg)
}

func reflectStep(rv reflect.Value, seg string) any {
	holder := rv
	rv = indirect(rv)

	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}

		v := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil
		}

		return valueOf(v)

	case reflect.Slice, reflect.Array:
		idx, ok := index(seg, rv.Len())
		if !ok {
			return nil
		}

		return valueOf(rv.Index(idx))

	case reflect.Struct:
		if f, ok := fieldByName(rv, seg); ok {
			return valueOf(f)
		}

		return callAccessor(holder, seg)

	default:
		return callAccessor(holder, seg)
	}
}

// fieldByName looks a struct field up by exact name, PascalCase name,
// json tag, then folded name. Only exported fields are considered.
func fieldByName(rv reflect.Value, name string) (reflect.Value, bool) {
	t := rv.Type()

	for _, candidate := range []string{name, naming.Pascal(name)} {
		if sf, ok := t.FieldByName(candidate); ok && sf.IsExported() {
			return rv.FieldByIndex(sf.Index), true
		}
	}

	folded := naming.Fold(name)

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		if tag := jsonName(sf); tag == name {
			return rv.Field(i), true
		}

		if naming.Fold(sf.Name) == folded {
			return rv.Field(i), true
		}
	}

	return reflect.Value{}, false
}

// callAccessor invokes a zero-argument method named after seg.
// A trailing error result that is non-nil turns the call into a miss.
func callAccessor(rv reflect.Value, seg string) any {
	if !rv.IsValid() {
		return nil
	}

	for _, name := range []string{seg, naming.Pascal(seg)} {
		m := rv.MethodByName(name)
		if !m.IsValid() {
			continue
		}

		mt := m.Type()
		if mt.NumIn() != 0 || mt.NumOut() == 0 {
			return nil
		}

		out := m.Call(nil)
		if len(out) == 2 && out[1].Type().Implements(errorType) && !out[1].IsNil() {
			return nil
		}

		return valueOf(out[0])
	}

	return nil
}

func resolveJSON(doc []byte, segments []string) any {
	res := gjson.GetBytes(doc, jsonPath(segments))
	if !res.Exists() || res.Type == gjson.Null {
		return nil
	}

	return res.Value()
}

func rawDocument(v any) ([]byte, bool) {
	switch d := v.(type) {
	case RawJSON:
		return d, true
	case json.RawMessage:
		return d, true
	default:
		return nil, false
	}
}

// jsonPath escapes gjson wildcard and modifier characters in each segment.
func jsonPath(segments []string) string {
	escaped := make([]string, len(segments))

	for i, seg := range segments {
		var b strings.Builder

		for _, r := range seg {
			if strings.ContainsRune(`\*?#@|!`, r) {
				b.WriteByte('\\')
			}

			b.WriteRune(r)
		}

		escaped[i] = b.String()
	}

	return strings.Join(escaped, Separator)
}

var errorType = reflect.TypeFor[error]()

func index(seg string, length int) (int, bool) {
	idx, err := strconv.Atoi(seg)
	if err != nil || idx < 0 || idx >= length {
		return 0, false
	}

	return idx, true
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}

		rv = rv.Elem()
	}

	return rv
}

func valueOf(rv reflect.Value) any {
	if !rv.IsValid() || !rv.CanInterface() {
		return nil
	}

	return Absent(rv.Interface())
}

// Absent collapses typed nils (nil pointers, maps, slices) to an untyped nil.
func Absent(v any) any {
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	}

	return v
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}

	name, _, _ := strings.Cut(tag, ",")

	return name
}
