package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when attributes cannot be decoded from JSON.
var ErrInvalidJSON = errors.New("invalid attributes JSON")

// Attributes is an insertion-ordered set of named values.
// Re-setting a name keeps its original position.
type Attributes struct {
	keys   []string
	values map[string]any
}

// NewAttributes creates an empty attribute set.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]any)}
}

// AttributesOf builds an attribute set from m with keys in sorted order.
func AttributesOf(m map[string]any) *Attributes {
	a := NewAttributes()
	for _, k := range slices.Sorted(maps.Keys(m)) {
		a.Set(k, m[k])
	}

	return a
}

// Set assigns value to name.
func (a *Attributes) Set(name string, value any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}

	if _, ok := a.values[name]; !ok {
		a.keys = append(a.keys, name)
	}

	a.values[name] = value
}

// Get returns the value of name.
func (a *Attributes) Get(name string) (any, bool) {
	if a == nil {
		return nil, false
	}

	v, ok := a.values[name]

	return v, ok
}

// Delete removes name.
func (a *Attributes) Delete(name string) {
	if _, ok := a.values[name]; !ok {
		return
	}

	delete(a.values, name)
	a.keys = slices.DeleteFunc(a.keys, func(k string) bool { return k == name })
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}

	return len(a.keys)
}

// Keys returns the attribute names in insertion order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}

	return slices.Clone(a.keys)
}

// Map returns a copy of the attributes as a plain map.
func (a *Attributes) Map() map[string]any {
	if a == nil {
		return map[string]any{}
	}

	return maps.Clone(a.values)
}

// Clone returns an independent copy. Values are copied shallowly.
func (a *Attributes) Clone() *Attributes {
	c := NewAttributes()
	for _, k := range a.Keys() {
		c.Set(k, a.values[k])
	}

	return c
}

// Merge sets every attribute of other on a, in other's order.
func (a *Attributes) Merge(other *Attributes) {
	for _, k := range other.Keys() {
		v, _ := other.Get(k)
		a.Set(k, v)
	}
}

// MarshalJSON encodes the attributes as a JSON object in insertion order.
func (a *Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, k := range a.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(a.values[k])
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document's key order.
// Numbers decode as float64, as with encoding/json.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return ErrInvalidJSON
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return fmt.Errorf("%w: expected object, got %s", ErrInvalidJSON, doc.Type)
	}

	a.keys = nil
	a.values = make(map[string]any)

	doc.ForEach(func(key, value gjson.Result) bool {
		a.Set(key.String(), value.Value())
		return true
	})

	return nil
}
