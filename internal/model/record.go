// Package model provides the record handle the transformer engine fills
// and persists: a typed, optionally persisted set of named attributes.
package model

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// IDField is the name under which a record exposes its identifier.
const IDField = "id"

// Record is a domain record handle. A record without an identifier has not
// been persisted yet.
type Record struct {
	Type string
	ID   string

	attrs *Attributes
}

// New returns an unsaved record of the given type.
func New(typ string) *Record {
	return &Record{Type: typ, attrs: NewAttributes()}
}

// Load returns a handle on a persisted record.
func Load(typ, id string, attrs *Attributes) *Record {
	if attrs == nil {
		attrs = NewAttributes()
	}

	return &Record{Type: typ, ID: id, attrs: attrs}
}

// Exists reports whether the record has been persisted.
func (r *Record) Exists() bool {
	return r.ID != ""
}

// Get returns a named attribute; IDField resolves to the identifier unless
// an attribute of that name is set.
func (r *Record) Get(name string) (any, bool) {
	if v, ok := r.attributes().Get(name); ok {
		return v, true
	}

	if name == IDField && r.ID != "" {
		return r.ID, true
	}

	return nil, false
}

// Set assigns a named attribute in memory.
func (r *Record) Set(name string, value any) {
	r.attributes().Set(name, value)
}

// Fill assigns every attribute of attrs in memory without persisting.
func (r *Record) Fill(attrs *Attributes) {
	r.attributes().Merge(attrs)
}

// Attributes returns a copy of the record's attributes.
func (r *Record) Attributes() *Attributes {
	return r.attributes().Clone()
}

// Identity returns a key unique to the record: type and ID once persisted,
// the handle's address before.
func (r *Record) Identity() string {
	if r.ID != "" {
		return r.Type + ":" + r.ID
	}

	return fmt.Sprintf("%s:%p", r.Type, r)
}

// Decode copies the record's attributes, and its ID as IDField, into out,
// a pointer to a struct or map. Struct fields are matched by json tag and
// values are converted weakly ("30" decodes into an int).
func (r *Record) Decode(out any) error {
	in := r.attributes().Map()
	if r.ID != "" {
		if _, ok := in[IDField]; !ok {
			in[IDField] = r.ID
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("record decoder: %w", err)
	}

	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("decode %s record: %w", r.Type, err)
	}

	return nil
}

// Snapshot returns an independent copy of the record.
func (r *Record) Snapshot() *Record {
	return &Record{Type: r.Type, ID: r.ID, attrs: r.attributes().Clone()}
}

// Restore resets the record to a snapshot, keeping the handle.
func (r *Record) Restore(s *Record) {
	r.Type = s.Type
	r.ID = s.ID
	r.attrs = s.attributes().Clone()
}

// String implements fmt.Stringer.
func (r *Record) String() string {
	if r.ID == "" {
		return r.Type + "(new)"
	}

	return r.Type + "(" + r.ID + ")"
}

func (r *Record) attributes() *Attributes {
	if r.attrs == nil {
		r.attrs = NewAttributes()
	}

	return r.attrs
}
