// Package cast provides per-field value codecs applied during conversion.
//
// A Caster converts in both directions: Decode turns a data-side value into
// the model-side representation (used when importing), Encode renders a
// model-side value for the data side (used when exporting). Nil values are
// never handed to a caster; they pass through so defaults can apply.
//
// Casters are referenced by identifier in a definition's casts map. An
// identifier is a caster name with an optional argument after a colon:
//
//	casts:
//	  born_at: date:Y-m-d
//	  age: int
//	  settings: json
//	  price: money        # custom, registered on the Factory
package cast

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"transformer/internal/naming"
)

var (
	ErrUnknownCaster     = errors.New("unknown caster")
	ErrUnsupportedValue  = errors.New("unsupported value for caster")
	ErrUnsupportedFormat = errors.New("unsupported date format token")
)

// Caster is a bidirectional value codec.
type Caster interface {
	// Decode converts a data-side value to its model-side representation.
	Decode(value any) (any, error)
	// Encode converts a model-side value to its data-side representation.
	Encode(value any) (any, error)
}

// Options carry instance-level settings into caster constructors.
type Options struct {
	// DateFormat is used by date casters declared without an explicit format.
	DateFormat string
}

// Constructor builds a caster from the argument part of its identifier.
type Constructor func(arg string, opts Options) (Caster, error)

// Error reports a caster rejecting a value.
type Error struct {
	Field  string
	Caster string
	Value  any
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cast field %q with %s (value %v): %v", e.Field, e.Caster, e.Value, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Factory holds the caster constructors known to an engine.
type Factory struct {
	constructors map[string]Constructor
}

// NewFactory creates a factory with the built-in casters registered:
// date, datetime, int, float, string, bool and json.
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[string]Constructor)}

	f.Register("date", func(arg string, opts Options) (Caster, error) {
		return NewDate(pick(arg, opts.DateFormat), true)
	})
	f.Register("datetime", func(arg string, opts Options) (Caster, error) {
		return NewDate(pick(arg, opts.DateFormat), false)
	})
	f.Register("int", weak[int64]("int"))
	f.Register("float", weak[float64]("float"))
	f.Register("string", weak[string]("string"))
	f.Register("bool", weak[bool]("bool"))
	f.Register("json", func(string, Options) (Caster, error) { return JSON{}, nil })

	return f
}

// Register adds or replaces a constructor under name.
func (f *Factory) Register(name string, c Constructor) {
	f.constructors[name] = c
}

// Has reports whether a caster named name is registered.
func (f *Factory) Has(name string) bool {
	_, ok := f.constructors[name]
	return ok
}

// Names returns the registered caster names, sorted.
func (f *Factory) Names() []string {
	names := make([]string, 0, len(f.constructors))
	for name := range f.constructors {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Build constructs the caster for an identifier such as "date:Y-m-d".
func (f *Factory) Build(id string, opts Options) (Caster, error) {
	name, arg := ParseID(id)

	c, ok := f.constructors[name]
	if !ok {
		if s, found := naming.Suggest(name, f.Names()); found {
			return nil, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownCaster, name, s)
		}

		return nil, fmt.Errorf("%w %q", ErrUnknownCaster, name)
	}

	return c(arg, opts)
}

// ParseID splits a caster identifier into its name and argument.
func ParseID(id string) (name, arg string) {
	name, arg, _ = strings.Cut(strings.TrimSpace(id), ":")
	return name, arg
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
