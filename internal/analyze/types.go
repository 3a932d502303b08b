package analyze

import (
	"go/types"
	"reflect"
	"strings"

	"transformer/internal/naming"
)

// ModelID uniquely identifies a model struct.
type ModelID struct {
	PkgPath string
	Name    string
}

// String returns the qualified name, e.g. "transformer/examples/shop.Order".
func (id ModelID) String() string {
	if id.PkgPath == "" {
		return id.Name
	}

	return id.PkgPath + "." + id.Name
}

// FieldKind classifies a model field.
type FieldKind int

const (
	// FieldScalar is stored as-is: strings, numbers, bools, maps of those.
	FieldScalar FieldKind = iota
	// FieldTime holds a time.Time and needs a date caster.
	FieldTime
	// FieldOne refers to a single struct of the same package.
	FieldOne
	// FieldMany holds a slice of structs of the same package.
	FieldMany
)

// String returns the kind name.
func (k FieldKind) String() string {
	switch k {
	case FieldScalar:
		return "scalar"
	case FieldTime:
		return "time"
	case FieldOne:
		return "one"
	case FieldMany:
		return "many"
	default:
		return "unknown"
	}
}

// IsRelation reports whether the field refers to other models.
func (k FieldKind) IsRelation() bool {
	return k == FieldOne || k == FieldMany
}

// Field is one exported struct field.
type Field struct {
	// Name is the Go field name.
	Name string
	// Column is the record attribute: the json tag name, or the snake_case field name.
	Column string
	// GoType is the field type as written in its package.
	GoType string
	Kind   FieldKind
	// Target is the related struct name for relation fields.
	Target string
	Tag    reflect.StructTag
}

// Model describes one exported struct.
type Model struct {
	ID     ModelID
	Fields []Field
}

// Columns returns the non-relation fields.
func (m *Model) Columns() []Field {
	var out []Field

	for _, f := range m.Fields {
		if !f.Kind.IsRelation() {
			out = append(out, f)
		}
	}

	return out
}

// Relations returns the relation fields.
func (m *Model) Relations() []Field {
	var out []Field

	for _, f := range m.Fields {
		if f.Kind.IsRelation() {
			out = append(out, f)
		}
	}

	return out
}

// Field returns the field named name, or nil.
func (m *Model) Field(name string) *Field {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}

	return nil
}

// Catalog holds the models found in the loaded packages.
type Catalog struct {
	// Packages maps import paths to package names.
	Packages map[string]string
	Models   map[ModelID]*Model
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		Packages: make(map[string]string),
		Models:   make(map[ModelID]*Model),
	}
}

// Model returns the model with the given ID, or nil.
func (c *Catalog) Model(id ModelID) *Model {
	return c.Models[id]
}

// Lookup finds a model by name, optionally qualified with its package
// path ("pkg/path.Name"). An unqualified name must be unique.
func (c *Catalog) Lookup(name string) (*Model, bool) {
	if i := strings.LastIndex(name, "."); i > 0 {
		m, ok := c.Models[ModelID{PkgPath: name[:i], Name: name[i+1:]}]
		return m, ok
	}

	var found *Model

	for id, m := range c.Models {
		if id.Name != name {
			continue
		}

		if found != nil {
			return nil, false
		}

		found = m
	}

	return found, found != nil
}

// columnName derives the record attribute of a field from its json tag.
// It reports false for fields tagged json:"-".
func columnName(name string, tag reflect.StructTag) (string, bool) {
	if v, ok := tag.Lookup("json"); ok {
		col, _, _ := strings.Cut(v, ",")
		if col == "-" {
			return "", false
		}

		if col != "" {
			return col, true
		}
	}

	return naming.Snake(name), true
}

// typeString prints t relative to pkg, so same-package types are unqualified.
func typeString(t types.Type, pkg *types.Package) string {
	return types.TypeString(t, types.RelativeTo(pkg))
}
