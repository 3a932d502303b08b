package mapping

import (
	"maps"
	"strconv"
)

// DefaultIdentityField is the model field receiving the remote identifier.
const DefaultIdentityField = "remote_id"

// Decl is one declared field-map entry. An empty or numeric Key marks a
// positional entry that names the same field on both sides.
type Decl struct {
	Key   string
	Value string
}

// Field declares a positional entry: the same name on both sides.
func Field(name string) Decl {
	return Decl{Value: name}
}

// Pair declares an explicit key -> value entry.
func Pair(key, value string) Decl {
	return Decl{Key: key, Value: value}
}

// Fields declares positional entries for every name.
func Fields(names ...string) []Decl {
	out := make([]Decl, len(names))
	for i, n := range names {
		out[i] = Field(n)
	}

	return out
}

// IsPositional reports whether the declaration has no meaningful key.
func (d Decl) IsPositional() bool {
	if d.Key == "" {
		return true
	}

	_, err := strconv.Atoi(d.Key)

	return err == nil
}

// Declaration is the declarative mapping surface of one transformer.
type Declaration struct {
	// ToModel pairs data paths with model fields.
	ToModel []Decl
	// FromModel pairs model fields with data paths. Derived from ToModel when empty.
	FromModel []Decl
	// ToModelDefault holds per model field defaults used when a value resolves to nil.
	ToModelDefault map[string]any
	// FromModelDefault holds per model field defaults used when exporting nil values.
	FromModelDefault map[string]any
	// Casts maps model fields to caster identifiers.
	Casts map[string]string
	// RemoteID is a data path holding the external identifier of the payload.
	RemoteID string
	// IdentityField is the model field receiving RemoteID (DefaultIdentityField when empty).
	IdentityField string
}

// Spec is the canonical, normalized form of a Declaration.
type Spec struct {
	ToModel          *FieldMap
	FromModel        *FieldMap
	ToModelDefault   map[string]any
	FromModelDefault map[string]any
	Casts            map[string]string
}

// Normalize canonicalizes declared field maps. Positional entries become
// name -> name; an empty fromModel becomes the inverse of toModel. Keys of
// toModel and values of fromModel accepted by isRelation mark relation edges.
func Normalize(toModel, fromModel []Decl, isRelation func(string) bool) (to, from *FieldMap) {
	if isRelation == nil {
		isRelation = func(string) bool { return false }
	}

	to = NewFieldMap()

	for _, d := range toModel {
		key := d.Key
		if d.IsPositional() {
			key = d.Value
		}

		to.Set(key, d.Value, kindOf(isRelation(key)))
	}

	from = NewFieldMap()

	for _, d := range fromModel {
		key := d.Key
		if d.IsPositional() {
			key = d.Value
		}

		from.Set(key, d.Value, kindOf(isRelation(d.Value)))
	}

	if from.Len() == 0 {
		from = to.Inverse()
	}

	return to, from
}

// Compile normalizes a declaration into a Spec. The remote identifier entry,
// when declared, is appended to ToModel before FromModel is derived.
func Compile(d Declaration, isRelation func(string) bool) *Spec {
	toModel := d.ToModel

	if d.RemoteID != "" {
		identity := d.IdentityField
		if identity == "" {
			identity = DefaultIdentityField
		}

		toModel = append(append([]Decl{}, toModel...), Pair(d.RemoteID, identity))
	}

	to, from := Normalize(toModel, d.FromModel, isRelation)

	return &Spec{
		ToModel:          to,
		FromModel:        from,
		ToModelDefault:   cloneOrEmpty(d.ToModelDefault),
		FromModelDefault: cloneOrEmpty(d.FromModelDefault),
		Casts:            cloneOrEmptyStrings(d.Casts),
	}
}

func kindOf(relation bool) EntryKind {
	if relation {
		return KindRelation
	}

	return KindField
}

func cloneOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return maps.Clone(m)
}

func cloneOrEmptyStrings(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}

	return maps.Clone(m)
}
