package mapping

// Document represents the root of a YAML transformer declaration file.
type Document struct {
	// Version of the declaration schema (for future compatibility).
	Version string `yaml:"version,omitempty"`

	// Transformers lists the declared transformers.
	Transformers []TransformerDef `yaml:"transformers" validate:"required,dive"`
}

// TransformerDef declares one transformer.
type TransformerDef struct {
	// Name identifies the transformer; relation entries refer to it.
	Name string `yaml:"name" validate:"required"`

	// Model is the record type created by the transformer.
	Model string `yaml:"model" validate:"required"`

	// RemoteID is the data path of the payload's external identifier.
	RemoteID string `yaml:"remote_id,omitempty"`

	// IdentityField is the model field receiving RemoteID.
	IdentityField string `yaml:"identity_field,omitempty"`

	// DateFormat overrides the configured date format for this transformer.
	DateFormat string `yaml:"date_format,omitempty"`

	// DataPath selects, in the parent's payload, the data of a transformer
	// reached through a relation. Empty means an empty payload.
	DataPath string `yaml:"data_path,omitempty"`

	ToModel          DeclList          `yaml:"to_model,omitempty"`
	FromModel        DeclList          `yaml:"from_model,omitempty"`
	ToModelDefault   map[string]any    `yaml:"to_model_default,omitempty"`
	FromModelDefault map[string]any    `yaml:"from_model_default,omitempty"`
	Casts            map[string]string `yaml:"casts,omitempty"`
}

// DeclList is an ordered list of declarations. In YAML it accepts:
//   - a sequence of names and single-key maps: [name, {user.age: age}]
//   - a mapping, kept in document order: {user.name: full_name, age: age}
//   - a single name: name
type DeclList []Decl

// Declaration converts the definition into the engine's declarative surface.
func (t *TransformerDef) Declaration() Declaration {
	return Declaration{
		ToModel:          []Decl(t.ToModel),
		FromModel:        []Decl(t.FromModel),
		ToModelDefault:   t.ToModelDefault,
		FromModelDefault: t.FromModelDefault,
		Casts:            t.Casts,
		RemoteID:         t.RemoteID,
		IdentityField:    t.IdentityField,
	}
}

// Find returns the definition named name, or nil.
func (d *Document) Find(name string) *TransformerDef {
	for i := range d.Transformers {
		if d.Transformers[i].Name == name {
			return &d.Transformers[i]
		}
	}

	return nil
}

// Names returns the declared transformer names in document order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Transformers))
	for _, t := range d.Transformers {
		names = append(names, t.Name)
	}

	return names
}
