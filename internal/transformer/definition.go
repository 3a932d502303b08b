package transformer

import (
	"context"
	"fmt"

	"transformer/internal/fieldpath"
	"transformer/internal/hooks"
	"transformer/internal/mapping"
)

// DataFunc provides the payload of a transformer reached through a relation.
type DataFunc func(ctx context.Context, parent *Transformer) (any, error)

// SavedFunc runs after a transformer's record and its related records were persisted.
type SavedFunc func(ctx context.Context, t *Transformer) error

// Definition declares one transformer.
type Definition struct {
	// Name identifies the definition; relation entries refer to it.
	Name string
	// ModelType is the type of records created for this definition.
	ModelType string

	Declaration mapping.Declaration

	// Hooks overrides field values during conversion.
	Hooks hooks.Provider
	// Methods, when set, contributes its To<Field>Attribute,
	// From<Field>Attribute and For<Path>DataAttribute methods as hooks.
	// They run before Hooks.
	Methods any

	// DateFormat overrides the factory's date format for this definition.
	DateFormat string

	// Data provides the payload when the transformer is reached through a
	// relation. The child starts from an empty payload when Data is nil.
	Data DataFunc
	// Saved runs after the record and its related records were persisted.
	Saved SavedFunc
}

func (d *Definition) validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil definition", ErrInvalidDefinition)
	}

	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}

	if d.ModelType == "" {
		return fmt.Errorf("%w: %s has no model type", ErrInvalidDefinition, d.Name)
	}

	return nil
}

// ParentData hands the parent's payload to the child unchanged.
func ParentData(_ context.Context, parent *Transformer) (any, error) {
	return parent.Data(), nil
}

// DataAt returns a DataFunc selecting path inside the parent's payload.
func DataAt(path string) DataFunc {
	return func(_ context.Context, parent *Transformer) (any, error) {
		return fieldpath.Resolve(parent.Data(), path), nil
	}
}

// Definitions converts the transformers of a YAML declaration document.
func Definitions(doc *mapping.Document) []*Definition {
	defs := make([]*Definition, 0, len(doc.Transformers))

	for i := range doc.Transformers {
		td := &doc.Transformers[i]

		def := &Definition{
			Name:        td.Name,
			ModelType:   td.Model,
			Declaration: td.Declaration(),
			DateFormat:  td.DateFormat,
		}

		if td.DataPath != "" {
			def.Data = DataAt(td.DataPath)
		}

		defs = append(defs, def)
	}

	return defs
}
