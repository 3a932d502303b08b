package transformer

import (
	"context"
	"fmt"
	"reflect"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"transformer/internal/fieldpath"
	"transformer/internal/mapping"
	"transformer/internal/model"
)

// Conversion directions reported to metrics.
const (
	DirectionToModel = "to_model"
	DirectionToData  = "to_data"
)

// ToModel fills the record's attributes from the payload without persisting.
// Fields are processed in declaration order: resolved, decoded by their
// caster, defaulted when nil, then passed to the field hook. Relation
// entries are recorded as edges for Save.
func (t *Transformer) ToModel(ctx context.Context) error {
	err := t.toModel(ctx)
	t.factory.metrics.Conversion(t.def.Name, DirectionToModel, err)

	return err
}

func (t *Transformer) toModel(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx = NewContext(ctx, t)
	data := t.payload()
	attrs := model.NewAttributes()

	var edges []mapping.Entry

	for _, e := range t.spec.ToModel.Entries() {
		if e.IsRelation() {
			edges = append(edges, e)
			continue
		}

		value, err := t.casts.Decode(e.Value, fieldpath.Resolve(data, e.Key))
		if err != nil {
			return err
		}

		if value == nil {
			if d, ok := t.spec.ToModelDefault[e.Value]; ok {
				value = d
			}
		}

		value, err = t.c.hooks.BeforeToModel(ctx, e.Value, value)
		if err != nil {
			return fmt.Errorf("%s: %s hook: %w", t.def.Name, e.Value, err)
		}

		attrs.Set(e.Value, value)
	}

	t.Record().Fill(attrs)
	t.fill = attrs
	t.edges = edges
	t.state = StateConverted

	t.logger.Debug("converted to model",
		zap.Int("fields", attrs.Len()),
		zap.Int("relations", len(edges)),
	)

	return nil
}

// ToModelAll converts a sequence payload into one transformer per element,
// sharing this transformer's cache and ancestry. Any other payload converts
// t itself, returned as a one-element collection.
func (t *Transformer) ToModelAll(ctx context.Context) (*Collection, error) {
	items, ok := elements(t.data)
	if !ok {
		if err := t.ToModel(ctx); err != nil {
			return nil, err
		}

		return t.factory.NewCollection(t), nil
	}

	out := t.factory.NewCollection()

	for _, item := range items {
		s := t.sibling().WithData(item)
		if err := s.ToModel(ctx); err != nil {
			return nil, err
		}

		out.Push(s)
	}

	return out, nil
}

// ToData writes the record's fields into the payload, creating intermediate
// maps as needed. Relation entries fetch the related records once and write
// one converted payload per record at the accessor path.
func (t *Transformer) ToData(ctx context.Context) error {
	ctx, span := t.factory.tracer.Start(ctx, "transformer.ToData", trace.WithAttributes(
		attribute.String("transformer.definition", t.def.Name),
		attribute.String("record.type", t.Record().Type),
	))
	defer span.End()

	err := t.toData(ctx, newTraversal())
	if err != nil {
		span.RecordError(err)
	}

	return err
}

func (t *Transformer) toData(ctx context.Context, tr *traversal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rec := t.Record()

	key := recordKey(t.def.Name, rec)
	if !tr.enter(key) {
		t.skipCycle(rec)
		return nil
	}
	defer tr.leave(key)

	ctx = NewContext(ctx, t)
	data := t.payload()

	err := t.exportFields(ctx, tr, rec, &data)
	t.data = data
	t.factory.metrics.Conversion(t.def.Name, DirectionToData, err)

	if err != nil {
		return err
	}

	t.logger.Debug("converted to data", zap.String("record", rec.String()))

	return nil
}

func (t *Transformer) exportFields(ctx context.Context, tr *traversal, rec *model.Record, data *any) error {
	for _, e := range t.spec.FromModel.Entries() {
		var (
			value any
			err   error
		)

		if e.IsRelation() {
			value, err = t.exportRelation(ctx, tr, rec, e)
			if err != nil {
				return err
			}

			*data, err = fieldpath.Set(*data, e.Key, value)
			if err != nil {
				return fmt.Errorf("%s: %w", t.def.Name, err)
			}

			continue
		}

		value, err = t.casts.Encode(e.Key, fieldpath.Resolve(rec, e.Key))
		if err != nil {
			return err
		}

		if value == nil {
			if d, ok := t.spec.FromModelDefault[e.Key]; ok {
				value = d
			}
		}

		value, err = t.c.hooks.BeforeFromModel(ctx, e.Key, value)
		if err != nil {
			return fmt.Errorf("%s: %s hook: %w", t.def.Name, e.Key, err)
		}

		value, err = t.c.hooks.ForData(ctx, e.Value, value)
		if err != nil {
			return fmt.Errorf("%s: %s data hook: %w", t.def.Name, e.Value, err)
		}

		*data, err = fieldpath.Set(*data, e.Value, value)
		if err != nil {
			return fmt.Errorf("%s: %w", t.def.Name, err)
		}
	}

	return nil
}

// exportRelation converts every record related through e.Key with the
// definition named by e.Value. Records already being exported by an
// ancestor are left out.
func (t *Transformer) exportRelation(ctx context.Context, tr *traversal, rec *model.Record, e mapping.Entry) ([]any, error) {
	rel, err := t.factory.store.FetchRelated(ctx, rec, e.Key)
	if err != nil {
		return nil, &PersistenceError{Type: rec.Type, Op: OpFetchRelated, Err: err}
	}

	records, err := rel.Records(ctx)
	if err != nil {
		return nil, &PersistenceError{Type: rel.TargetType(), Op: OpRelatedRecord, Err: err}
	}

	out := make([]any, 0, len(records))

	for _, r := range records {
		if tr.has(recordKey(e.Value, r)) {
			t.skipCycle(r)
			continue
		}

		child, err := t.related(e.Value, rel)
		if err != nil {
			return nil, err
		}

		child.WithModel(r).WithData(map[string]any{})
		t.children = append(t.children, child)
		t.factory.metrics.Child(t.def.Name, e.Key)

		if err := child.toData(ctx, tr); err != nil {
			return nil, err
		}

		out = append(out, child.data)
	}

	return out, nil
}

// payload returns the data, substituting an empty map for nil.
func (t *Transformer) payload() any {
	if t.data == nil {
		t.data = map[string]any{}
	}

	return t.data
}

// elements splits a sequence payload into its items.
func elements(data any) ([]any, bool) {
	switch d := data.(type) {
	case nil:
		return nil, false
	case []any:
		return d, true
	case fieldpath.RawJSON:
		doc := gjson.ParseBytes(d)
		if !doc.IsArray() {
			return nil, false
		}

		var out []any
		for _, item := range doc.Array() {
			out = append(out, fieldpath.RawJSON(item.Raw))
		}

		return out, true
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	// Byte slices are encoded documents, not sequences.
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out, true
}
