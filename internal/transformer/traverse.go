package transformer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"transformer/internal/mapping"
	"transformer/internal/model"
)

// traversal tracks the ancestors of the node being visited by one Save or
// ToData call. A node repeating one of its ancestors closes a cycle.
type traversal struct {
	active map[string]bool
}

func newTraversal() *traversal {
	return &traversal{active: make(map[string]bool)}
}

// enter pushes key; it reports false when key is already an ancestor.
func (tr *traversal) enter(key string) bool {
	if tr.active[key] {
		return false
	}

	tr.active[key] = true

	return true
}

func (tr *traversal) leave(key string) {
	delete(tr.active, key)
}

func (tr *traversal) has(key string) bool {
	return tr.active[key]
}

// recordKey identifies a stored record visited under definition.
func recordKey(definition string, rec *model.Record) string {
	return definition + "|" + rec.Identity()
}

// visitKey identifies t within a traversal. Records not stored yet have no
// stable identity, so they are keyed by their payload: the same payload
// under the same definition would produce the same subtree again.
func (t *Transformer) visitKey(rec *model.Record) string {
	if rec.Exists() {
		return recordKey(t.def.Name, rec)
	}

	raw, err := json.Marshal(t.data)
	if err != nil {
		return fmt.Sprintf("%s|new|%v", t.def.Name, t.data)
	}

	return t.def.Name + "|new|" + string(raw)
}

// Save persists the record, converting the payload first when needed, then
// saves the records of every relation edge depth first in declaration order.
// When persistence fails the transformer stays converted and no related
// record is touched.
func (t *Transformer) Save(ctx context.Context) error {
	if t.factory.store == nil {
		return ErrNoStore
	}

	return t.save(ctx, newTraversal())
}

func (t *Transformer) save(ctx context.Context, tr *traversal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := t.factory.tracer.Start(ctx, "transformer.Save", trace.WithAttributes(
		attribute.String("transformer.definition", t.def.Name),
		attribute.Int("transformer.depth", t.depth),
	))
	defer span.End()

	err := t.persistTree(ctx, tr)
	if err != nil {
		span.RecordError(err)
	}

	return err
}

func (t *Transformer) persistTree(ctx context.Context, tr *traversal) error {
	if t.state == StateUnconverted {
		if err := t.ToModel(ctx); err != nil {
			return err
		}
	}

	rec := t.Record()

	key := t.visitKey(rec)
	if !tr.enter(key) {
		t.skipCycle(rec)
		return nil
	}
	defer tr.leave(key)

	if !rec.Exists() && t.depth > t.factory.maxDepth {
		return fmt.Errorf("%w: %s at depth %d", ErrMaxDepth, t.def.Name, t.depth)
	}

	if err := t.persist(ctx, rec); err != nil {
		return err
	}

	// A created record gains an identity; descendants must see it too.
	if created := recordKey(t.def.Name, rec); created != key && tr.enter(created) {
		defer tr.leave(created)
	}

	for _, e := range t.edges {
		if err := t.saveRelation(ctx, tr, rec, e); err != nil {
			return err
		}
	}

	if t.def.Saved != nil {
		if err := t.def.Saved(NewContext(ctx, t), t); err != nil {
			return fmt.Errorf("%s saved hook: %w", t.def.Name, err)
		}
	}

	return nil
}

// persist updates an existing record or creates a new one, through the
// relation when t was reached through one.
func (t *Transformer) persist(ctx context.Context, rec *model.Record) error {
	attrs := t.Attributes()
	start := time.Now()

	var (
		op  string
		err error
	)

	if rec.Exists() {
		op = OpUpdate

		var ok bool

		ok, err = t.factory.store.Update(ctx, rec, attrs)
		if err == nil && !ok {
			err = ErrNotUpdated
		}
	} else {
		op = OpCreate

		var created *model.Record

		if t.relation != nil {
			created, err = t.relation.CreateChild(ctx, attrs)
		} else {
			created, err = t.factory.store.Create(ctx, rec.Type, attrs)
		}

		if err == nil {
			rec.ID = created.ID
			rec.Fill(created.Attributes())
		}
	}

	t.factory.metrics.Persist(t.def.Name, op, err, time.Since(start))

	if err != nil {
		t.logger.Warn("persist failed", zap.String("op", op), zap.String("record", rec.String()), zap.Error(err))
		return &PersistenceError{Type: rec.Type, Op: op, Err: err}
	}

	t.state = StatePersisted
	t.logger.Info("record persisted", zap.String("op", op), zap.String("record", rec.String()))

	return nil
}

// saveRelation builds the transformers of one relation edge and saves them.
// A sequence payload yields one related record per element.
func (t *Transformer) saveRelation(ctx context.Context, tr *traversal, rec *model.Record, e mapping.Entry) error {
	rel, err := t.factory.store.FetchRelated(ctx, rec, e.Value)
	if err != nil {
		return &PersistenceError{Type: rec.Type, Op: OpFetchRelated, Err: err}
	}

	child, err := t.related(e.Key, rel)
	if err != nil {
		return err
	}

	var data any = map[string]any{}
	if child.def.Data != nil {
		data, err = child.def.Data(NewContext(ctx, t), t)
		if err != nil {
			return fmt.Errorf("%s data for %s: %w", t.def.Name, e.Key, err)
		}
	}

	child.WithData(data)

	group, err := child.ToModelAll(ctx)
	if err != nil {
		return err
	}

	for _, c := range group.Items() {
		t.children = append(t.children, c)
		t.factory.metrics.Child(t.def.Name, e.Value)

		if err := c.save(ctx, tr); err != nil {
			return err
		}
	}

	return nil
}

func (t *Transformer) skipCycle(rec *model.Record) {
	t.factory.metrics.CycleSkip()
	t.logger.Warn("skipping already visited record", zap.String("record", rec.String()))
}
