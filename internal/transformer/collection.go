package transformer

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"transformer/internal/model"
)

// Built-in collection operations.
const (
	OpToModel = "to_model"
	OpSave    = "save"
	OpToData  = "to_data"
	OpWith    = "with"
)

// Op is a named operation applied to each member of a collection.
type Op func(ctx context.Context, t *Transformer, args ...any) error

// Collection applies operations to an ordered set of transformers, stopping
// at the first failure. The next dispatch after WithTransaction runs inside
// Store.RunAtomic.
type Collection struct {
	factory   *Factory
	items     []*Transformer
	ops       map[string]Op
	attempts  int
	projected bool
}

// NewCollection creates a collection over items.
func (f *Factory) NewCollection(items ...*Transformer) *Collection {
	return &Collection{
		factory: f,
		items:   slices.Clone(items),
		ops: map[string]Op{
			OpToModel: func(ctx context.Context, t *Transformer, _ ...any) error { return t.ToModel(ctx) },
			OpSave:    func(ctx context.Context, t *Transformer, _ ...any) error { return t.Save(ctx) },
			OpToData:  func(ctx context.Context, t *Transformer, _ ...any) error { return t.ToData(ctx) },
			OpWith:    withOp,
		},
	}
}

func withOp(_ context.Context, t *Transformer, args ...any) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: with takes a key and a value", ErrOpArgs)
	}

	key, ok := args[0].(string)
	if !ok {
		return fmt.Errorf("%w: with key must be a string, got %T", ErrOpArgs, args[0])
	}

	t.With(key, args[1])

	return nil
}

// Push appends transformers.
func (c *Collection) Push(items ...*Transformer) *Collection {
	c.items = append(c.items, items...)
	return c
}

// Len returns the number of members.
func (c *Collection) Len() int {
	return len(c.items)
}

// Items returns the members in order.
func (c *Collection) Items() []*Transformer {
	return slices.Clone(c.items)
}

// RegisterOp makes op available to Call under name.
func (c *Collection) RegisterOp(name string, op Op) *Collection {
	c.ops[name] = op
	return c
}

// WithTransaction wraps the next dispatch in an atomic store operation
// retried up to attempts times.
func (c *Collection) WithTransaction(attempts int) *Collection {
	c.attempts = attempts
	return c
}

// Call applies the named operation to every member in order.
func (c *Collection) Call(ctx context.Context, name string, args ...any) error {
	op, ok := c.ops[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOp, name)
	}

	return c.dispatch(ctx, name, func(ctx context.Context, t *Transformer) error {
		return op(ctx, t, args...)
	})
}

// Each applies fn to every member in order.
func (c *Collection) Each(ctx context.Context, fn func(ctx context.Context, t *Transformer) error) error {
	return c.dispatch(ctx, "each", fn)
}

// Models projects the collection to its members' records. The collection
// accepts no further dispatch.
func (c *Collection) Models() []*model.Record {
	c.projected = true

	out := make([]*model.Record, 0, len(c.items))
	for _, t := range c.items {
		out = append(out, t.Record())
	}

	return out
}

func (c *Collection) dispatch(ctx context.Context, name string, fn func(ctx context.Context, t *Transformer) error) error {
	if c.projected {
		return ErrProjected
	}

	attempts := c.attempts
	c.attempts = 0

	if attempts <= 0 {
		return c.apply(ctx, fn)
	}

	if c.factory.store == nil {
		return ErrNoStore
	}

	return c.atomic(ctx, name, attempts, fn)
}

func (c *Collection) apply(ctx context.Context, fn func(ctx context.Context, t *Transformer) error) error {
	for _, t := range c.items {
		if err := fn(ctx, t); err != nil {
			return err
		}
	}

	return nil
}

// atomic runs the dispatch through Store.RunAtomic. Member state is reset
// before every attempt so a retry starts from the same point as the first.
func (c *Collection) atomic(ctx context.Context, name string, attempts int, fn func(ctx context.Context, t *Transformer) error) error {
	ctx, span := c.factory.tracer.Start(ctx, "transformer.RunAtomic", trace.WithAttributes(
		attribute.String("collection.op", name),
		attribute.Int("collection.size", len(c.items)),
		attribute.Int("transaction.attempts", attempts),
	))
	defer span.End()

	snapshots := make([]snapshot, len(c.items))
	for i, t := range c.items {
		snapshots[i] = t.snapshot()
	}

	try := 0

	err := c.factory.store.RunAtomic(ctx, attempts, func(ctx context.Context) error {
		if try > 0 {
			for i, t := range c.items {
				t.restore(snapshots[i])
			}
		}

		try++

		return c.apply(ctx, fn)
	})

	c.factory.metrics.Transaction(err)

	if err != nil {
		c.factory.logger.Warn("transaction failed",
			zap.String("op", name),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		span.RecordError(err)

		return &TransactionError{Attempts: attempts, Err: err}
	}

	return nil
}
