package transformer

import (
	"slices"

	"go.uber.org/zap"

	"transformer/internal/cast"
	"transformer/internal/mapping"
	"transformer/internal/model"
)

// State is the persistence state of a transformer.
type State int

const (
	StateUnconverted State = iota // nothing converted yet
	StateConverted                // attributes filled, nothing persisted
	StatePersisted                // record stored
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnconverted:
		return "unconverted"
	case StateConverted:
		return "converted"
	case StatePersisted:
		return "persisted"
	default:
		return "unknown"
	}
}

// Transformer binds a definition to one payload and one record.
type Transformer struct {
	factory *Factory
	def     *Definition
	spec    *mapping.Spec
	c       *compiled
	casts   *cast.Registry
	logger  *zap.Logger

	data     any
	record   *model.Record
	relation Relation
	parent   *Transformer
	cache    *Cache
	depth    int

	state    State
	fill     *model.Attributes
	edges    []mapping.Entry
	children []*Transformer
}

func (f *Factory) newTransformer(def *Definition, c *compiled) *Transformer {
	return &Transformer{
		factory: f,
		def:     def,
		spec:    c.spec,
		c:       c,
		casts:   cast.NewRegistry(f.casters, c.spec.Casts, f.castOptions(def)),
		logger:  f.logger.With(zap.String("transformer", def.Name)),
		cache:   NewCache(),
	}
}

// related builds a transformer of the named definition owned by t.
func (t *Transformer) related(name string, rel Relation) (*Transformer, error) {
	def, ok := t.factory.defs[name]
	if !ok {
		return nil, t.factory.unknown(name)
	}

	c, err := t.factory.compile(name)
	if err != nil {
		return nil, err
	}

	child := t.factory.newTransformer(def, c)
	child.parent = t
	child.cache = t.cache
	child.depth = t.depth + 1
	child.relation = rel

	if rel != nil {
		child.record = model.New(rel.TargetType())
	}

	return child, nil
}

// sibling builds a transformer of the same definition and ancestry as t.
func (t *Transformer) sibling() *Transformer {
	s := t.factory.newTransformer(t.def, t.c)
	s.parent = t.parent
	s.relation = t.relation
	s.cache = t.cache
	s.depth = t.depth
	s.record = model.New(t.Record().Type)

	return s
}

// WithData replaces the payload.
func (t *Transformer) WithData(data any) *Transformer {
	t.data = data
	return t
}

// WithModel binds an existing record handle.
func (t *Transformer) WithModel(rec *model.Record) *Transformer {
	t.record = rec
	return t
}

// WithModelType binds a new record of the given type.
func (t *Transformer) WithModelType(typ string) *Transformer {
	t.record = model.New(typ)
	return t
}

// With stores value in the shared cache.
func (t *Transformer) With(key string, value any) *Transformer {
	t.cache.Set(key, value)
	return t
}

// WithValues stores every entry of values in the shared cache.
func (t *Transformer) WithValues(values map[string]any) *Transformer {
	for k, v := range values {
		t.cache.Set(k, v)
	}

	return t
}

// Value returns a cached value, or nil.
func (t *Transformer) Value(key string) any {
	v, _ := t.cache.Get(key)
	return v
}

// Cache returns the shared cache.
func (t *Transformer) Cache() *Cache {
	return t.cache
}

// Data returns the payload.
func (t *Transformer) Data() any {
	return t.data
}

// Record returns the record handle, creating one of the definition's model
// type when none is bound.
func (t *Transformer) Record() *model.Record {
	if t.record == nil {
		t.record = model.New(t.def.ModelType)
	}

	return t.record
}

// Definition returns the transformer's definition.
func (t *Transformer) Definition() *Definition {
	return t.def
}

// Parent returns the transformer t was reached from, or nil.
func (t *Transformer) Parent() *Transformer {
	return t.parent
}

// Relation returns the relation t was reached through, or nil.
func (t *Transformer) Relation() Relation {
	return t.relation
}

// State returns the persistence state.
func (t *Transformer) State() State {
	return t.state
}

// Attributes returns a copy of the attributes filled by ToModel.
func (t *Transformer) Attributes() *model.Attributes {
	if t.fill == nil {
		return model.NewAttributes()
	}

	return t.fill.Clone()
}

// Edges returns the relation entries recorded by the last conversion.
func (t *Transformer) Edges() []mapping.Entry {
	return slices.Clone(t.edges)
}

// Children returns the transformers built for relations, in creation order.
func (t *Transformer) Children() []*Transformer {
	return slices.Clone(t.children)
}

// snapshot captures the mutable state of t for transaction retries.
type snapshot struct {
	state    State
	record   *model.Record
	fill     *model.Attributes
	edges    []mapping.Entry
	children []*Transformer
}

func (t *Transformer) snapshot() snapshot {
	s := snapshot{
		state:    t.state,
		record:   t.Record().Snapshot(),
		edges:    slices.Clone(t.edges),
		children: slices.Clone(t.children),
	}

	if t.fill != nil {
		s.fill = t.fill.Clone()
	}

	return s
}

func (t *Transformer) restore(s snapshot) {
	t.state = s.state
	t.record.Restore(s.record)
	t.fill = nil
	t.edges = slices.Clone(s.edges)
	t.children = slices.Clone(s.children)

	if s.fill != nil {
		t.fill = s.fill.Clone()
	}
}
