package transformer

import (
	"fmt"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"transformer/internal/cast"
	"transformer/internal/config"
	"transformer/internal/hooks"
	"transformer/internal/mapping"
	"transformer/internal/metrics"
	"transformer/internal/naming"
)

// DefaultMaxDepth bounds chains of newly created related records.
const DefaultMaxDepth = 32

// TracerName is the instrumentation name of the default tracer.
const TracerName = "transformer"

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithTracer sets the tracer. The default comes from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(f *Factory) {
		if t != nil {
			f.tracer = t
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(f *Factory) { f.metrics = r }
}

// WithCasters sets the caster factory used for declared casts.
func WithCasters(c *cast.Factory) Option {
	return func(f *Factory) {
		if c != nil {
			f.casters = c
		}
	}
}

// WithMaxDepth bounds chains of newly created related records.
func WithMaxDepth(depth int) Option {
	return func(f *Factory) {
		if depth > 0 {
			f.maxDepth = depth
		}
	}
}

// WithDateFormat sets the default format of date casters.
func WithDateFormat(format string) Option {
	return func(f *Factory) {
		if format != "" {
			f.dateFormat = format
		}
	}
}

// WithIdentityField sets the model field receiving remote identifiers.
func WithIdentityField(field string) Option {
	return func(f *Factory) {
		if field != "" {
			f.identityField = field
		}
	}
}

// WithConfig applies the engine settings of cfg.
func WithConfig(cfg *config.Config) Option {
	return func(f *Factory) {
		WithDateFormat(cfg.DateFormat)(f)
		WithIdentityField(cfg.IdentityField)(f)
		WithMaxDepth(cfg.MaxDepth)(f)
	}
}

// Factory registers definitions and builds transformers bound to a store.
type Factory struct {
	store Store
	defs  map[string]*Definition
	order []string

	casters       *cast.Factory
	logger        *zap.Logger
	tracer        trace.Tracer
	metrics       *metrics.Recorder
	maxDepth      int
	dateFormat    string
	identityField string

	compiled map[string]*compiled
}

// compiled is the normalized form of a definition, built on first use.
type compiled struct {
	spec  *mapping.Spec
	hooks hooks.Provider
}

// NewFactory creates a factory persisting through store.
func NewFactory(store Store, opts ...Option) *Factory {
	f := &Factory{
		store:         store,
		defs:          make(map[string]*Definition),
		casters:       cast.NewFactory(),
		logger:        zap.NewNop(),
		tracer:        otel.Tracer(TracerName),
		maxDepth:      DefaultMaxDepth,
		dateFormat:    cast.DefaultDateFormat,
		identityField: mapping.DefaultIdentityField,
		compiled:      make(map[string]*compiled),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Register adds definitions. Names must be unique.
func (f *Factory) Register(defs ...*Definition) error {
	for _, d := range defs {
		if err := d.validate(); err != nil {
			return err
		}

		if _, ok := f.defs[d.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateDefinition, d.Name)
		}

		f.defs[d.Name] = d
		f.order = append(f.order, d.Name)
	}

	// Relation classification depends on the full set of names.
	clear(f.compiled)

	return nil
}

// Load validates a YAML declaration document and registers its transformers.
func (f *Factory) Load(doc *mapping.Document) error {
	diags := mapping.Validate(doc, f.casters.Names())
	if err := diags.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	for _, w := range diags.Warnings {
		f.logger.Warn("declaration warning",
			zap.String("transformer", w.Transformer),
			zap.String("code", w.Code),
			zap.String("detail", w.String()),
		)
	}

	return f.Register(Definitions(doc)...)
}

// Definition returns the definition registered under name.
func (f *Factory) Definition(name string) (*Definition, bool) {
	d, ok := f.defs[name]
	return d, ok
}

// Names returns the registered names in registration order.
func (f *Factory) Names() []string {
	return slices.Clone(f.order)
}

// Store returns the factory's store.
func (f *Factory) Store() Store {
	return f.store
}

// Logger returns the factory's logger.
func (f *Factory) Logger() *zap.Logger {
	return f.logger
}

// Spec returns the normalized field maps of the named definition.
func (f *Factory) Spec(name string) (*mapping.Spec, error) {
	c, err := f.compile(name)
	if err != nil {
		return nil, err
	}

	return c.spec, nil
}

// Make builds a transformer for the named definition with an empty payload
// and a new record of the definition's model type.
func (f *Factory) Make(name string) (*Transformer, error) {
	def, ok := f.defs[name]
	if !ok {
		return nil, f.unknown(name)
	}

	c, err := f.compile(name)
	if err != nil {
		return nil, err
	}

	return f.newTransformer(def, c), nil
}

// RelationEdge is a relation declared between two record types.
type RelationEdge struct {
	// Owner is the model type holding the relation.
	Owner string
	// Accessor names the relation on the owner.
	Accessor string
	// Target is the model type of the related records.
	Target string
}

// RelationEdges lists the relations declared by the registered definitions,
// in registration order. Stores use it to learn their relation schema.
func (f *Factory) RelationEdges() ([]RelationEdge, error) {
	var edges []RelationEdge

	seen := make(map[RelationEdge]bool)

	for _, name := range f.order {
		c, err := f.compile(name)
		if err != nil {
			return nil, err
		}

		for _, set := range [][]mapping.Entry{c.spec.ToModel.Relations(), c.spec.FromModel.Inverse().Relations()} {
			for _, e := range set {
				edge := RelationEdge{
					Owner:    f.defs[name].ModelType,
					Accessor: e.Value,
					Target:   f.defs[e.Key].ModelType,
				}
				if seen[edge] {
					continue
				}

				seen[edge] = true
				edges = append(edges, edge)
			}
		}
	}

	return edges, nil
}

// DefineRelations declares every relation edge on s, with default foreign keys.
func (f *Factory) DefineRelations(s RelationSchema) error {
	edges, err := f.RelationEdges()
	if err != nil {
		return err
	}

	for _, e := range edges {
		s.DefineRelation(e.Owner, e.Accessor, e.Target, "")
	}

	return nil
}

func (f *Factory) isRelation(name string) bool {
	_, ok := f.defs[name]
	return ok
}

func (f *Factory) compile(name string) (*compiled, error) {
	if c, ok := f.compiled[name]; ok {
		return c, nil
	}

	def, ok := f.defs[name]
	if !ok {
		return nil, f.unknown(name)
	}

	decl := def.Declaration
	if decl.IdentityField == "" {
		decl.IdentityField = f.identityField
	}

	spec := mapping.Compile(decl, f.isRelation)

	provider := def.Hooks
	if def.Methods != nil {
		var fields, paths []string

		for _, e := range spec.ToModel.Fields() {
			fields = append(fields, e.Value)
		}

		for _, e := range spec.FromModel.Fields() {
			fields = append(fields, e.Key)
			paths = append(paths, e.Value)
		}

		reg, err := hooks.FromMethods(def.Methods, fields, paths)
		if err != nil {
			return nil, fmt.Errorf("%s hooks: %w", def.Name, err)
		}

		provider = hooks.Chain(reg, def.Hooks)
	}

	if provider == nil {
		provider = hooks.Nop
	}

	c := &compiled{spec: spec, hooks: provider}
	f.compiled[name] = c

	return c, nil
}

func (f *Factory) unknown(name string) error {
	if s, ok := naming.Suggest(name, f.order); ok {
		return fmt.Errorf("%w: %s (did you mean %q?)", ErrUnknownDefinition, name, s)
	}

	return fmt.Errorf("%w: %s", ErrUnknownDefinition, name)
}

func (f *Factory) castOptions(def *Definition) cast.Options {
	format := def.DateFormat
	if format == "" {
		format = f.dateFormat
	}

	return cast.Options{DateFormat: format}
}
