package cast

// Registry resolves the caster of each field for one transformer instance.
// Casters are built on first use and cached, so stateful casters are
// shared by every access to the same field within the instance.
type Registry struct {
	factory *Factory
	casts   map[string]string
	opts    Options
	cache   map[string]Caster
}

// NewRegistry creates a registry over the declared field -> caster identifiers.
func NewRegistry(factory *Factory, casts map[string]string, opts Options) *Registry {
	if factory == nil {
		factory = NewFactory()
	}

	return &Registry{
		factory: factory,
		casts:   casts,
		opts:    opts,
		cache:   make(map[string]Caster),
	}
}

// Decode applies the field's caster in the data -> model direction.
// Fields without a declared caster and nil values pass through unchanged.
func (r *Registry) Decode(field string, value any) (any, error) {
	return r.apply(field, value, Caster.Decode)
}

// Encode applies the field's caster in the model -> data direction.
func (r *Registry) Encode(field string, value any) (any, error) {
	return r.apply(field, value, Caster.Encode)
}

// Caster returns the cached caster for field, building it if needed.
// The boolean is false when no caster is declared for field.
func (r *Registry) Caster(field string) (Caster, bool, error) {
	if c, ok := r.cache[field]; ok {
		return c, true, nil
	}

	id, ok := r.casts[field]
	if !ok || id == "" {
		return nil, false, nil
	}

	c, err := r.factory.Build(id, r.opts)
	if err != nil {
		return nil, true, &Error{Field: field, Caster: id, Err: err}
	}

	r.cache[field] = c

	return c, true, nil
}

func (r *Registry) apply(field string, value any, fn func(Caster, any) (any, error)) (any, error) {
	if value == nil {
		return nil, nil
	}

	c, ok, err := r.Caster(field)
	if err != nil {
		return nil, err
	}

	if !ok {
		return value, nil
	}

	out, err := fn(c, value)
	if err != nil {
		return nil, &Error{Field: field, Caster: r.casts[field], Value: value, Err: err}
	}

	return out, nil
}
