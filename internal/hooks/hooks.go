// Package hooks provides per-field value overrides applied during conversion.
//
// A hook runs after a field value has been resolved, cast and defaulted.
// Three hook points exist:
//
//   - BeforeToModel, keyed by model field, when importing data into a model
//   - BeforeFromModel, keyed by model field, when exporting a model
//   - ForData, keyed by data path, after BeforeFromModel when exporting
package hooks

import "context"

// Func overrides a single field value.
type Func func(ctx context.Context, value any) (any, error)

// Provider supplies field hooks to the conversion engine. Implementations
// return the value unchanged for fields they have no hook for.
type Provider interface {
	BeforeToModel(ctx context.Context, field string, value any) (any, error)
	BeforeFromModel(ctx context.Context, field string, value any) (any, error)
	ForData(ctx context.Context, path string, value any) (any, error)
}

// Registry is a static Provider keyed by field name (or data path for ForData).
// A nil *Registry is a valid Provider without hooks.
type Registry struct {
	toModel   map[string]Func
	fromModel map[string]Func
	forData   map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		toModel:   make(map[string]Func),
		fromModel: make(map[string]Func),
		forData:   make(map[string]Func),
	}
}

// OnToModel registers the import hook of a model field.
func (r *Registry) OnToModel(field string, fn Func) *Registry {
	r.toModel[field] = fn
	return r
}

// OnFromModel registers the export hook of a model field.
func (r *Registry) OnFromModel(field string, fn Func) *Registry {
	r.fromModel[field] = fn
	return r
}

// OnData registers the export hook of a data path.
func (r *Registry) OnData(path string, fn Func) *Registry {
	r.forData[path] = fn
	return r
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}

	return len(r.toModel) + len(r.fromModel) + len(r.forData)
}

// BeforeToModel implements Provider.
func (r *Registry) BeforeToModel(ctx context.Context, field string, value any) (any, error) {
	if r == nil {
		return value, nil
	}

	return call(ctx, r.toModel[field], value)
}

// BeforeFromModel implements Provider.
func (r *Registry) BeforeFromModel(ctx context.Context, field string, value any) (any, error) {
	if r == nil {
		return value, nil
	}

	return call(ctx, r.fromModel[field], value)
}

// ForData implements Provider.
func (r *Registry) ForData(ctx context.Context, path string, value any) (any, error) {
	if r == nil {
		return value, nil
	}

	return call(ctx, r.forData[path], value)
}

// Merge copies the hooks of other into r; hooks of other win on conflicts.
func (r *Registry) Merge(other *Registry) *Registry {
	if other == nil {
		return r
	}

	for k, fn := range other.toModel {
		r.toModel[k] = fn
	}

	for k, fn := range other.fromModel {
		r.fromModel[k] = fn
	}

	for k, fn := range other.forData {
		r.forData[k] = fn
	}

	return r
}

func call(ctx context.Context, fn Func, value any) (any, error) {
	if fn == nil {
		return value, nil
	}

	return fn(ctx, value)
}

// Nop is a Provider without hooks.
var Nop Provider = (*Registry)(nil)

// Chain applies providers in order, each receiving the previous result.
func Chain(providers ...Provider) Provider {
	return chain(providers)
}

type chain []Provider

func (c chain) BeforeToModel(ctx context.Context, field string, value any) (any, error) {
	return c.apply(value, func(p Provider, v any) (any, error) { return p.BeforeToModel(ctx, field, v) })
}

func (c chain) BeforeFromModel(ctx context.Context, field string, value any) (any, error) {
	return c.apply(value, func(p Provider, v any) (any, error) { return p.BeforeFromModel(ctx, field, v) })
}

func (c chain) ForData(ctx context.Context, path string, value any) (any, error) {
	return c.apply(value, func(p Provider, v any) (any, error) { return p.ForData(ctx, path, v) })
}

func (c chain) apply(value any, fn func(Provider, any) (any, error)) (any, error) {
	var err error

	for _, p := range c {
		if p == nil {
			continue
		}

		value, err = fn(p, value)
		if err != nil {
			return nil, err
		}
	}

	return value, nil
}
