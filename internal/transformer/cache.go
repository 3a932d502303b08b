package transformer

import (
	"context"
	"maps"
	"slices"
)

// Cache is a key/value side channel shared by a transformer and every child
// it creates afterwards.
type Cache struct {
	values map[string]any
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{values: make(map[string]any)}
}

// Set stores value under key.
func (c *Cache) Set(key string, value any) {
	c.values[key] = value
}

// Get returns the value stored under key.
func (c *Cache) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys returns the stored keys in sorted order.
func (c *Cache) Keys() []string {
	return slices.Sorted(maps.Keys(c.values))
}

// Len returns the number of stored keys.
func (c *Cache) Len() int {
	return len(c.values)
}

type ctxKey struct{}

// NewContext returns a context carrying t. Hooks receive such a context.
func NewContext(ctx context.Context, t *Transformer) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext returns the transformer being converted, if any.
func FromContext(ctx context.Context) (*Transformer, bool) {
	t, ok := ctx.Value(ctxKey{}).(*Transformer)
	return t, ok
}
