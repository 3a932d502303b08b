package transformer_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"transformer/internal/mapping"
	"transformer/internal/model"
	"transformer/internal/storage/memory"
	"transformer/internal/transformer"
)

// countingStore wraps the memory store, counting calls and injecting
// create failures.
type countingStore struct {
	*memory.Store

	mu       sync.Mutex
	creates  map[string]int
	fetches  map[string]int
	attempts []int

	// failCreates makes the first n creates of a type fail.
	failCreates map[string]int
}

func newCountingStore() *countingStore {
	n := 0

	return &countingStore{
		Store: memory.New(memory.WithIDs(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		})),
		creates:     make(map[string]int),
		fetches:     make(map[string]int),
		failCreates: make(map[string]int),
	}
}

func (s *countingStore) Create(ctx context.Context, typ string, attrs *model.Attributes) (*model.Record, error) {
	s.mu.Lock()
	s.creates[typ]++
	fail := s.failCreates[typ] > 0
	if fail {
		s.failCreates[typ]--
	}
	s.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("create %s: storage unavailable", typ)
	}

	return s.Store.Create(ctx, typ, attrs)
}

func (s *countingStore) FetchRelated(ctx context.Context, rec *model.Record, accessor string) (transformer.Relation, error) {
	s.mu.Lock()
	s.fetches[accessor]++
	s.mu.Unlock()

	rel, err := s.Store.FetchRelated(ctx, rec, accessor)
	if err != nil {
		return nil, err
	}

	return &countingRelation{Relation: rel, store: s}, nil
}

func (s *countingStore) RunAtomic(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.attempts = append(s.attempts, attempts)
	s.mu.Unlock()

	return s.Store.RunAtomic(ctx, attempts, fn)
}

// countingRelation routes child creation through the store's Create so it
// is counted and can fail.
type countingRelation struct {
	transformer.Relation
	store *countingStore
}

func (r *countingRelation) CreateChild(ctx context.Context, attrs *model.Attributes) (*model.Record, error) {
	r.store.mu.Lock()
	r.store.creates[r.TargetType()]++
	fail := r.store.failCreates[r.TargetType()] > 0
	if fail {
		r.store.failCreates[r.TargetType()]--
	}
	r.store.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("create %s: storage unavailable", r.TargetType())
	}

	return r.Relation.CreateChild(ctx, attrs)
}

func mustRegister(t *testing.T, f *transformer.Factory, defs ...*transformer.Definition) {
	t.Helper()
	require.NoError(t, f.Register(defs...))
}

func mustMake(t *testing.T, f *transformer.Factory, name string) *transformer.Transformer {
	t.Helper()

	tr, err := f.Make(name)
	require.NoError(t, err)

	return tr
}

func attrsOf(tr *transformer.Transformer) map[string]any {
	return tr.Record().Attributes().Map()
}

// orderDefs declares orders with line items read from the "lines" payload path.
func orderDefs() []*transformer.Definition {
	return []*transformer.Definition{
		{
			Name:      "OrderTransformer",
			ModelType: "orders",
			Declaration: mapping.Declaration{
				ToModel: []mapping.Decl{
					mapping.Field("number"),
					mapping.Pair("customer.name", "customer"),
					mapping.Pair("ItemTransformer", "items"),
				},
			},
		},
		{
			Name:      "ItemTransformer",
			ModelType: "items",
			Declaration: mapping.Declaration{
				ToModel: mapping.Fields("sku", "qty"),
			},
			Data: transformer.DataAt("lines"),
		},
	}
}

func orderPayload() map[string]any {
	return map[string]any{
		"number":   "A-1",
		"customer": map[string]any{"name": "Ada"},
		"lines": []any{
			map[string]any{"sku": "x", "qty": 1},
			map[string]any{"sku": "y", "qty": 2},
		},
	}
}
