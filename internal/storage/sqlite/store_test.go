package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transformer/internal/mapping"
	"transformer/internal/model"
	"transformer/internal/transformer"
)

var _ transformer.Store = (*Store)(nil)

func openTempStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "records.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func sequentialIDs() Option {
	n := 0

	return WithIDs(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.ErrorIs(t, err, ErrPathRequired)
}

func TestOpenTwiceAppliesMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+migrationTable).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestCreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t, sequentialIDs())

	attrs := model.NewAttributes()
	attrs.Set("name", "Ada")
	attrs.Set("age", 36)

	rec, err := s.Create(ctx, "users", attrs)
	require.NoError(t, err)
	assert.Equal(t, "id-1", rec.ID)
	assert.True(t, rec.Exists())

	got, err := s.Get(ctx, "users", "id-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, got.Attributes().Keys())
	assert.Equal(t, "Ada", got.Attributes().Map()["name"])

	patch := model.NewAttributes()
	patch.Set("age", 37)

	ok, err := s.Update(ctx, rec, patch)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = s.Get(ctx, "users", "id-1")
	require.NoError(t, err)

	var user struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	require.NoError(t, got.Decode(&user))
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, 37, user.Age)

	ok, err = s.Update(ctx, model.Load("users", "missing", nil), patch)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "users", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t, WithIDs(func() string { return "same" }))

	_, err := s.Create(ctx, "users", model.NewAttributes())
	require.NoError(t, err)

	_, err = s.Create(ctx, "users", model.NewAttributes())
	require.ErrorIs(t, err, ErrDuplicateID)
}

func TestRelations(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t, sequentialIDs())
	s.DefineRelation("orders", "items", "items", "")

	order, err := s.Create(ctx, "orders", model.NewAttributes())
	require.NoError(t, err)

	other, err := s.Create(ctx, "orders", model.NewAttributes())
	require.NoError(t, err)

	rel, err := s.FetchRelated(ctx, order, "items")
	require.NoError(t, err)
	assert.Equal(t, "items", rel.TargetType())

	for _, sku := range []string{"x", "y"} {
		attrs := model.NewAttributes()
		attrs.Set("sku", sku)

		child, err := rel.CreateChild(ctx, attrs)
		require.NoError(t, err)
		assert.Equal(t, order.ID, child.Attributes().Map()["orders_id"])
	}

	otherRel, err := s.FetchRelated(ctx, other, "items")
	require.NoError(t, err)

	_, err = otherRel.CreateChild(ctx, model.NewAttributes())
	require.NoError(t, err)

	records, err := rel.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "x", records[0].Attributes().Map()["sku"])
	assert.Equal(t, "y", records[1].Attributes().Map()["sku"])

	_, err = s.FetchRelated(ctx, order, "payments")
	require.ErrorIs(t, err, ErrUnknownRelation)
}

func TestRunAtomic(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t, sequentialIDs())

	calls := 0
	err := s.RunAtomic(ctx, 3, func(ctx context.Context) error {
		calls++

		if _, err := s.Create(ctx, "users", model.NewAttributes()); err != nil {
			return err
		}

		// Nested calls join the running transaction.
		err := s.RunAtomic(ctx, 1, func(ctx context.Context) error {
			_, err := s.Create(ctx, "users", model.NewAttributes())
			return err
		})
		if err != nil {
			return err
		}

		if calls < 3 {
			return errors.New("transient")
		}

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	n, err := s.Count(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunAtomicExhausted(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)

	boom := errors.New("boom")
	err := s.RunAtomic(ctx, 2, func(ctx context.Context) error {
		if _, err := s.Create(ctx, "users", model.NewAttributes()); err != nil {
			return err
		}

		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := s.All(ctx, "users")
	require.NoError(t, err)
	assert.Empty(t, all)

	require.ErrorIs(t, s.RunAtomic(ctx, 0, func(context.Context) error { return nil }), ErrInvalidAttempts)
}

func TestSaveThroughTransformer(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)

	f := transformer.NewFactory(s)
	require.NoError(t, f.Register(
		&transformer.Definition{
			Name:      "OrderTransformer",
			ModelType: "orders",
			Declaration: mapping.Declaration{ToModel: []mapping.Decl{
				mapping.Field("number"),
				mapping.Pair("ItemTransformer", "items"),
			}},
		},
		&transformer.Definition{
			Name:        "ItemTransformer",
			ModelType:   "items",
			Declaration: mapping.Declaration{ToModel: mapping.Fields("sku")},
			Data:        transformer.DataAt("lines"),
		},
	))
	require.NoError(t, f.DefineRelations(s))

	tr, err := f.Make("OrderTransformer")
	require.NoError(t, err)

	tr.WithData(map[string]any{
		"number": "A-1",
		"lines":  []any{map[string]any{"sku": "x"}, map[string]any{"sku": "y"}},
	})
	require.NoError(t, f.NewCollection(tr).WithTransaction(2).Call(ctx, transformer.OpSave))

	items, err := s.All(ctx, "items")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, tr.Record().ID, items[0].Attributes().Map()["orders_id"])

	out, err := f.Make("OrderTransformer")
	require.NoError(t, err)

	stored, err := s.Get(ctx, "orders", tr.Record().ID)
	require.NoError(t, err)
	require.NoError(t, out.WithModel(stored).ToData(ctx))

	data := out.Data().(map[string]any)
	assert.Equal(t, "A-1", data["number"])
	assert.Len(t, data["items"], 2)
}
