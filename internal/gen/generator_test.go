package gen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transformer/internal/analyze"
	"transformer/internal/cast"
	"transformer/internal/mapping"
	"transformer/internal/storage/memory"
	"transformer/internal/transformer"
)

const testPkg = "example/store"

// testCatalog has orders with items, and items pointing back at their order.
func testCatalog() *analyze.Catalog {
	c := analyze.NewCatalog()
	c.Packages[testPkg] = "store"

	order := analyze.ModelID{PkgPath: testPkg, Name: "Order"}
	item := analyze.ModelID{PkgPath: testPkg, Name: "Item"}

	c.Models[order] = &analyze.Model{ID: order, Fields: []analyze.Field{
		{Name: "ID", Column: "id", GoType: "string"},
		{Name: "RemoteID", Column: "remote_id", GoType: "string"},
		{Name: "Number", Column: "number", GoType: "string"},
		{Name: "PlacedAt", Column: "placed_at", GoType: "time.Time", Kind: analyze.FieldTime},
		{Name: "Items", Column: "items", GoType: "[]Item", Kind: analyze.FieldMany, Target: "Item"},
	}}
	c.Models[item] = &analyze.Model{ID: item, Fields: []analyze.Field{
		{Name: "SKU", Column: "sku", GoType: "string"},
		{Name: "Qty", Column: "qty", GoType: "int"},
		{Name: "Order", Column: "order", GoType: "*Order", Kind: analyze.FieldOne, Target: "Order"},
	}}

	return c
}

func TestGenerator_Document(t *testing.T) {
	res, err := NewGenerator(GeneratorConfig{}).Generate(testCatalog(), "Order")
	require.NoError(t, err)

	doc := res.Document
	assert.Equal(t, []string{"OrderTransformer", "ItemTransformer"}, doc.Names())

	order := doc.Find("OrderTransformer")
	require.NotNil(t, order)
	assert.Equal(t, "orders", order.Model)
	assert.Equal(t, "id", order.RemoteID)
	assert.Empty(t, order.DataPath)
	assert.Equal(t, mapping.DeclList{
		mapping.Field("number"),
		mapping.Field("placed_at"),
		mapping.Pair("ItemTransformer", "items"),
	}, order.ToModel)
	assert.Equal(t, map[string]string{"placed_at": "datetime"}, order.Casts)

	item := doc.Find("ItemTransformer")
	require.NotNil(t, item)
	assert.Equal(t, "items", item.DataPath)
	assert.Empty(t, item.RemoteID)
	assert.Equal(t, mapping.DeclList{
		mapping.Field("sku"),
		mapping.Field("qty"),
		mapping.Pair("OrderTransformer", "order"),
	}, item.ToModel)

	diags := mapping.Validate(doc, cast.NewFactory().Names())
	require.NoError(t, diags.Err())
}

func TestGenerator_Source(t *testing.T) {
	res, err := NewGenerator(GeneratorConfig{PackageName: "storetr"}).Generate(testCatalog(), testPkg+".Order")
	require.NoError(t, err)
	require.Len(t, res.Files, 1)

	file := res.Files[0]
	assert.Equal(t, "order_transformers.go", file.Filename)
	assert.False(t, file.Unformatted)

	src := string(file.Content)
	assert.Contains(t, src, "package storetr")
	assert.Contains(t, src, `"transformer/internal/mapping"`)
	assert.NotContains(t, src, `"context"`)
	assert.Contains(t, src, "func NewOrderTransformer() *transformer.Definition {")
	assert.Contains(t, src, `mapping.Field("number"),`)
	assert.Contains(t, src, `mapping.Pair("ItemTransformer", "items"),`)
	assert.Contains(t, src, `transformer.DataAt("items")`)
	assert.Regexp(t, `"placed_at":\s+"datetime"`, src)
	assert.Regexp(t, `RemoteID:\s+"id"`, src)
	assert.Contains(t, src, "func Definitions() []*transformer.Definition {")
	assert.NotContains(t, src, "Methods")
}

func TestGenerator_HookStubs(t *testing.T) {
	res, err := NewGenerator(GeneratorConfig{Hooks: true, ListFunc: "All"}).Generate(testCatalog(), "Order")
	require.NoError(t, err)

	src := string(res.Files[0].Content)
	assert.Contains(t, src, `"context"`)
	assert.Contains(t, src, "type OrderMethods struct{}")
	assert.Contains(t, src, "func (OrderMethods) ToNumberAttribute(_ context.Context, value any) (any, error) {")
	assert.Contains(t, src, "func (OrderMethods) ToPlacedAtAttribute(_ context.Context, value any) (any, error) {")
	assert.Contains(t, src, "func (ItemMethods) ToSkuAttribute(")
	assert.Regexp(t, `Methods:\s+OrderMethods\{\},`, src)
	assert.NotContains(t, src, "ToItemsAttribute")
	assert.Contains(t, src, "func All() []*transformer.Definition {")
}

func TestGenerator_UnknownModel(t *testing.T) {
	_, err := NewGenerator(GeneratorConfig{}).Generate(testCatalog(), "Invoice")
	require.ErrorIs(t, err, ErrUnknownModel)
}

func TestWriteResult(t *testing.T) {
	res, err := NewGenerator(GeneratorConfig{}).Generate(testCatalog(), "Order")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, WriteResult(res, dir, "order.yaml"))

	_, err = os.Stat(filepath.Join(dir, "order_transformers.go"))
	require.NoError(t, err)

	doc, err := mapping.LoadFile(filepath.Join(dir, "order.yaml"))
	require.NoError(t, err)
	assert.Equal(t, res.Document.Names(), doc.Names())
}

func TestWriteFiles_Unformatted(t *testing.T) {
	dir := t.TempDir()
	files := []GeneratedFile{{Filename: "broken.go", Content: []byte("package x\nfunc {"), Unformatted: true}}

	require.NoError(t, WriteFiles(files, dir))

	_, err := os.Stat(filepath.Join(dir, "broken.unformatted.go"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "broken.go"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlural(t *testing.T) {
	tests := map[string]string{
		"order":    "orders",
		"category": "categories",
		"key":      "keys",
		"address":  "addresses",
		"box":      "boxes",
		"":         "",
	}

	for in, want := range tests {
		assert.Equal(t, want, plural(in), in)
	}
}

// The generated declarations drive a real import of the shop models.
func TestGenerate_ShopRoundTrip(t *testing.T) {
	catalog, err := analyze.NewAnalyzer().LoadPackages("transformer/examples/shop")
	require.NoError(t, err)

	res, err := NewGenerator(GeneratorConfig{}).Generate(catalog, "Customer")
	require.NoError(t, err)
	assert.Equal(t, []string{"CustomerTransformer", "OrderTransformer", "ItemTransformer"}, res.Document.Names())

	store := memory.New()
	f := transformer.NewFactory(store)
	require.NoError(t, f.Load(res.Document))
	require.NoError(t, f.DefineRelations(store))

	tr, err := f.Make("CustomerTransformer")
	require.NoError(t, err)

	tr.WithData(map[string]any{
		"id":   "c-1",
		"name": "Ada",
		"orders": []any{
			map[string]any{
				"number":    "A-1",
				"placed_at": "2024-01-05 10:30:00",
				"items":     []any{map[string]any{"sku": "x", "qty": 2}},
			},
		},
	})
	require.NoError(t, tr.Save(context.Background()))

	assert.Equal(t, 1, store.Count("customers"))
	assert.Equal(t, 1, store.Count("orders"))
	assert.Equal(t, 1, store.Count("items"))
	assert.Equal(t, "c-1", tr.Record().Attributes().Map()["remote_id"])
}
