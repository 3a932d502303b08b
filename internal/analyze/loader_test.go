package analyze

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopPkg = "transformer/examples/shop"

func loadShop(t *testing.T) *Catalog {
	t.Helper()

	catalog, err := NewAnalyzer().LoadPackages(shopPkg)
	require.NoError(t, err)

	return catalog
}

func TestAnalyzer_LoadPackages(t *testing.T) {
	catalog := loadShop(t)

	assert.Equal(t, "shop", catalog.Packages[shopPkg])

	var names []string
	for _, m := range catalog.SortedModels() {
		names = append(names, m.ID.Name)
	}

	// Methods-only structs are models too; the generator decides what to use.
	assert.Subset(t, names, []string{"Customer", "Item", "Order"})
	assert.Contains(t, names, "OrderMethods")
}

func TestAnalyzer_OrderFields(t *testing.T) {
	order, ok := loadShop(t).Lookup("Order")
	require.True(t, ok)
	assert.Equal(t, shopPkg+".Order", order.ID.String())

	var columns []string
	for _, f := range order.Columns() {
		columns = append(columns, f.Column)
	}

	assert.Equal(t, []string{"id", "remote_id", "number", "status", "total_cents", "placed_at"}, columns)
	assert.Nil(t, order.Field("Notes"), "json:\"-\" fields are skipped")

	placed := order.Field("PlacedAt")
	require.NotNil(t, placed)
	assert.Equal(t, FieldTime, placed.Kind)
	assert.Equal(t, "time.Time", placed.GoType)

	total := order.Field("TotalCents")
	require.NotNil(t, total)
	assert.Equal(t, FieldScalar, total.Kind)
	assert.Equal(t, "int64", total.GoType)
	assert.Equal(t, "total_cents", total.Tag.Get("json"))
}

func TestAnalyzer_Relations(t *testing.T) {
	catalog := loadShop(t)

	order, ok := catalog.Lookup(shopPkg + ".Order")
	require.True(t, ok)

	rels := order.Relations()
	require.Len(t, rels, 1)
	assert.Equal(t, "Items", rels[0].Name)
	assert.Equal(t, FieldMany, rels[0].Kind)
	assert.Equal(t, "Item", rels[0].Target)
	assert.Equal(t, "[]Item", rels[0].GoType)

	item, ok := catalog.Lookup("Item")
	require.True(t, ok)
	assert.Empty(t, item.Relations())

	gift := item.Field("Gift")
	require.NotNil(t, gift)
	assert.Equal(t, "gift", gift.Column)
}

func TestCatalog_LookupMissing(t *testing.T) {
	catalog := loadShop(t)

	_, ok := catalog.Lookup("Invoice")
	assert.False(t, ok)

	_, ok = catalog.Lookup("other/pkg.Order")
	assert.False(t, ok)
}

func TestColumnName(t *testing.T) {
	tests := []struct {
		name   string
		tag    string
		column string
		ok     bool
	}{
		{"PlacedAt", `json:"placed,omitempty"`, "placed", true},
		{"PlacedAt", `json:",omitempty"`, "placed_at", true},
		{"PlacedAt", ``, "placed_at", true},
		{"Secret", `json:"-"`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name+tt.tag, func(t *testing.T) {
			col, ok := columnName(tt.name, reflect.StructTag(tt.tag))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.column, col)
		})
	}
}

func TestFieldKind(t *testing.T) {
	assert.Equal(t, "many", FieldMany.String())
	assert.True(t, FieldOne.IsRelation())
	assert.False(t, FieldTime.IsRelation())
}
