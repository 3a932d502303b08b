package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transformer/internal/cast"
	"transformer/internal/diagnostic"
)

func codes(ds []diagnostic.Diagnostic) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code)
	}

	return out
}

func TestValidate_Clean(t *testing.T) {
	doc, err := Parse([]byte(orderYAML))
	require.NoError(t, err)

	res := Validate(doc, cast.NewFactory().Names())
	assert.False(t, res.HasErrors(), res.String())
	assert.Empty(t, res.Warnings, res.String())
}

func TestValidate_Nil(t *testing.T) {
	res := Validate(nil, nil)
	require.True(t, res.HasErrors())
	assert.Equal(t, CodeDocumentNil, res.Errors[0].Code)
}

func TestValidate_Findings(t *testing.T) {
	tests := []struct {
		name     string
		doc      Document
		errors   []string
		warnings []string
	}{
		{
			name: "duplicate transformer",
			doc: Document{Transformers: []TransformerDef{
				{Name: "ATransformer", Model: "a"},
				{Name: "ATransformer", Model: "b"},
			}},
			errors: []string{CodeDuplicateName},
		},
		{
			name: "duplicate key",
			doc: Document{Transformers: []TransformerDef{
				{Name: "A", Model: "a", ToModel: DeclList{Field("name"), Pair("name", "title")}},
			}},
			warnings: []string{CodeDuplicateKey},
		},
		{
			name: "unknown relation target",
			doc: Document{Transformers: []TransformerDef{
				{Name: "OrderTransformer", Model: "orders", ToModel: DeclList{Pair("ItemsTransformer", "items")}},
				{Name: "ItemTransformer", Model: "items"},
			}},
			errors: []string{CodeUnknownTransformer},
		},
		{
			name: "dotted paths are not relations",
			doc: Document{Transformers: []TransformerDef{
				{Name: "A", Model: "a", ToModel: DeclList{Pair("Meta.SomeTransformer", "x")}},
			}},
		},
		{
			name: "unknown caster and unmapped cast",
			doc: Document{Transformers: []TransformerDef{
				{Name: "A", Model: "a", ToModel: DeclList{Field("name")}, Casts: map[string]string{"born": "dat:Y-m-d"}},
			}},
			errors:   []string{CodeUnknownCaster},
			warnings: []string{CodeCastUnmapped},
		},
		{
			name: "unused data path",
			doc: Document{Transformers: []TransformerDef{
				{Name: "A", Model: "a", DataPath: "lines"},
			}},
			warnings: []string{CodeUnusedDataPath},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(&tt.doc, cast.NewFactory().Names())
			assert.ElementsMatch(t, tt.errors, codes(res.Errors))
			assert.ElementsMatch(t, tt.warnings, codes(res.Warnings))
		})
	}
}

func TestValidate_Suggestions(t *testing.T) {
	doc := &Document{Transformers: []TransformerDef{
		{
			Name:    "OrderTransformer",
			Model:   "orders",
			ToModel: DeclList{Pair("ItemsTransformer", "items"), Field("placed_at")},
			Casts:   map[string]string{"placed_at": "dat"},
		},
		{Name: "ItemTransformer", Model: "items"},
	}}

	res := Validate(doc, cast.NewFactory().Names())
	require.Len(t, res.Errors, 2)

	byCode := map[string]diagnostic.Diagnostic{}
	for _, d := range res.Errors {
		byCode[d.Code] = d
	}

	assert.Equal(t, "ItemTransformer", byCode[CodeUnknownTransformer].Suggestion)
	assert.Equal(t, "date", byCode[CodeUnknownCaster].Suggestion)
	assert.Contains(t, res.String(), "did you mean")
}
