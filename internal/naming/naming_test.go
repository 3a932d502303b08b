package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"full_name", []string{"full", "name"}},
		{"OrderID", []string{"Order", "ID"}},
		{"user.firstName", []string{"user", "first", "Name"}},
		{"XMLParser", []string{"XML", "Parser"}},
		{"remote-id", []string{"remote", "id"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.input))
		})
	}
}

func TestPascalAndCamel(t *testing.T) {
	assert.Equal(t, "FullName", Pascal("full_name"))
	assert.Equal(t, "OrderID", Pascal("order_ID"))
	assert.Equal(t, "UserAge", Pascal("user.age"))
	assert.Equal(t, "fullName", Camel("full_name"))
	assert.Equal(t, "", Camel(""))
}

func TestHookName(t *testing.T) {
	assert.Equal(t, "ToFullNameAttribute", HookName("To", "full_name", "Attribute"))
	assert.Equal(t, "FromCreatedAtAttribute", HookName("From", "createdAt", "Attribute"))
	assert.Equal(t, "ForUserNameDataAttribute", HookName("For", "user.name", "DataAttribute"))
}

func TestSnake(t *testing.T) {
	assert.Equal(t, "order_id", Snake("OrderID"))
	assert.Equal(t, "placed_at", Snake("PlacedAt"))
	assert.Equal(t, "sku", Snake("SKU"))
	assert.Equal(t, "", Snake(""))
}

func TestFold(t *testing.T) {
	assert.Equal(t, Fold("full_name"), Fold("FullName"))
	assert.Equal(t, Fold("fullName"), Fold("full-name"))
	assert.NotEqual(t, Fold("name"), Fold("names"))
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("abc", "abc"))
	assert.Equal(t, 3, Levenshtein("", "abc"))
	assert.Equal(t, 1, Levenshtein("item", "items"))
	assert.Equal(t, 3, Levenshtein("kitten", "sitting"))
}

func TestSuggest(t *testing.T) {
	candidates := []string{"ItemTransformer", "UserTransformer", "date"}

	got, ok := Suggest("ItemTransfomer", candidates)
	assert.True(t, ok)
	assert.Equal(t, "ItemTransformer", got)

	_, ok = Suggest("zzz", candidates)
	assert.False(t, ok)
}
