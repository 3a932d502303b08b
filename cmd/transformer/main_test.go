package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopDecl = "../../examples/shop/shop.yaml"

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)

	return stdout.String(), err
}

func TestRun_Usage(t *testing.T) {
	_, err := runCLI(t)
	require.ErrorIs(t, err, errUsage)

	_, err = runCLI(t, "explode")
	require.ErrorIs(t, err, errUsage)

	out, err := runCLI(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "make|import|export")
}

func TestMake(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, "make",
		"-pkg", "transformer/examples/shop",
		"-model", "Order",
		"-out", dir,
		"-yaml", "order.yaml",
		"-hooks",
	)
	require.NoError(t, err)
	assert.Equal(t, "order_transformers.go\norder.yaml\n", out)

	src, err := os.ReadFile(filepath.Join(dir, "order_transformers.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package shop")
	assert.Contains(t, string(src), "func (OrderMethods) ToStatusAttribute(")

	_, err = os.Stat(filepath.Join(dir, "order.yaml"))
	require.NoError(t, err)
}

func TestMake_Errors(t *testing.T) {
	_, err := runCLI(t, "make", "-pkg", "transformer/examples/shop")
	require.ErrorContains(t, err, "missing -model")

	_, err = runCLI(t, "make", "-pkg", "transformer/examples/shop", "-model", "Invoice", "-out", t.TempDir())
	require.ErrorContains(t, err, "unknown model")
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRANSFORMER_DB_PATH", filepath.Join(dir, "shop.db"))
	t.Setenv("TRANSFORMER_LOG_LEVEL", "error")

	payload := filepath.Join(dir, "customers.json")
	require.NoError(t, os.WriteFile(payload, []byte(`[
  {"id": 1, "full_name": "Ada", "email": "ada@example.com",
   "orders": [{"id": 10, "number": "A-1", "status": "paid", "totals": {"grand": "990"},
               "lines": [{"sku": "x", "quantity": 2, "price": 495}]}]},
  {"id": 2, "full_name": "Grace", "email": "grace@example.com", "orders": []}
]`), 0o600))

	out, err := runCLI(t, "import",
		"-decl", shopDecl,
		"-transformer", "CustomerTransformer",
		"-data", payload,
		"-attempts", "2",
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	typ, id, ok := strings.Cut(lines[0], " ")
	require.True(t, ok)
	assert.Equal(t, "customers", typ)

	out, err = runCLI(t, "export",
		"-decl", shopDecl,
		"-transformer", "CustomerTransformer",
		"-id", id,
	)
	require.NoError(t, err)

	var data struct {
		ID       float64 `json:"id"`
		FullName string  `json:"full_name"`
		Orders   []struct {
			Number string `json:"number"`
			Totals struct {
				Grand float64 `json:"grand"`
			} `json:"totals"`
			Items []struct {
				SKU      string  `json:"sku"`
				Quantity float64 `json:"quantity"`
			} `json:"items"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &data))

	assert.InDelta(t, 1, data.ID, 0)
	assert.Equal(t, "Ada", data.FullName)
	require.Len(t, data.Orders, 1)
	assert.Equal(t, "A-1", data.Orders[0].Number)
	assert.InDelta(t, 990, data.Orders[0].Totals.Grand, 0)
	require.Len(t, data.Orders[0].Items, 1)
	assert.Equal(t, "x", data.Orders[0].Items[0].SKU)
	assert.InDelta(t, 2, data.Orders[0].Items[0].Quantity, 0)
}

func TestImport_Errors(t *testing.T) {
	t.Setenv("TRANSFORMER_DB_PATH", filepath.Join(t.TempDir(), "shop.db"))

	_, err := runCLI(t, "import", "-decl", shopDecl, "-transformer", "CustomerTransformer")
	require.ErrorContains(t, err, "missing -data")

	payload := filepath.Join(t.TempDir(), "p.json")
	require.NoError(t, os.WriteFile(payload, []byte(`{}`), 0o600))

	_, err = runCLI(t, "import", "-decl", shopDecl, "-transformer", "CustomrTransformer", "-data", payload)
	require.ErrorContains(t, err, `did you mean "CustomerTransformer"?`)

	_, err = runCLI(t, "export", "-decl", shopDecl, "-transformer", "CustomerTransformer", "-id", "missing")
	require.ErrorContains(t, err, "record not found")
}
