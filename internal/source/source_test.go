package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tabula/internal/config"
	"tabula/internal/db"
	"tabula/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte("sku;price\nA-1;10\nB-2;\n"), 0644))

	src, err := New(config.Dialog{ID: "p", Source: config.Source{
		Kind: config.SourceCSV, Path: path, SkipHeader: true, Comma: ";",
	}}, nil)
	require.NoError(t, err)

	body, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, table.Body{{"A-1", "10"}, {"B-2", ""}}, body)
}

func TestCSVReadRaggedRows(t *testing.T) {
	body, err := CSV{}.read(context.Background(), strings.NewReader("a,b\nc\n"))
	require.NoError(t, err)
	assert.Equal(t, table.Body{{"a", "b"}, {"c"}}, body)
}

func TestCSVReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CSV{}.read(ctx, strings.NewReader("a\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCSVMissingFile(t *testing.T) {
	_, err := CSV{Path: filepath.Join(t.TempDir(), "nope.csv")}.Fetch(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSQLFetch(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(filepath.Join(t.TempDir(), "t.db"))
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, db.SeedDemo(ctx, database))

	src, err := New(config.Dialog{ID: "s", Source: config.Source{
		Kind:  config.SourceSQL,
		Query: "SELECT sku, qty FROM demo_stock WHERE sku LIKE 'A-%' ORDER BY sku",
	}}, database)
	require.NoError(t, err)

	body, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, table.Body{{"A-100", "1200"}, {"A-101", "85"}, {"A-102", "9"}}, body)
}

func TestNewErrors(t *testing.T) {
	_, err := New(config.Dialog{ID: "s", Source: config.Source{Kind: config.SourceSQL, Query: "SELECT 1"}}, nil)
	assert.ErrorIs(t, err, ErrNoDatabase)

	_, err = New(config.Dialog{ID: "x", Source: config.Source{Kind: "ftp"}}, nil)
	assert.Error(t, err)
}
