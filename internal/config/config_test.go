package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
database: data.db
log_file: /var/tmp/tabula.log
dialogs:
  - id: stock
    title: Stock levels
    width: 120
    headers: [sku, name, qty]
    refresh: 30s
    source:
      kind: SQL
      query: SELECT sku, name, qty FROM demo_stock
  - id: prices
    headers: [sku, price]
    source:
      kind: csv
      path: prices.csv
      skip_header: true
      comma: ";"
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample), "/etc/tabula")
	require.NoError(t, err)

	assert.Equal(t, "/etc/tabula/data.db", cfg.Database)
	assert.Equal(t, "/var/tmp/tabula.log", cfg.LogFile)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	require.Len(t, cfg.Dialogs, 2)

	stock := cfg.Dialogs[0]
	assert.Equal(t, "Stock levels", stock.Title)
	assert.Equal(t, 120, stock.Width)
	assert.Equal(t, DefaultHeight, stock.Height)
	assert.Equal(t, Duration(30*time.Second), stock.Refresh)
	assert.Equal(t, SourceSQL, stock.Source.Kind)

	prices, ok := cfg.Dialog("prices")
	require.True(t, ok)
	assert.Equal(t, "prices", prices.Title)
	assert.Equal(t, DefaultWidth, prices.Width)
	assert.Equal(t, filepath.Join("/etc/tabula", "prices.csv"), prices.Source.Path)
	assert.True(t, prices.Source.SkipHeader)
	assert.Equal(t, ";", prices.Source.Comma)

	_, ok = cfg.Dialog("missing")
	assert.False(t, ok)
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"no dialogs": `database: x.db`,
		"missing id": `
dialogs:
  - headers: [a]
    source: {kind: csv, path: a.csv}`,
		"duplicate id": `
dialogs:
  - {id: a, headers: [a], source: {kind: csv, path: a.csv}}
  - {id: a, headers: [a], source: {kind: csv, path: b.csv}}`,
		"no headers": `
dialogs:
  - {id: a, source: {kind: csv, path: a.csv}}`,
		"unknown kind": `
dialogs:
  - {id: a, headers: [a], source: {kind: http}}`,
		"sql without query": `
database: x.db
dialogs:
  - {id: a, headers: [a], source: {kind: sql}}`,
		"sql without database": `
dialogs:
  - {id: a, headers: [a], source: {kind: sql, query: SELECT 1}}`,
		"watched sql": `
database: x.db
dialogs:
  - {id: a, headers: [a], source: {kind: sql, query: SELECT 1, watch: true}}`,
		"long comma": `
dialogs:
  - {id: a, headers: [a], source: {kind: csv, path: a.csv, comma: "||"}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), "")
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParseBadRefresh(t *testing.T) {
	_, err := Parse([]byte(`
dialogs:
  - {id: a, headers: [a], refresh: soon, source: {kind: csv, path: a.csv}}`), "")
	assert.Error(t, err)
}

func TestWriteThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dialogs.yaml")
	cfg := &Config{
		Database: filepath.Join(dir, "t.db"),
		Dialogs: []Dialog{{
			ID:      "a",
			Headers: []string{"x"},
			Refresh: Duration(time.Minute),
			Source:  Source{Kind: SourceSQL, Query: "SELECT 1"},
		}},
	}
	require.NoError(t, Write(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Duration(time.Minute), loaded.Dialogs[0].Refresh)
	assert.Equal(t, cfg.Database, loaded.Database)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/.tabula", ExpandHome("~/.tabula"))
	assert.Equal(t, "/abs", ExpandHome("/abs"))
	assert.Equal(t, "rel/~", ExpandHome("rel/~"))
}
