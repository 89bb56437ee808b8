package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabula/internal/table"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"sku", "name"}, table.Body{
		{"A-1", "bolt, hex"},
		{"B-2", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "sku,name\nA-1,\"bolt, hex\"\nB-2,\n", buf.String())
}

func TestCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "stock.csv")
	require.NoError(t, CSVFile(path, []string{"a"}, table.Body{{"1"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))
}

func TestClipboardText(t *testing.T) {
	got := ClipboardText([]string{"a", "b"}, table.Body{{"1", "2"}, {"", "4"}})
	assert.Equal(t, "a\tb\n1\t2\n\t4", got)
	assert.Equal(t, "a", ClipboardText([]string{"a"}, nil))
}

func TestProject(t *testing.T) {
	header, rows := Project([]string{"a", "b", "c"}, table.Body{{"1", "2", "3"}}, []bool{true, false, true})
	assert.Equal(t, []string{"a", "c"}, header)
	assert.Equal(t, table.Body{{"1", "3"}}, rows)

	header, rows = Project([]string{"a"}, table.Body{{"1"}}, nil)
	assert.Equal(t, []string{"a"}, header)
	assert.Equal(t, table.Body{{"1"}}, rows)
}
