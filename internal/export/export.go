// Package export writes a dialog's header and rows to CSV files and the
// system clipboard.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"

	"tabula/internal/table"
)

// WriteCSV writes the header followed by every row.
func WriteCSV(w io.Writer, header []string, rows table.Body) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		if err := writer.Write(r); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// CSVFile writes the table to path, creating parent directories.
func CSVFile(path string, header []string, rows table.Body) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := WriteCSV(f, header, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	return nil
}

// ClipboardText renders the table as tab-separated lines.
func ClipboardText(header []string, rows table.Body) string {
	var b strings.Builder
	b.WriteString(strings.Join(header, "\t"))
	for _, r := range rows {
		b.WriteByte('\n')
		b.WriteString(strings.Join(r, "\t"))
	}
	return b.String()
}

// Clipboard copies the table to the system clipboard.
func Clipboard(header []string, rows table.Body) error {
	if err := clipboard.WriteAll(ClipboardText(header, rows)); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

// ClipboardRow copies a single row, tab-separated.
func ClipboardRow(row table.Row) error {
	if err := clipboard.WriteAll(strings.Join(row, "\t")); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

// Project keeps only the visible columns. A nil visible keeps everything.
func Project(header []string, rows table.Body, visible []bool) ([]string, table.Body) {
	if visible == nil {
		return header, rows
	}
	keep := func(r []string) []string {
		out := make([]string, 0, len(r))
		for i, v := range r {
			if i >= len(visible) || visible[i] {
				out = append(out, v)
			}
		}
		return out
	}
	projected := make(table.Body, len(rows))
	for i, r := range rows {
		projected[i] = keep(r)
	}
	return keep(header), projected
}
