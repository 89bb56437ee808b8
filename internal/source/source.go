// Package source supplies dialog bodies from SQLite queries and CSV files.
package source

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"tabula/internal/config"
	"tabula/internal/db"
	"tabula/internal/table"
)

// ErrNoDatabase is returned when an SQL source is built without a database.
var ErrNoDatabase = errors.New("sql source needs a database")

// Source fetches the current rows of a dialog.
type Source interface {
	Fetch(ctx context.Context) (table.Body, error)
}

// SQL runs Query against DB on every fetch.
type SQL struct {
	DB    *sql.DB
	Query string
}

func (s SQL) Fetch(ctx context.Context) (table.Body, error) {
	rows, err := db.QueryStrings(ctx, s.DB, s.Query)
	if err != nil {
		return nil, err
	}
	body := make(table.Body, len(rows))
	for i, r := range rows {
		body[i] = table.Row(r)
	}
	return body, nil
}

// CSV reads the file at Path on every fetch.
type CSV struct {
	Path       string
	SkipHeader bool
	Comma      rune
}

func (s CSV) Fetch(ctx context.Context) (table.Body, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()
	return s.read(ctx, f)
}

func (s CSV) read(ctx context.Context, r io.Reader) (table.Body, error) {
	reader := csv.NewReader(r)
	// Row width is checked against the header by the controller.
	reader.FieldsPerRecord = -1
	if s.Comma != 0 {
		reader.Comma = s.Comma
	}

	var body table.Body
	first := true
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if first && s.SkipHeader {
			first = false
			continue
		}
		first = false
		body = append(body, table.Row(rec))
	}
	return body, nil
}

// New builds the source described by a dialog's config.
func New(d config.Dialog, database *sql.DB) (Source, error) {
	switch d.Source.Kind {
	case config.SourceSQL:
		if database == nil {
			return nil, fmt.Errorf("dialog %q: %w", d.ID, ErrNoDatabase)
		}
		return SQL{DB: database, Query: d.Source.Query}, nil
	case config.SourceCSV:
		var comma rune
		for _, r := range d.Source.Comma {
			comma = r
		}
		return CSV{Path: d.Source.Path, SkipHeader: d.Source.SkipHeader, Comma: comma}, nil
	default:
		return nil, fmt.Errorf("dialog %q: unknown source kind %q", d.ID, d.Source.Kind)
	}
}
