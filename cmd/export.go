package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tabula/internal/config"
	"tabula/internal/db"
	"tabula/internal/export"
	"tabula/internal/logger"
	"tabula/internal/source"
	"tabula/internal/table"
)

var (
	exportOutput      string
	exportSort        string
	exportVisibleOnly bool
)

var exportCmd = &cobra.Command{
	Use:   "export <dialog-id>",
	Short: "Write a dialog's rows as CSV without starting the UI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openSession()
		if err != nil {
			return err
		}
		defer rt.Close()

		dc, ok := rt.cfg.Dialog(args[0])
		if !ok {
			return fmt.Errorf("unknown dialog %q", args[0])
		}
		ctx := logger.WithLogger(cmd.Context(), rt.log.Logger)
		return runExport(ctx, cmd, rt, dc)
	},
}

func init() { //nolint:gochecknoinits
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "file to write (default: stdout)")
	exportCmd.Flags().StringVar(&exportSort, "sort", "", "sort by column N (1-based) or header name, with optional :desc")
	exportCmd.Flags().BoolVar(&exportVisibleOnly, "visible-only", false, "leave out columns hidden in the UI")
}

func runExport(ctx context.Context, cmd *cobra.Command, rt *session, dc config.Dialog) error {
	src, err := source.New(dc, rt.db)
	if err != nil {
		return err
	}
	var store table.VisibilityStore
	if rt.db != nil {
		store = db.VisibilityStore{DB: rt.db}
	}

	log := logger.FromContext(ctx).WithValues("dialog", dc.ID)
	model := &headlessDialog{cfg: dc, src: src}
	view := &rowCollector{}
	ctrl, err := table.New(model, view, store, log)
	if err != nil {
		return err
	}
	if err := ctrl.Open(ctx); err != nil {
		return err
	}

	if exportSort != "" {
		spec, err := parseSortFlag(exportSort, dc.Headers)
		if err != nil {
			return err
		}
		// The first selection of a column sorts ascending, the second flips it.
		if _, err := ctrl.SelectColumn(spec.Column); err != nil {
			return err
		}
		if !spec.Ascending {
			if _, err := ctrl.SelectColumn(spec.Column); err != nil {
				return err
			}
		}
	}

	header, rows := ctrl.Header(), view.rows
	if exportVisibleOnly {
		visible, err := ctrl.Visibility(ctx)
		if err != nil {
			log.Error(err, "column visibility unavailable, exporting all columns")
		}
		header, rows = export.Project(header, rows, visible)
	}

	if exportOutput == "" {
		return export.WriteCSV(cmd.OutOrStdout(), header, rows)
	}
	if err := export.CSVFile(exportOutput, header, rows); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d rows to %s\n", len(rows), exportOutput)
	return nil
}

// parseSortFlag reads "N", "N:desc", "name" or "name:asc".
func parseSortFlag(value string, header []string) (table.SortSpec, error) {
	col, order, _ := strings.Cut(strings.TrimSpace(value), ":")
	spec := table.SortSpec{Column: -1, Ascending: true}

	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "asc", "ascending":
	case "desc", "descending":
		spec.Ascending = false
	default:
		return table.SortSpec{}, fmt.Errorf("unknown sort order %q", order)
	}

	col = strings.TrimSpace(col)
	if n, err := strconv.Atoi(col); err == nil {
		spec.Column = n - 1
	} else {
		for i, h := range header {
			if strings.EqualFold(h, col) {
				spec.Column = i
				break
			}
		}
	}
	if spec.Column < 0 || spec.Column >= len(header) {
		return table.SortSpec{}, fmt.Errorf("sort column %q: %w", col, table.ErrColumnRange)
	}
	return spec, nil
}

// headlessDialog feeds the controller straight from a source.
type headlessDialog struct {
	cfg config.Dialog
	src source.Source
}

func (h *headlessDialog) ID() string       { return h.cfg.ID }
func (h *headlessDialog) Title() string    { return h.cfg.Title }
func (h *headlessDialog) Header() []string { return h.cfg.Headers }

func (h *headlessDialog) Size() (int, int) {
	return h.cfg.Width, h.cfg.Height
}

func (h *headlessDialog) UpdateBody(ctx context.Context) (table.Body, error) {
	return h.src.Fetch(ctx)
}

// rowCollector is a view that only remembers the rows it was given.
type rowCollector struct {
	rows   table.Body
	marker table.SortSpec
	marked bool
}

func (v *rowCollector) SetRedraw(bool) {}

func (v *rowCollector) RemoveAll() { v.rows = nil }

func (v *rowCollector) CreateRow(_ int, row table.Row) {
	v.rows = append(v.rows, append(table.Row(nil), row...))
}

func (v *rowCollector) SortMarker() (table.SortSpec, bool) { return v.marker, v.marked }

func (v *rowCollector) SetSortMarker(spec table.SortSpec, ok bool) {
	v.marker, v.marked = spec, ok
}
