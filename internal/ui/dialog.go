package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tabula/internal/config"
	"tabula/internal/source"
	"tabula/internal/table"
	"tabula/internal/util"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-logr/logr"
)

const maxCellWidth = 32

// DialogModel is one table dialog. It supplies the controller's body-update
// hook and renders the rows the controller hands it.
type DialogModel struct {
	cfg    config.Dialog
	source source.Source
	ctrl   *table.Controller

	// Body staged by the last fetch, handed out by UpdateBody.
	staged    table.Body
	stagedErr error
	hasStaged bool

	rows    table.Body
	redraw  bool
	frame   string
	marker  table.SortSpec
	marked  bool
	visible []bool

	opened        bool
	loading       bool
	reloadPending bool
	fetchedAt     time.Time

	activeColumn   int
	cursor         int
	offset         int
	viewportHeight int
}

// NewDialogModel creates a dialog for cfg reading rows from src.
func NewDialogModel(cfg config.Dialog, src source.Source, store table.VisibilityStore, log logr.Logger) (*DialogModel, error) {
	d := &DialogModel{
		cfg:    cfg,
		source: src,
		redraw: true,
	}
	ctrl, err := table.New(d, d, store, log)
	if err != nil {
		return nil, err
	}
	d.ctrl = ctrl
	d.visible = make([]bool, len(cfg.Headers))
	for i := range d.visible {
		d.visible[i] = true
	}
	return d, nil
}

func (d *DialogModel) ID() string       { return d.cfg.ID }
func (d *DialogModel) Title() string    { return d.cfg.Title }
func (d *DialogModel) Header() []string { return d.cfg.Headers }

func (d *DialogModel) Size() (int, int) {
	return d.cfg.Width, d.cfg.Height
}

// UpdateBody hands the controller the staged body. Without one it fetches
// synchronously.
func (d *DialogModel) UpdateBody(ctx context.Context) (table.Body, error) {
	if !d.hasStaged {
		return d.source.Fetch(ctx)
	}
	body, err := d.staged, d.stagedErr
	d.staged, d.stagedErr, d.hasStaged = nil, nil, false
	return body, err
}

// Stage stores a fetched body for the next reload.
func (d *DialogModel) Stage(body table.Body, err error, at time.Time) {
	d.staged, d.stagedErr, d.hasStaged = body, err, true
	d.loading = false
	if err == nil {
		d.fetchedAt = at
	}
}

// Apply runs the controller over the staged body: the first call opens the
// dialog, later ones reload it.
func (d *DialogModel) Apply(ctx context.Context) error {
	if !d.opened {
		d.opened = true
		return d.ctrl.Open(ctx)
	}
	return d.ctrl.Reload(ctx)
}

func (d *DialogModel) SetRedraw(on bool) {
	d.redraw = on
	if on {
		d.clampCursor()
	}
}

func (d *DialogModel) RemoveAll() {
	d.rows = nil
}

func (d *DialogModel) CreateRow(index int, row table.Row) {
	r := append(table.Row(nil), row...)
	if index == len(d.rows) {
		d.rows = append(d.rows, r)
		return
	}
	for len(d.rows) <= index {
		d.rows = append(d.rows, nil)
	}
	d.rows[index] = r
}

func (d *DialogModel) SortMarker() (table.SortSpec, bool) {
	return d.marker, d.marked
}

func (d *DialogModel) SetSortMarker(spec table.SortSpec, ok bool) {
	d.marker, d.marked = spec, ok
}

// Rows returns the rows currently displayed.
func (d *DialogModel) Rows() table.Body {
	return d.rows.Clone()
}

// SelectedRow returns the row under the cursor.
func (d *DialogModel) SelectedRow() (table.Row, bool) {
	if d.cursor < 0 || d.cursor >= len(d.rows) {
		return nil, false
	}
	return append(table.Row(nil), d.rows[d.cursor]...), true
}

// LoadVisibility refreshes the column flags from the store.
func (d *DialogModel) LoadVisibility(ctx context.Context) error {
	vis, err := d.ctrl.Visibility(ctx)
	d.visible = vis
	d.ensureVisibleActiveColumn()
	return err
}

// Visible returns a copy of the column flags.
func (d *DialogModel) Visible() []bool {
	return append([]bool(nil), d.visible...)
}

// SelectHeader sorts by column, as a click on its header would.
func (d *DialogModel) SelectHeader(column int) (string, error) {
	spec, err := d.ctrl.SelectColumn(column)
	if err != nil {
		return "", err
	}
	d.activeColumn = column
	order := "descending"
	if spec.Ascending {
		order = "ascending"
	}
	return fmt.Sprintf("Sorted %s %s", strings.ToUpper(d.cfg.Headers[column]), order), nil
}

// SelectActiveHeader sorts by the active column.
func (d *DialogModel) SelectActiveHeader() (string, error) {
	return d.SelectHeader(d.activeColumn)
}

// SelectVisibleHeader sorts by the n-th visible column, counting from 1.
func (d *DialogModel) SelectVisibleHeader(n int) (string, error) {
	idxs := d.visibleColumnIndexes()
	if n < 1 || n > len(idxs) {
		return "", fmt.Errorf("column %d: %w", n, table.ErrColumnRange)
	}
	return d.SelectHeader(idxs[n-1])
}

func (d *DialogModel) visibleColumnIndexes() []int {
	var idxs []int
	for i, v := range d.visible {
		if v {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (d *DialogModel) ensureVisibleActiveColumn() {
	if d.activeColumn < len(d.visible) && d.visible[d.activeColumn] {
		return
	}
	for i, v := range d.visible {
		if v {
			d.activeColumn = i
			return
		}
	}
	d.activeColumn = 0
}

func (d *DialogModel) NextColumn() {
	start := d.activeColumn
	for {
		d.activeColumn = (d.activeColumn + 1) % len(d.visible)
		if d.visible[d.activeColumn] || d.activeColumn == start {
			return
		}
	}
}

func (d *DialogModel) PrevColumn() {
	start := d.activeColumn
	for {
		d.activeColumn--
		if d.activeColumn < 0 {
			d.activeColumn = len(d.visible) - 1
		}
		if d.visible[d.activeColumn] || d.activeColumn == start {
			return
		}
	}
}

// SetActiveColumn makes the column with the given header active.
func (d *DialogModel) SetActiveColumn(label string) {
	for i, h := range d.cfg.Headers {
		if h == label && d.visible[i] {
			d.activeColumn = i
			return
		}
	}
}

// ActiveColumnLabel returns the header of the active column.
func (d *DialogModel) ActiveColumnLabel() string {
	return d.cfg.Headers[d.activeColumn]
}

func (d *DialogModel) clampCursor() {
	if len(d.rows) == 0 {
		d.cursor = 0
		d.offset = 0
		return
	}
	if d.cursor >= len(d.rows) {
		d.cursor = len(d.rows) - 1
	}
	if d.cursor < 0 {
		d.cursor = 0
	}
	if d.offset > d.cursor {
		d.offset = d.cursor
	}
}

func (d *DialogModel) pageHeight() int {
	if d.viewportHeight == 0 {
		return 10
	}
	return d.viewportHeight
}

// MoveDown moves the cursor down.
func (d *DialogModel) MoveDown() {
	if d.cursor < len(d.rows)-1 {
		d.cursor++
		if d.cursor >= d.offset+d.pageHeight() {
			d.offset++
		}
	}
}

// MoveUp moves the cursor up.
func (d *DialogModel) MoveUp() {
	if d.cursor > 0 {
		d.cursor--
		if d.cursor < d.offset {
			d.offset--
		}
	}
}

// JumpToTop jumps to the first row.
func (d *DialogModel) JumpToTop() {
	d.cursor = 0
	d.offset = 0
}

// JumpToBottom jumps to the last row.
func (d *DialogModel) JumpToBottom() {
	if len(d.rows) > 0 {
		d.cursor = len(d.rows) - 1
		if vh := d.pageHeight(); d.cursor >= vh {
			d.offset = d.cursor - vh + 1
		}
	}
}

// HalfPageDown moves down half a page.
func (d *DialogModel) HalfPageDown() {
	d.cursor += d.pageHeight() / 2
	if d.cursor >= len(d.rows) {
		d.cursor = len(d.rows) - 1
	}
	d.clampCursor()
	if vh := d.pageHeight(); d.cursor >= d.offset+vh {
		d.offset = d.cursor - vh + 1
	}
}

// HalfPageUp moves up half a page.
func (d *DialogModel) HalfPageUp() {
	d.cursor -= d.pageHeight() / 2
	if d.cursor < 0 {
		d.cursor = 0
	}
	if d.cursor < d.offset {
		d.offset = d.cursor
	}
}

// TableMeta describes the active column and sort for the status bar.
func (d *DialogModel) TableMeta() string {
	parts := []string{fmt.Sprintf("col %s", strings.ToUpper(d.ActiveColumnLabel()))}
	if spec, ok := d.ctrl.LastSort(); ok {
		order := "desc"
		if spec.Ascending {
			order = "asc"
		}
		parts = append(parts, fmt.Sprintf("sort %s %s", strings.ToUpper(d.cfg.Headers[spec.Column]), order))
	}
	if hidden := len(d.visible) - len(d.visibleColumnIndexes()); hidden > 0 {
		parts = append(parts, fmt.Sprintf("%d hidden", hidden))
	}
	return strings.Join(parts, "  ·  ")
}

// View renders the dialog inside at most width x height cells. While
// redraw is suspended the last frame is returned unchanged.
func (d *DialogModel) View(width, height int, now time.Time) string {
	if !d.redraw && d.frame != "" {
		return d.frame
	}
	d.frame = d.render(width, height, now)
	return d.frame
}

func (d *DialogModel) render(width, height int, now time.Time) string {
	w, h := d.Size()
	width = min(width, w)
	height = min(height, h)

	if !d.opened {
		return EmptyStateStyle.Width(width).Height(height).Render("Loading " + d.Title() + "...")
	}

	visible := d.visibleColumnIndexes()
	if len(visible) == 0 {
		return EmptyStateStyle.Width(width).Height(height).Render("No visible columns. Press C to show all columns.")
	}

	widths := make([]int, 0, len(visible))
	headers := make([]string, 0, len(visible))
	totalFixed := 0
	for _, idx := range visible {
		label := strings.ToUpper(d.cfg.Headers[idx])
		if d.marked && d.marker.Column == idx {
			if d.marker.Ascending {
				label += " ↑"
			} else {
				label += " ↓"
			}
		}
		if idx == d.activeColumn {
			label = ActiveHeaderStyle.Render(label)
		}
		cellWidth := max(d.columnWidth(idx), lipgloss.Width(label)) + 2
		totalFixed += cellWidth
		widths = append(widths, cellWidth)
		headers = append(headers, label)
	}
	if extra := width - totalFixed; extra > 0 {
		widths[len(widths)-1] += extra
	}

	header := renderTableRow(headers, widths, TableHeaderStyle)
	divider := renderTableDivider(widths)

	d.viewportHeight = max(1, height-3)
	var lines []string
	if len(d.rows) == 0 {
		lines = append(lines, EmptyStateStyle.Render("No rows."))
	}
	for i := d.offset; i < len(d.rows) && i < d.offset+d.viewportHeight; i++ {
		style := NormalRowStyle
		if i == d.cursor {
			style = SelectedRowStyle
		}
		cells := make([]string, 0, len(visible))
		for j, idx := range visible {
			v := ""
			if idx < len(d.rows[i]) {
				v = d.rows[i][idx]
			}
			cells = append(cells, util.TruncateString(util.FormatCell(v), widths[j]-2))
		}
		lines = append(lines, renderTableRow(cells, widths, style))
	}

	rowPos := ""
	if len(d.rows) > 0 {
		rowPos = fmt.Sprintf("  ·  row %d/%d", d.cursor+1, len(d.rows))
	}
	refreshed := "refreshed " + util.FormatAge(d.fetchedAt, now)
	if d.loading {
		refreshed = "refreshing..."
	}
	status := StatusBarStyle.Render(fmt.Sprintf("%d rows%s  ·  %s  ·  %s", len(d.rows), rowPos, d.TableMeta(), refreshed))

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		divider,
		strings.Join(lines, "\n"),
	)
	spacerHeight := max(0, height-lipgloss.Height(content)-lipgloss.Height(status))
	spacer := lipgloss.NewStyle().Height(spacerHeight).Render("")

	return lipgloss.NewStyle().MaxWidth(width).Render(lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		spacer,
		status,
	))
}

func (d *DialogModel) columnWidth(idx int) int {
	w := lipgloss.Width(d.cfg.Headers[idx])
	for _, r := range d.rows {
		if idx < len(r) {
			w = max(w, lipgloss.Width(util.FormatCell(r[idx])))
		}
	}
	return min(w, maxCellWidth)
}

func renderTableRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, cell := range cells {
		if i >= len(widths) {
			continue
		}
		parts = append(parts, style.Width(widths[i]).Render(cell))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

func renderTableDivider(widths []int) string {
	total := 0
	for _, w := range widths {
		total += w
	}
	return DividerStyle.Render(strings.Repeat("─", total))
}
