package table

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// Controller owns the body, the per-column sort toggles and the last
// applied sort of one dialog. It is not safe for concurrent use; callers
// drive it from a single event loop.
type Controller struct {
	model TableDialogModel
	view  View
	store VisibilityStore
	log   logr.Logger

	header    []string
	body      Body
	ascending []bool
	lastSort  SortSpec
	sorted    bool
	state     State
}

// New creates a controller for model rendering into view. store may be nil,
// in which case every column is visible.
func New(model TableDialogModel, view View, store VisibilityStore, log logr.Logger) (*Controller, error) {
	header := model.Header()
	if len(header) == 0 {
		return nil, fmt.Errorf("dialog %q: %w", model.ID(), ErrNoHeader)
	}
	return &Controller{
		model:     model,
		view:      view,
		store:     store,
		log:       log.WithValues("dialog", model.ID()),
		header:    append([]string(nil), header...),
		ascending: make([]bool, len(header)),
	}, nil
}

// Open performs the initial fill of the dialog.
func (c *Controller) Open(ctx context.Context) error {
	return c.Reload(ctx)
}

// Reload replaces the body with a fresh one from the body-update hook and
// re-applies the last sort, if any sort has been configured.
func (c *Controller) Reload(ctx context.Context) error {
	if c.state == StateReloading {
		return ErrReloading
	}
	c.state = StateReloading
	defer func() { c.state = StateIdle }()

	c.view.SetRedraw(false)
	defer c.view.SetRedraw(true)

	marker, marked := c.view.SortMarker()
	c.view.RemoveAll()

	body, err := c.model.UpdateBody(ctx)
	if err == nil {
		err = c.validate(body)
	}
	if err != nil {
		// Keep showing what was there before.
		c.render()
		c.view.SetSortMarker(marker, marked)
		c.log.Error(err, "reload rejected", "rows", len(body))
		return fmt.Errorf("reload %s: %w", c.model.ID(), err)
	}

	c.body = body.Clone()
	if c.sorted {
		Sort(c.body, c.lastSort)
	}
	c.render()
	c.view.SetSortMarker(marker, marked)

	c.log.V(1).Info("reloaded", "rows", len(c.body), "sorted", c.sorted)
	return nil
}

// SelectColumn handles a header selection: it toggles the column's
// direction, resets every other column, and sorts the body.
func (c *Controller) SelectColumn(column int) (SortSpec, error) {
	if column < 0 || column >= len(c.ascending) {
		return SortSpec{}, fmt.Errorf("select column %d: %w", column, ErrColumnRange)
	}
	if c.state == StateReloading {
		return SortSpec{}, ErrReloading
	}

	asc := !c.ascending[column]
	for i := range c.ascending {
		c.ascending[i] = false
	}
	c.ascending[column] = asc

	spec := SortSpec{Column: column, Ascending: asc}
	c.lastSort = spec
	c.sorted = true

	c.view.SetRedraw(false)
	defer c.view.SetRedraw(true)

	Sort(c.body, spec)
	c.view.RemoveAll()
	c.render()
	c.view.SetSortMarker(spec, true)

	c.log.V(1).Info("sorted", "column", c.header[column], "ascending", asc)
	return spec, nil
}

// Visibility returns the visible flag of every column. Columns are all
// visible when the store has nothing for this dialog or holds an array of
// the wrong size.
func (c *Controller) Visibility(ctx context.Context) ([]bool, error) {
	all := make([]bool, len(c.header))
	for i := range all {
		all[i] = true
	}
	if c.store == nil {
		return all, nil
	}

	visible, err := c.store.Lookup(ctx, c.model.ID())
	if err != nil {
		return all, fmt.Errorf("lookup visibility for %s: %w", c.model.ID(), err)
	}
	if visible == nil {
		return all, nil
	}
	if len(visible) != len(c.header) {
		c.log.Info("ignoring stored visibility", "stored", len(visible), "columns", len(c.header))
		return all, nil
	}
	return append([]bool(nil), visible...), nil
}

// Header returns the dialog's column labels.
func (c *Controller) Header() []string {
	return append([]string(nil), c.header...)
}

// Body returns a copy of the current body in display order.
func (c *Controller) Body() Body {
	return c.body.Clone()
}

// Len returns the number of rows in the body.
func (c *Controller) Len() int {
	return len(c.body)
}

// Row returns the row at display position i.
func (c *Controller) Row(i int) (Row, bool) {
	if i < 0 || i >= len(c.body) {
		return nil, false
	}
	return append(Row(nil), c.body[i]...), true
}

// LastSort returns the last configured sort, if any.
func (c *Controller) LastSort() (SortSpec, bool) {
	return c.lastSort, c.sorted
}

// Ascending reports the remembered direction of a column.
func (c *Controller) Ascending(column int) bool {
	if column < 0 || column >= len(c.ascending) {
		return false
	}
	return c.ascending[column]
}

// State reports whether a reload is running.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) validate(body Body) error {
	for i, r := range body {
		if len(r) != len(c.header) {
			return fmt.Errorf("row %d has %d values, header has %d: %w", i, len(r), len(c.header), ErrRowWidth)
		}
	}
	return nil
}

func (c *Controller) render() {
	for i, r := range c.body {
		c.view.CreateRow(i, r)
	}
}
