package table

import (
	"context"
	"errors"
)

var (
	// ErrRowWidth is returned when a body source yields a row whose length
	// differs from the header length.
	ErrRowWidth = errors.New("row width does not match header")
	// ErrReloading is returned when a reload is requested while one is running.
	ErrReloading = errors.New("reload already in progress")
	// ErrColumnRange is returned for a header index outside the table.
	ErrColumnRange = errors.New("column index out of range")
	// ErrNoHeader is returned when a dialog declares no columns.
	ErrNoHeader = errors.New("dialog has no header")
)

// Row is one line of table data, aligned to the dialog header.
type Row []string

// Body is the ordered set of rows shown by a dialog.
type Body []Row

// Clone returns a copy of the body that shares no row slices with b.
func (b Body) Clone() Body {
	if b == nil {
		return nil
	}
	out := make(Body, len(b))
	for i, r := range b {
		out[i] = append(Row(nil), r...)
	}
	return out
}

// SortSpec is the column and direction applied to a body.
type SortSpec struct {
	Column    int
	Ascending bool
}

// TableDialogModel describes a dialog: its identity, geometry, header and
// the hook that supplies its body.
type TableDialogModel interface {
	ID() string
	Title() string
	Size() (width, height int)
	Header() []string
	// UpdateBody returns the current rows. It is called on open and on
	// every reload.
	UpdateBody(ctx context.Context) (Body, error)
}

// View is the rendering side of a dialog.
type View interface {
	// SetRedraw suspends (false) or resumes (true) drawing.
	SetRedraw(on bool)
	// RemoveAll clears every displayed row.
	RemoveAll()
	// CreateRow materializes row at position index.
	CreateRow(index int, row Row)
	// SortMarker reports the column currently marked as sorted.
	SortMarker() (SortSpec, bool)
	// SetSortMarker marks spec as the sorted column, or clears the marker
	// when ok is false.
	SetSortMarker(spec SortSpec, ok bool)
}

// VisibilityStore looks up persisted column visibility for a dialog.
// A nil slice means every column is visible.
type VisibilityStore interface {
	Lookup(ctx context.Context, dialogID string) ([]bool, error)
}

// State is the reload state of a controller.
type State int

const (
	StateIdle State = iota
	StateReloading
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReloading:
		return "reloading"
	default:
		return "unknown"
	}
}
