package model

import (
	"time"

	"tabula/internal/table"
)

// Bubble Tea message types

// ErrorMsg represents an error message.
type ErrorMsg struct {
	Err error
}

// BodyFetchedMsg is sent when a dialog's body source returns.
type BodyFetchedMsg struct {
	DialogID string
	Body     table.Body
	Err      error
	At       time.Time
}

// RefreshTickMsg is sent by a dialog's auto-refresh timer.
type RefreshTickMsg struct {
	DialogID string
}

// FileChangedMsg is sent when a watched CSV file changes.
type FileChangedMsg struct {
	DialogID string
	Err      error
}

// ExportedMsg is sent when a CSV export finishes.
type ExportedMsg struct {
	DialogID string
	Path     string
	Rows     int
	Err      error
}

// CopiedMsg is sent when a clipboard copy finishes.
type CopiedMsg struct {
	What string
	Err  error
}

// VisibilitySavedMsg is sent after column visibility has been written.
type VisibilitySavedMsg struct {
	DialogID string
	Err      error
}

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNav Mode = iota
	ModeColumns
	ModeExport
)
