package db

import (
	"context"
	"database/sql"
	"fmt"
)

// VisibilityStore persists which columns of each dialog are shown.
type VisibilityStore struct {
	DB *sql.DB
}

// Lookup returns the visible flag per column for dialogID, or nil when
// nothing is stored. Missing indexes below the highest stored one read as
// visible.
func (s VisibilityStore) Lookup(ctx context.Context, dialogID string) ([]bool, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT column_index, visible
		FROM column_visibility
		WHERE dialog_id = ?
		ORDER BY column_index
	`, dialogID)
	if err != nil {
		return nil, fmt.Errorf("failed to query column visibility: %w", err)
	}
	defer rows.Close()

	var visible []bool
	for rows.Next() {
		var idx int
		var v bool
		if err := rows.Scan(&idx, &v); err != nil {
			return nil, fmt.Errorf("failed to scan column visibility: %w", err)
		}
		for len(visible) <= idx {
			visible = append(visible, true)
		}
		visible[idx] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column visibility: %w", err)
	}
	return visible, nil
}

// Save replaces the stored flags for dialogID.
func (s VisibilityStore) Save(ctx context.Context, dialogID string, visible []bool) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM column_visibility WHERE dialog_id = ?`, dialogID); err != nil {
		return fmt.Errorf("failed to clear column visibility: %w", err)
	}
	for i, v := range visible {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO column_visibility (dialog_id, column_index, visible)
			VALUES (?, ?, ?)
		`, dialogID, i, v); err != nil {
			return fmt.Errorf("failed to save column visibility: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit column visibility: %w", err)
	}
	return nil
}

// Reset forgets the stored flags for dialogID so every column shows again.
func (s VisibilityStore) Reset(ctx context.Context, dialogID string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM column_visibility WHERE dialog_id = ?`, dialogID); err != nil {
		return fmt.Errorf("failed to reset column visibility: %w", err)
	}
	return nil
}
