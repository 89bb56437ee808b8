package ui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TablePrefs stores per-dialog UI preferences. Column visibility lives in
// the database, not here.
type TablePrefs struct {
	ActiveColumn string `json:"active_column"`
}

// UIPreferences stores persisted app preferences.
type UIPreferences struct {
	LastDialog string                `json:"last_dialog"`
	Dialogs    map[string]TablePrefs `json:"dialogs"`
}

func defaultUIPreferences() UIPreferences {
	return UIPreferences{Dialogs: map[string]TablePrefs{}}
}

func loadUIPreferences(path string) UIPreferences {
	if path == "" {
		return defaultUIPreferences()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return defaultUIPreferences()
	}

	var prefs UIPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return defaultUIPreferences()
	}
	if prefs.Dialogs == nil {
		prefs.Dialogs = map[string]TablePrefs{}
	}
	return prefs
}

func saveUIPreferences(path string, prefs UIPreferences) error {
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create prefs dir: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	return nil
}
