package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"github.com/borgmon/dose-alarm/pkg/bootstrap"
	"github.com/borgmon/dose-alarm/pkg/store"
	"github.com/borgmon/dose-alarm/pkg/store/sqlite"
)

// openRecords opens the configured record backend. prefs is only used by
// the preferences backend.
func openRecords(cfg *bootstrap.Config, prefs func() fyne.Preferences) (store.RecordStore, error) {
	switch cfg.StorageBackend {
	case store.BackendSQLite:
		s, err := sqlite.Open(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("open records: %w", err)
		}
		return s, nil
	case store.BackendPreferences:
		return store.NewPreferencesStore(prefs()), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// storageLocation describes where records live, for display
func storageLocation(cfg *bootstrap.Config) string {
	if cfg.StorageBackend == store.BackendPreferences {
		return "Application preferences"
	}
	return cfg.StoragePath
}
