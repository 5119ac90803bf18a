// Package store persists per-user medication records, dose history,
// appointments and alarm settings.
package store

import (
	"context"

	"github.com/borgmon/dose-alarm/pkg/models"
)

const (
	BackendSQLite      = "sqlite"
	BackendPreferences = "preferences"
)

// RecordStore is implemented by every storage backend
type RecordStore interface {
	Medications(ctx context.Context, user string) ([]models.Medication, error)
	Medication(ctx context.Context, user, id string) (models.Medication, error)
	AddMedication(ctx context.Context, user string, m models.Medication) (models.Medication, error)
	UpdateMedication(ctx context.Context, user, id string, patch models.MedicationPatch) error
	DeleteMedication(ctx context.Context, user, id string) error

	History(ctx context.Context, user string) ([]models.HistoryEntry, error)
	AppendHistory(ctx context.Context, user string, entry models.HistoryEntry) error

	Appointments(ctx context.Context, user string) ([]models.Appointment, error)
	AddAppointment(ctx context.Context, user string, a models.Appointment) (models.Appointment, error)

	UserData(ctx context.Context, user string) (models.UserData, error)
	// ReplaceUserData overwrites everything stored for data.Username.
	ReplaceUserData(ctx context.Context, data models.UserData) error

	Settings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, s models.Settings) error

	Close() error
}
