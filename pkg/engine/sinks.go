package engine

import (
	"context"

	"github.com/borgmon/dose-alarm/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/borgmon/dose-alarm/pkg/engine Store

// Store is the slice of record persistence the engine reads and writes.
type Store interface {
	Medication(ctx context.Context, user, id string) (models.Medication, error)
	UpdateMedication(ctx context.Context, user, id string, patch models.MedicationPatch) error
	AppendHistory(ctx context.Context, user string, entry models.HistoryEntry) error
	Settings(ctx context.Context) (models.Settings, error)
}

// The sinks below are called while the engine holds its lock. They must
// return promptly and must not call back into the engine on the same goroutine.

// Modal presents the blocking alarm dialog.
type Modal interface {
	Show(snapshot models.AlarmSnapshot)
	Hide()
}

// Notifier delivers and retracts system notifications.
type Notifier interface {
	Notify(snapshot models.AlarmSnapshot) (models.NotificationHandle, error)
	Cancel(handle models.NotificationHandle)
}

// Sounder plays the looping alarm tone. StartLoop on a running loop is a no-op.
type Sounder interface {
	StartLoop() error
	StopLoop()
}

// Feedback shows short user-facing messages.
type Feedback interface {
	Notify(level models.FeedbackLevel, message string)
}

type nopModal struct{}

func (nopModal) Show(models.AlarmSnapshot) {}
func (nopModal) Hide()                     {}

type nopNotifier struct{}

func (nopNotifier) Notify(models.AlarmSnapshot) (models.NotificationHandle, error) { return "", nil }
func (nopNotifier) Cancel(models.NotificationHandle)                               {}

type nopSounder struct{}

func (nopSounder) StartLoop() error { return nil }
func (nopSounder) StopLoop()        {}

type nopFeedback struct{}

func (nopFeedback) Notify(models.FeedbackLevel, string) {}
