package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *PreferencesStore {
	t.Helper()
	s := NewPreferencesStore(test.NewTempApp(t).Preferences())
	s.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestMedicationLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	added, err := s.AddMedication(ctx, "alice", models.Medication{Name: "Aspirin", TotalDoses: 2, IsActive: true})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.False(t, added.CreatedAt.IsZero())

	got, err := s.Medication(ctx, "alice", added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", got.Name)

	_, err = s.Medication(ctx, "bob", added.ID)
	assert.ErrorIs(t, err, models.ErrNotFound, "records are per user")

	takenAt := time.Date(2025, 3, 2, 9, 1, 0, 0, time.UTC)
	require.NoError(t, s.UpdateMedication(ctx, "alice", added.ID, models.MedicationPatch{LastTaken: &takenAt, TotalDosesDelta: 1}))
	got, err = s.Medication(ctx, "alice", added.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalDoses)
	require.NotNil(t, got.LastTaken)
	assert.True(t, takenAt.Equal(*got.LastTaken))

	assert.ErrorIs(t, s.UpdateMedication(ctx, "alice", "missing", models.MedicationPatch{MissedDelta: 1}), models.ErrNotFound)

	require.NoError(t, s.DeleteMedication(ctx, "alice", added.ID))
	meds, err := s.Medications(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, meds)
}

func TestAddMedicationRejectsDuplicateID(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddMedication(context.Background(), "alice", models.Medication{ID: "m1"})
	require.NoError(t, err)
	_, err = s.AddMedication(context.Background(), "alice", models.Medication{ID: "m1"})
	assert.Error(t, err)
}

func TestAppendHistoryEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < models.MaxHistoryEntries+3; i++ {
		require.NoError(t, s.AppendHistory(ctx, "alice", models.HistoryEntry{ID: fmt.Sprint(i), Action: models.HistoryActionTaken}))
	}

	history, err := s.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, models.MaxHistoryEntries)
	assert.Equal(t, "3", history[0].ID)
}

func TestSettingsDefaultsAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	got, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)

	require.NoError(t, s.UpdateSettings(ctx, models.Settings{AlarmDuration: 45, SnoozeInterval: 10, MaxSnoozes: 0}))
	got, err = s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 45, got.AlarmDuration)
	assert.Equal(t, 10, got.SnoozeInterval)
	assert.Equal(t, models.DefaultMaxSnoozes, got.MaxSnoozes)
}

func TestCorruptRecordsSurfaceError(t *testing.T) {
	s := newTestStore(t)
	s.prefs.SetString(userKeyPrefix+"alice", "{not json")

	_, err := s.Medications(context.Background(), "alice")
	assert.Error(t, err)
	assert.Error(t, s.AppendHistory(context.Background(), "alice", models.HistoryEntry{}))
}

func TestReplaceUserData(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.AddMedication(ctx, "alice", models.Medication{ID: "old"})
	require.NoError(t, err)

	require.NoError(t, s.ReplaceUserData(ctx, models.UserData{
		Username:     "alice",
		Medications:  []models.Medication{{ID: "new", Name: "Metformin"}},
		Appointments: []models.Appointment{{ID: "appt", DoctorName: "Dr. Lee"}},
	}))

	data, err := s.UserData(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, data.Medications, 1)
	assert.Equal(t, "new", data.Medications[0].ID)

	appts, err := s.Appointments(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, appts, 1)

	assert.Error(t, s.ReplaceUserData(ctx, models.UserData{}))
}

func TestConfigStoreDefaultsAndSave(t *testing.T) {
	cs := NewConfigStore(test.NewTempApp(t).Preferences())

	cfg := cs.Load()
	assert.False(t, cfg.AutoStart)
	assert.Equal(t, 30, cfg.UpdateInterval)
	assert.Equal(t, 2, cfg.HoldTimeSeconds)
	assert.Empty(t, cfg.ICalSources)
	assert.False(t, cfg.HasCalendars())

	cfg.AutoStart = true
	cfg.ICalSources = []models.ICalSource{{ID: "1", Name: "Clinic", URL: "https://clinic.example/cal.ics"}}
	cs.Save(cfg)

	reloaded := cs.Load()
	assert.True(t, reloaded.AutoStart)
	assert.Equal(t, cfg.ICalSources, reloaded.ICalSources)
}
