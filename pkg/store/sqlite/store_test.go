package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetTestLoggerNop()
	m.Run()
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "dose-alarm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestMedicationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	in := models.Medication{
		Name:         "Aspirin",
		DosageAmount: 81,
		DosageUnit:   "mg",
		Frequency:    "2",
		Times:        []string{"08:00", "20:00"},
		StartDate:    "2025-03-01",
		EndDate:      "2025-12-31",
		Instructions: "With food",
		IsActive:     true,
	}
	added, err := s.AddMedication(ctx, "alice", in)
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)

	got, err := s.Medication(ctx, "alice", added.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Times, got.Times)
	assert.Equal(t, 81.0, got.DosageAmount)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.LastTaken)
	assert.True(t, got.CreatedAt.Equal(s.now()))

	_, err = s.Medication(ctx, "bob", added.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	meds, err := s.Medications(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, meds, 1)
}

func TestUpdateMedicationAppliesPatch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	added, err := s.AddMedication(ctx, "alice", models.Medication{Name: "Metformin", Times: []string{"09:00"}, TotalDoses: 4, IsActive: true})
	require.NoError(t, err)

	takenAt := time.Date(2025, 3, 2, 9, 0, 30, 0, time.UTC)
	require.NoError(t, s.UpdateMedication(ctx, "alice", added.ID, models.MedicationPatch{LastTaken: &takenAt, TotalDosesDelta: 1}))
	require.NoError(t, s.UpdateMedication(ctx, "alice", added.ID, models.MedicationPatch{MissedDelta: 2}))

	got, err := s.Medication(ctx, "alice", added.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TotalDoses)
	assert.Equal(t, 2, got.MissedDoses)
	require.NotNil(t, got.LastTaken)
	assert.True(t, takenAt.Equal(*got.LastTaken))

	paused, note := false, "Take after breakfast"
	require.NoError(t, s.UpdateMedication(ctx, "alice", added.ID, models.MedicationPatch{IsActive: &paused, Instructions: &note}))
	got, err = s.Medication(ctx, "alice", added.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, note, got.Instructions)
	assert.Equal(t, 5, got.TotalDoses)

	assert.NoError(t, s.UpdateMedication(ctx, "alice", added.ID, models.MedicationPatch{}), "empty patch is a no-op")
	assert.ErrorIs(t, s.UpdateMedication(ctx, "alice", "missing", models.MedicationPatch{MissedDelta: 1}), models.ErrNotFound)
}

func TestDeleteMedication(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	added, err := s.AddMedication(ctx, "alice", models.Medication{Name: "Vitamin D"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteMedication(ctx, "alice", added.ID))
	assert.ErrorIs(t, s.DeleteMedication(ctx, "alice", added.ID), models.ErrNotFound)
}

func TestAppendHistoryKeepsNewest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 0; i < models.MaxHistoryEntries+2; i++ {
		require.NoError(t, s.AppendHistory(ctx, "alice", models.HistoryEntry{
			ID:     fmt.Sprint(i),
			Action: models.HistoryActionTaken,
		}))
	}
	require.NoError(t, s.AppendHistory(ctx, "bob", models.HistoryEntry{ID: "b0", Action: models.HistoryActionMissed}))

	history, err := s.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, models.MaxHistoryEntries)
	assert.Equal(t, "2", history[0].ID)
	assert.Equal(t, fmt.Sprint(models.MaxHistoryEntries+1), history[len(history)-1].ID)

	other, err := s.History(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, models.HistoryActionMissed, other[0].Action)
}

func TestReplaceUserData(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.AddMedication(ctx, "alice", models.Medication{ID: "old", Name: "Old"})
	require.NoError(t, err)

	at := time.Date(2025, 4, 1, 14, 0, 0, 0, time.UTC)
	require.NoError(t, s.ReplaceUserData(ctx, models.UserData{
		Username:     "alice",
		Medications:  []models.Medication{{ID: "new", Name: "New", Times: []string{"07:00"}}},
		Appointments: []models.Appointment{{ID: "a1", DoctorName: "Dr. Lee", Type: "checkup", At: at}},
		MedicationHistory: []models.HistoryEntry{
			{ID: "h1", MedicationID: "new", Action: models.HistoryActionTaken, Timestamp: at},
		},
	}))

	data, err := s.UserData(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, data.Medications, 1)
	assert.Equal(t, "new", data.Medications[0].ID)
	require.Len(t, data.Appointments, 1)
	assert.True(t, at.Equal(data.Appointments[0].At))
	require.Len(t, data.MedicationHistory, 1)

	assert.Error(t, s.ReplaceUserData(ctx, models.UserData{}))
}

func TestSettingsDefaultAndUpsert(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	got, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)

	want := models.Settings{AlarmDuration: 45, SnoozeInterval: 10, MaxSnoozes: 2, NotificationsEnabled: false}
	require.NoError(t, s.UpdateSettings(ctx, want))
	require.NoError(t, s.UpdateSettings(ctx, want))

	got, err = s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUpdateMedication_QueryShape(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New(db)
	takenAt := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE medications SET last_taken = ?, total_doses = total_doses + ? WHERE username = ? AND id = ?")).
		WithArgs(formatTime(takenAt), 1, "alice", "m1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpdateMedication(context.Background(), "alice", "m1",
		models.MedicationPatch{LastTaken: &takenAt, TotalDosesDelta: 1}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendHistory_RollsBackOnTrimError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO medication_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM medication_history")).
		WithArgs("alice", "alice", models.MaxHistoryEntries).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = s.AppendHistory(context.Background(), "alice", models.HistoryEntry{ID: "h1", Action: models.HistoryActionTaken})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trim history")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettings_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM settings WHERE id = 1")).
		WillReturnError(sql.ErrConnDone)

	got, err := New(db).Settings(context.Background())
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Equal(t, models.DefaultSettings(), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
