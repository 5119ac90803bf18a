package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/borgmon/dose-alarm/pkg/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const timeLayout = time.RFC3339Nano

const medicationColumns = `id, name, dosage_amount, dosage_unit, frequency, times, weekly_day,
	max_daily_doses, min_interval, start_date, end_date, instructions, image, is_active,
	missed_doses, total_doses, last_taken, created_at`

const historyColumns = `id, recorded_at, medication_id, medication_name, action,
	scheduled_time, actual_time, dosage, notes`

const appointmentColumns = `id, doctor_name, type, at, location, notes, status, source_id`

// Store is a RecordStore on an SQLite database
type Store struct {
	db  *sql.DB
	now func() time.Time
	log *zap.Logger
}

var _ store.RecordStore = (*Store)(nil)

// Open initialises the database at path
func Open(path string) (*Store, error) {
	db, err := InitDB(path)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{
		db:  db,
		now: time.Now,
		log: logger.GetLoggerWith(logger.NameStore, zap.String("backend", store.BackendSQLite)),
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

func scanMedication(row scanner) (models.Medication, error) {
	var (
		m         models.Medication
		times     string
		lastTaken sql.NullString
		createdAt string
	)
	err := row.Scan(&m.ID, &m.Name, &m.DosageAmount, &m.DosageUnit, &m.Frequency, &times, &m.WeeklyDay,
		&m.MaxDailyDoses, &m.MinInterval, &m.StartDate, &m.EndDate, &m.Instructions, &m.Image, &m.IsActive,
		&m.MissedDoses, &m.TotalDoses, &lastTaken, &createdAt)
	if err != nil {
		return m, err
	}

	if err := json.Unmarshal([]byte(times), &m.Times); err != nil {
		return m, fmt.Errorf("decode dose times of %s: %w", m.ID, err)
	}
	if lastTaken.Valid && lastTaken.String != "" {
		t, err := parseTime(lastTaken.String)
		if err != nil {
			return m, fmt.Errorf("decode last taken of %s: %w", m.ID, err)
		}
		m.LastTaken = &t
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return m, fmt.Errorf("decode created at of %s: %w", m.ID, err)
	}
	return m, nil
}

func (s *Store) Medications(ctx context.Context, user string) ([]models.Medication, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE username = ? ORDER BY created_at ASC, id ASC`, user)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	meds := []models.Medication{}
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

func (s *Store) Medication(ctx context.Context, user, id string) (models.Medication, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE username = ? AND id = ?`, user, id)
	m, err := scanMedication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Medication{}, models.ErrNotFound
	}
	return m, err
}

func (s *Store) AddMedication(ctx context.Context, user string, m models.Medication) (models.Medication, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	if err := insertMedication(ctx, s.db, user, m); err != nil {
		return m, err
	}
	return m, nil
}

func insertMedication(ctx context.Context, db execer, user string, m models.Medication) error {
	times, err := json.Marshal(nonNil(m.Times))
	if err != nil {
		return fmt.Errorf("encode dose times: %w", err)
	}
	var lastTaken *string
	if m.LastTaken != nil {
		v := formatTime(*m.LastTaken)
		lastTaken = &v
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO medications (username, `+medicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user, m.ID, m.Name, m.DosageAmount, m.DosageUnit, m.Frequency, string(times), m.WeeklyDay,
		m.MaxDailyDoses, m.MinInterval, m.StartDate, m.EndDate, m.Instructions, m.Image, m.IsActive,
		m.MissedDoses, m.TotalDoses, lastTaken, formatTime(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert medication %s: %w", m.ID, err)
	}
	return nil
}

func nonNil(times []string) []string {
	if times == nil {
		return []string{}
	}
	return times
}

func (s *Store) UpdateMedication(ctx context.Context, user, id string, patch models.MedicationPatch) error {
	var (
		sets []string
		args []any
	)
	if patch.LastTaken != nil {
		sets = append(sets, "last_taken = ?")
		args = append(args, formatTime(*patch.LastTaken))
	}
	if patch.TotalDosesDelta != 0 {
		sets = append(sets, "total_doses = total_doses + ?")
		args = append(args, patch.TotalDosesDelta)
	}
	if patch.MissedDelta != 0 {
		sets = append(sets, "missed_doses = missed_doses + ?")
		args = append(args, patch.MissedDelta)
	}
	if patch.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *patch.IsActive)
	}
	if patch.Instructions != nil {
		sets = append(sets, "instructions = ?")
		args = append(args, *patch.Instructions)
	}
	if len(sets) == 0 {
		return nil
	}

	q := "UPDATE medications SET " + strings.Join(sets, ", ") + " WHERE username = ? AND id = ?"
	args = append(args, user, id)

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update medication %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update medication %s: %w", id, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMedication(ctx context.Context, user, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM medications WHERE username = ? AND id = ?`, user, id)
	if err != nil {
		return fmt.Errorf("delete medication %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) History(ctx context.Context, user string) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM medication_history WHERE username = ? ORDER BY seq ASC`, user)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	history := []models.HistoryEntry{}
	for rows.Next() {
		var (
			h                           models.HistoryEntry
			recorded, scheduled, actual string
		)
		if err := rows.Scan(&h.ID, &recorded, &h.MedicationID, &h.MedicationName, &h.Action,
			&scheduled, &actual, &h.Dosage, &h.Notes); err != nil {
			return nil, err
		}
		if h.Timestamp, err = parseTime(recorded); err != nil {
			return nil, err
		}
		if h.ScheduledTime, err = parseTime(scheduled); err != nil {
			return nil, err
		}
		if h.ActualTime, err = parseTime(actual); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// AppendHistory inserts the entry and trims the user's history to the
// newest MaxHistoryEntries rows in the same transaction.
func (s *Store) AppendHistory(ctx context.Context, user string, entry models.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := insertHistory(ctx, tx, user, entry); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM medication_history
		WHERE username = ? AND seq NOT IN (
			SELECT seq FROM medication_history WHERE username = ? ORDER BY seq DESC LIMIT ?
		)
	`, user, user, models.MaxHistoryEntries); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history transaction: %w", err)
	}
	return nil
}

func insertHistory(ctx context.Context, db execer, user string, h models.HistoryEntry) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO medication_history (username, `+historyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user, h.ID, formatTime(h.Timestamp), h.MedicationID, h.MedicationName, string(h.Action),
		formatTime(h.ScheduledTime), formatTime(h.ActualTime), h.Dosage, h.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (s *Store) Appointments(ctx context.Context, user string) ([]models.Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE username = ? ORDER BY at ASC`, user)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	appts := []models.Appointment{}
	for rows.Next() {
		var (
			a  models.Appointment
			at string
		)
		if err := rows.Scan(&a.ID, &a.DoctorName, &a.Type, &at, &a.Location, &a.Notes, &a.Status, &a.SourceID); err != nil {
			return nil, err
		}
		if a.At, err = parseTime(at); err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func (s *Store) AddAppointment(ctx context.Context, user string, a models.Appointment) (models.Appointment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return a, insertAppointment(ctx, s.db, user, a)
}

func insertAppointment(ctx context.Context, db execer, user string, a models.Appointment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO appointments (username, `+appointmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user, a.ID, a.DoctorName, a.Type, formatTime(a.At), a.Location, a.Notes, a.Status, a.SourceID)
	if err != nil {
		return fmt.Errorf("insert appointment %s: %w", a.ID, err)
	}
	return nil
}

func (s *Store) UserData(ctx context.Context, user string) (models.UserData, error) {
	data := models.UserData{Username: user}
	var err error
	if data.Medications, err = s.Medications(ctx, user); err != nil {
		return data, err
	}
	if data.Appointments, err = s.Appointments(ctx, user); err != nil {
		return data, err
	}
	if data.MedicationHistory, err = s.History(ctx, user); err != nil {
		return data, err
	}
	return data, nil
}

func (s *Store) ReplaceUserData(ctx context.Context, data models.UserData) error {
	if data.Username == "" {
		return errors.New("replace records: username is required")
	}
	user := data.Username

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{"medications", "medication_history", "appointments"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE username = ?`, user); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for _, m := range data.Medications {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = s.now()
		}
		if err := insertMedication(ctx, tx, user, m); err != nil {
			return err
		}
	}
	history := data.MedicationHistory
	if over := len(history) - models.MaxHistoryEntries; over > 0 {
		history = history[over:]
	}
	for _, h := range history {
		if err := insertHistory(ctx, tx, user, h); err != nil {
			return err
		}
	}
	for _, a := range data.Appointments {
		if err := insertAppointment(ctx, tx, user, a); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import transaction: %w", err)
	}
	s.log.Info("Replaced user records",
		zap.String("user", user),
		zap.Int("medications", len(data.Medications)),
		zap.Int("history", len(history)),
		zap.Int("appointments", len(data.Appointments)))
	return nil
}

func (s *Store) Settings(ctx context.Context) (models.Settings, error) {
	var st models.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT alarm_duration, snooze_interval, max_snoozes, notifications_enabled
		FROM settings WHERE id = 1
	`).Scan(&st.AlarmDuration, &st.SnoozeInterval, &st.MaxSnoozes, &st.NotificationsEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.DefaultSettings(), fmt.Errorf("load settings: %w", err)
	}
	return st.Normalize(), nil
}

func (s *Store) UpdateSettings(ctx context.Context, st models.Settings) error {
	st = st.Normalize()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, alarm_duration, snooze_interval, max_snoozes, notifications_enabled)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			alarm_duration = excluded.alarm_duration,
			snooze_interval = excluded.snooze_interval,
			max_snoozes = excluded.max_snoozes,
			notifications_enabled = excluded.notifications_enabled
	`, st.AlarmDuration, st.SnoozeInterval, st.MaxSnoozes, st.NotificationsEnabled)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
