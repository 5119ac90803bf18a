package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	userKeyPrefix = "user_data:"
	settingsKey   = "app_settings"
)

// PreferencesStore keeps each user's records as one JSON document in fyne
// preferences. Every write is a read-modify-write of that document.
type PreferencesStore struct {
	prefs fyne.Preferences
	now   func() time.Time
	log   *zap.Logger
	mu    sync.Mutex
}

var _ RecordStore = (*PreferencesStore)(nil)

func NewPreferencesStore(prefs fyne.Preferences) *PreferencesStore {
	return &PreferencesStore{
		prefs: prefs,
		now:   time.Now,
		log:   logger.GetLoggerWith(logger.NameStore, zap.String("backend", BackendPreferences)),
	}
}

func (s *PreferencesStore) load(user string) (models.UserData, error) {
	data := models.UserData{Username: user}
	raw := s.prefs.String(userKeyPrefix + user)
	if raw == "" {
		return data, nil
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return data, fmt.Errorf("decode records for %q: %w", user, err)
	}
	data.Username = user
	return data, nil
}

func (s *PreferencesStore) save(data models.UserData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode records for %q: %w", data.Username, err)
	}
	s.prefs.SetString(userKeyPrefix+data.Username, string(raw))
	return nil
}

func (s *PreferencesStore) update(user string, fn func(*models.UserData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(user)
	if err != nil {
		return err
	}
	if err := fn(&data); err != nil {
		return err
	}
	return s.save(data)
}

func (s *PreferencesStore) Medications(_ context.Context, user string) ([]models.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load(user)
	if err != nil {
		return nil, err
	}
	return data.Medications, nil
}

func (s *PreferencesStore) Medication(ctx context.Context, user, id string) (models.Medication, error) {
	meds, err := s.Medications(ctx, user)
	if err != nil {
		return models.Medication{}, err
	}
	for _, m := range meds {
		if m.ID == id {
			return m, nil
		}
	}
	return models.Medication{}, models.ErrNotFound
}

func (s *PreferencesStore) AddMedication(_ context.Context, user string, m models.Medication) (models.Medication, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	err := s.update(user, func(data *models.UserData) error {
		for _, existing := range data.Medications {
			if existing.ID == m.ID {
				return fmt.Errorf("medication %s already exists", m.ID)
			}
		}
		data.Medications = append(data.Medications, m)
		return nil
	})
	return m, err
}

func (s *PreferencesStore) UpdateMedication(_ context.Context, user, id string, patch models.MedicationPatch) error {
	return s.update(user, func(data *models.UserData) error {
		for i := range data.Medications {
			if data.Medications[i].ID == id {
				patch.Apply(&data.Medications[i])
				return nil
			}
		}
		return models.ErrNotFound
	})
}

func (s *PreferencesStore) DeleteMedication(_ context.Context, user, id string) error {
	return s.update(user, func(data *models.UserData) error {
		for i := range data.Medications {
			if data.Medications[i].ID == id {
				data.Medications = append(data.Medications[:i], data.Medications[i+1:]...)
				return nil
			}
		}
		return models.ErrNotFound
	})
}

func (s *PreferencesStore) History(_ context.Context, user string) ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load(user)
	if err != nil {
		return nil, err
	}
	return data.MedicationHistory, nil
}

func (s *PreferencesStore) AppendHistory(_ context.Context, user string, entry models.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return s.update(user, func(data *models.UserData) error {
		data.MedicationHistory = models.AppendHistory(data.MedicationHistory, entry)
		return nil
	})
}

func (s *PreferencesStore) Appointments(_ context.Context, user string) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load(user)
	if err != nil {
		return nil, err
	}
	return data.Appointments, nil
}

func (s *PreferencesStore) AddAppointment(_ context.Context, user string, a models.Appointment) (models.Appointment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	err := s.update(user, func(data *models.UserData) error {
		data.Appointments = append(data.Appointments, a)
		return nil
	})
	return a, err
}

func (s *PreferencesStore) UserData(_ context.Context, user string) (models.UserData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(user)
}

func (s *PreferencesStore) ReplaceUserData(_ context.Context, data models.UserData) error {
	if data.Username == "" {
		return fmt.Errorf("replace records: username is required")
	}
	if over := len(data.MedicationHistory) - models.MaxHistoryEntries; over > 0 {
		data.MedicationHistory = data.MedicationHistory[over:]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(data); err != nil {
		return err
	}
	s.log.Info("Replaced user records",
		zap.String("user", data.Username),
		zap.Int("medications", len(data.Medications)),
		zap.Int("history", len(data.MedicationHistory)))
	return nil
}

func (s *PreferencesStore) Settings(context.Context) (models.Settings, error) {
	raw := s.prefs.String(settingsKey)
	if raw == "" {
		return models.DefaultSettings(), nil
	}
	settings := models.DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return models.DefaultSettings(), fmt.Errorf("decode settings: %w", err)
	}
	return settings.Normalize(), nil
}

func (s *PreferencesStore) UpdateSettings(_ context.Context, settings models.Settings) error {
	raw, err := json.Marshal(settings.Normalize())
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	s.prefs.SetString(settingsKey, string(raw))
	return nil
}

func (s *PreferencesStore) Close() error {
	return nil
}
