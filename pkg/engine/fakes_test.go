package engine

import (
	"context"
	"sync"

	"github.com/borgmon/dose-alarm/pkg/models"
)

type memStore struct {
	mu       sync.Mutex
	meds     map[string]models.Medication
	history  []models.HistoryEntry
	settings models.Settings
}

func newMemStore(meds ...models.Medication) *memStore {
	s := &memStore{meds: make(map[string]models.Medication), settings: models.DefaultSettings()}
	for _, m := range meds {
		s.meds[m.ID] = m
	}
	return s
}

func (s *memStore) Medication(_ context.Context, _ string, id string) (models.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meds[id]
	if !ok {
		return models.Medication{}, models.ErrNotFound
	}
	return m, nil
}

func (s *memStore) UpdateMedication(_ context.Context, _ string, id string, patch models.MedicationPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meds[id]
	if !ok {
		return models.ErrNotFound
	}
	patch.Apply(&m)
	s.meds[id] = m
	return nil
}

func (s *memStore) AppendHistory(_ context.Context, _ string, entry models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = models.AppendHistory(s.history, entry)
	return nil
}

func (s *memStore) Settings(context.Context) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

type recordingModal struct {
	mu    sync.Mutex
	shown []models.AlarmSnapshot
	hides int
	open  bool
}

func (m *recordingModal) Show(s models.AlarmSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown = append(m.shown, s)
	m.open = true
}

func (m *recordingModal) Hide() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hides++
	m.open = false
}

func (m *recordingModal) last() models.AlarmSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shown[len(m.shown)-1]
}

type recordingNotifier struct {
	mu        sync.Mutex
	notified  []string
	cancelled []models.NotificationHandle
	err       error
}

func (n *recordingNotifier) Notify(s models.AlarmSnapshot) (models.NotificationHandle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return "", n.err
	}
	n.notified = append(n.notified, s.AlarmID)
	return models.NotificationHandle(s.AlarmID), nil
}

func (n *recordingNotifier) Cancel(h models.NotificationHandle) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, h)
}

type recordingSounder struct {
	mu      sync.Mutex
	playing bool
	starts  int
	err     error
}

func (s *recordingSounder) StartLoop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if !s.playing {
		s.starts++
	}
	s.playing = true
	return nil
}

func (s *recordingSounder) StopLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

type feedbackMsg struct {
	level   models.FeedbackLevel
	message string
}

type recordingFeedback struct {
	mu   sync.Mutex
	msgs []feedbackMsg
}

func (f *recordingFeedback) Notify(level models.FeedbackLevel, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, feedbackMsg{level, message})
}

func (f *recordingFeedback) messages(level models.FeedbackLevel) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.msgs {
		if m.level == level {
			out = append(out, m.message)
		}
	}
	return out
}
