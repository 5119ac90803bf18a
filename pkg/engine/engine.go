// Package engine owns the lifecycle of medication alarms: activation,
// auto-snooze, re-show, escalation and resolution. Exactly one alarm
// holds the current slot; later due alarms wait in arrival order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/borgmon/dose-alarm/pkg/clock"
	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultResolvedRetention is how long a resolved alarm id keeps
// swallowing replayed due signals.
const DefaultResolvedRetention = 24 * time.Hour

// MaxSnoozesMessage is shown when an alarm can no longer be snoozed
const MaxSnoozesMessage = "Maximum snoozes reached! Please take your medication or mark as missed."

// Status is a point-in-time view of the engine
type Status struct {
	State   models.AlarmState
	Current *models.AlarmSnapshot
	Queued  int
	Active  int
}

type Options struct {
	User     string
	Store    Store
	Clock    clock.Clock
	Modal    Modal
	Notifier Notifier
	Sounder  Sounder
	Feedback Feedback
	Logger   *zap.Logger

	// OnChange is called after every state transition, outside the engine lock.
	OnChange func(Status)

	ResolvedRetention time.Duration
	NewID             func() string
}

type Engine struct {
	mu sync.Mutex

	user     string
	store    Store
	clock    clock.Clock
	modal    Modal
	notifier Notifier
	sounder  Sounder
	feedback Feedback
	log      *zap.Logger
	onChange func(Status)
	newID    func() string

	settings  models.Settings
	retention time.Duration

	active   map[string]*models.Alarm
	queue    []*models.Alarm
	resolved map[string]time.Time // alarm id -> scheduled time
	current  *models.Alarm

	// gen invalidates timer callbacks armed for an earlier activation.
	gen          uint64
	deadline     clock.Timer
	reshow       clock.Timer
	notification models.NotificationHandle
	notified     bool
	closed       bool
}

// New creates an engine for one user session and loads the alarm settings.
// A settings read failure falls back to defaults.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("engine: store is required")
	}

	e := &Engine{
		user:      opts.User,
		store:     opts.Store,
		clock:     opts.Clock,
		modal:     opts.Modal,
		notifier:  opts.Notifier,
		sounder:   opts.Sounder,
		feedback:  opts.Feedback,
		log:       opts.Logger,
		onChange:  opts.OnChange,
		newID:     opts.NewID,
		retention: opts.ResolvedRetention,
		active:    make(map[string]*models.Alarm),
		resolved:  make(map[string]time.Time),
	}
	if e.clock == nil {
		e.clock = clock.Real{}
	}
	if e.modal == nil {
		e.modal = nopModal{}
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.sounder == nil {
		e.sounder = nopSounder{}
	}
	if e.feedback == nil {
		e.feedback = nopFeedback{}
	}
	if e.log == nil {
		e.log = logger.GetLoggerWith(logger.NameEngine)
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.retention <= 0 {
		e.retention = DefaultResolvedRetention
	}

	e.settings = models.DefaultSettings()
	if err := e.ReloadSettings(ctx); err != nil {
		e.log.Warn("Using default alarm settings", zap.Error(err))
	}

	return e, nil
}

// ReloadSettings re-reads alarm settings. Running timers keep the
// durations they were armed with.
func (e *Engine) ReloadSettings(ctx context.Context) error {
	s, err := e.store.Settings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	e.mu.Lock()
	e.settings = s.Normalize()
	e.mu.Unlock()
	return nil
}

// Settings returns the settings in effect
func (e *Engine) Settings() models.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// Trigger registers the alarm for a due signal. It reports whether a new
// alarm was registered; replays of known or resolved alarms, and signals
// for medications that no longer exist, are dropped.
func (e *Engine) Trigger(ctx context.Context, sig models.DueSignal) (bool, error) {
	registered := false
	err := e.locked(func() error {
		if e.closed {
			return ErrClosed
		}

		now := e.clock.Now()
		e.pruneResolved(now)

		id := models.AlarmID(sig.Medication.ID, sig.ScheduledAt)
		if _, ok := e.active[id]; ok {
			return nil
		}
		if _, ok := e.resolved[id]; ok {
			e.log.Debug("Ignoring due signal for resolved alarm", zap.String("alarm_id", id))
			return nil
		}

		med, err := e.store.Medication(ctx, e.user, sig.Medication.ID)
		if errors.Is(err, models.ErrNotFound) {
			e.log.Info("Medication not found for due signal", zap.String("alarm_id", id))
			return nil
		}
		if err != nil {
			return fmt.Errorf("load medication %s: %w", sig.Medication.ID, err)
		}
		if !med.IsActive {
			e.log.Info("Medication no longer active", zap.String("alarm_id", id))
			return nil
		}

		e.register(&models.Alarm{
			ID:          id,
			Medication:  med,
			ScheduledAt: sig.ScheduledAt,
			TriggeredAt: now,
		})
		registered = true
		return nil
	})
	return registered, err
}

// TestAlarm rings a synthetic alarm through every channel. Resolving it
// writes nothing to the store.
func (e *Engine) TestAlarm(ctx context.Context) (models.AlarmSnapshot, error) {
	var snap models.AlarmSnapshot
	err := e.locked(func() error {
		if e.closed {
			return ErrClosed
		}

		now := e.clock.Now()
		a := &models.Alarm{
			ID: "test-alarm-" + strconv.FormatInt(now.UnixMilli(), 10),
			Medication: models.Medication{
				ID:           "test-medication",
				Name:         "Test Medication",
				DosageAmount: 10,
				DosageUnit:   "mg",
				Instructions: "Take with water",
				IsActive:     true,
			},
			ScheduledAt: now,
			TriggeredAt: now,
			Test:        true,
		}
		if _, ok := e.active[a.ID]; ok {
			return fmt.Errorf("test alarm %s already running", a.ID)
		}
		e.register(a)
		snap = a.Snapshot(e.settings)
		return nil
	})
	return snap, err
}

// Snooze silences the current alarm for the snooze interval. At the snooze
// limit it escalates instead and returns ErrSnoozeLimit.
func (e *Engine) Snooze(ctx context.Context, alarmID string) error {
	return e.locked(func() error {
		a, err := e.currentFor(alarmID)
		if err != nil {
			return err
		}
		if a.State != models.AlarmStateActive {
			return ErrNotRinging
		}
		if a.SnoozeCount >= e.settings.MaxSnoozes {
			e.escalate(a)
			return ErrSnoozeLimit
		}
		e.snooze(a)
		return nil
	})
}

// MarkTaken resolves the current alarm and records the dose
func (e *Engine) MarkTaken(ctx context.Context, alarmID string) error {
	return e.resolve(ctx, alarmID, models.DispositionTaken)
}

// MarkMissed resolves the current alarm and records the missed dose
func (e *Engine) MarkMissed(ctx context.Context, alarmID string) error {
	return e.resolve(ctx, alarmID, models.DispositionMissed)
}

// Stop silences and resolves the current alarm without recording anything
func (e *Engine) Stop(ctx context.Context, alarmID string) error {
	return e.resolve(ctx, alarmID, models.DispositionStopped)
}

// Current returns the alarm holding the slot, ringing or snoozed
func (e *Engine) Current() (models.AlarmSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return models.AlarmSnapshot{}, false
	}
	return e.current.Snapshot(e.settings), true
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status()
}

// Close tears the session down: timers are cancelled, every channel is
// silenced and all alarm state is dropped. Later calls fail with ErrClosed.
func (e *Engine) Close() {
	_ = e.locked(func() error {
		if e.closed {
			return nil
		}
		if e.current != nil {
			e.silence()
		}
		stopTimer(&e.reshow)
		e.gen++
		e.current = nil
		e.queue = nil
		e.active = make(map[string]*models.Alarm)
		e.resolved = make(map[string]time.Time)
		e.closed = true
		e.log.Info("Alarm engine closed")
		return nil
	})
}

func (e *Engine) locked(fn func() error) error {
	st, err := e.transition(fn)
	if e.onChange != nil {
		e.onChange(st)
	}
	return err
}

func (e *Engine) transition(fn func() error) (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := fn()
	return e.status(), err
}

func (e *Engine) status() Status {
	st := Status{
		State:  models.AlarmStateNone,
		Queued: len(e.queue),
		Active: len(e.active),
	}
	if e.current != nil {
		snap := e.current.Snapshot(e.settings)
		st.State = e.current.State
		st.Current = &snap
	}
	return st
}

func (e *Engine) currentFor(alarmID string) (*models.Alarm, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if e.current == nil {
		return nil, ErrNoCurrentAlarm
	}
	if e.current.ID != alarmID {
		return nil, ErrNotCurrent
	}
	return e.current, nil
}

func (e *Engine) register(a *models.Alarm) {
	e.active[a.ID] = a
	if e.current == nil {
		e.activate(a)
		return
	}

	a.State = models.AlarmStateQueued
	e.queue = append(e.queue, a)
	e.log.Info("Alarm queued behind current alarm",
		zap.String("alarm_id", a.ID),
		zap.String("current_id", e.current.ID),
		zap.Int("queued", len(e.queue)))
}

func (e *Engine) activate(a *models.Alarm) {
	e.current = a
	a.State = models.AlarmStateActive
	a.Snoozed = false
	e.gen++
	gen := e.gen

	snap := a.Snapshot(e.settings)
	if e.settings.NotificationsEnabled {
		handle, err := e.notifier.Notify(snap)
		if err != nil {
			e.log.Warn("System notification unavailable", zap.String("alarm_id", a.ID), zap.Error(err))
		} else {
			e.notification = handle
			e.notified = true
		}
	}
	if err := e.sounder.StartLoop(); err != nil {
		e.log.Warn("Alarm sound unavailable", zap.String("alarm_id", a.ID), zap.Error(err))
	}
	e.modal.Show(snap)

	e.deadline = e.clock.AfterFunc(e.settings.AlarmDurationDuration(), func() {
		e.onDeadline(a.ID, gen)
	})

	e.log.Info("Alarm activated",
		zap.String("alarm_id", a.ID),
		zap.String("medication", a.Medication.Name),
		zap.Int("snooze_count", a.SnoozeCount))
}

// silence stops every channel of the current alarm
func (e *Engine) silence() {
	stopTimer(&e.deadline)
	e.sounder.StopLoop()
	if e.notified {
		e.notifier.Cancel(e.notification)
		e.notified = false
		e.notification = ""
	}
	e.modal.Hide()
}

func (e *Engine) snooze(a *models.Alarm) {
	e.silence()

	a.SnoozeCount++
	a.Snoozed = true
	a.State = models.AlarmStateSnoozed
	e.gen++
	gen := e.gen

	e.reshow = e.clock.AfterFunc(e.settings.SnoozeIntervalDuration(), func() {
		e.onReshow(a.ID, gen)
	})

	e.feedback.Notify(models.FeedbackInfo, fmt.Sprintf("Snoozed for %d minutes. (%d/%d)",
		e.settings.SnoozeInterval, a.SnoozeCount, e.settings.MaxSnoozes))
	e.log.Info("Alarm snoozed", zap.String("alarm_id", a.ID), zap.Int("snooze_count", a.SnoozeCount))
}

// escalate keeps the alarm ringing with snooze disabled until the user
// marks it taken or missed.
func (e *Engine) escalate(a *models.Alarm) {
	stopTimer(&e.deadline)
	if !a.Escalated {
		a.Escalated = true
		e.log.Warn("Snooze limit reached", zap.String("alarm_id", a.ID), zap.Int("snooze_count", a.SnoozeCount))
	}
	e.feedback.Notify(models.FeedbackError, MaxSnoozesMessage)
	e.modal.Show(a.Snapshot(e.settings))
}

func (e *Engine) onDeadline(id string, gen uint64) {
	_ = e.locked(func() error {
		a := e.current
		if e.closed || a == nil || a.ID != id || gen != e.gen || a.State != models.AlarmStateActive {
			return nil
		}
		e.deadline = nil

		if a.SnoozeCount < e.settings.MaxSnoozes {
			e.snooze(a)
			return nil
		}
		e.escalate(a)
		return nil
	})
}

func (e *Engine) onReshow(id string, gen uint64) {
	_ = e.locked(func() error {
		a := e.current
		if e.closed || a == nil || a.ID != id || gen != e.gen || a.State != models.AlarmStateSnoozed {
			return nil
		}
		e.reshow = nil
		e.activate(a)
		return nil
	})
}

func (e *Engine) resolve(ctx context.Context, alarmID string, disposition models.Disposition) error {
	return e.locked(func() error {
		a, err := e.currentFor(alarmID)
		if err != nil {
			return err
		}

		now := e.clock.Now()
		e.silence()
		stopTimer(&e.reshow)

		if !a.Test {
			switch disposition {
			case models.DispositionTaken:
				e.recordTaken(ctx, a, now)
			case models.DispositionMissed:
				e.recordMissed(ctx, a, now)
			}
		}

		a.State = models.AlarmStateResolved
		a.Snoozed = false
		delete(e.active, a.ID)
		e.resolved[a.ID] = a.ScheduledAt
		e.current = nil
		e.gen++

		e.log.Info("Alarm resolved", zap.String("alarm_id", a.ID), zap.String("disposition", string(disposition)))
		e.promote(ctx)
		return nil
	})
}

func (e *Engine) recordTaken(ctx context.Context, a *models.Alarm, now time.Time) {
	patch := models.MedicationPatch{LastTaken: &now, TotalDosesDelta: 1}
	if err := e.store.UpdateMedication(ctx, e.user, a.Medication.ID, patch); err != nil {
		e.storeFailed(a, "update medication", err)
	}
	if err := e.store.AppendHistory(ctx, e.user, e.historyEntry(a, models.HistoryActionTaken, now)); err != nil {
		e.storeFailed(a, "append history", err)
	}
	e.feedback.Notify(models.FeedbackSuccess, fmt.Sprintf("%s marked as taken!", a.Medication.Name))
}

func (e *Engine) recordMissed(ctx context.Context, a *models.Alarm, now time.Time) {
	patch := models.MedicationPatch{MissedDelta: 1}
	if err := e.store.UpdateMedication(ctx, e.user, a.Medication.ID, patch); err != nil {
		e.storeFailed(a, "update medication", err)
	}
	if err := e.store.AppendHistory(ctx, e.user, e.historyEntry(a, models.HistoryActionMissed, now)); err != nil {
		e.storeFailed(a, "append history", err)
	}
	e.feedback.Notify(models.FeedbackWarning, fmt.Sprintf("%s marked as missed.", a.Medication.Name))
}

func (e *Engine) historyEntry(a *models.Alarm, action models.HistoryAction, now time.Time) models.HistoryEntry {
	return models.HistoryEntry{
		ID:             e.newID(),
		Timestamp:      now,
		MedicationID:   a.Medication.ID,
		MedicationName: a.Medication.Name,
		Action:         action,
		ScheduledTime:  a.ScheduledAt,
		ActualTime:     now,
		Dosage:         a.Medication.DosageLabel(),
		Notes:          "Marked as " + string(action),
	}
}

func (e *Engine) storeFailed(a *models.Alarm, op string, err error) {
	e.log.Error("Failed to save dose record",
		zap.String("alarm_id", a.ID),
		zap.String("op", op),
		zap.Error(err))
	e.feedback.Notify(models.FeedbackError, fmt.Sprintf("Could not save %s dose record: %v", a.Medication.Name, err))
}

// promote hands the slot to the oldest queued alarm whose medication
// still exists and is active.
func (e *Engine) promote(ctx context.Context) {
	for len(e.queue) > 0 {
		next := e.queue[0]
		e.queue = e.queue[1:]
		if _, ok := e.active[next.ID]; !ok {
			continue
		}
		if !next.Test && !e.refresh(ctx, next) {
			delete(e.active, next.ID)
			e.resolved[next.ID] = next.ScheduledAt
			continue
		}
		e.activate(next)
		return
	}
}

// refresh reloads a queued alarm's medication. A read error keeps the
// snapshot taken at trigger time.
func (e *Engine) refresh(ctx context.Context, a *models.Alarm) bool {
	med, err := e.store.Medication(ctx, e.user, a.Medication.ID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		e.log.Info("Dropping queued alarm for removed medication", zap.String("alarm_id", a.ID))
		return false
	case err != nil:
		e.log.Warn("Could not reload queued medication", zap.String("alarm_id", a.ID), zap.Error(err))
		return true
	case !med.IsActive:
		e.log.Info("Dropping queued alarm for paused medication", zap.String("alarm_id", a.ID))
		return false
	}
	a.Medication = med
	return true
}

func (e *Engine) pruneResolved(now time.Time) {
	cutoff := now.Add(-e.retention)
	for id, scheduled := range e.resolved {
		if scheduled.Before(cutoff) {
			delete(e.resolved, id)
		}
	}
}

func stopTimer(t *clock.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
