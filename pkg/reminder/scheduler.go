// Package reminder fires a notification one hour before each upcoming
// doctor's appointment.
package reminder

import (
	"sync"
	"time"

	"github.com/borgmon/dose-alarm/pkg/clock"
	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/models"
	"go.uber.org/zap"
)

// Sink delivers a reminder
type Sink interface {
	RemindAppointment(a models.Appointment) error
}

type armed struct {
	timer clock.Timer
	gen   uint64
}

// Scheduler keeps one timer per appointment id
type Scheduler struct {
	clock clock.Clock
	sink  Sink
	lead  time.Duration
	log   *zap.Logger

	mu      sync.Mutex
	timers  map[string]armed
	gen     uint64
	stopped bool
}

func New(clk clock.Clock, sink Sink) *Scheduler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Scheduler{
		clock:  clk,
		sink:   sink,
		lead:   models.ReminderLead,
		log:    logger.GetLoggerWith(logger.NameReminder),
		timers: make(map[string]armed),
	}
}

// Schedule arms the reminder for a. Cancelled appointments and those
// whose reminder time has passed are skipped. Rescheduling an id
// replaces its earlier timer.
func (s *Scheduler) Schedule(a models.Appointment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule(a)
}

func (s *Scheduler) schedule(a models.Appointment) bool {
	if s.stopped {
		return false
	}
	s.cancel(a.ID)

	if a.Status == models.AppointmentStatusCancelled {
		return false
	}
	delay := a.At.Add(-s.lead).Sub(s.clock.Now())
	if delay <= 0 {
		return false
	}

	s.gen++
	gen := s.gen
	s.timers[a.ID] = armed{
		timer: s.clock.AfterFunc(delay, func() { s.fire(a, gen) }),
		gen:   gen,
	}
	s.log.Debug("Appointment reminder scheduled",
		zap.String("appointment_id", a.ID),
		zap.Duration("in", delay))
	return true
}

// Reload replaces every scheduled reminder with reminders for appts and
// returns how many were armed.
func (s *Scheduler) Reload(appts []models.Appointment) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.timers {
		s.cancel(id)
	}
	n := 0
	for _, a := range appts {
		if s.schedule(a) {
			n++
		}
	}
	s.log.Info("Appointment reminders reloaded", zap.Int("scheduled", n), zap.Int("appointments", len(appts)))
	return n
}

func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel(id)
}

func (s *Scheduler) cancel(id string) {
	if t, ok := s.timers[id]; ok {
		t.timer.Stop()
		delete(s.timers, id)
	}
}

// Pending returns the number of armed reminders
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels everything; later Schedule calls are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.timers {
		s.cancel(id)
	}
	s.stopped = true
}

// fire delivers the reminder armed as gen. A callback that lost a race
// with a reschedule of the same id is ignored.
func (s *Scheduler) fire(a models.Appointment, gen uint64) {
	s.mu.Lock()
	if t, ok := s.timers[a.ID]; s.stopped || !ok || t.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, a.ID)
	s.mu.Unlock()

	if err := s.sink.RemindAppointment(a); err != nil {
		s.log.Warn("Appointment reminder not delivered", zap.String("appointment_id", a.ID), zap.Error(err))
	}
}
