package main

import (
	"context"
	"time"

	"github.com/borgmon/dose-alarm/pkg/calendar"
	"github.com/borgmon/dose-alarm/pkg/models"
	"go.uber.org/zap"
)

const defaultUpdateInterval = 30 * time.Minute

// startBackgroundSync schedules appointment reminders now and refreshes
// them every configured update interval.
func (da *DoseAlarm) startBackgroundSync() {
	ctx, cancel := context.WithCancel(da.ctx)
	da.mu.Lock()
	da.syncCancel = cancel
	interval := time.Duration(da.config.UpdateInterval) * time.Minute
	da.mu.Unlock()
	if interval <= 0 {
		interval = defaultUpdateInterval
	}

	go func() {
		da.syncAppointments(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				da.syncAppointments(ctx)
			}
		}
	}()
}

func (da *DoseAlarm) stopBackgroundSync() {
	da.mu.Lock()
	defer da.mu.Unlock()
	if da.syncCancel != nil {
		da.syncCancel()
		da.syncCancel = nil
	}
}

func (da *DoseAlarm) restartBackgroundSync() {
	da.stopBackgroundSync()
	da.startBackgroundSync()
}

// syncNow runs one sync outside the regular schedule
func (da *DoseAlarm) syncNow() {
	go func() {
		n := da.syncAppointments(da.ctx)
		da.toaster.Notify(models.FeedbackSuccess, pluralize(n, "appointment reminder")+" scheduled")
	}()
}

// syncAppointments merges stored appointments with those from every iCal
// source and re-arms the reminder timers. It returns the number of
// reminders scheduled.
func (da *DoseAlarm) syncAppointments(ctx context.Context) int {
	appts, err := da.records.Appointments(ctx, da.cfg.User)
	if err != nil {
		da.log.Error("Failed to load appointments", zap.Error(err))
	}

	config := da.currentConfig()
	if config.HasCalendars() {
		now := time.Now()
		fetched, err := da.fetcher.FetchAll(ctx, config.ICalSources, now, now.Add(calendar.DefaultHorizon))
		if err != nil {
			da.log.Error("Calendar sync failed", zap.Error(err))
			if ctx.Err() == nil {
				da.toaster.Notify(models.FeedbackError, "Calendar sync failed")
			}
		}
		appts = append(appts, fetched...)
	}
	if ctx.Err() != nil {
		return 0
	}

	scheduled := da.reminders.Reload(appts)

	da.mu.Lock()
	da.lastSync = time.Now()
	da.mu.Unlock()

	da.log.Debug("Appointment reminders synced",
		zap.Int("appointments", len(appts)),
		zap.Int("scheduled", scheduled),
		zap.Int("ical_sources", len(config.ICalSources)))
	da.refreshTray()
	return scheduled
}
