package main

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/borgmon/dose-alarm/pkg/engine"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/borgmon/dose-alarm/pkg/schedule"
	"go.uber.org/zap"
)

const upcomingLimit = 5

// trayState is everything the tray menu shows, gathered off the UI goroutine
type trayState struct {
	status     engine.Status
	upcoming   []schedule.Dose
	takenToday int
	missed     int
	calendars  bool
}

func (da *DoseAlarm) setupSystemTray() {
	if desk, ok := da.app.(desktop.App); ok {
		desk.SetSystemTrayIcon(trayIcon())
	}
	da.refreshTray()
}

// refreshTray rebuilds the tray menu. Safe to call from any goroutine.
func (da *DoseAlarm) refreshTray() {
	if _, ok := da.app.(desktop.App); !ok {
		return
	}
	go func() {
		state := da.collectTrayState(time.Now())
		fyne.Do(func() {
			da.setTrayMenu(state)
		})
	}()
}

func (da *DoseAlarm) collectTrayState(now time.Time) trayState {
	state := trayState{
		status:    da.engine.Status(),
		calendars: da.currentConfig().HasCalendars(),
	}

	meds, err := da.records.Medications(da.ctx, da.cfg.User)
	if err != nil {
		da.log.Warn("Tray could not load medications", zap.Error(err))
	}
	state.upcoming = schedule.UpcomingToday(meds, now, upcomingLimit)
	for _, m := range meds {
		state.missed += m.MissedDoses
	}

	history, err := da.records.History(da.ctx, da.cfg.User)
	if err != nil {
		da.log.Warn("Tray could not load history", zap.Error(err))
	}
	state.takenToday = models.TakenOn(history, now)
	return state
}

func (da *DoseAlarm) setTrayMenu(state trayState) {
	desk, ok := da.app.(desktop.App)
	if !ok {
		return
	}

	menuItems := []*fyne.MenuItem{
		disabledItem(statusText(state.status)),
	}
	if state.status.Current != nil {
		menuItems = append(menuItems, fyne.NewMenuItem("Show Alarm", da.alarmWindow.BringToFront))
	}
	menuItems = append(menuItems, fyne.NewMenuItemSeparator())

	if len(state.upcoming) > 0 {
		menuItems = append(menuItems, disabledItem("Upcoming Today:"))
		for _, dose := range state.upcoming {
			menuItems = append(menuItems, disabledItem(fmt.Sprintf("  %s - %s",
				dose.At.Format("3:04 PM"),
				truncateString(dose.Medication.Name+" "+dose.Medication.DosageLabel(), 35))))
		}
	} else {
		menuItems = append(menuItems, disabledItem("No more doses today"))
	}
	menuItems = append(menuItems,
		disabledItem(fmt.Sprintf("Taken today: %d    Missed: %d", state.takenToday, state.missed)),
		fyne.NewMenuItemSeparator(),
	)

	menuItems = append(menuItems,
		fyne.NewMenuItem("Settings", da.showSettingsWindow),
		fyne.NewMenuItem("Test Alarm", func() {
			go da.testAlarm()
		}),
	)
	if state.calendars {
		menuItems = append(menuItems, fyne.NewMenuItem("Sync Now", da.syncNow))
	}

	menuItems = append(menuItems, fyne.NewMenuItemSeparator())
	menuItems = append(menuItems, fyne.NewMenuItem("Quit", da.quit))

	desk.SetSystemTrayMenu(fyne.NewMenu(appDisplayName, menuItems...))
}

func disabledItem(label string) *fyne.MenuItem {
	item := fyne.NewMenuItem(label, nil)
	item.Disabled = true
	return item
}

func statusText(status engine.Status) string {
	var text string
	switch {
	case status.Current == nil:
		text = "No alarm ringing"
	case status.State == models.AlarmStateSnoozed:
		text = "Snoozed: " + status.Current.Name
	case status.Current.Escalated:
		text = "Waiting for answer: " + status.Current.Name
	default:
		text = "Ringing: " + status.Current.Name
	}
	if status.Queued > 0 {
		text += fmt.Sprintf(" (+%d waiting)", status.Queued)
	}
	return text
}
