package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/dose-alarm/pkg/engine"
	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/borgmon/dose-alarm/pkg/platform"
	"github.com/borgmon/dose-alarm/pkg/ui/components"
	"go.uber.org/zap"
)

const focusCheckInterval = 500 * time.Millisecond

// alarmActions are the user decisions the alarm window can submit
type alarmActions interface {
	MarkTaken(ctx context.Context, alarmID string) error
	MarkMissed(ctx context.Context, alarmID string) error
	Snooze(ctx context.Context, alarmID string) error
	Stop(ctx context.Context, alarmID string) error
}

// AlarmWindow is the modal shown while a dose alarm rings. It is created
// once and reused for every alarm.
type AlarmWindow struct {
	app     fyne.App
	window  fyne.Window
	actions alarmActions
	log     *zap.Logger

	mu       sync.Mutex
	hold     time.Duration
	current  *models.AlarmSnapshot
	visible  bool
	stopLoop context.CancelFunc
}

var _ engine.Modal = (*AlarmWindow)(nil)

func NewAlarmWindow(app fyne.App, hold time.Duration) *AlarmWindow {
	return &AlarmWindow{
		app:  app,
		hold: hold,
		log:  logger.GetLoggerWith(logger.NameApp, zap.String("component", "alarm_window")),
	}
}

// SetActions connects the buttons to the engine
func (aw *AlarmWindow) SetActions(actions alarmActions) {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	aw.actions = actions
}

// SetHoldDuration applies to the next alarm shown
func (aw *AlarmWindow) SetHoldDuration(d time.Duration) {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	aw.hold = d
}

// Show presents snap. It may be called from any goroutine, including
// while the engine holds its lock.
func (aw *AlarmWindow) Show(snap models.AlarmSnapshot) {
	aw.mu.Lock()
	aw.current = &snap
	aw.visible = true
	hold := aw.hold
	if aw.stopLoop == nil {
		ctx, cancel := context.WithCancel(context.Background())
		aw.stopLoop = cancel
		go aw.keepInFront(ctx)
	}
	aw.mu.Unlock()

	fyne.Do(func() {
		if aw.window == nil {
			aw.window = aw.app.NewWindow("Medication Reminder")
			aw.window.SetCloseIntercept(aw.onCloseRequested)
		}
		aw.window.SetContent(aw.buildContent(snap, hold))
		aw.window.Resize(fyne.NewSize(520, 420))
		aw.window.CenterOnScreen()
		aw.window.Show()
		aw.window.RequestFocus()
	})
	platform.BringToFront()
}

func (aw *AlarmWindow) Hide() {
	aw.mu.Lock()
	aw.current = nil
	aw.visible = false
	if aw.stopLoop != nil {
		aw.stopLoop()
		aw.stopLoop = nil
	}
	aw.mu.Unlock()

	fyne.Do(func() {
		if aw.window != nil {
			aw.window.Hide()
		}
	})
}

// Visible reports whether an alarm is on screen
func (aw *AlarmWindow) Visible() bool {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	return aw.visible
}

// Canvas is nil until the first alarm is shown
func (aw *AlarmWindow) Canvas() fyne.Canvas {
	if aw.window == nil {
		return nil
	}
	return aw.window.Canvas()
}

// BringToFront re-raises the ringing alarm; it does nothing when none is showing.
func (aw *AlarmWindow) BringToFront() {
	if !aw.Visible() {
		return
	}
	platform.BringToFront()
	fyne.Do(func() {
		if aw.window != nil {
			aw.window.Show()
			aw.window.RequestFocus()
		}
	})
}

func (aw *AlarmWindow) buildContent(snap models.AlarmSnapshot, hold time.Duration) fyne.CanvasObject {
	heading := "Time to take your medication"
	if snap.Test {
		heading = "Test Alarm"
	}
	headingLabel := widget.NewLabelWithStyle(heading, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	name := canvas.NewText(snap.Name, theme.Color(theme.ColorNameForeground))
	name.TextSize = 32
	name.TextStyle = fyne.TextStyle{Bold: true}
	name.Alignment = fyne.TextAlignCenter

	dosage := widget.NewLabelWithStyle(snap.Dosage, fyne.TextAlignCenter, fyne.TextStyle{})

	instructions := widget.NewLabel(snap.Instructions)
	instructions.Wrapping = fyne.TextWrapWord
	instructions.Alignment = fyne.TextAlignCenter

	scheduled := widget.NewLabelWithStyle(
		"Scheduled for "+snap.ScheduledAt.Local().Format("3:04 PM"),
		fyne.TextAlignCenter, fyne.TextStyle{Italic: true})

	content := container.NewVBox(
		headingLabel,
		container.NewPadded(name),
		dosage,
		widget.NewSeparator(),
		instructions,
		scheduled,
	)

	if snap.SnoozeCount > 0 {
		content.Add(widget.NewLabelWithStyle(
			fmt.Sprintf("Snoozed %d of %d times", snap.SnoozeCount, snap.MaxSnoozes),
			fyne.TextAlignCenter, fyne.TextStyle{}))
	}
	if snap.Escalated {
		warning := widget.NewLabelWithStyle(engine.MaxSnoozesMessage, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
		warning.Importance = widget.DangerImportance
		warning.Wrapping = fyne.TextWrapWord
		content.Add(warning)
	}
	content.Add(widget.NewSeparator())

	taken := widget.NewButtonWithIcon("Taken", theme.ConfirmIcon(), func() {
		aw.submit(snap.AlarmID, "taken", alarmActions.MarkTaken)
	})
	taken.Importance = widget.SuccessImportance

	missed := widget.NewButtonWithIcon("Missed", theme.CancelIcon(), func() {
		aw.submit(snap.AlarmID, "missed", alarmActions.MarkMissed)
	})
	missed.Importance = widget.WarningImportance

	snooze := widget.NewButtonWithIcon("Snooze", theme.HistoryIcon(), func() {
		aw.submit(snap.AlarmID, "snooze", alarmActions.Snooze)
	})
	if !snap.CanSnooze {
		snooze.Disable()
	}

	holdSeconds := int(hold / time.Second)
	stop := components.NewHoldButton(fmt.Sprintf("Stop (Hold %ds)", holdSeconds), hold, func() {
		aw.submit(snap.AlarmID, "stop", alarmActions.Stop)
	})

	buttons := container.NewGridWithColumns(3, taken, missed, snooze)
	content.Add(buttons)
	content.Add(stop)

	return container.NewPadded(container.NewCenter(content))
}

// submit runs the action off the UI goroutine; the engine calls back into
// Show or Hide while it holds its lock.
func (aw *AlarmWindow) submit(alarmID, action string, fn func(alarmActions, context.Context, string) error) {
	aw.mu.Lock()
	actions := aw.actions
	aw.mu.Unlock()
	if actions == nil {
		return
	}

	go func() {
		err := fn(actions, context.Background(), alarmID)
		switch {
		case err == nil:
			aw.log.Debug("Alarm action", zap.String("alarm_id", alarmID), zap.String("action", action))
		case errors.Is(err, engine.ErrSnoozeLimit), errors.Is(err, engine.ErrNotCurrent), errors.Is(err, engine.ErrNoCurrentAlarm):
			aw.log.Info("Alarm action ignored", zap.String("alarm_id", alarmID), zap.String("action", action), zap.Error(err))
		default:
			aw.log.Error("Alarm action failed", zap.String("alarm_id", alarmID), zap.String("action", action), zap.Error(err))
		}
	}()
}

// onCloseRequested treats the window's close button as a snooze when one
// is left; otherwise the alarm stays up.
func (aw *AlarmWindow) onCloseRequested() {
	aw.mu.Lock()
	snap := aw.current
	aw.mu.Unlock()
	if snap == nil {
		aw.window.Hide()
		return
	}
	if snap.CanSnooze {
		aw.submit(snap.AlarmID, "snooze", alarmActions.Snooze)
		return
	}
	aw.log.Info("Close blocked, alarm needs taken or missed", zap.String("alarm_id", snap.AlarmID))
}

// keepInFront re-raises the alarm whenever another app takes focus and
// blocks the quit shortcut while the alarm is up.
func (aw *AlarmWindow) keepInFront(ctx context.Context) {
	releaseQuit := blockQuitShortcut(aw.log)
	defer releaseQuit()

	ticker := time.NewTicker(focusCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			aw.log.Debug("Stopping focus monitoring")
			return
		case <-ticker.C:
			if !platform.IsFrontmost() {
				aw.log.Debug("Alarm window not active, bringing to front")
				aw.BringToFront()
			}
		}
	}
}
