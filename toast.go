package main

import (
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/dose-alarm/pkg/models"
)

const toastDuration = 3 * time.Second

// showToast pops the message over the alarm or settings window. With
// neither on screen it falls back to a system notification.
func (da *DoseAlarm) showToast(level models.FeedbackLevel, message string) {
	fyne.Do(func() {
		c := da.visibleCanvas()
		if c == nil {
			da.app.SendNotification(fyne.NewNotification(appDisplayName, message))
			return
		}

		label := widget.NewLabel(message)
		label.Importance = toastImportance(level)
		label.Wrapping = fyne.TextWrapWord

		pop := widget.NewPopUp(container.NewPadded(label), c)
		size := fyne.NewSize(fyne.Min(c.Size().Width-40, 420), pop.MinSize().Height)
		pop.Resize(size)
		pop.ShowAtPosition(fyne.NewPos(
			(c.Size().Width-size.Width)/2,
			c.Size().Height-size.Height-20,
		))

		time.AfterFunc(toastDuration, func() {
			fyne.Do(pop.Hide)
		})
	})
}

func (da *DoseAlarm) visibleCanvas() fyne.Canvas {
	if da.alarmWindow != nil && da.alarmWindow.Visible() {
		if c := da.alarmWindow.Canvas(); c != nil {
			return c
		}
	}
	if da.settingsWindow != nil && da.settingsWindow.window != nil {
		return da.settingsWindow.window.Canvas()
	}
	return nil
}

func toastImportance(level models.FeedbackLevel) widget.Importance {
	switch level {
	case models.FeedbackSuccess:
		return widget.SuccessImportance
	case models.FeedbackWarning:
		return widget.WarningImportance
	case models.FeedbackError:
		return widget.DangerImportance
	default:
		return widget.MediumImportance
	}
}
