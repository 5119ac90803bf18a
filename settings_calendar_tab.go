package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/borgmon/dose-alarm/pkg/ui/components"
)

func (sw *SettingsWindow) buildCalendarTab() fyne.CanvasObject {
	var sourceList fyne.CanvasObject
	sw.sources, sourceList = components.NewListManager(
		append([]models.ICalSource(nil), sw.config.ICalSources...),
		components.ListManagerConfig[models.ICalSource]{
			Render: func(s models.ICalSource) string {
				return s.Name + "  " + truncateString(s.URL, 60)
			},
			OnAdd: func() {
				sw.showAddICalSourceDialog()
			},
			OnChange: func([]models.ICalSource) {
				sw.markChanged()
			},
			Empty: "No calendars. Add an iCal link to get appointment reminders.",
		})

	sw.updateIntervalSelect = sw.newOptionSelect(
		[]int{15, 30, 45, 60, 75, 90, 105, 120}, "min", sw.config.UpdateInterval)

	sw.syncStatusLabel = widget.NewLabel(sw.syncStatus())
	sw.syncStatusLabel.Importance = widget.MediumImportance

	var syncNowButton *widget.Button
	syncNowButton = widget.NewButtonWithIcon("Sync Now", theme.ViewRefreshIcon(), func() {
		syncNowButton.Disable()
		sw.syncStatusLabel.SetText("Syncing calendars...")
		go func() {
			sw.da.syncAppointments(sw.da.ctx)
			fyne.Do(func() {
				syncNowButton.Enable()
				sw.syncStatusLabel.SetText(sw.syncStatus())
				sw.reload()
			})
		}()
	})

	sourcesHelp := widget.NewLabel("Appointments from these feeds get a reminder one hour before they start. Save to apply changes.")
	sourcesHelp.Wrapping = fyne.TextWrapWord
	sourcesHelp.Importance = widget.MediumImportance

	form := container.New(layout.NewFormLayout(),
		widget.NewLabel("Update Interval:"),
		sw.updateIntervalSelect,
	)

	content := container.NewBorder(
		container.NewVBox(
			widget.NewLabel("iCal Sources"),
			widget.NewSeparator(),
			sourcesHelp,
		),
		container.NewVBox(
			widget.NewSeparator(),
			form,
			container.NewHBox(syncNowButton, sw.syncStatusLabel),
		),
		nil,
		nil,
		sourceList,
	)

	return container.NewPadded(content)
}

func (sw *SettingsWindow) syncStatus() string {
	sw.da.mu.Lock()
	last := sw.da.lastSync
	sw.da.mu.Unlock()

	pending := pluralize(sw.da.reminders.Pending(), "reminder") + " pending"
	if last.IsZero() {
		return pending
	}
	return fmt.Sprintf("Last synced %s, %s", last.Format("3:04 PM"), pending)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
