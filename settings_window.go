package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/borgmon/dose-alarm/pkg/ui/components"
	"go.uber.org/zap"
)

const savedMessage = "Settings saved successfully"

type SettingsWindow struct {
	window fyne.Window
	da     *DoseAlarm

	config   *models.Config
	settings models.Settings

	// General tab
	autoStartCheck     *widget.Check
	notificationsCheck *widget.Check

	// Alarm tab
	alarmDurationSelect  *widget.Select
	snoozeIntervalSelect *widget.Select
	maxSnoozesSelect     *widget.Select
	holdTimeSelect       *widget.Select

	// Calendar tab
	sources              *components.ListManager[models.ICalSource]
	updateIntervalSelect *widget.Select
	syncStatusLabel      *widget.Label

	// Medications tab
	medications *components.ListManager[models.Medication]
	statsLabel  *widget.Label

	// History tab
	history         []models.HistoryEntry
	historyTable    *widget.Table
	appointments    []models.Appointment
	appointmentList *widget.List

	// UI state
	hasUnsavedChanges bool
	saveStatusLabel   *widget.Label
	saveButton        *widget.Button
}

func NewSettingsWindow(da *DoseAlarm) *SettingsWindow {
	sw := &SettingsWindow{
		da:       da,
		config:   da.currentConfig(),
		settings: da.engine.Settings(),
	}

	sw.window = da.app.NewWindow(appDisplayName + " - Settings")
	sw.buildUI()
	sw.reload()

	return sw
}

func (sw *SettingsWindow) buildUI() {
	tabs := container.NewAppTabs(
		container.NewTabItem("General", sw.buildGeneralTab()),
		container.NewTabItem("Alarm", sw.buildAlarmTab()),
		container.NewTabItem("Medications", sw.buildMedicationsTab()),
		container.NewTabItem("History", sw.buildHistoryTab()),
		container.NewTabItem("Calendar", sw.buildCalendarTab()),
	)

	sw.saveStatusLabel = widget.NewLabel("")
	sw.saveStatusLabel.Importance = widget.SuccessImportance

	sw.saveButton = widget.NewButton("Save", sw.save)
	sw.saveButton.Importance = widget.HighImportance
	sw.saveButton.Disable() // Initially disabled until changes are made

	testButton := widget.NewButton("Test Alarm", func() {
		go sw.da.testAlarm()
	})
	closeButton := widget.NewButton("Close", sw.handleClose)

	buttonRow := container.NewBorder(
		nil,
		nil,
		container.NewHBox(sw.saveButton, sw.saveStatusLabel),
		container.NewHBox(testButton, closeButton),
		container.NewHBox(),
	)

	content := container.NewBorder(
		nil,
		container.NewPadded(buttonRow),
		nil,
		nil,
		tabs,
	)

	sw.window.SetContent(content)
	sw.window.Resize(fyne.NewSize(900, 700))
	sw.window.CenterOnScreen()

	sw.window.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		if key.Name == fyne.KeyEscape {
			sw.handleClose()
		}
	})
	sw.window.SetCloseIntercept(sw.handleClose)
}

func (sw *SettingsWindow) Show() {
	sw.window.Show()
}

// reload reads records off the UI goroutine and refreshes the tabs that show them
func (sw *SettingsWindow) reload() {
	da := sw.da
	go func() {
		meds, err := da.records.Medications(da.ctx, da.cfg.User)
		if err != nil {
			da.log.Error("Failed to load medications", zap.Error(err))
		}
		history, err := da.records.History(da.ctx, da.cfg.User)
		if err != nil {
			da.log.Error("Failed to load history", zap.Error(err))
		}
		appts, err := da.records.Appointments(da.ctx, da.cfg.User)
		if err != nil {
			da.log.Error("Failed to load appointments", zap.Error(err))
		}

		fyne.Do(func() {
			sw.medications.SetItems(meds)
			sw.setHistory(history)
			sw.setAppointments(appts)
			sw.updateStats(meds, history)
		})
	}()
}

func (sw *SettingsWindow) settingsFromUI() models.Settings {
	return models.Settings{
		AlarmDuration:        optionValue(sw.alarmDurationSelect.Selected, sw.settings.AlarmDuration),
		SnoozeInterval:       optionValue(sw.snoozeIntervalSelect.Selected, sw.settings.SnoozeInterval),
		MaxSnoozes:           optionValue(sw.maxSnoozesSelect.Selected, sw.settings.MaxSnoozes),
		NotificationsEnabled: sw.notificationsCheck.Checked,
	}
}

func (sw *SettingsWindow) configFromUI() *models.Config {
	return &models.Config{
		AutoStart:       sw.autoStartCheck.Checked,
		ICalSources:     append([]models.ICalSource(nil), sw.sources.Items()...),
		UpdateInterval:  optionValue(sw.updateIntervalSelect.Selected, sw.config.UpdateInterval),
		HoldTimeSeconds: optionValue(sw.holdTimeSelect.Selected, sw.config.HoldTimeSeconds),
	}
}

func (sw *SettingsWindow) save() {
	sw.saveButton.Disable()
	sw.setStatus("Saving...", widget.MediumImportance)

	settings := sw.settingsFromUI()
	config := sw.configFromUI()
	go func() {
		err := sw.da.applySettings(settings, config)
		fyne.Do(func() {
			if err != nil {
				sw.setStatus("Error: "+err.Error(), widget.DangerImportance)
				sw.updateSaveButtonState()
				return
			}
			sw.settings = settings
			sw.config = config
			sw.hasUnsavedChanges = false
			sw.setStatus(savedMessage, widget.SuccessImportance)
			sw.updateSaveButtonState()

			time.AfterFunc(3*time.Second, func() {
				fyne.Do(func() {
					if sw.saveStatusLabel.Text == savedMessage {
						sw.setStatus("", widget.SuccessImportance)
					}
				})
			})
		})
	}()
}

func (sw *SettingsWindow) setStatus(text string, importance widget.Importance) {
	sw.saveStatusLabel.SetText(text)
	sw.saveStatusLabel.Importance = importance
	sw.saveStatusLabel.Refresh()
}

// markChanged marks the settings as having unsaved changes
func (sw *SettingsWindow) markChanged() {
	sw.hasUnsavedChanges = true
	sw.updateSaveButtonState()
}

func (sw *SettingsWindow) updateSaveButtonState() {
	if sw.saveButton == nil {
		return
	}
	if sw.hasUnsavedChanges {
		sw.saveButton.Enable()
	} else {
		sw.saveButton.Disable()
	}
}

// handleClose handles window close with unsaved changes check
func (sw *SettingsWindow) handleClose() {
	if !sw.hasActualChanges() {
		sw.window.Close()
		return
	}
	dialog.ShowConfirm("Unsaved Changes",
		"You have unsaved changes. Are you sure you want to close?",
		func(confirmed bool) {
			if confirmed {
				sw.window.Close()
			}
		}, sw.window)
}

// hasActualChanges compares the form with what was last saved
func (sw *SettingsWindow) hasActualChanges() bool {
	if sw.settingsFromUI() != sw.settings {
		return true
	}

	current := sw.configFromUI()
	if current.AutoStart != sw.config.AutoStart ||
		current.UpdateInterval != sw.config.UpdateInterval ||
		current.HoldTimeSeconds != sw.config.HoldTimeSeconds ||
		len(current.ICalSources) != len(sw.config.ICalSources) {
		return true
	}
	for i := range current.ICalSources {
		if current.ICalSources[i] != sw.config.ICalSources[i] {
			return true
		}
	}
	return false
}

// newOptionSelect builds a select over values shown with unit, e.g. "5 min".
// A current value missing from values is added so it stays selectable.
func (sw *SettingsWindow) newOptionSelect(values []int, unit string, current int) *widget.Select {
	found := false
	for _, v := range values {
		if v == current {
			found = true
			break
		}
	}
	if !found && current > 0 {
		values = append(values, current)
	}

	options := make([]string, len(values))
	for i, v := range values {
		options[i] = optionLabel(v, unit)
	}
	sel := widget.NewSelect(options, func(string) {
		sw.markChanged()
	})
	sel.Selected = optionLabel(current, unit)
	return sel
}

func optionLabel(v int, unit string) string {
	if unit == "" {
		return strconv.Itoa(v)
	}
	return fmt.Sprintf("%d %s", v, unit)
}

// optionValue parses "15 min" -> 15
func optionValue(selected string, fallback int) int {
	var v int
	if _, err := fmt.Sscanf(selected, "%d", &v); err != nil {
		return fallback
	}
	return v
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
