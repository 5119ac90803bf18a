package main

import (
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/borgmon/dose-alarm/pkg/schedule"
	"github.com/borgmon/dose-alarm/pkg/ui/components"
	"go.uber.org/zap"
)

func (sw *SettingsWindow) buildMedicationsTab() fyne.CanvasObject {
	var list fyne.CanvasObject
	sw.medications, list = components.NewListManager(nil, components.ListManagerConfig[models.Medication]{
		Render: medicationLine,
		OnAdd: func() {
			sw.showAddMedicationDialog()
		},
		OnRemove: func(m models.Medication) bool {
			sw.confirmRemoveMedication(m)
			return false
		},
		Empty: "No medications yet. Press + to add one.",
	})

	sw.statsLabel = widget.NewLabel("")
	sw.statsLabel.Importance = widget.MediumImportance

	content := container.NewBorder(
		container.NewVBox(
			widget.NewLabel("Medications"),
			widget.NewSeparator(),
		),
		container.NewVBox(widget.NewSeparator(), sw.statsLabel),
		nil,
		nil,
		list,
	)
	return container.NewPadded(content)
}

func medicationLine(m models.Medication) string {
	parts := []string{m.Name + " " + m.DosageLabel()}
	switch {
	case m.IsAsNeeded():
		parts = append(parts, "as needed")
	case m.IsWeekly():
		parts = append(parts, "weekly on "+m.WeeklyDay+" at "+strings.Join(m.Times, ", "))
	default:
		parts = append(parts, strings.Join(m.Times, ", "))
	}
	if !m.IsActive {
		parts = append(parts, "paused")
	} else if next, ok := schedule.NextDose(m, time.Now()); ok {
		parts = append(parts, "next "+next.Format(displayTimeLayout))
	}
	return strings.Join(parts, "  |  ")
}

func (sw *SettingsWindow) confirmRemoveMedication(m models.Medication) {
	dialog.ShowConfirm("Remove Medication",
		fmt.Sprintf("Are you sure you want to remove '%s'? Its dose history is kept.", m.Name),
		func(confirmed bool) {
			if !confirmed {
				return
			}
			da := sw.da
			go func() {
				if err := da.records.DeleteMedication(da.ctx, da.cfg.User, m.ID); err != nil {
					da.log.Error("Failed to remove medication", zap.String("medication_id", m.ID), zap.Error(err))
					fyne.Do(func() { dialog.ShowError(err, sw.window) })
					return
				}
				da.log.Info("Medication removed", zap.String("medication_id", m.ID), zap.String("name", m.Name))
				fyne.Do(sw.reload)
				da.refreshTray()
			}()
		}, sw.window)
}

func (sw *SettingsWindow) updateStats(meds []models.Medication, history []models.HistoryEntry) {
	active, missed := 0, 0
	for _, m := range meds {
		if m.IsActive {
			active++
		}
		missed += m.MissedDoses
	}
	sw.statsLabel.SetText(fmt.Sprintf("Active: %d    Taken today: %d    Total missed: %d",
		active, models.TakenOn(history, time.Now()), missed))
}
