package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/dose-alarm/pkg/export"
	"github.com/borgmon/dose-alarm/pkg/models"
	"go.uber.org/zap"
)

var historyColumns = []struct {
	title string
	width float32
}{
	{"When", 170},
	{"Medication", 180},
	{"Action", 90},
	{"Scheduled", 170},
	{"Dosage", 110},
}

func (sw *SettingsWindow) buildHistoryTab() fyne.CanvasObject {
	sw.historyTable = widget.NewTable(
		func() (int, int) {
			return len(sw.history), len(historyColumns)
		},
		func() fyne.CanvasObject {
			label := widget.NewLabel("Template")
			label.Truncation = fyne.TextTruncateEllipsis
			return label
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if id.Row >= len(sw.history) {
				label.SetText("")
				return
			}
			// newest first
			h := sw.history[len(sw.history)-1-id.Row]
			switch id.Col {
			case 0:
				label.SetText(h.ActualTime.Local().Format("Mon Jan 2, 3:04 PM"))
			case 1:
				label.SetText(h.MedicationName)
			case 2:
				label.SetText(string(h.Action))
			case 3:
				label.SetText(h.ScheduledTime.Local().Format("Mon Jan 2, 3:04 PM"))
			case 4:
				label.SetText(h.Dosage)
			}
			if h.Action == models.HistoryActionMissed {
				label.Importance = widget.WarningImportance
			} else {
				label.Importance = widget.MediumImportance
			}
		},
	)
	sw.historyTable.ShowHeaderRow = true
	sw.historyTable.CreateHeader = func() fyne.CanvasObject {
		label := widget.NewLabel("Header")
		label.TextStyle.Bold = true
		return label
	}
	sw.historyTable.UpdateHeader = func(id widget.TableCellID, obj fyne.CanvasObject) {
		obj.(*widget.Label).SetText(historyColumns[id.Col].title)
	}
	for i, col := range historyColumns {
		sw.historyTable.SetColumnWidth(i, col.width)
	}

	sw.appointmentList = widget.NewList(
		func() int { return len(sw.appointments) },
		func() fyne.CanvasObject { return widget.NewLabel("template") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i < len(sw.appointments) {
				o.(*widget.Label).SetText(appointmentLine(sw.appointments[i]))
			}
		})
	appointmentScroll := container.NewScroll(sw.appointmentList)
	appointmentScroll.SetMinSize(fyne.NewSize(0, 120))

	addAppointment := widget.NewButtonWithIcon("Add Appointment", theme.ContentAddIcon(), sw.showAddAppointmentDialog)
	exportButton := widget.NewButtonWithIcon("Export", theme.DocumentSaveIcon(), sw.exportRecords)
	importButton := widget.NewButtonWithIcon("Import", theme.FolderOpenIcon(), sw.importRecords)
	refreshButton := widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), sw.reload)

	appointments := container.NewBorder(
		container.NewVBox(widget.NewSeparator(), widget.NewLabel("Appointments")),
		container.NewHBox(addAppointment),
		nil,
		nil,
		appointmentScroll,
	)

	content := container.NewBorder(
		container.NewVBox(
			container.NewBorder(nil, nil, widget.NewLabel("Dose History"),
				container.NewHBox(refreshButton, exportButton, importButton)),
			widget.NewSeparator(),
		),
		appointments,
		nil,
		nil,
		sw.historyTable,
	)
	return container.NewPadded(content)
}

func (sw *SettingsWindow) setHistory(history []models.HistoryEntry) {
	sw.history = history
	sw.historyTable.Refresh()
}

func (sw *SettingsWindow) setAppointments(appts []models.Appointment) {
	sw.appointments = appts
	sw.appointmentList.Refresh()
}

func appointmentLine(a models.Appointment) string {
	line := fmt.Sprintf("%s  %s with %s", a.At.Local().Format("Mon Jan 2, 3:04 PM"), a.Type, a.DoctorName)
	if a.Location != "" {
		line += " at " + a.Location
	}
	if a.Status == models.AppointmentStatusCancelled {
		line += " (cancelled)"
	}
	return line
}

func (sw *SettingsWindow) exportRecords() {
	da := sw.da
	save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, sw.window)
			return
		}
		if w == nil {
			return
		}
		format := export.FormatJSON
		if strings.EqualFold(filepath.Ext(w.URI().Name()), ".csv") {
			format = export.FormatCSV
		}

		go func() {
			defer w.Close()
			data, err := da.records.UserData(da.ctx, da.cfg.User)
			if err == nil {
				err = export.Write(w, format, data, time.Now())
			}
			if err != nil {
				da.log.Error("Export failed", zap.String("uri", w.URI().String()), zap.Error(err))
				fyne.Do(func() { dialog.ShowError(err, sw.window) })
				return
			}
			da.log.Info("Records exported", zap.String("uri", w.URI().String()), zap.String("format", format))
			da.toaster.Notify(models.FeedbackSuccess, "Exported to "+w.URI().Name())
		}()
	}, sw.window)
	save.SetFileName(fmt.Sprintf("dose-alarm-%s.json", time.Now().Format(models.DateLayout)))
	save.SetFilter(storage.NewExtensionFileFilter([]string{".json", ".csv"}))
	save.Show()
}

func (sw *SettingsWindow) importRecords() {
	da := sw.da
	open := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, sw.window)
			return
		}
		if r == nil {
			return
		}
		data, err := export.Read(r, time.Now())
		r.Close()
		if err != nil {
			dialog.ShowError(fmt.Errorf("import %s: %w", r.URI().Name(), err), sw.window)
			return
		}
		data.Username = da.cfg.User

		msg := fmt.Sprintf("Replace all records with %s, %s and %s from %s?",
			pluralize(len(data.Medications), "medication"),
			pluralize(len(data.Appointments), "appointment"),
			pluralize(len(data.MedicationHistory), "dose record"),
			r.URI().Name())
		dialog.ShowConfirm("Import Records", msg, func(confirmed bool) {
			if !confirmed {
				return
			}
			go func() {
				if err := da.records.ReplaceUserData(da.ctx, data); err != nil {
					da.log.Error("Import failed", zap.Error(err))
					fyne.Do(func() { dialog.ShowError(err, sw.window) })
					return
				}
				da.log.Info("Records imported", zap.Int("medications", len(data.Medications)))
				fyne.Do(sw.reload)
				da.syncAppointments(da.ctx)
			}()
		}, sw.window)
	}, sw.window)
	open.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	open.Show()
}
