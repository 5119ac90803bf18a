package main

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	dosageUnits      = []string{"mg", "mcg", "g", "ml", "tablet", "capsule", "drop", "puff", "unit"}
	weekdayOptions   = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	appointmentTypes = []string{"Checkup", "Follow-up", "Specialist", "Lab Test", "Vaccination", "Other"}
)

// frequencyOptions maps the form labels to Medication.Frequency values
var frequencyOptions = []struct {
	label string
	value string
}{
	{"Once daily", "1"},
	{"Twice daily", "2"},
	{"Three times daily", "3"},
	{"Four times daily", "4"},
	{"Weekly", models.FrequencyWeekly},
	{"As needed", models.FrequencyAsNeeded},
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func parseTimes(s string) []string {
	var times []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			times = append(times, t)
		}
	}
	return times
}

func (sw *SettingsWindow) showAddMedicationDialog() {
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("e.g., Aspirin")
	nameEntry.Validator = required("name")

	amountEntry := widget.NewEntry()
	amountEntry.SetPlaceHolder("100")
	amountEntry.Validator = func(s string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || v <= 0 {
			return errors.New("enter a positive number")
		}
		return nil
	}

	unitSelect := widget.NewSelect(dosageUnits, nil)
	unitSelect.SetSelected(dosageUnits[0])

	timesEntry := widget.NewEntry()
	timesEntry.SetPlaceHolder("08:00, 20:00")

	weekdaySelect := widget.NewSelect(weekdayOptions, nil)
	weekdaySelect.SetSelected(weekdayOptions[0])
	weekdaySelect.Disable()

	maxDailyEntry := widget.NewEntry()
	maxDailyEntry.SetPlaceHolder("4")
	maxDailyEntry.Disable()

	minIntervalEntry := widget.NewEntry()
	minIntervalEntry.SetPlaceHolder("6")
	minIntervalEntry.Disable()

	labels := make([]string, len(frequencyOptions))
	for i, f := range frequencyOptions {
		labels[i] = f.label
	}
	frequency := frequencyOptions[0].value
	frequencySelect := widget.NewSelect(labels, func(selected string) {
		for _, f := range frequencyOptions {
			if f.label == selected {
				frequency = f.value
			}
		}
		if frequency == models.FrequencyWeekly {
			weekdaySelect.Enable()
		} else {
			weekdaySelect.Disable()
		}
		if frequency == models.FrequencyAsNeeded {
			maxDailyEntry.Enable()
			minIntervalEntry.Enable()
			timesEntry.Disable()
		} else {
			maxDailyEntry.Disable()
			minIntervalEntry.Disable()
			timesEntry.Enable()
		}
	})
	frequencySelect.SetSelected(labels[0])

	today := time.Now()
	startEntry := widget.NewEntry()
	startEntry.SetText(today.Format(models.DateLayout))
	startEntry.Validator = dateValidator

	endEntry := widget.NewEntry()
	endEntry.SetText(today.AddDate(0, 1, 0).Format(models.DateLayout))
	endEntry.Validator = dateValidator

	instructionsEntry := widget.NewMultiLineEntry()
	instructionsEntry.SetPlaceHolder(models.DefaultInstructions)
	instructionsEntry.SetMinRowsVisible(2)

	formItems := []*widget.FormItem{
		widget.NewFormItem("Name", nameEntry),
		widget.NewFormItem("Dosage", amountEntry),
		widget.NewFormItem("Unit", unitSelect),
		widget.NewFormItem("Frequency", frequencySelect),
		widget.NewFormItem("Times", timesEntry),
		widget.NewFormItem("Day", weekdaySelect),
		widget.NewFormItem("Max per day", maxDailyEntry),
		widget.NewFormItem("Hours between", minIntervalEntry),
		widget.NewFormItem("Start date", startEntry),
		widget.NewFormItem("End date", endEntry),
		widget.NewFormItem("Instructions", instructionsEntry),
	}

	addDialog := dialog.NewForm("Add Medication", "Add", "Cancel", formItems, func(confirmed bool) {
		if !confirmed {
			return
		}

		amount, _ := strconv.ParseFloat(strings.TrimSpace(amountEntry.Text), 64)
		m := models.Medication{
			Name:         strings.TrimSpace(nameEntry.Text),
			DosageAmount: amount,
			DosageUnit:   unitSelect.Selected,
			Frequency:    frequency,
			StartDate:    strings.TrimSpace(startEntry.Text),
			EndDate:      strings.TrimSpace(endEntry.Text),
			Instructions: strings.TrimSpace(instructionsEntry.Text),
			IsActive:     true,
		}
		switch frequency {
		case models.FrequencyAsNeeded:
			m.MaxDailyDoses, _ = strconv.Atoi(strings.TrimSpace(maxDailyEntry.Text))
			m.MinInterval, _ = strconv.Atoi(strings.TrimSpace(minIntervalEntry.Text))
		case models.FrequencyWeekly:
			m.WeeklyDay = weekdaySelect.Selected
			m.Times = parseTimes(timesEntry.Text)
		default:
			m.Times = parseTimes(timesEntry.Text)
		}

		if err := models.ValidateMedication(&m); err != nil {
			dialog.ShowError(err, sw.window)
			return
		}

		da := sw.da
		go func() {
			added, err := da.records.AddMedication(da.ctx, da.cfg.User, m)
			if err != nil {
				da.log.Error("Failed to add medication", zap.Error(err))
				fyne.Do(func() { dialog.ShowError(err, sw.window) })
				return
			}
			da.log.Info("Medication added", zap.String("medication_id", added.ID), zap.String("name", added.Name))
			da.toaster.Notify(models.FeedbackSuccess, added.Name+" added")
			fyne.Do(sw.reload)
			da.refreshTray()
		}()
	}, sw.window)

	addDialog.Resize(fyne.NewSize(560, 620))
	addDialog.Show()
}

func dateValidator(s string) error {
	if _, err := time.Parse(models.DateLayout, strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func (sw *SettingsWindow) showAddAppointmentDialog() {
	doctorEntry := widget.NewEntry()
	doctorEntry.SetPlaceHolder("e.g., Dr. Smith")
	doctorEntry.Validator = required("doctor")

	typeSelect := widget.NewSelect(appointmentTypes, nil)
	typeSelect.SetSelected(appointmentTypes[0])

	atEntry := widget.NewEntry()
	atEntry.SetText(time.Now().Add(24 * time.Hour).Truncate(time.Hour).Format(appointmentLayout))
	atEntry.Validator = func(s string) error {
		t, err := time.ParseInLocation(appointmentLayout, strings.TrimSpace(s), time.Local)
		if err != nil {
			return fmt.Errorf("use %s", appointmentLayout)
		}
		if t.Before(time.Now()) {
			return errors.New("must be in the future")
		}
		return nil
	}

	locationEntry := widget.NewEntry()
	notesEntry := widget.NewMultiLineEntry()
	notesEntry.SetMinRowsVisible(3)

	formItems := []*widget.FormItem{
		widget.NewFormItem("Doctor", doctorEntry),
		widget.NewFormItem("Type", typeSelect),
		widget.NewFormItem("When", atEntry),
		widget.NewFormItem("Location", locationEntry),
		widget.NewFormItem("Notes", notesEntry),
	}

	addDialog := dialog.NewForm("Add Appointment", "Add", "Cancel", formItems, func(confirmed bool) {
		if !confirmed {
			return
		}
		at, _ := time.ParseInLocation(appointmentLayout, strings.TrimSpace(atEntry.Text), time.Local)
		a := models.Appointment{
			DoctorName: strings.TrimSpace(doctorEntry.Text),
			Type:       typeSelect.Selected,
			At:         at,
			Location:   strings.TrimSpace(locationEntry.Text),
			Notes:      strings.TrimSpace(notesEntry.Text),
		}
		if err := models.ValidateAppointment(&a); err != nil {
			dialog.ShowError(err, sw.window)
			return
		}

		da := sw.da
		go func() {
			added, err := da.records.AddAppointment(da.ctx, da.cfg.User, a)
			if err != nil {
				da.log.Error("Failed to add appointment", zap.Error(err))
				fyne.Do(func() { dialog.ShowError(err, sw.window) })
				return
			}
			da.log.Info("Appointment added", zap.String("appointment_id", added.ID), zap.Time("at", added.At))
			if da.reminders.Schedule(added) {
				da.toaster.Notify(models.FeedbackSuccess, "Reminder set for "+added.At.Add(-models.ReminderLead).Format("Jan 2 3:04 PM"))
			}
			fyne.Do(sw.reload)
		}()
	}, sw.window)

	addDialog.Resize(fyne.NewSize(520, 420))
	addDialog.Show()
}

func (sw *SettingsWindow) showAddICalSourceDialog() {
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("e.g., Clinic Calendar")
	nameEntry.Validator = required("name")

	urlEntry := widget.NewMultiLineEntry()
	urlEntry.SetPlaceHolder("https://calendar.example.com/ical/...")
	urlEntry.Wrapping = fyne.TextWrapBreak
	urlEntry.SetMinRowsVisible(5)
	urlEntry.Validator = func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return errors.New("URL is required")
		}
		u, err := url.Parse(s)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.New("URL must start with http:// or https://")
		}
		for _, existing := range sw.sources.Items() {
			if existing.URL == s {
				return errors.New("this calendar URL has already been added")
			}
		}
		return nil
	}

	formItems := []*widget.FormItem{
		widget.NewFormItem("Name", nameEntry),
		widget.NewFormItem("URL", urlEntry),
	}

	addDialog := dialog.NewForm("Add iCal Source", "Add", "Cancel", formItems, func(confirmed bool) {
		if !confirmed {
			return
		}
		sw.sources.Append(models.ICalSource{
			ID:   uuid.NewString(),
			Name: strings.TrimSpace(nameEntry.Text),
			URL:  strings.TrimSpace(urlEntry.Text),
		})
	}, sw.window)

	addDialog.Resize(fyne.NewSize(600, 300))
	addDialog.Show()
}
