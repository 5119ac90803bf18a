package models

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	z "github.com/Oudwins/zog"
)

var (
	timeOfDayRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	dateRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

var medicationSchema = z.Struct(z.Shape{
	"Name":         z.String().Trim().Required(z.Message("medication name is required")),
	"DosageAmount": z.Float64().Required(z.Message("valid dosage amount is required")).GT(0, z.Message("valid dosage amount is required")),
	"DosageUnit":   z.String().Trim(),
	"StartDate":    z.String().Required(z.Message("start date is required")).Match(dateRe, z.Message("start date must be YYYY-MM-DD")),
	"EndDate":      z.String().Required(z.Message("end date is required")).Match(dateRe, z.Message("end date must be YYYY-MM-DD")),
	"Times":        z.Slice(z.String().Match(timeOfDayRe, z.Message("dose times must be HH:MM"))),
})

var appointmentSchema = z.Struct(z.Shape{
	"DoctorName": z.String().Trim().Required(z.Message("doctor name is required")),
	"At":         z.Time().Required(z.Message("appointment time is required")),
})

var settingsSchema = z.Struct(z.Shape{
	"AlarmDuration":  z.Int().Required(z.Message("alarm duration is required")).GTE(5, z.Message("alarm duration must be at least 5 seconds")).LTE(300, z.Message("alarm duration must be at most 300 seconds")),
	"SnoozeInterval": z.Int().Required(z.Message("snooze interval is required")).GTE(1, z.Message("snooze interval must be at least 1 minute")).LTE(60, z.Message("snooze interval must be at most 60 minutes")),
	"MaxSnoozes":     z.Int().Required(z.Message("max snoozes is required")).GTE(1, z.Message("max snoozes must be at least 1")).LTE(10, z.Message("max snoozes must be at most 10")),
})

// ValidateMedication checks a medication the way the entry form does
func ValidateMedication(m *Medication) error {
	if issues := medicationSchema.Validate(m); len(issues) > 0 {
		return issuesError(issues)
	}

	start, err := time.Parse(DateLayout, normalizeDate(m.StartDate))
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	end, err := time.Parse(DateLayout, normalizeDate(m.EndDate))
	if err != nil {
		return fmt.Errorf("end date: %w", err)
	}
	if !end.After(start) {
		return errors.New("end date must be after start date")
	}

	switch {
	case m.IsAsNeeded():
		if m.MaxDailyDoses <= 0 || m.MinInterval <= 0 {
			return errors.New("as-needed medications need a max daily dose count and a minimum interval")
		}
	case m.IsWeekly():
		if _, err := ParseWeekday(m.WeeklyDay); err != nil {
			return errors.New("weekly medications need a day of the week")
		}
		if len(m.Times) != 1 {
			return errors.New("weekly medications need exactly one dose time")
		}
	default:
		n, err := strconv.Atoi(m.Frequency)
		if err != nil || n < 1 {
			return fmt.Errorf("unknown frequency %q", m.Frequency)
		}
		if len(m.Times) != n {
			return fmt.Errorf("expected %d dose times, got %d", n, len(m.Times))
		}
	}

	return nil
}

// ValidateAppointment checks the fields a reminder needs
func ValidateAppointment(a *Appointment) error {
	if issues := appointmentSchema.Validate(a); len(issues) > 0 {
		return issuesError(issues)
	}
	return nil
}

// ValidateSettings checks alarm settings before they are saved
func ValidateSettings(s *Settings) error {
	if issues := settingsSchema.Validate(s); len(issues) > 0 {
		return issuesError(issues)
	}
	return nil
}

func issuesError(issues z.ZogIssueMap) error {
	msgs := []string{}
	for path, list := range issues {
		if path == "$first" {
			continue
		}
		for _, issue := range list {
			msgs = append(msgs, issue.Message)
		}
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}
