package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used for medication start/end dates
const DateLayout = "2006-01-02"

// TimeOfDayLayout is the "HH:MM" dose time format
const TimeOfDayLayout = "15:04"

// ErrNotFound is returned by stores when a record does not exist
var ErrNotFound = errors.New("record not found")

// Frequency values as entered on the medication form
const (
	FrequencyWeekly   = "weekly"
	FrequencyAsNeeded = "as-needed"
)

// Medication is a user's prescription with its dose schedule
type Medication struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	DosageAmount  float64    `json:"dosageAmount"`
	DosageUnit    string     `json:"dosageUnit"`
	Frequency     string     `json:"frequency"`               // "1".."4" daily doses, "weekly" or "as-needed"
	Times         []string   `json:"times"`                   // "HH:MM" local dose times
	WeeklyDay     string     `json:"weeklyDay,omitempty"`     // "monday".."sunday" when weekly
	MaxDailyDoses int        `json:"maxDailyDoses,omitempty"` // as-needed only
	MinInterval   int        `json:"minInterval,omitempty"`   // hours between as-needed doses
	StartDate     string     `json:"startDate"`               // YYYY-MM-DD, inclusive
	EndDate       string     `json:"endDate"`                 // YYYY-MM-DD, inclusive
	Instructions  string     `json:"instructions"`
	Image         string     `json:"image,omitempty"`
	IsActive      bool       `json:"isActive"`
	MissedDoses   int        `json:"missedDoses"`
	TotalDoses    int        `json:"totalDoses"`
	LastTaken     *time.Time `json:"lastTaken,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// MedicationPatch carries a partial update; nil fields are left unchanged
type MedicationPatch struct {
	LastTaken       *time.Time
	TotalDosesDelta int
	MissedDelta     int
	IsActive        *bool
	Instructions    *string
}

// Apply merges the patch into m
func (p MedicationPatch) Apply(m *Medication) {
	if p.LastTaken != nil {
		t := *p.LastTaken
		m.LastTaken = &t
	}
	m.TotalDoses += p.TotalDosesDelta
	m.MissedDoses += p.MissedDelta
	if p.IsActive != nil {
		m.IsActive = *p.IsActive
	}
	if p.Instructions != nil {
		m.Instructions = *p.Instructions
	}
}

// DosageLabel renders "amount unit", e.g. "100 mg"
func (m Medication) DosageLabel() string {
	amount := strconv.FormatFloat(m.DosageAmount, 'f', -1, 64)
	if m.DosageUnit == "" {
		return amount
	}
	return amount + " " + m.DosageUnit
}

// IsWeekly reports whether the medication is taken once a week
func (m Medication) IsWeekly() bool {
	return m.Frequency == FrequencyWeekly
}

// IsAsNeeded reports whether the medication has no fixed schedule
func (m Medication) IsAsNeeded() bool {
	return m.Frequency == FrequencyAsNeeded
}

// ActiveOn reports whether day falls inside the medication's date range.
// A missing or unparsable bound is treated as open.
func (m Medication) ActiveOn(day time.Time) bool {
	if !m.IsActive {
		return false
	}

	d := day.Format(DateLayout)
	if m.StartDate != "" && d < normalizeDate(m.StartDate) {
		return false
	}
	if m.EndDate != "" && d > normalizeDate(m.EndDate) {
		return false
	}
	return true
}

// ScheduledOn reports whether a dose is expected on day's weekday
func (m Medication) ScheduledOn(day time.Time) bool {
	if m.IsAsNeeded() {
		return false
	}
	if !m.IsWeekly() {
		return true
	}
	wd, err := ParseWeekday(m.WeeklyDay)
	if err != nil {
		return false
	}
	return day.Weekday() == wd
}

// normalizeDate trims a timestamp down to its calendar day so that
// "2024-01-05T00:00:00Z" compares like "2024-01-05".
func normalizeDate(s string) string {
	if len(s) > len(DateLayout) {
		return s[:len(DateLayout)]
	}
	return s
}

// ParseTimeOfDay parses "HH:MM" into hour and minute
func ParseTimeOfDay(s string) (int, int, error) {
	t, err := time.Parse(TimeOfDayLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid dose time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// At returns day's instant for the "HH:MM" dose time in day's location
func At(day time.Time, timeOfDay string) (time.Time, error) {
	h, m, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location()), nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts full English weekday names in any case
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return time.Sunday, fmt.Errorf("invalid weekday %q", s)
	}
	return wd, nil
}
