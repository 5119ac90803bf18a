// Package export writes a user's records as JSON or CSV and reads them
// back from JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/google/uuid"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"

	Version = "1.0"
)

// ErrInvalidFormat is returned for imports missing a username or a
// medications array.
var ErrInvalidFormat = errors.New("invalid data format")

// Document is the JSON export layout
type Document struct {
	Username          string                `json:"username"`
	Medications       []models.Medication   `json:"medications"`
	Appointments      []models.Appointment  `json:"appointments"`
	MedicationHistory []models.HistoryEntry `json:"medicationHistory"`
	ExportDate        time.Time             `json:"exportDate"`
	Version           string                `json:"version"`
}

func NewDocument(data models.UserData, now time.Time) Document {
	return Document{
		Username:          data.Username,
		Medications:       orEmpty(data.Medications),
		Appointments:      orEmpty(data.Appointments),
		MedicationHistory: orEmpty(data.MedicationHistory),
		ExportDate:        now.UTC(),
		Version:           Version,
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Write encodes data in format ("json" or "csv") to w
func Write(w io.Writer, format string, data models.UserData, now time.Time) error {
	doc := NewDocument(data, now)
	switch strings.ToLower(format) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatCSV:
		return writeCSV(w, doc)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func writeCSV(w io.Writer, doc Document) error {
	sections := []struct {
		title  string
		header []string
		rows   [][]string
	}{
		{
			title:  "MEDICATIONS",
			header: []string{"Name", "Dosage", "Frequency", "Times", "Instructions", "Start Date", "End Date", "Created At"},
			rows:   medicationRows(doc.Medications),
		},
		{
			title:  "APPOINTMENTS",
			header: []string{"Date", "Time", "Doctor", "Type", "Notes"},
			rows:   appointmentRows(doc.Appointments),
		},
		{
			title:  "HISTORY",
			header: []string{"Timestamp", "Medication", "Action", "Scheduled", "Actual", "Dosage", "Notes"},
			rows:   historyRows(doc.MedicationHistory),
		},
	}

	for i, s := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{s.title}); err != nil {
			return err
		}
		if err := cw.Write(s.header); err != nil {
			return err
		}
		if err := cw.WriteAll(s.rows); err != nil {
			return fmt.Errorf("write %s: %w", strings.ToLower(s.title), err)
		}
	}
	return nil
}

func medicationRows(meds []models.Medication) [][]string {
	rows := make([][]string, 0, len(meds))
	for _, m := range meds {
		rows = append(rows, []string{
			m.Name,
			m.DosageLabel(),
			m.Frequency,
			strings.Join(m.Times, ";"),
			m.Instructions,
			m.StartDate,
			m.EndDate,
			formatTime(m.CreatedAt),
		})
	}
	return rows
}

func appointmentRows(appts []models.Appointment) [][]string {
	rows := make([][]string, 0, len(appts))
	for _, a := range appts {
		at := a.At.Local()
		rows = append(rows, []string{
			at.Format(models.DateLayout),
			at.Format(models.TimeOfDayLayout),
			a.DoctorName,
			a.Type,
			a.Notes,
		})
	}
	return rows
}

func historyRows(history []models.HistoryEntry) [][]string {
	rows := make([][]string, 0, len(history))
	for _, h := range history {
		rows = append(rows, []string{
			formatTime(h.Timestamp),
			h.MedicationName,
			string(h.Action),
			formatTime(h.ScheduledTime),
			formatTime(h.ActualTime),
			h.Dosage,
			h.Notes,
		})
	}
	return rows
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// importDocument tells a missing medications key apart from an empty one
type importDocument struct {
	Username          string                `json:"username"`
	Medications       *[]models.Medication  `json:"medications"`
	Appointments      []models.Appointment  `json:"appointments"`
	MedicationHistory []models.HistoryEntry `json:"medicationHistory"`
}

// Read decodes a JSON export. Every medication and appointment is
// validated; missing ids are generated.
func Read(r io.Reader, now time.Time) (models.UserData, error) {
	var doc importDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return models.UserData{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if strings.TrimSpace(doc.Username) == "" || doc.Medications == nil {
		return models.UserData{}, ErrInvalidFormat
	}

	data := models.UserData{
		Username:          doc.Username,
		Medications:       *doc.Medications,
		Appointments:      orEmpty(doc.Appointments),
		MedicationHistory: orEmpty(doc.MedicationHistory),
	}

	var errs []error
	for i := range data.Medications {
		m := &data.Medications[i]
		if err := models.ValidateMedication(m); err != nil {
			errs = append(errs, fmt.Errorf("medication %d (%s): %w", i+1, label(m.Name, m.ID), err))
			continue
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
	}
	for i := range data.Appointments {
		a := &data.Appointments[i]
		if err := models.ValidateAppointment(a); err != nil {
			errs = append(errs, fmt.Errorf("appointment %d (%s): %w", i+1, label(a.DoctorName, a.ID), err))
			continue
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
	}
	for i := range data.MedicationHistory {
		if data.MedicationHistory[i].ID == "" {
			data.MedicationHistory[i].ID = uuid.NewString()
		}
	}
	if len(errs) > 0 {
		return models.UserData{}, errors.Join(errs...)
	}
	return data, nil
}

func label(name, id string) string {
	if name != "" {
		return name
	}
	if id != "" {
		return id
	}
	return "unnamed"
}
