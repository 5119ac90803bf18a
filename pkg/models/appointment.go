package models

import "time"

// Appointment is a doctor's visit, entered by hand or imported from iCal
type Appointment struct {
	ID         string    `json:"id"`
	DoctorName string    `json:"doctorName"`
	Type       string    `json:"type"`
	At         time.Time `json:"at"`
	Location   string    `json:"location,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Status     string    `json:"status,omitempty"`   // CONFIRMED, CANCELLED
	SourceID   string    `json:"sourceId,omitempty"` // iCal source when imported
}

// AppointmentStatusCancelled marks appointments that never get reminders
const AppointmentStatusCancelled = "CANCELLED"

// ReminderLead is how long before an appointment its reminder fires
const ReminderLead = time.Hour

// UserData is everything stored for one user
type UserData struct {
	Username          string         `json:"username"`
	Medications       []Medication   `json:"medications"`
	Appointments      []Appointment  `json:"appointments"`
	MedicationHistory []HistoryEntry `json:"medicationHistory"`
}

// FeedbackLevel selects how a user-facing message is styled
type FeedbackLevel string

const (
	FeedbackInfo    FeedbackLevel = "info"
	FeedbackSuccess FeedbackLevel = "success"
	FeedbackWarning FeedbackLevel = "warning"
	FeedbackError   FeedbackLevel = "error"
)
