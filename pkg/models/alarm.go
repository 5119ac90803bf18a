package models

import (
	"fmt"
	"time"
)

// AlarmState tracks where an alarm is in its lifecycle
type AlarmState string

const (
	AlarmStateNone     AlarmState = "None"     // No alarm holds the current slot
	AlarmStateQueued   AlarmState = "Queued"   // Registered, waiting for the current slot
	AlarmStateActive   AlarmState = "Active"   // Ringing: notification, sound and modal are live
	AlarmStateSnoozed  AlarmState = "Snoozed"  // Silenced until the snooze interval elapses
	AlarmStateResolved AlarmState = "Resolved" // Taken, missed or stopped
)

// Disposition records how an alarm was resolved
type Disposition string

const (
	DispositionTaken   Disposition = "taken"
	DispositionMissed  Disposition = "missed"
	DispositionStopped Disposition = "stopped"
)

// NotificationHandle identifies a delivered system notification so it can be retracted
type NotificationHandle string

// DueSignal is emitted by the poller when a dose time falls inside the detection window
type DueSignal struct {
	Medication  Medication // Snapshot as seen by the poller
	ScheduledAt time.Time  // Today's instant for the dose time
}

// AlarmID returns the deterministic alarm identity for a medication dose
func AlarmID(medicationID string, scheduledAt time.Time) string {
	return fmt.Sprintf("%s-%d", medicationID, scheduledAt.UnixMilli())
}

// Alarm is one in-flight dose reminder
type Alarm struct {
	ID          string     // medicationID-scheduledUnixMilli
	Medication  Medication // Snapshot taken when the alarm triggered
	ScheduledAt time.Time  // When the dose was due
	TriggeredAt time.Time  // When the alarm first rang
	SnoozeCount int        // Snoozes consumed so far
	Snoozed     bool       // True while waiting for the snooze interval
	Escalated   bool       // Snooze limit reached, waiting for taken/missed
	State       AlarmState // Current lifecycle state
	Test        bool       // Synthetic alarm, never persisted
}

// AlarmSnapshot is the read-only view handed to sinks (modal, notifier)
type AlarmSnapshot struct {
	AlarmID      string
	MedicationID string
	Name         string
	Dosage       string    // "100 mg"
	Instructions string
	Image        string
	ScheduledAt  time.Time
	SnoozeCount  int
	MaxSnoozes   int
	CanSnooze    bool
	Escalated    bool
	Test         bool
}

// DefaultInstructions is shown when a medication has none
const DefaultInstructions = "Take as prescribed"

// Snapshot builds the sink view of the alarm under the given settings
func (a *Alarm) Snapshot(settings Settings) AlarmSnapshot {
	instructions := a.Medication.Instructions
	if instructions == "" {
		instructions = DefaultInstructions
	}

	return AlarmSnapshot{
		AlarmID:      a.ID,
		MedicationID: a.Medication.ID,
		Name:         a.Medication.Name,
		Dosage:       a.Medication.DosageLabel(),
		Instructions: instructions,
		Image:        a.Medication.Image,
		ScheduledAt:  a.ScheduledAt,
		SnoozeCount:  a.SnoozeCount,
		MaxSnoozes:   settings.MaxSnoozes,
		CanSnooze:    a.SnoozeCount < settings.MaxSnoozes,
		Escalated:    a.Escalated,
		Test:         a.Test,
	}
}
