package models

import "time"

// MaxHistoryEntries caps a user's dose history; the oldest entries are evicted first
const MaxHistoryEntries = 1000

// HistoryAction is the recorded outcome of a dose
type HistoryAction string

const (
	HistoryActionTaken  HistoryAction = "taken"
	HistoryActionMissed HistoryAction = "missed"
)

// HistoryEntry is one append-only dose record
type HistoryEntry struct {
	ID             string        `json:"id"`
	Timestamp      time.Time     `json:"timestamp"`
	MedicationID   string        `json:"medicationId"`
	MedicationName string        `json:"medicationName"`
	Action         HistoryAction `json:"action"`
	ScheduledTime  time.Time     `json:"scheduledTime"`
	ActualTime     time.Time     `json:"actualTime"`
	Dosage         string        `json:"dosage"`
	Notes          string        `json:"notes"`
}

// AppendHistory appends entry and evicts from the front past MaxHistoryEntries
func AppendHistory(history []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	history = append(history, entry)
	if over := len(history) - MaxHistoryEntries; over > 0 {
		history = append([]HistoryEntry(nil), history[over:]...)
	}
	return history
}

// TakenOn counts taken entries whose actual time falls on day
func TakenOn(history []HistoryEntry, day time.Time) int {
	y, m, d := day.Date()
	count := 0
	for _, h := range history {
		if h.Action != HistoryActionTaken {
			continue
		}
		hy, hm, hd := h.ActualTime.In(day.Location()).Date()
		if hy == y && hm == m && hd == d {
			count++
		}
	}
	return count
}
