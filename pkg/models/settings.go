package models

import "time"

const (
	DefaultAlarmDurationSeconds = 30
	DefaultSnoozeIntervalMins   = 5
	DefaultMaxSnoozes           = 3
)

// Settings are the user-adjustable alarm parameters
type Settings struct {
	AlarmDuration        int  `json:"alarmDuration"`        // seconds an alarm rings before auto-snooze
	SnoozeInterval       int  `json:"snoozeInterval"`       // minutes between snooze and re-show
	MaxSnoozes           int  `json:"maxSnoozes"`           // snoozes allowed before escalation
	NotificationsEnabled bool `json:"notificationsEnabled"`
}

// DefaultSettings returns the factory alarm settings
func DefaultSettings() Settings {
	return Settings{
		AlarmDuration:        DefaultAlarmDurationSeconds,
		SnoozeInterval:       DefaultSnoozeIntervalMins,
		MaxSnoozes:           DefaultMaxSnoozes,
		NotificationsEnabled: true,
	}
}

// Normalize replaces unset or non-positive values with defaults
func (s Settings) Normalize() Settings {
	if s.AlarmDuration <= 0 {
		s.AlarmDuration = DefaultAlarmDurationSeconds
	}
	if s.SnoozeInterval <= 0 {
		s.SnoozeInterval = DefaultSnoozeIntervalMins
	}
	if s.MaxSnoozes <= 0 {
		s.MaxSnoozes = DefaultMaxSnoozes
	}
	return s
}

func (s Settings) AlarmDurationDuration() time.Duration {
	return time.Duration(s.AlarmDuration) * time.Second
}

func (s Settings) SnoozeIntervalDuration() time.Duration {
	return time.Duration(s.SnoozeInterval) * time.Minute
}
