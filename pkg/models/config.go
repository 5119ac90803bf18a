package models

// Config holds desktop application configuration kept in fyne preferences
type Config struct {
	AutoStart       bool         `json:"auto_start"`
	ICalSources     []ICalSource `json:"ical_sources"`
	UpdateInterval  int          `json:"update_interval"`   // minutes between appointment syncs
	HoldTimeSeconds int          `json:"hold_time_seconds"` // stop button hold time
}

// ICalSource represents a named calendar feed of appointments
type ICalSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// HasCalendars reports whether any appointment feed is configured
func (c *Config) HasCalendars() bool {
	return len(c.ICalSources) > 0
}

// Validate checks if the iCal source has required fields
func (s *ICalSource) Validate() bool {
	return s.Name != "" && s.URL != ""
}
