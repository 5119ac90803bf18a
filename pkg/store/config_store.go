package store

import (
	"encoding/json"

	"fyne.io/fyne/v2"
	"github.com/borgmon/dose-alarm/pkg/models"
)

const (
	defaultUpdateInterval  = 30
	defaultHoldTimeSeconds = 2
)

// ConfigStore handles desktop configuration persistence using fyne preferences
type ConfigStore struct {
	prefs fyne.Preferences
}

func NewConfigStore(prefs fyne.Preferences) *ConfigStore {
	return &ConfigStore{prefs: prefs}
}

// Load reads the configuration, filling unset values with defaults
func (cs *ConfigStore) Load() *models.Config {
	config := &models.Config{
		AutoStart:       cs.prefs.BoolWithFallback("auto_start", false),
		UpdateInterval:  cs.prefs.IntWithFallback("update_interval", defaultUpdateInterval),
		HoldTimeSeconds: cs.prefs.IntWithFallback("hold_time_seconds", defaultHoldTimeSeconds),
		ICalSources:     []models.ICalSource{},
	}
	if config.UpdateInterval <= 0 {
		config.UpdateInterval = defaultUpdateInterval
	}
	if config.HoldTimeSeconds <= 0 {
		config.HoldTimeSeconds = defaultHoldTimeSeconds
	}

	if raw := cs.prefs.String("ical_sources"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &config.ICalSources); err != nil {
			config.ICalSources = []models.ICalSource{}
		}
	}

	return config
}

func (cs *ConfigStore) Save(config *models.Config) {
	cs.prefs.SetBool("auto_start", config.AutoStart)
	cs.prefs.SetInt("update_interval", config.UpdateInterval)
	cs.prefs.SetInt("hold_time_seconds", config.HoldTimeSeconds)

	if raw, err := json.Marshal(config.ICalSources); err == nil {
		cs.prefs.SetString("ical_sources", string(raw))
	}
}
