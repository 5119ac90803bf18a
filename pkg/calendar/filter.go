package calendar

import (
	"time"

	"github.com/borgmon/dose-alarm/pkg/models"
	"go.uber.org/zap"
)

type filterStats struct {
	components    int
	events        int
	missingTime   int
	cancelled     int
	allDay        int
	outsideWindow int
	duplicates    int
}

func (s *filterStats) log(log *zap.Logger, included int) {
	filtered := s.missingTime + s.cancelled + s.allDay + s.outsideWindow + s.duplicates
	log.Info("Parsed calendar",
		zap.Int("components", s.components),
		zap.Int("events", s.events),
		zap.Int("included", included),
		zap.Int("filtered", filtered))
	if filtered > 0 {
		log.Debug("Filtered breakdown",
			zap.Int("cancelled", s.cancelled),
			zap.Int("all_day", s.allDay),
			zap.Int("outside_window", s.outsideWindow),
			zap.Int("missing_time", s.missingTime),
			zap.Int("duplicates", s.duplicates))
	}
}

func include(ev vevent, a models.Appointment, from, until time.Time, stats *filterStats) bool {
	switch {
	case a.Status == models.AppointmentStatusCancelled:
		stats.cancelled++
		return false
	case ev.allDay || spansDays(a.At, ev.end):
		stats.allDay++
		return false
	case a.At.Before(from) || !a.At.Before(until):
		stats.outsideWindow++
		return false
	}
	return true
}

func spansDays(start, end time.Time) bool {
	if end.IsZero() {
		return false
	}
	return start.Format(models.DateLayout) != end.Format(models.DateLayout) && end.Sub(start) >= 24*time.Hour
}

// dedup drops repeated UIDs and repeated doctor+time pairs
type dedup struct {
	ids  map[string]bool
	keys map[string]bool
}

func newDedup() *dedup {
	return &dedup{ids: map[string]bool{}, keys: map[string]bool{}}
}

func (d *dedup) duplicate(a models.Appointment) bool {
	key := a.DoctorName + "|" + a.At.UTC().Format(time.RFC3339)
	if (a.ID != "" && d.ids[a.ID]) || d.keys[key] {
		return true
	}
	if a.ID != "" {
		d.ids[a.ID] = true
	}
	d.keys[key] = true
	return false
}
