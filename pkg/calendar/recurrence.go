package calendar

import (
	"fmt"
	"time"

	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/teambition/rrule-go"
)

// expand returns the occurrences of a recurring event that start in
// [from, until). EXDATEs are honoured.
func expand(ev vevent, from, until time.Time) ([]models.Appointment, error) {
	opt, err := rrule.StrToROption(ev.rrule)
	if err != nil {
		return nil, err
	}
	opt.Dtstart = ev.appt.At
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}

	set := &rrule.Set{}
	set.RRule(r)
	for _, ex := range ev.exdates {
		set.ExDate(ex)
	}

	out := []models.Appointment{}
	for _, at := range set.Between(from, until, true) {
		if !at.Before(until) {
			continue
		}
		a := ev.appt
		a.At = at
		a.ID = fmt.Sprintf("%s-%s", ev.appt.ID, at.UTC().Format(time.RFC3339))
		out = append(out, a)
	}
	return out, nil
}
