package schedule

import (
	"sort"
	"time"

	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/teambition/rrule-go"
)

// Dose is one expected intake of a medication
type Dose struct {
	Medication models.Medication
	At         time.Time
}

var rruleWeekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Recurrence builds one rule per dose time of a medication in loc.
// It returns nil for medications without a fixed schedule.
func Recurrence(med models.Medication, loc *time.Location) []*rrule.RRule {
	if !med.IsActive || med.IsAsNeeded() || len(med.Times) == 0 {
		return nil
	}

	startDay, err := time.ParseInLocation(models.DateLayout, dateOnly(med.StartDate), loc)
	if err != nil {
		startDay = time.Date(2000, 1, 1, 0, 0, 0, 0, loc)
	}
	var until time.Time
	if endDay, err := time.ParseInLocation(models.DateLayout, dateOnly(med.EndDate), loc); err == nil {
		until = endDay.Add(24*time.Hour - time.Second)
	}

	opt := rrule.ROption{Freq: rrule.DAILY, Until: until}
	if med.IsWeekly() {
		wd, err := models.ParseWeekday(med.WeeklyDay)
		if err != nil {
			return nil
		}
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{rruleWeekdays[wd]}
	}

	var rules []*rrule.RRule
	for _, tod := range med.Times {
		dtstart, err := models.At(startDay, tod)
		if err != nil {
			continue
		}
		o := opt
		o.Dtstart = dtstart
		r, err := rrule.NewRRule(o)
		if err != nil {
			continue
		}
		rules = append(rules, r)
	}
	return rules
}

// Upcoming lists doses in (from, until], soonest first
func Upcoming(meds []models.Medication, from, until time.Time) []Dose {
	doses := []Dose{}
	for _, med := range meds {
		for _, r := range Recurrence(med, from.Location()) {
			for _, at := range r.Between(from, until, true) {
				if at.After(from) {
					doses = append(doses, Dose{Medication: med, At: at})
				}
			}
		}
	}
	sort.SliceStable(doses, func(i, j int) bool {
		return doses[i].At.Before(doses[j].At)
	})
	return doses
}

// UpcomingToday lists at most limit doses between now and midnight
func UpcomingToday(meds []models.Medication, now time.Time, limit int) []Dose {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	doses := Upcoming(meds, now, midnight.Add(-time.Nanosecond))
	if limit > 0 && len(doses) > limit {
		doses = doses[:limit]
	}
	return doses
}

// NextDose returns the first dose strictly after t
func NextDose(med models.Medication, t time.Time) (time.Time, bool) {
	var next time.Time
	for _, r := range Recurrence(med, t.Location()) {
		at := r.After(t, false)
		if !at.IsZero() && (next.IsZero() || at.Before(next)) {
			next = at
		}
	}
	return next, !next.IsZero()
}

func dateOnly(s string) string {
	if len(s) > len(models.DateLayout) {
		return s[:len(models.DateLayout)]
	}
	return s
}
