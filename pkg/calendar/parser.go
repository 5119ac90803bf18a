package calendar

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/emersion/go-ical"
	"go.uber.org/zap"
)

// DefaultType is used when an event carries no CATEGORIES
const DefaultType = "Appointment"

var dateTimeLayouts = []string{
	"20060102T150405",
	"20060102T150405Z",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// vevent is a decoded VEVENT before window filtering
type vevent struct {
	appt    models.Appointment
	end     time.Time
	allDay  bool
	rrule   string
	exdates []time.Time
}

// Parse decodes an iCalendar stream and returns the appointments starting
// in [from, until). Recurring events are expanded, cancelled and all-day
// events dropped, duplicates removed.
func Parse(r io.Reader, from, until time.Time) ([]models.Appointment, error) {
	log := logger.GetLoggerWith(logger.NameCalendar)
	dec := ical.NewDecoder(r)

	appts := []models.Appointment{}
	seen := newDedup()
	stats := &filterStats{}

	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode calendar: %w", err)
		}

		for _, comp := range cal.Children {
			stats.components++
			if comp.Name != ical.CompEvent {
				continue
			}
			stats.events++

			ev, err := parseEvent(comp, from.Location())
			if err != nil {
				stats.missingTime++
				log.Debug("Skipping event", zap.String("uid", ev.appt.ID), zap.Error(err))
				continue
			}

			instances := []models.Appointment{ev.appt}
			if ev.rrule != "" {
				instances, err = expand(ev, from, until)
				if err != nil {
					log.Warn("Unsupported recurrence rule",
						zap.String("uid", ev.appt.ID),
						zap.String("rrule", ev.rrule),
						zap.Error(err))
					continue
				}
			}

			for _, a := range instances {
				if !include(ev, a, from, until, stats) {
					continue
				}
				if seen.duplicate(a) {
					stats.duplicates++
					continue
				}
				appts = append(appts, a)
			}
		}
	}

	stats.log(log, len(appts))
	return appts, nil
}

func parseEvent(comp *ical.Component, loc *time.Location) (vevent, error) {
	normalizeTimezones(comp)

	var ev vevent
	a := &ev.appt

	if p := comp.Props.Get(ical.PropUID); p != nil {
		a.ID = p.Value
	}
	summary := ""
	if p := comp.Props.Get(ical.PropSummary); p != nil {
		summary = strings.TrimSpace(p.Value)
	}
	a.DoctorName = summary
	a.Type = DefaultType
	if p := comp.Props.Get(ical.PropOrganizer); p != nil {
		if cn := strings.TrimSpace(p.Params.Get(ical.ParamCommonName)); cn != "" {
			a.DoctorName = cn
			if summary != "" {
				a.Type = summary
			}
		}
	}
	if p := comp.Props.Get(ical.PropCategories); p != nil && p.Value != "" {
		a.Type = strings.TrimSpace(strings.Split(p.Value, ",")[0])
	}
	if p := comp.Props.Get(ical.PropLocation); p != nil {
		a.Location = p.Value
	}
	if p := comp.Props.Get(ical.PropDescription); p != nil {
		a.Notes = p.Value
	}
	if p := comp.Props.Get(ical.PropStatus); p != nil {
		a.Status = strings.ToUpper(p.Value)
	}
	if a.Status != models.AppointmentStatusCancelled && isCancelledTitle(summary) {
		a.Status = models.AppointmentStatusCancelled
	}

	start := comp.Props.Get(ical.PropDateTimeStart)
	if start == nil {
		return ev, errors.New("event has no DTSTART")
	}
	ev.allDay = start.ValueType() == ical.ValueDate
	var err error
	if a.At, err = parseDateTime(start, loc); err != nil {
		return ev, err
	}
	if end := comp.Props.Get(ical.PropDateTimeEnd); end != nil {
		if ev.end, err = parseDateTime(end, loc); err != nil {
			return ev, err
		}
	}

	if p := comp.Props.Get(ical.PropRecurrenceRule); p != nil {
		ev.rrule = p.Value
	}
	for _, p := range comp.Props.Values(ical.PropExceptionDates) {
		zone := propLocation(&p, loc)
		for _, v := range strings.Split(p.Value, ",") {
			if t, err := parseValue(v, zone); err == nil {
				ev.exdates = append(ev.exdates, t)
			}
		}
	}
	return ev, nil
}

func parseDateTime(prop *ical.Prop, loc *time.Location) (time.Time, error) {
	zone := propLocation(prop, loc)
	if t, err := prop.DateTime(zone); err == nil {
		return t, nil
	}
	return parseValue(prop.Value, zone)
}

func parseValue(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse datetime value %q", value)
}

var (
	nonAlnum      = regexp.MustCompile(`[^a-z0-9]+`)
	cancelledWord = regexp.MustCompile(`^cancel+ed`)
)

func isCancelledTitle(title string) bool {
	return cancelledWord.MatchString(nonAlnum.ReplaceAllString(strings.ToLower(title), ""))
}
