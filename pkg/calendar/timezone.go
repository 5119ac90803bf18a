package calendar

import (
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// Outlook exports Windows zone names in TZID
var windowsToIANA = map[string]string{
	"Pacific Standard Time":        "America/Los_Angeles",
	"Mountain Standard Time":       "America/Denver",
	"Central Standard Time":        "America/Chicago",
	"Eastern Standard Time":        "America/New_York",
	"Atlantic Standard Time":       "America/Halifax",
	"Alaskan Standard Time":        "America/Anchorage",
	"Hawaiian Standard Time":       "Pacific/Honolulu",
	"GMT Standard Time":            "Europe/London",
	"W. Europe Standard Time":      "Europe/Berlin",
	"Central Europe Standard Time": "Europe/Paris",
	"China Standard Time":          "Asia/Shanghai",
	"Tokyo Standard Time":          "Asia/Tokyo",
	"India Standard Time":          "Asia/Kolkata",
	"AUS Eastern Standard Time":    "Australia/Sydney",
}

var datedProps = []string{
	ical.PropDateTimeStart,
	ical.PropDateTimeEnd,
	ical.PropExceptionDates,
	ical.PropRecurrenceDates,
}

// normalizeTimezones rewrites Windows TZIDs on every date property of comp
func normalizeTimezones(comp *ical.Component) {
	for _, name := range datedProps {
		for _, prop := range comp.Props.Values(name) {
			tzid := prop.Params.Get(ical.ParamTimezoneID)
			if iana, ok := windowsToIANA[tzid]; ok {
				prop.Params.Set(ical.ParamTimezoneID, iana)
			}
		}
	}
}

// propLocation resolves the zone a date property is expressed in,
// falling back to fallback for floating times.
func propLocation(prop *ical.Prop, fallback *time.Location) *time.Location {
	if strings.HasSuffix(prop.Value, "Z") {
		return time.UTC
	}
	tzid := prop.Params.Get(ical.ParamTimezoneID)
	if tzid == "" {
		return fallback
	}
	if iana, ok := windowsToIANA[tzid]; ok {
		tzid = iana
	}
	if loc, err := time.LoadLocation(tzid); err == nil {
		return loc
	}
	return fallback
}
