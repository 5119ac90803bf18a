package schedule

import (
	"time"

	"github.com/borgmon/dose-alarm/pkg/models"
)

// DefaultWindow is how long after a dose time the poller still treats it as due
const DefaultWindow = 60 * time.Second

// DueSignals returns one signal per dose time whose instant today lies in
// [now-window, now]. Inactive medications, days outside the date range,
// weekly medications on other weekdays and as-needed medications never match.
func DueSignals(meds []models.Medication, now time.Time, window time.Duration) []models.DueSignal {
	signals := []models.DueSignal{}
	for _, med := range meds {
		if !med.ActiveOn(now) || !med.ScheduledOn(now) {
			continue
		}
		for _, tod := range med.Times {
			at, err := models.At(now, tod)
			if err != nil {
				continue
			}
			diff := now.Sub(at)
			if diff >= 0 && diff <= window {
				signals = append(signals, models.DueSignal{Medication: med, ScheduledAt: at})
			}
		}
	}
	return signals
}
