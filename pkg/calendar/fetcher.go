// Package calendar imports doctor's appointments from iCal feeds.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/models"
	"go.uber.org/zap"
)

const (
	// DefaultHorizon is how far ahead a sync imports appointments
	DefaultHorizon = 14 * 24 * time.Hour

	maxFeedSize = 10 << 20
)

// Fetcher downloads and parses iCal sources
type Fetcher struct {
	client *http.Client
	log    *zap.Logger
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{
		client: client,
		log:    logger.GetLoggerWith(logger.NameCalendar),
	}
}

// Fetch returns the appointments of source starting in [from, until),
// tagged with the source id.
func (f *Fetcher) Fetch(ctx context.Context, source models.ICalSource, from, until time.Time) ([]models.Appointment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", source.Name, err)
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", source.Name, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source.Name, err)
	}
	if err := validateFormat(string(body)); err != nil {
		return nil, fmt.Errorf("%s: %w", source.Name, err)
	}

	appts, err := Parse(strings.NewReader(string(body)), from, until)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source.Name, err)
	}

	generated := 0
	for i := range appts {
		appts[i].SourceID = source.ID
		if appts[i].ID == "" {
			appts[i].ID = source.ID + "-" + appts[i].At.UTC().Format(time.RFC3339) + "-" + appts[i].DoctorName
			generated++
		}
	}
	if generated > 0 {
		f.log.Debug("Generated fallback ids for events without UID",
			zap.String("source", source.Name), zap.Int("count", generated))
	}
	return appts, nil
}

// FetchAll fetches every source; a failing source is logged and skipped.
func (f *Fetcher) FetchAll(ctx context.Context, sources []models.ICalSource, from, until time.Time) ([]models.Appointment, error) {
	var (
		all  []models.Appointment
		errs []error
	)
	for _, src := range sources {
		appts, err := f.Fetch(ctx, src, from, until)
		if err != nil {
			f.log.Warn("Calendar sync failed", zap.String("source", src.Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		f.log.Info("Calendar synced", zap.String("source", src.Name), zap.Int("appointments", len(appts)))
		all = append(all, appts...)
	}
	if len(errs) == len(sources) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return all, nil
}

func validateFormat(body string) error {
	trimmed := strings.TrimSpace(body)
	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "<!DOCTYPE") || strings.HasPrefix(upper, "<HTML") {
		return errors.New("received HTML instead of iCalendar data, check if the URL requires authentication")
	}
	if !strings.HasPrefix(trimmed, "BEGIN:VCALENDAR") {
		preview := trimmed
		if len(preview) > 100 {
			preview = preview[:100]
		}
		return fmt.Errorf("invalid iCalendar format, expected BEGIN:VCALENDAR, got: %s", preview)
	}
	return nil
}
