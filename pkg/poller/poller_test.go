package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/borgmon/dose-alarm/pkg/clock"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticSource struct {
	meds  []models.Medication
	err   error
	calls int
}

func (s *staticSource) Medications(context.Context, string) ([]models.Medication, error) {
	s.calls++
	return s.meds, s.err
}

type recordingTrigger struct {
	mu      sync.Mutex
	seen    map[string]bool
	signals []models.DueSignal
	panicOn string
	err     error
}

func (r *recordingTrigger) Trigger(_ context.Context, sig models.DueSignal) (bool, error) {
	if sig.Medication.ID == r.panicOn {
		panic("boom")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	if r.seen == nil {
		r.seen = map[string]bool{}
	}
	id := models.AlarmID(sig.Medication.ID, sig.ScheduledAt)
	r.signals = append(r.signals, sig)
	if r.seen[id] {
		return false, nil
	}
	r.seen[id] = true
	return true, nil
}

func med(id, tod string) models.Medication {
	return models.Medication{ID: id, Name: id, Frequency: "1", Times: []string{tod}, IsActive: true}
}

var start = time.Date(2025, 3, 10, 7, 59, 30, 0, time.UTC)

func newTestPoller(src Source, trg Trigger, c clock.Clock) *Poller {
	return New(Options{User: "alice", Source: src, Engine: trg, Clock: c, Logger: zap.NewNop()})
}

func TestStartChecksImmediatelyThenEveryInterval(t *testing.T) {
	c := clock.NewFake(start)
	src := &staticSource{meds: []models.Medication{med("a", "08:00")}}
	trg := &recordingTrigger{}
	p := newTestPoller(src, trg, c)

	p.Start(context.Background())
	assert.Equal(t, 1, src.calls, "first check runs at start")
	assert.Empty(t, trg.signals, "08:00 is still 30s away")

	c.Advance(time.Minute) // 08:00:30
	assert.Equal(t, 2, src.calls)
	require.Len(t, trg.signals, 1)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), trg.signals[0].ScheduledAt)

	c.Advance(time.Minute) // 08:01:30, outside the window
	assert.Equal(t, 3, src.calls)
	assert.Len(t, trg.signals, 1)

	p.Stop()
	c.Advance(10 * time.Minute)
	assert.Equal(t, 3, src.calls)
	assert.False(t, p.Running())
}

func TestStartTwiceIsNoop(t *testing.T) {
	c := clock.NewFake(start)
	src := &staticSource{}
	p := newTestPoller(src, &recordingTrigger{}, c)

	p.Start(context.Background())
	p.Start(context.Background())
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 1, c.Pending())
}

func TestCheckSurvivesFailures(t *testing.T) {
	c := clock.NewFake(time.Date(2025, 3, 10, 8, 0, 10, 0, time.UTC))

	src := &staticSource{err: errors.New("locked")}
	p := newTestPoller(src, &recordingTrigger{}, c)
	assert.Equal(t, 0, p.Check(context.Background()))

	src = &staticSource{meds: []models.Medication{med("explodes", "08:00"), med("fine", "08:00")}}
	trg := &recordingTrigger{panicOn: "explodes"}
	p = newTestPoller(src, trg, c)
	assert.Equal(t, 1, p.Check(context.Background()), "a panicking trigger does not stop the pass")
	require.Len(t, trg.signals, 1)
	assert.Equal(t, "fine", trg.signals[0].Medication.ID)

	trg = &recordingTrigger{err: errors.New("closed")}
	p = newTestPoller(src.withOnly("fine"), trg, c)
	assert.Equal(t, 0, p.Check(context.Background()))
}

func (s *staticSource) withOnly(id string) *staticSource {
	out := &staticSource{}
	for _, m := range s.meds {
		if m.ID == id {
			out.meds = append(out.meds, m)
		}
	}
	return out
}

func TestContextCancelStopsPoller(t *testing.T) {
	c := clock.NewFake(start)
	p := newTestPoller(&staticSource{}, &recordingTrigger{}, c)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	require.Eventually(t, func() bool { return !p.Running() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, c.Pending())
}

func TestRepeatedChecksWithinWindowDeduplicate(t *testing.T) {
	c := clock.NewFake(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	src := &staticSource{meds: []models.Medication{med("a", "08:00")}}
	trg := &recordingTrigger{}
	p := New(Options{User: "alice", Source: src, Engine: trg, Clock: c, Interval: 20 * time.Second, Logger: zap.NewNop()})

	p.Start(context.Background())
	c.Advance(time.Minute)

	assert.Len(t, trg.signals, 4, "signal emitted on each pass inside the window")
	assert.Len(t, trg.seen, 1, "but only one alarm identity")
	assert.Equal(t, time.Date(2025, 3, 10, 8, 1, 0, 0, time.UTC), p.LastRun())
}
