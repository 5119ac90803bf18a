// Package poller checks medication schedules on a fixed cadence and hands
// due doses to the alarm engine.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/borgmon/dose-alarm/pkg/clock"
	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/borgmon/dose-alarm/pkg/schedule"
	"go.uber.org/zap"
)

const DefaultInterval = 60 * time.Second

// Source lists a user's medications
type Source interface {
	Medications(ctx context.Context, user string) ([]models.Medication, error)
}

// Trigger receives due signals
type Trigger interface {
	Trigger(ctx context.Context, sig models.DueSignal) (bool, error)
}

type Options struct {
	User     string
	Source   Source
	Engine   Trigger
	Clock    clock.Clock
	Interval time.Duration
	Window   time.Duration
	Logger   *zap.Logger
}

type Poller struct {
	user     string
	source   Source
	engine   Trigger
	clock    clock.Clock
	interval time.Duration
	window   time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	running bool
	timer   clock.Timer
	lastRun time.Time
	stopCtx func() bool
}

func New(opts Options) *Poller {
	p := &Poller{
		user:     opts.User,
		source:   opts.Source,
		engine:   opts.Engine,
		clock:    opts.Clock,
		interval: opts.Interval,
		window:   opts.Window,
		log:      opts.Logger,
	}
	if p.clock == nil {
		p.clock = clock.Real{}
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.window <= 0 {
		p.window = schedule.DefaultWindow
	}
	if p.log == nil {
		p.log = logger.GetLoggerWith(logger.NamePoller)
	}
	return p
}

// Start runs a check immediately and then every interval until Stop is
// called or ctx is done. Starting a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCtx = context.AfterFunc(ctx, p.Stop)
	p.mu.Unlock()

	p.log.Info("Dose poller started", zap.Duration("interval", p.interval), zap.Duration("window", p.window))
	p.tick(ctx)
}

// Stop cancels the pending tick. A check already in progress completes.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.stopCtx != nil {
		p.stopCtx()
		p.stopCtx = nil
	}
	p.log.Info("Dose poller stopped")
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// LastRun is when the most recent check started
func (p *Poller) LastRun() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRun
}

func (p *Poller) tick(ctx context.Context) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.timer = p.clock.AfterFunc(p.interval, func() { p.tick(ctx) })
	p.mu.Unlock()

	p.Check(ctx)
}

// Check runs one detection pass and returns how many new alarms were registered.
// Failures are logged and never escape.
func (p *Poller) Check(ctx context.Context) int {
	now := p.clock.Now()
	p.mu.Lock()
	p.lastRun = now
	p.mu.Unlock()

	meds, err := p.source.Medications(ctx, p.user)
	if err != nil {
		p.log.Error("Failed to load medications", zap.String("user", p.user), zap.Error(err))
		return 0
	}

	registered := 0
	for _, sig := range schedule.DueSignals(meds, now, p.window) {
		if p.fire(ctx, sig) {
			registered++
		}
	}
	if registered > 0 {
		p.log.Debug("Due doses registered", zap.Int("count", registered))
	}
	return registered
}

func (p *Poller) fire(ctx context.Context, sig models.DueSignal) (ok bool) {
	id := models.AlarmID(sig.Medication.ID, sig.ScheduledAt)
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Recovered from panic while triggering alarm",
				zap.String("alarm_id", id),
				zap.String("panic", fmt.Sprint(r)))
			ok = false
		}
	}()

	ok, err := p.engine.Trigger(ctx, sig)
	if err != nil {
		p.log.Error("Failed to trigger alarm", zap.String("alarm_id", id), zap.Error(err))
		return false
	}
	return ok
}
