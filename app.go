package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/borgmon/dose-alarm/pkg/audio"
	"github.com/borgmon/dose-alarm/pkg/bootstrap"
	"github.com/borgmon/dose-alarm/pkg/calendar"
	"github.com/borgmon/dose-alarm/pkg/engine"
	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/borgmon/dose-alarm/pkg/notify"
	"github.com/borgmon/dose-alarm/pkg/platform"
	"github.com/borgmon/dose-alarm/pkg/poller"
	"github.com/borgmon/dose-alarm/pkg/reminder"
	"github.com/borgmon/dose-alarm/pkg/store"
	"go.uber.org/zap"
)

const appDisplayName = "Dose Alarm"

type DoseAlarm struct {
	app  fyne.App
	cfg  *bootstrap.Config
	log  *zap.Logger
	ctx  context.Context
	stop context.CancelFunc

	records  store.RecordStore
	configs  *store.ConfigStore
	engine   *engine.Engine
	poller   *poller.Poller
	notifier *notify.SystemNotifier
	toaster  *notify.Toaster
	sounder  *audio.Looper

	reminders *reminder.Scheduler
	fetcher   *calendar.Fetcher

	alarmWindow    *AlarmWindow
	settingsWindow *SettingsWindow
	focusHotkey    *focusHotkey

	mu         sync.Mutex
	config     *models.Config
	syncCancel context.CancelFunc
	lastSync   time.Time
}

func runDesktop(cfg *bootstrap.Config, testAlarm bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	da := &DoseAlarm{
		app:  app.NewWithID(cfg.AppID),
		cfg:  cfg,
		log:  logger.GetLoggerWith(logger.NameApp, zap.String("user", cfg.User)),
		ctx:  ctx,
		stop: cancel,
	}

	if err := da.initialize(); err != nil {
		cancel()
		return err
	}
	da.run(testAlarm)
	return nil
}

func (da *DoseAlarm) initialize() error {
	records, err := openRecords(da.cfg, da.app.Preferences)
	if err != nil {
		return err
	}
	da.records = records

	da.configs = store.NewConfigStore(da.app.Preferences())
	da.config = da.configs.Load()

	// Sync autostart state with config on startup
	if err := setupAutostart(da.config.AutoStart); err != nil {
		da.log.Warn("Failed to setup autostart", zap.Error(err))
	}

	da.notifier = notify.NewSystemNotifier(da.app)
	da.toaster = notify.NewToaster(notify.DisplayFunc(da.showToast))

	da.sounder, err = audio.NewAlarmLooper(da.cfg.AlarmSound)
	if err != nil {
		da.log.Warn("Alarm sound unusable, using the built-in tone",
			zap.String("path", da.cfg.AlarmSound), zap.Error(err))
		if da.sounder, err = audio.NewAlarmLooper(""); err != nil {
			return fmt.Errorf("alarm sound: %w", err)
		}
	}

	da.alarmWindow = NewAlarmWindow(da.app, da.holdDuration())

	da.engine, err = engine.New(da.ctx, engine.Options{
		User:     da.cfg.User,
		Store:    da.records,
		Modal:    da.alarmWindow,
		Notifier: da.notifier,
		Sounder:  da.sounder,
		Feedback: da.toaster,
		OnChange: func(engine.Status) { da.refreshTray() },
	})
	if err != nil {
		return err
	}
	da.alarmWindow.SetActions(da.engine)
	da.notifier.SetEnabled(da.engine.Settings().NotificationsEnabled)

	da.poller = poller.New(poller.Options{
		User:     da.cfg.User,
		Source:   da.records,
		Engine:   da.engine,
		Interval: da.cfg.PollInterval,
		Window:   da.cfg.PollWindow,
	})

	da.reminders = reminder.New(nil, da.notifier)
	da.fetcher = calendar.NewFetcher(nil)

	da.focusHotkey = registerFocusHotkey(da.ctx, da.alarmWindow.BringToFront)

	da.setupSystemTray()
	return nil
}

func (da *DoseAlarm) run(testAlarm bool) {
	da.app.Lifecycle().SetOnStarted(func() {
		platform.HideDockIcon()

		da.poller.Start(da.ctx)
		da.startBackgroundSync()
		go da.trayTicker()

		if testAlarm {
			go da.testAlarm()
		}
	})
	da.app.Lifecycle().SetOnStopped(da.shutdown)

	da.log.Info("Dose alarm started",
		zap.String("storage", storageLocation(da.cfg)),
		zap.Duration("poll_interval", da.cfg.PollInterval))
	da.app.Run()
}

func (da *DoseAlarm) shutdown() {
	da.log.Info("Shutting down")
	da.stop()
	da.poller.Stop()
	da.stopBackgroundSync()
	da.reminders.Stop()
	da.engine.Close()
	da.focusHotkey.Unregister()
	if err := da.records.Close(); err != nil {
		da.log.Warn("Failed to close records", zap.Error(err))
	}
	logger.Sync()
}

func (da *DoseAlarm) quit() {
	da.app.Quit()
}

func (da *DoseAlarm) holdDuration() time.Duration {
	da.mu.Lock()
	defer da.mu.Unlock()
	return time.Duration(da.config.HoldTimeSeconds) * time.Second
}

func (da *DoseAlarm) currentConfig() *models.Config {
	da.mu.Lock()
	defer da.mu.Unlock()
	cp := *da.config
	cp.ICalSources = append([]models.ICalSource(nil), da.config.ICalSources...)
	return &cp
}

func (da *DoseAlarm) testAlarm() {
	if _, err := da.engine.TestAlarm(da.ctx); err != nil {
		da.log.Warn("Test alarm not shown", zap.Error(err))
		if errors.Is(err, engine.ErrClosed) {
			return
		}
		da.toaster.Notify(models.FeedbackWarning, "Finish the current alarm before testing")
	}
}

// applySettings stores the edited alarm settings and app config and pushes
// them to every running component.
func (da *DoseAlarm) applySettings(settings models.Settings, config *models.Config) error {
	if err := models.ValidateSettings(&settings); err != nil {
		return err
	}
	if err := da.records.UpdateSettings(da.ctx, settings); err != nil {
		return fmt.Errorf("save alarm settings: %w", err)
	}
	if err := da.engine.ReloadSettings(da.ctx); err != nil {
		da.log.Warn("Failed to reload alarm settings", zap.Error(err))
	}
	da.notifier.SetEnabled(settings.NotificationsEnabled)

	da.mu.Lock()
	autostartChanged := da.config.AutoStart != config.AutoStart
	da.config = config
	da.mu.Unlock()
	da.configs.Save(config)

	if autostartChanged {
		if err := setupAutostart(config.AutoStart); err != nil {
			da.log.Warn("Failed to update autostart", zap.Error(err))
		}
	}
	da.alarmWindow.SetHoldDuration(da.holdDuration())
	da.restartBackgroundSync()
	da.refreshTray()

	da.log.Info("Settings saved",
		zap.Int("alarm_duration", settings.AlarmDuration),
		zap.Int("snooze_interval", settings.SnoozeInterval),
		zap.Int("max_snoozes", settings.MaxSnoozes),
		zap.Int("ical_sources", len(config.ICalSources)))
	return nil
}

func (da *DoseAlarm) showSettingsWindow() {
	if da.settingsWindow != nil && da.settingsWindow.window != nil {
		da.settingsWindow.window.RequestFocus()
		da.settingsWindow.window.Show()
		return
	}

	da.settingsWindow = NewSettingsWindow(da)
	da.settingsWindow.window.SetOnClosed(func() {
		da.settingsWindow = nil
	})
	da.settingsWindow.Show()
}

// trayTicker keeps the upcoming list and daily stats current
func (da *DoseAlarm) trayTicker() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-da.ctx.Done():
			return
		case <-t.C:
			da.refreshTray()
		}
	}
}
