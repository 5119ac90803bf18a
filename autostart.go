package main

import (
	"os"
	"path/filepath"

	"github.com/borgmon/dose-alarm/pkg/bootstrap"
	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/emersion/go-autostart"
	"go.uber.org/zap"
)

// setupAutostart registers or removes the login item for this executable
func setupAutostart(enable bool) error {
	log := logger.GetLoggerWith(logger.NameApp, zap.String("component", "autostart"))

	execPath, err := os.Executable()
	if err != nil {
		return err
	}

	// Resolve symlinks if any
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return err
	}

	app := &autostart.App{
		Name:        bootstrap.AppName,
		DisplayName: appDisplayName,
		Exec:        []string{execPath, "run"},
	}

	switch {
	case enable && !app.IsEnabled():
		if err := app.Enable(); err != nil {
			log.Error("Failed to enable autostart", zap.Error(err))
			return err
		}
		log.Info("Autostart enabled", zap.String("exec", execPath))
	case !enable && app.IsEnabled():
		if err := app.Disable(); err != nil {
			log.Error("Failed to disable autostart", zap.Error(err))
			return err
		}
		log.Info("Autostart disabled")
	}
	return nil
}
