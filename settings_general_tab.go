package main

import (
	"os/exec"
	"path/filepath"
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/dose-alarm/pkg/store"
	"go.uber.org/zap"
)

func (sw *SettingsWindow) buildGeneralTab() fyne.CanvasObject {
	sw.autoStartCheck = widget.NewCheck("Auto Start on System Boot", func(bool) {
		sw.markChanged()
	})
	sw.autoStartCheck.Checked = sw.config.AutoStart

	sw.notificationsCheck = widget.NewCheck("Show system notifications", func(bool) {
		sw.markChanged()
	})
	sw.notificationsCheck.Checked = sw.settings.NotificationsEnabled

	userEntry := widget.NewEntry()
	userEntry.SetText(sw.da.cfg.User)
	userEntry.Disable()

	storageEntry := widget.NewEntry()
	storageEntry.SetText(storageLocation(sw.da.cfg))
	storageEntry.Disable()

	openStorageButton := widget.NewButton("Open in File Manager", func() {
		sw.openInFileManager(sw.storageDir())
	})
	openLogsButton := widget.NewButton("Open Logs", func() {
		sw.openInFileManager(sw.da.cfg.LogDir)
	})

	autoStartLabel := widget.NewLabel("Auto Start:")
	autoStartHelp := widget.NewLabel("Launch " + appDisplayName + " automatically when your system starts")
	autoStartHelp.Importance = widget.MediumImportance

	notificationsLabel := widget.NewLabel("Notifications:")
	notificationsHelp := widget.NewLabel("Alarms and appointment reminders also appear in the notification center")
	notificationsHelp.Wrapping = fyne.TextWrapWord
	notificationsHelp.Importance = widget.MediumImportance

	storageLabel := widget.NewLabel("Storage Location:")
	storageHelp := widget.NewLabel("Medications, dose history and appointments are stored here")
	storageHelp.Wrapping = fyne.TextWrapWord
	storageHelp.Importance = widget.MediumImportance

	storageContainer := container.NewBorder(
		nil,
		container.NewPadded(container.NewHBox(openStorageButton, openLogsButton)),
		nil,
		nil,
		storageEntry,
	)

	form := container.New(layout.NewFormLayout(),
		widget.NewLabel("User:"),
		userEntry,

		container.NewVBox(autoStartLabel, autoStartHelp),
		sw.autoStartCheck,

		container.NewVBox(notificationsLabel, notificationsHelp),
		sw.notificationsCheck,

		container.NewVBox(storageLabel, storageHelp),
		storageContainer,
	)

	content := container.NewVBox(
		widget.NewLabel("General Settings"),
		widget.NewSeparator(),
		form,
	)

	return container.NewPadded(container.NewVScroll(content))
}

func (sw *SettingsWindow) storageDir() string {
	if sw.da.cfg.StorageBackend == store.BackendSQLite {
		return filepath.Dir(sw.da.cfg.StoragePath)
	}
	return sw.da.app.Storage().RootURI().Path()
}

func (sw *SettingsWindow) openInFileManager(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		sw.da.log.Warn("Unsupported OS for file manager", zap.String("os", runtime.GOOS))
		return
	}

	if err := cmd.Start(); err != nil {
		sw.da.log.Error("Error opening file manager", zap.String("path", path), zap.Error(err))
	}
}
