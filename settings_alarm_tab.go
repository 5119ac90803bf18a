package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

func (sw *SettingsWindow) buildAlarmTab() fyne.CanvasObject {
	sw.alarmDurationSelect = sw.newOptionSelect(
		[]int{15, 30, 45, 60, 90, 120}, "sec", sw.settings.AlarmDuration)
	sw.snoozeIntervalSelect = sw.newOptionSelect(
		[]int{1, 2, 5, 10, 15, 30}, "min", sw.settings.SnoozeInterval)
	sw.maxSnoozesSelect = sw.newOptionSelect(
		[]int{1, 2, 3, 4, 5, 10}, "", sw.settings.MaxSnoozes)
	sw.holdTimeSelect = sw.newOptionSelect(
		[]int{1, 2, 3, 5}, "sec", sw.config.HoldTimeSeconds)

	durationHelp := widget.NewLabel("How long an alarm rings before it snoozes itself")
	durationHelp.Importance = widget.MediumImportance

	snoozeHelp := widget.NewLabel("How long a snoozed alarm stays quiet")
	snoozeHelp.Importance = widget.MediumImportance

	maxSnoozesHelp := widget.NewLabel("After this many snoozes the alarm waits for Taken or Missed")
	maxSnoozesHelp.Wrapping = fyne.TextWrapWord
	maxSnoozesHelp.Importance = widget.MediumImportance

	holdHelp := widget.NewLabel("How long the Stop button must be held")
	holdHelp.Importance = widget.MediumImportance

	form := container.New(layout.NewFormLayout(),
		container.NewVBox(widget.NewLabel("Alarm Duration:"), durationHelp),
		sw.alarmDurationSelect,

		container.NewVBox(widget.NewLabel("Snooze Interval:"), snoozeHelp),
		sw.snoozeIntervalSelect,

		container.NewVBox(widget.NewLabel("Max Snoozes:"), maxSnoozesHelp),
		sw.maxSnoozesSelect,

		container.NewVBox(widget.NewLabel("Stop Hold Time:"), holdHelp),
		sw.holdTimeSelect,
	)

	content := container.NewVBox(
		widget.NewLabel("Alarm Settings"),
		widget.NewSeparator(),
		form,
	)

	return container.NewPadded(container.NewVScroll(content))
}
