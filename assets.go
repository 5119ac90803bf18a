package main

import (
	_ "embed"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

//go:embed assets/icon.svg
var iconSVG []byte

var resourceIcon = fyne.NewStaticResource("icon.svg", iconSVG)

// trayIcon follows the menu bar's light or dark appearance
func trayIcon() fyne.Resource {
	return theme.NewThemedResource(resourceIcon)
}
