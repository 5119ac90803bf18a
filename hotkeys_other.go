//go:build !darwin

package main

import (
	"go.uber.org/zap"
	"golang.design/x/hotkey"
)

var primaryModifier = hotkey.ModCtrl

// blockQuitShortcut is a no-op; only macOS has an app-wide quit shortcut
func blockQuitShortcut(*zap.Logger) func() {
	return func() {}
}
