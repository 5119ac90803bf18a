package main

import (
	"go.uber.org/zap"
	"golang.design/x/hotkey"
)

var primaryModifier = hotkey.ModCmd

// blockQuitShortcut swallows Cmd+Q until the returned func is called
func blockQuitShortcut(log *zap.Logger) func() {
	hk := hotkey.New([]hotkey.Modifier{hotkey.ModCmd}, hotkey.KeyQ)
	if err := hk.Register(); err != nil {
		log.Warn("Failed to register Cmd+Q prevention", zap.Error(err))
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-hk.Keydown():
				log.Info("Cmd+Q blocked, answer the alarm to dismiss it")
			}
		}
	}()

	return func() {
		close(done)
		if err := hk.Unregister(); err != nil {
			log.Warn("Failed to unregister Cmd+Q prevention", zap.Error(err))
		}
	}
}
