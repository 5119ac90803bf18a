package main

import (
	"context"
	"sync"

	"github.com/borgmon/dose-alarm/pkg/logger"
	"go.uber.org/zap"
	"golang.design/x/hotkey"
)

// focusHotkey is the global Cmd/Ctrl+Shift+M shortcut that brings a
// ringing alarm back in front of everything else.
type focusHotkey struct {
	log *zap.Logger

	mu sync.Mutex
	hk *hotkey.Hotkey
}

func registerFocusHotkey(ctx context.Context, onPress func()) *focusHotkey {
	fh := &focusHotkey{log: logger.GetLoggerWith(logger.NameApp, zap.String("component", "hotkey"))}

	go func() {
		hk := hotkey.New([]hotkey.Modifier{primaryModifier, hotkey.ModShift}, hotkey.KeyM)
		if err := hk.Register(); err != nil {
			fh.log.Warn("Failed to register focus hotkey", zap.Error(err))
			return
		}
		fh.mu.Lock()
		fh.hk = hk
		fh.mu.Unlock()
		fh.log.Debug("Focus hotkey registered")

		for {
			select {
			case <-ctx.Done():
				return
			case <-hk.Keydown():
				onPress()
			}
		}
	}()
	return fh
}

func (fh *focusHotkey) Unregister() {
	fh.mu.Lock()
	defer fh.mu.Unlock()
	if fh.hk == nil {
		return
	}
	if err := fh.hk.Unregister(); err != nil {
		fh.log.Warn("Failed to unregister focus hotkey", zap.Error(err))
	}
	fh.hk = nil
}
