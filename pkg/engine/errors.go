package engine

import "errors"

var (
	ErrNoCurrentAlarm = errors.New("no alarm is showing")
	ErrNotCurrent     = errors.New("alarm is not the current alarm")
	ErrNotRinging     = errors.New("alarm is not ringing")
	ErrSnoozeLimit    = errors.New("maximum snoozes reached")
	ErrClosed         = errors.New("alarm engine is closed")
)
