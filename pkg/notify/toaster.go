package notify

import (
	"time"

	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Display renders a toast. The app implements it with a transient popup.
type Display interface {
	ShowToast(level models.FeedbackLevel, message string)
}

// DisplayFunc adapts a function to Display
type DisplayFunc func(level models.FeedbackLevel, message string)

func (f DisplayFunc) ShowToast(level models.FeedbackLevel, message string) { f(level, message) }

// Toaster is the engine Feedback sink. Every message is logged; error
// toasts share a token bucket so a failing store cannot flood the screen.
type Toaster struct {
	display Display
	errors  *rate.Limiter
	log     *zap.Logger
}

const (
	DefaultErrorToastInterval = 5 * time.Second
	DefaultErrorToastBurst    = 2
)

func NewToaster(display Display) *Toaster {
	return NewToasterWithLimit(display, rate.Every(DefaultErrorToastInterval), DefaultErrorToastBurst)
}

func NewToasterWithLimit(display Display, limit rate.Limit, burst int) *Toaster {
	return &Toaster{
		display: display,
		errors:  rate.NewLimiter(limit, burst),
		log:     logger.GetLoggerWith(logger.NameNotify, zap.String("category", "toast")),
	}
}

func (t *Toaster) Notify(level models.FeedbackLevel, message string) {
	switch level {
	case models.FeedbackError:
		t.log.Error(message)
		if !t.errors.Allow() {
			t.log.Debug("Error toast suppressed", zap.String("message", message))
			return
		}
	case models.FeedbackWarning:
		t.log.Warn(message)
	default:
		t.log.Info(message, zap.String("level", string(level)))
	}

	if t.display != nil {
		t.display.ShowToast(level, message)
	}
}
