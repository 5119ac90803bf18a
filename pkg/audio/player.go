// Package audio plays the repeating alarm tone.
package audio

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// ErrNoAudio is returned when no output device could be opened.
var ErrNoAudio = errors.New("audio output unavailable")

// Backend plays one PCM clip, blocking until it ends or ctx is done.
type Backend interface {
	Ready() error
	Play(ctx context.Context, pcm []byte) error
}

// OtoBackend plays through a process-wide oto context. oto allows only
// one context per process, so the first Format wins.
type OtoBackend struct {
	format Format

	once sync.Once
	ctx  *oto.Context
	err  error
}

var (
	sharedOto     *OtoBackend
	sharedOtoOnce sync.Once
)

// Default returns the shared oto backend for the alarm tone format
func Default() *OtoBackend {
	sharedOtoOnce.Do(func() {
		sharedOto = &OtoBackend{format: Format{SampleRate: SampleRate, Channels: ChannelCount, BitDepth: 16}}
	})
	return sharedOto
}

func (b *OtoBackend) Ready() error {
	b.once.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   b.format.SampleRate,
			ChannelCount: b.format.Channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			logger.GetLogger().Named(logger.NameAudio).Warn("Failed to initialize audio context", zap.Error(err))
			b.err = errors.Join(ErrNoAudio, err)
			return
		}
		// wait for the hardware device
		<-ready
		b.ctx = ctx
		logger.GetLogger().Named(logger.NameAudio).Info("Audio context initialized")
	})
	return b.err
}

func (b *OtoBackend) Play(ctx context.Context, pcm []byte) error {
	if err := b.Ready(); err != nil {
		return err
	}

	player := b.ctx.NewPlayer(bytes.NewReader(pcm))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

// DefaultPeriod is the time between the starts of two beeps
const DefaultPeriod = 2 * time.Second

// Looper repeats a clip every period until stopped. At most one loop
// runs at a time.
type Looper struct {
	backend Backend
	pcm     []byte
	period  time.Duration
	log     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLooper(backend Backend, pcm []byte, period time.Duration) *Looper {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Looper{
		backend: backend,
		pcm:     pcm,
		period:  period,
		log:     logger.GetLoggerWith(logger.NameAudio),
	}
}

// NewAlarmLooper loops the alarm sound on the default device. An empty
// soundFile selects the synthesized tone.
func NewAlarmLooper(soundFile string) (*Looper, error) {
	pcm := Tone(SampleRate)
	if soundFile != "" {
		var err error
		if pcm, err = LoadClip(soundFile); err != nil {
			return nil, err
		}
	}
	return NewLooper(Default(), pcm, DefaultPeriod), nil
}

// StartLoop begins the loop. Calling it while a loop runs does nothing.
func (l *Looper) StartLoop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return nil
	}
	if l.backend == nil {
		return ErrNoAudio
	}
	if err := l.backend.Ready(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	go l.run(ctx, done)
	l.log.Debug("Alarm sound loop started")
	return nil
}

// StopLoop stops the loop and waits for the current clip to be cut off
func (l *Looper) StopLoop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	l.log.Debug("Alarm sound loop stopped")
}

// Playing reports whether a loop is running
func (l *Looper) Playing() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

func (l *Looper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		timer.Reset(l.period)
		if err := l.backend.Play(ctx, l.pcm); err != nil {
			l.log.Warn("Failed to play alarm sound", zap.Error(err))
		}
	}
}
