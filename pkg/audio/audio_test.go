package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetTestLoggerNop()
	os.Exit(m.Run())
}

type fakeBackend struct {
	readyErr error
	plays    atomic.Int32
	active   atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeBackend) Ready() error { return f.readyErr }

func (f *fakeBackend) Play(ctx context.Context, _ []byte) error {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	if n > f.maxSeen.Load() {
		f.maxSeen.Store(n)
	}
	f.plays.Add(1)
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Millisecond):
	}
	return nil
}

func TestToneShape(t *testing.T) {
	pcm := Tone(SampleRate)
	require.Len(t, pcm, SampleRate/2*2)

	first := peak(pcm[:2000])
	last := peak(pcm[len(pcm)-2000:])
	assert.Greater(t, first, last, "gain decays")
	maxPeak := 0.3 * 32767
	assert.LessOrEqual(t, first, int16(maxPeak)+1)
}

func peak(pcm []byte) int16 {
	var m int16
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int16(binary.LittleEndian.Uint16(pcm[i:]))
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}

func TestLooperRepeatsUntilStopped(t *testing.T) {
	backend := &fakeBackend{}
	l := NewLooper(backend, []byte{0, 0}, 20*time.Millisecond)

	require.NoError(t, l.StartLoop())
	require.NoError(t, l.StartLoop(), "second start is a no-op")
	assert.True(t, l.Playing())

	assert.Eventually(t, func() bool { return backend.plays.Load() >= 3 }, time.Second, 5*time.Millisecond)

	l.StopLoop()
	assert.False(t, l.Playing())
	plays := backend.plays.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, plays, backend.plays.Load(), "no plays after stop")
	assert.Equal(t, int32(1), backend.maxSeen.Load(), "one clip at a time")

	l.StopLoop()
}

func TestLooperReportsMissingDevice(t *testing.T) {
	l := NewLooper(&fakeBackend{readyErr: ErrNoAudio}, nil, time.Second)
	assert.ErrorIs(t, l.StartLoop(), ErrNoAudio)
	assert.False(t, l.Playing())

	assert.ErrorIs(t, NewLooper(nil, nil, 0).StartLoop(), ErrNoAudio)
}

func wavFile(sampleRate, channels, bits int, pcm []byte) []byte {
	var buf bytes.Buffer
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	buf.WriteString("RIFF")
	w(uint32(36 + len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	w(uint32(16))
	w(uint16(1))
	w(uint16(channels))
	w(uint32(sampleRate))
	w(uint32(sampleRate * channels * bits / 8))
	w(uint16(channels * bits / 8))
	w(uint16(bits))
	buf.WriteString("LIST")
	w(uint32(4))
	buf.WriteString("INFO")
	buf.WriteString("data")
	w(uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

func TestParseWAV(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	format, data, err := ParseWAV(wavFile(22050, 2, 16, pcm))
	require.NoError(t, err)
	assert.Equal(t, Format{SampleRate: 22050, Channels: 2, BitDepth: 16}, format)
	assert.Equal(t, pcm, data)

	_, _, err = ParseWAV([]byte("not a wav file"))
	assert.Error(t, err)

	_, _, err = ParseWAV(wavFile(44100, 1, 8, pcm))
	assert.Error(t, err)
}

func TestLoadClipChecksFormat(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.wav")
	bad := filepath.Join(dir, "bad.wav")
	require.NoError(t, os.WriteFile(good, wavFile(SampleRate, ChannelCount, 16, []byte{9, 9}), 0o644))
	require.NoError(t, os.WriteFile(bad, wavFile(8000, 1, 16, []byte{9, 9}), 0o644))

	pcm, err := LoadClip(good)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9}, pcm)

	_, err = LoadClip(bad)
	assert.Error(t, err)

	_, err = LoadClip(filepath.Join(dir, "missing.wav"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
