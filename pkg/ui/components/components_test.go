package components

import (
	"sync/atomic"
	"testing"
	"time"

	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
)

func TestHoldButtonConfirmsAfterHold(t *testing.T) {
	test.NewTempApp(t)

	var confirmed atomic.Int32
	b := NewHoldButton("Stop", 150*time.Millisecond, func() { confirmed.Add(1) })
	test.WidgetRenderer(b)

	b.MouseDown(&desktop.MouseEvent{})
	assert.Eventually(t, func() bool { return confirmed.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	b.MouseUp(&desktop.MouseEvent{})
	assert.Equal(t, 0.0, b.Progress())
}

func TestHoldButtonEarlyReleaseCancels(t *testing.T) {
	test.NewTempApp(t)

	var confirmed atomic.Int32
	b := NewHoldButton("Stop", time.Second, func() { confirmed.Add(1) })
	test.WidgetRenderer(b)

	b.MouseDown(&desktop.MouseEvent{})
	time.Sleep(120 * time.Millisecond)
	b.MouseOut()
	time.Sleep(1200 * time.Millisecond)

	assert.Equal(t, int32(0), confirmed.Load())
	assert.Equal(t, 0.0, b.Progress())
}

func TestHoldButtonDisabled(t *testing.T) {
	test.NewTempApp(t)

	var confirmed atomic.Int32
	b := NewHoldButton("Snooze", 50*time.Millisecond, func() { confirmed.Add(1) })
	b.Disable()
	assert.True(t, b.Disabled())

	b.MouseDown(&desktop.MouseEvent{})
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), confirmed.Load())

	b.Enable()
	assert.False(t, b.Disabled())
}

func TestListManager(t *testing.T) {
	test.NewTempApp(t)

	var changes [][]string
	lm, obj := NewListManager([]string{"a", "b"}, ListManagerConfig[string]{
		Render:   func(s string) string { return "item " + s },
		OnRemove: func(s string) bool { return s != "keep" },
		OnChange: func(items []string) { changes = append(changes, append([]string(nil), items...)) },
		Empty:    "Nothing here",
	})
	w := test.NewWindow(obj)
	defer w.Close()

	lm.Append("keep")
	lm.list.Select(2)
	lm.RemoveSelected()
	assert.Equal(t, []string{"a", "b", "keep"}, lm.Items(), "OnRemove vetoed")

	lm.list.Select(0)
	lm.RemoveSelected()
	assert.Equal(t, []string{"b", "keep"}, lm.Items())

	lm.SetItems(nil)
	assert.Empty(t, lm.Items())
	assert.Len(t, changes, 3)
}
