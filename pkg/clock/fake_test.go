package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	c := NewFake(epoch)
	var fired []string

	c.AfterFunc(3*time.Second, func() { fired = append(fired, "c") })
	c.AfterFunc(1*time.Second, func() { fired = append(fired, "a") })
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b1") })
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b2") })

	c.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b1", "b2"}, fired)
	assert.Equal(t, epoch.Add(2*time.Second), c.Now())
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Second)
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, fired)
}

func TestFakeCallbackSeesDeadlineAsNow(t *testing.T) {
	c := NewFake(epoch)
	var seen time.Time
	c.AfterFunc(90*time.Second, func() { seen = c.Now() })

	c.Advance(10 * time.Minute)
	assert.Equal(t, epoch.Add(90*time.Second), seen)
	assert.Equal(t, epoch.Add(10*time.Minute), c.Now())
}

func TestFakeStop(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(time.Minute)
	assert.False(t, fired)

	done := c.AfterFunc(time.Second, func() {})
	c.Advance(time.Second)
	assert.False(t, done.Stop(), "stopping a fired timer reports false")
}

func TestFakeNestedScheduling(t *testing.T) {
	c := NewFake(epoch)
	count := 0
	var tick func()
	tick = func() {
		count++
		c.AfterFunc(time.Minute, tick)
	}
	c.AfterFunc(time.Minute, tick)

	c.Advance(5 * time.Minute)
	assert.Equal(t, 5, count)
	assert.Equal(t, 1, c.Pending())
}

func TestRealClock(t *testing.T) {
	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
	assert.WithinDuration(t, time.Now(), Real{}.Now(), time.Second)
}
