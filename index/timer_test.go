package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	times []time.Time
}

func (c *fakeClock) now() (t time.Time) {
	t, c.times = c.times[0], c.times[1:]
	return t
}

func TestTimerElapsedIsZeroUntilStopped(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	start := time.Date(2023, 10, 1, 12, 0, 0, 0, paris)
	clock := &fakeClock{times: []time.Time{start, start.Add(1500 * time.Millisecond)}}

	timer := newTimerWithClock(clock.now)

	assert.Equal(t, time.Duration(0), timer.Elapsed())
	assert.Equal(t, time.UTC, timer.Start().Location())
	assert.Equal(t, time.Date(2023, 10, 1, 11, 0, 0, 0, time.UTC), timer.Start())

	assert.Equal(t, 1500*time.Millisecond, timer.Stop())
	assert.Equal(t, 1500*time.Millisecond, timer.Elapsed())
	assert.Equal(t, time.UTC, timer.End().Location())
}

func TestNewTimer(t *testing.T) {
	timer := NewTimer()
	elapsed := timer.Stop()

	assert.True(t, elapsed >= 0)
	assert.False(t, timer.End().Before(timer.Start()))
}
