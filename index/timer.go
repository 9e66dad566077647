package index

import (
	"time"
)

// Timer measures elapsed time in UTC. It starts when created and the elapsed
// time is zero until it is stopped
type Timer struct {
	start time.Time
	stop  time.Time
	now   func() time.Time
}

// NewTimer returns a started Timer
func NewTimer() (t *Timer) {
	return newTimerWithClock(time.Now)
}

func newTimerWithClock(now func() time.Time) (t *Timer) {
	t = &Timer{now: now}
	t.start = now().UTC()
	t.stop = t.start

	return t
}

// Stop stops the timer and returns the elapsed time. Stopping again moves the stop time
func (t *Timer) Stop() (elapsed time.Duration) {
	t.stop = t.now().UTC()

	return t.Elapsed()
}

// Start returns the time at which the timer was started
func (t *Timer) Start() time.Time {
	return t.start
}

// End returns the time at which the timer was stopped
func (t *Timer) End() time.Time {
	return t.stop
}

// Elapsed returns the time between the start and the stop of the timer
func (t *Timer) Elapsed() time.Duration {
	return t.stop.Sub(t.start)
}
