package view

import "time"

// TimerFunc schedules fire to run once after d and returns a cancel
// function. Cancel is best effort: a callback already started may still run,
// so callers guard their state with a generation check.
type TimerFunc func(d time.Duration, fire func()) (cancel func())

// AfterFunc is the production TimerFunc backed by time.AfterFunc.
func AfterFunc(d time.Duration, fire func()) (cancel func()) {
	t := time.AfterFunc(d, fire)
	return func() { t.Stop() }
}
