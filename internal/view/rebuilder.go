package view

import (
	"sync"
	"time"
)

// DefaultResizeDelay is how long the Rebuilder waits after the last resize
// notification before rebuilding the calendar.
const DefaultResizeDelay = 200 * time.Millisecond

// Rebuilder coalesces bursts of viewport resize notifications into a single
// rebuild call. Each Resize restarts the delay, so rebuild runs once the
// viewport has been stable for the configured delay.
type Rebuilder struct {
	delay      time.Duration
	startTimer TimerFunc
	rebuild    func()

	mu         sync.Mutex
	generation int
	cancel     func()
}

// NewRebuilder wires a debounced rebuild callback. A zero delay falls back to
// DefaultResizeDelay and a nil timer to AfterFunc.
func NewRebuilder(delay time.Duration, timer TimerFunc, rebuild func()) *Rebuilder {
	if delay <= 0 {
		delay = DefaultResizeDelay
	}
	if timer == nil {
		timer = AfterFunc
	}
	return &Rebuilder{
		delay:      delay,
		startTimer: timer,
		rebuild:    rebuild,
	}
}

// Resize notes a viewport change and restarts the debounce delay.
func (r *Rebuilder) Resize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	r.generation++
	generation := r.generation
	r.cancel = r.startTimer(r.delay, func() {
		r.fire(generation)
	})
}

// Stop discards any pending rebuild.
func (r *Rebuilder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.generation++
}

func (r *Rebuilder) fire(generation int) {
	r.mu.Lock()
	if generation != r.generation {
		r.mu.Unlock()
		return
	}
	r.cancel = nil
	r.mu.Unlock()

	r.rebuild()
}
