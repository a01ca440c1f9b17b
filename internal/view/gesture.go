package view

import (
	"sync"
	"time"
)

// Long-press tuning. A press held on an empty slot for at least
// LongPressThreshold selects a DefaultSelectionLength interval starting at
// that slot.
const (
	LongPressThreshold     = 600 * time.Millisecond
	DefaultSelectionLength = 2 * time.Hour
)

// Selection is the time interval a gesture proposes for a new session.
type Selection struct {
	Start time.Time
	End   time.Time
}

// PressGesture turns raw pointer events on the calendar grid into interval
// selections. A press that survives the threshold without a release or a
// leave fires onSelect once; releasing earlier cancels silently.
type PressGesture struct {
	threshold  time.Duration
	length     time.Duration
	startTimer TimerFunc
	onSelect   func(Selection)

	mu         sync.Mutex
	generation int
	cancel     func()
	pressed    bool
}

// NewPressGesture builds a long-press recognizer. Zero threshold or length
// fall back to the package defaults, a nil timer to AfterFunc.
func NewPressGesture(threshold, length time.Duration, timer TimerFunc, onSelect func(Selection)) *PressGesture {
	if threshold <= 0 {
		threshold = LongPressThreshold
	}
	if length <= 0 {
		length = DefaultSelectionLength
	}
	if timer == nil {
		timer = AfterFunc
	}
	return &PressGesture{
		threshold:  threshold,
		length:     length,
		startTimer: timer,
		onSelect:   onSelect,
	}
}

// PressDown starts tracking a press on the slot beginning at slot. A second
// press while one is tracked restarts the threshold on the new slot.
func (g *PressGesture) PressDown(slot time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cancelLocked()
	g.pressed = true
	g.generation++
	generation := g.generation
	g.cancel = g.startTimer(g.threshold, func() {
		g.fire(generation, slot)
	})
}

// PressUp releases the press. If the threshold has not fired yet the gesture
// is abandoned.
func (g *PressGesture) PressUp() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.abandonLocked()
}

// PressLeave cancels the press when the pointer drags off the slot.
func (g *PressGesture) PressLeave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.abandonLocked()
}

func (g *PressGesture) abandonLocked() {
	if !g.pressed {
		return
	}
	g.pressed = false
	g.generation++
	g.cancelLocked()
}

func (g *PressGesture) cancelLocked() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

func (g *PressGesture) fire(generation int, slot time.Time) {
	g.mu.Lock()
	if generation != g.generation {
		g.mu.Unlock()
		return
	}
	g.pressed = false
	g.cancel = nil
	g.mu.Unlock()

	g.onSelect(Selection{Start: slot, End: slot.Add(g.length)})
}
