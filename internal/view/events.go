// Package view derives calendar-displayable values from the reconciled
// session set: event lists for the calendar widget, responsive layout
// decisions, and the pointer gestures that open the booking editor.
package view

import (
	"fmt"
	"math"
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// Event is one calendar entry derived from a session. It has no lifecycle of
// its own and is rebuilt from scratch on every snapshot.
type Event struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
	// Session carries the source record for the widget's extended props.
	Session persistence.Session
}

// BuildEvents maps every session to its calendar event.
func BuildEvents(sessions []persistence.Session) []Event {
	events := make([]Event, 0, len(sessions))
	for _, session := range sessions {
		events = append(events, Event{
			ID:      session.ID,
			Title:   fmt.Sprintf("%s (%s)", session.ClientName, FormatDuration(session.Hours)),
			Start:   session.Start,
			End:     session.End,
			Session: session,
		})
	}
	return events
}

// FormatDuration renders an hour count as "2h", "15min" or "1h30min".
// Zero or negative durations render as "0h".
func FormatDuration(hours float64) string {
	if hours <= 0 {
		return "0h"
	}

	h := int(math.Floor(hours))
	m := int(math.Round((hours - float64(h)) * 60))
	if m == 60 {
		h++
		m = 0
	}

	switch {
	case m == 0:
		return fmt.Sprintf("%dh", h)
	case h == 0:
		return fmt.Sprintf("%dmin", m)
	default:
		return fmt.Sprintf("%dh%dmin", h, m)
	}
}
