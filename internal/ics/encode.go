// Package ics serializes the calendar's event list into an iCalendar feed so
// operators can subscribe from external calendar clients.
package ics

import (
	ical "github.com/arran4/golang-ical"

	"github.com/example/booking-engine/internal/view"
)

const productID = "-//booking-engine//calendar//EN"

// Encode renders events as an iCalendar document. Event IDs become UIDs and
// titles become summaries; all timestamps are emitted in UTC.
func Encode(events []view.Event) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, event := range events {
		ve := cal.AddEvent(event.ID)
		ve.SetDtStampTime(event.Session.CreatedAt.UTC())
		ve.SetStartAt(event.Start.UTC())
		ve.SetEndAt(event.End.UTC())
		ve.SetSummary(event.Title)
	}

	return cal.Serialize()
}
