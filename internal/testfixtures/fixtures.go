package testfixtures

import (
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// ReferenceTime is the shared instant fixtures are pinned to.
func ReferenceTime() time.Time {
	return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
}

// NewClient builds a client record with sensible defaults.
func NewClient(id, name string) persistence.Client {
	return persistence.Client{
		ID:        id,
		Name:      name,
		Email:     name + "@example.com",
		CreatedAt: ReferenceTime(),
	}
}

// NewSession builds a session of the given length for a client, deriving the
// stored hours from the interval the way the session service does.
func NewSession(id string, client persistence.Client, owner string, start time.Time, length time.Duration) persistence.Session {
	if start.IsZero() {
		start = ReferenceTime()
	}
	end := start.Add(length)
	return persistence.Session{
		ID:          id,
		ClientID:    client.ID,
		ClientName:  client.Name,
		Start:       start,
		End:         end,
		Hours:       end.Sub(start).Hours(),
		OwnerUserID: owner,
		CreatedAt:   start,
	}
}
