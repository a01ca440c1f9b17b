package persistence

import "time"

// Client represents a client record owned by the document store.
type Client struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Notes     string
	CreatedAt time.Time
}

// Session represents a booked session stored for a single operator.
//
// Hours is persisted alongside the interval but is always derived from it at
// write time; it is never edited independently. ClientName is a point-in-time
// copy of the client's name taken when the session was last written and is
// not refreshed on client renames.
type Session struct {
	ID          string
	ClientID    string
	ClientName  string
	Start       time.Time
	End         time.Time
	Hours       float64
	OwnerUserID string
	CreatedAt   time.Time
}

// Operator represents an authenticated operator account.
type Operator struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AuthSession represents a bearer token issued to an operator.
type AuthSession struct {
	ID         string
	OperatorID string
	Token      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	RevokedAt  *time.Time
}

// SessionFilter narrows session queries and subscriptions. The only predicate
// the store supports is equality on the owning operator. An empty owner id is
// the unauthenticated case and matches no sessions.
type SessionFilter struct {
	OwnerUserID string
}

// Matches reports whether the session satisfies the filter.
func (f SessionFilter) Matches(session Session) bool {
	return f.OwnerUserID != "" && session.OwnerUserID == f.OwnerUserID
}
