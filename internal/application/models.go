package application

import (
	"strings"
	"time"
)

// Principal identifies the authenticated operator invoking a service method.
// The zero value means "no authenticated operator": every mutation is then
// rejected with ErrUnauthenticated.
type Principal struct {
	UserID string
	Email  string
}

// Authenticated reports whether the principal carries an operator identity.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// WelcomeName derives the display name shown in greetings: the local part of
// the operator's email address, or a generic fallback.
func (p Principal) WelcomeName() string {
	if at := strings.IndexByte(p.Email, '@'); at > 0 {
		return p.Email[:at]
	}
	if p.Email != "" {
		return p.Email
	}
	return "operator"
}

// ClientInput captures caller provided client fields. Updates are full-field
// replaces; there is no partial patch.
type ClientInput struct {
	Name  string
	Email string
	Phone string
	Notes string
}

// SessionInput captures caller provided session fields. On update an empty
// ClientID keeps the existing client binding and its name snapshot.
type SessionInput struct {
	ClientID string
	Start    time.Time
	End      time.Time
}
