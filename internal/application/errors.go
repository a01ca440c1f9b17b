package application

import "errors"

var (
	// ErrUnauthenticated is returned when no operator identity accompanies a mutation.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrUnauthorized is returned when the acting operator does not own the target record.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when an insert collides with an existing record.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrTokenExpired is returned when a presented bearer token has lapsed.
	ErrTokenExpired = errors.New("application: token expired")
	// ErrTokenRevoked is returned when a presented bearer token was revoked.
	ErrTokenRevoked = errors.New("application: token revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Field returns the message recorded for a field, if any.
func (v *ValidationError) Field(name string) string {
	if v == nil {
		return ""
	}
	return v.FieldErrors[name]
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// IsInvalidInterval reports whether the error is the interval validation
// failure produced when a session's end does not come strictly after its start.
func IsInvalidInterval(err error) bool {
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		return false
	}
	return vErr.Field("time") != ""
}
