package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// SessionService owns mutations against the sessions collection: interval
// validation, hours derivation, client name snapshotting, and owner stamping.
type SessionService struct {
	sessions    persistence.SessionRepository
	clients     persistence.ClientRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSessionService wires dependencies for session operations.
func NewSessionService(sessions persistence.SessionRepository, clients persistence.ClientRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SessionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		sessions:    sessions,
		clients:     clients,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// Create validates the interval and client reference, derives hours, and
// stores the session stamped with the acting operator. No store call is made
// when validation fails.
func (s *SessionService) Create(ctx context.Context, principal Principal, input SessionInput) (persistence.Session, error) {
	if s == nil {
		return persistence.Session{}, fmt.Errorf("SessionService is nil")
	}
	if !principal.Authenticated() {
		return persistence.Session{}, ErrUnauthenticated
	}

	vErr := &ValidationError{}
	validateInterval(input.Start, input.End, vErr)
	if input.ClientID == "" {
		vErr.add("client_id", "client is required")
	}
	if vErr.HasErrors() {
		return persistence.Session{}, vErr
	}

	client, err := s.clients.GetClient(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			vErr.add("client_id", "unknown client")
			return persistence.Session{}, vErr
		}
		return persistence.Session{}, err
	}

	session := persistence.Session{
		ID:          s.idGenerator(),
		ClientID:    client.ID,
		ClientName:  client.Name,
		Start:       input.Start,
		End:         input.End,
		Hours:       input.End.Sub(input.Start).Hours(),
		OwnerUserID: principal.UserID,
		CreatedAt:   s.now(),
	}

	created, err := s.sessions.InsertSession(ctx, session)
	if err != nil {
		logger := serviceLogger(ctx, s.logger, "sessions", "create", "session_id", session.ID)
		logger.Error("failed to insert session", "error", err, "kind", ErrorKind(err))
		return persistence.Session{}, mapSessionRepoError(err)
	}
	return created, nil
}

// Update re-validates the interval and recomputes hours. The client name
// snapshot is only refreshed when the caller supplies a different client;
// otherwise the stored snapshot is kept even if the client was renamed since.
func (s *SessionService) Update(ctx context.Context, principal Principal, id string, input SessionInput) (persistence.Session, error) {
	if s == nil {
		return persistence.Session{}, fmt.Errorf("SessionService is nil")
	}
	if !principal.Authenticated() {
		return persistence.Session{}, ErrUnauthenticated
	}

	vErr := &ValidationError{}
	validateInterval(input.Start, input.End, vErr)
	if vErr.HasErrors() {
		return persistence.Session{}, vErr
	}

	existing, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return persistence.Session{}, mapSessionRepoError(err)
	}
	if existing.OwnerUserID != principal.UserID {
		return persistence.Session{}, ErrUnauthorized
	}

	updated := existing
	updated.Start = input.Start
	updated.End = input.End
	updated.Hours = input.End.Sub(input.Start).Hours()

	if input.ClientID != "" && input.ClientID != existing.ClientID {
		client, err := s.clients.GetClient(ctx, input.ClientID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				vErr.add("client_id", "unknown client")
				return persistence.Session{}, vErr
			}
			return persistence.Session{}, err
		}
		updated.ClientID = client.ID
		updated.ClientName = client.Name
	}

	replaced, err := s.sessions.ReplaceSession(ctx, updated)
	if err != nil {
		logger := serviceLogger(ctx, s.logger, "sessions", "update", "session_id", id)
		logger.Error("failed to replace session", "error", err, "kind", ErrorKind(err))
		return persistence.Session{}, mapSessionRepoError(err)
	}
	return replaced, nil
}

// Delete removes a session owned by the acting operator.
func (s *SessionService) Delete(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}
	if !principal.Authenticated() {
		return ErrUnauthenticated
	}

	existing, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return mapSessionRepoError(err)
	}
	if existing.OwnerUserID != principal.UserID {
		return ErrUnauthorized
	}

	if err := s.sessions.RemoveSession(ctx, id); err != nil {
		logger := serviceLogger(ctx, s.logger, "sessions", "delete", "session_id", id)
		logger.Error("failed to remove session", "error", err, "kind", ErrorKind(err))
		return mapSessionRepoError(err)
	}
	return nil
}

// List enumerates the sessions owned by the acting operator. An
// unauthenticated principal sees the empty set.
func (s *SessionService) List(ctx context.Context, principal Principal) ([]persistence.Session, error) {
	if s == nil {
		return nil, fmt.Errorf("SessionService is nil")
	}
	if !principal.Authenticated() {
		return nil, nil
	}
	sessions, err := s.sessions.ListSessions(ctx, persistence.SessionFilter{OwnerUserID: principal.UserID})
	if err != nil {
		return nil, mapSessionRepoError(err)
	}
	return sessions, nil
}

func validateInterval(start, end time.Time, vErr *ValidationError) {
	if start.IsZero() {
		vErr.add("start", "start is required")
	}
	if end.IsZero() {
		vErr.add("end", "end is required")
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		vErr.add("time", "end must be after start")
	}
}

func mapSessionRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
