package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// InsertSession stores a new session document and republishes the collection.
func (s *Store) InsertSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	query := `
		INSERT INTO sessions (id, client_id, client_name, start_at, end_at, hours, owner_user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.ClientID,
		session.ClientName,
		session.Start.UTC().Format(time.RFC3339Nano),
		session.End.UTC().Format(time.RFC3339Nano),
		session.Hours,
		session.OwnerUserID,
		session.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return persistence.Session{}, mapSQLError(err)
	}

	s.republishSessions(ctx)
	return session, nil
}

// ReplaceSession overwrites the full booking tuple of an existing session.
// Owner and creation time are immutable.
func (s *Store) ReplaceSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	query := `
		UPDATE sessions
		SET client_id = ?, client_name = ?, start_at = ?, end_at = ?, hours = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		session.ClientID,
		session.ClientName,
		session.Start.UTC().Format(time.RFC3339Nano),
		session.End.UTC().Format(time.RFC3339Nano),
		session.Hours,
		session.ID,
	)
	if err != nil {
		return persistence.Session{}, mapSQLError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}

	s.republishSessions(ctx)
	return s.GetSession(ctx, session.ID)
}

// RemoveSession deletes a session document.
func (s *Store) RemoveSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return mapSQLError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}

	s.republishSessions(ctx)
	return nil
}

// GetSession retrieves a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	query := `
		SELECT id, client_id, client_name, start_at, end_at, hours, owner_user_id, created_at
		FROM sessions
		WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)
	session, err := scanSession(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, err
	}
	return session, nil
}

// ListSessions returns sessions matching the filter ordered by start time.
// An empty owner id matches nothing, the unauthenticated case.
func (s *Store) ListSessions(ctx context.Context, filter persistence.SessionFilter) ([]persistence.Session, error) {
	if filter.OwnerUserID == "" {
		return []persistence.Session{}, nil
	}
	query := `
		SELECT id, client_id, client_name, start_at, end_at, hours, owner_user_id, created_at
		FROM sessions
		WHERE owner_user_id = ?
		ORDER BY start_at, id
	`
	return s.querySessions(ctx, query, filter.OwnerUserID)
}

// listAllSessions is the internal republish path; subscriber filters are
// applied per feed by the hub.
func (s *Store) listAllSessions(ctx context.Context) ([]persistence.Session, error) {
	query := `
		SELECT id, client_id, client_name, start_at, end_at, hours, owner_user_id, created_at
		FROM sessions
		ORDER BY start_at, id
	`
	return s.querySessions(ctx, query)
}

func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]persistence.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()

	sessions := make([]persistence.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError(err)
	}
	return sessions, nil
}

func scanSession(scan func(...any) error) (persistence.Session, error) {
	var session persistence.Session
	var start, end, createdAt string
	if err := scan(&session.ID, &session.ClientID, &session.ClientName, &start, &end, &session.Hours, &session.OwnerUserID, &createdAt); err != nil {
		return persistence.Session{}, err
	}

	var err error
	if session.Start, err = time.Parse(time.RFC3339Nano, start); err != nil {
		return persistence.Session{}, fmt.Errorf("parse start_at: %w", err)
	}
	if session.End, err = time.Parse(time.RFC3339Nano, end); err != nil {
		return persistence.Session{}, fmt.Errorf("parse end_at: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return persistence.Session{}, fmt.Errorf("parse created_at: %w", err)
	}
	return session, nil
}
