package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// CreateOperator stores a new operator account.
func (s *Store) CreateOperator(ctx context.Context, operator persistence.Operator) (persistence.Operator, error) {
	query := `
		INSERT INTO operators (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		operator.ID,
		strings.ToLower(strings.TrimSpace(operator.Email)),
		operator.PasswordHash,
		operator.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return persistence.Operator{}, mapSQLError(err)
	}
	return operator, nil
}

// GetOperator retrieves an operator by id.
func (s *Store) GetOperator(ctx context.Context, id string) (persistence.Operator, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM operators
		WHERE id = ?
	`
	return s.queryOperator(ctx, query, id)
}

// GetOperatorByEmail retrieves an operator by normalized email address.
func (s *Store) GetOperatorByEmail(ctx context.Context, email string) (persistence.Operator, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM operators
		WHERE email = ?
	`
	return s.queryOperator(ctx, query, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) queryOperator(ctx context.Context, query string, arg string) (persistence.Operator, error) {
	var operator persistence.Operator
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&operator.ID, &operator.Email, &operator.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Operator{}, persistence.ErrNotFound
		}
		return persistence.Operator{}, mapSQLError(err)
	}
	if operator.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return persistence.Operator{}, fmt.Errorf("parse created_at: %w", err)
	}
	return operator, nil
}

// CreateAuthSession stores a freshly issued bearer token.
func (s *Store) CreateAuthSession(ctx context.Context, session persistence.AuthSession) (persistence.AuthSession, error) {
	query := `
		INSERT INTO auth_sessions (id, operator_id, token, expires_at, created_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var revokedAt sql.NullString
	if session.RevokedAt != nil {
		revokedAt.String = session.RevokedAt.UTC().Format(time.RFC3339Nano)
		revokedAt.Valid = true
	}

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.OperatorID,
		session.Token,
		session.ExpiresAt.UTC().Format(time.RFC3339Nano),
		session.CreatedAt.UTC().Format(time.RFC3339Nano),
		revokedAt,
	)
	if err != nil {
		return persistence.AuthSession{}, mapSQLError(err)
	}
	return session, nil
}

// GetAuthSession retrieves an auth session by token value.
func (s *Store) GetAuthSession(ctx context.Context, token string) (persistence.AuthSession, error) {
	query := `
		SELECT id, operator_id, token, expires_at, created_at, revoked_at
		FROM auth_sessions
		WHERE token = ?
	`

	var session persistence.AuthSession
	var expiresAt, createdAt string
	var revokedAt sql.NullString
	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&session.ID,
		&session.OperatorID,
		&session.Token,
		&expiresAt,
		&createdAt,
		&revokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AuthSession{}, persistence.ErrNotFound
		}
		return persistence.AuthSession{}, mapSQLError(err)
	}

	if session.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("parse expires_at: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("parse created_at: %w", err)
	}
	if revokedAt.Valid {
		parsed, err := time.Parse(time.RFC3339Nano, revokedAt.String)
		if err != nil {
			return persistence.AuthSession{}, fmt.Errorf("parse revoked_at: %w", err)
		}
		session.RevokedAt = &parsed
	}
	return session, nil
}

// RevokeAuthSession marks a token as revoked.
func (s *Store) RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) error {
	query := `
		UPDATE auth_sessions
		SET revoked_at = ?
		WHERE token = ? AND revoked_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, revokedAt.UTC().Format(time.RFC3339Nano), token)
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
	return nil
}

// DeleteExpiredAuthSessions removes tokens that expired before the reference
// time. Used by the scheduled purge job.
func (s *Store) DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error {
	query := `DELETE FROM auth_sessions WHERE expires_at < ?`
	if _, err := s.db.ExecContext(ctx, query, reference.UTC().Format(time.RFC3339Nano)); err != nil {
		return mapSQLError(err)
	}
	return nil
}
