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

// InsertClient stores a new client document and republishes the collection.
func (s *Store) InsertClient(ctx context.Context, client persistence.Client) (persistence.Client, error) {
	query := `
		INSERT INTO clients (id, name, email, phone, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		client.ID,
		client.Name,
		client.Email,
		client.Phone,
		client.Notes,
		client.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return persistence.Client{}, mapSQLError(err)
	}

	s.republishClients(ctx)
	return client, nil
}

// ReplaceClient overwrites every mutable field of an existing client.
func (s *Store) ReplaceClient(ctx context.Context, client persistence.Client) (persistence.Client, error) {
	query := `
		UPDATE clients
		SET name = ?, email = ?, phone = ?, notes = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		client.Name,
		client.Email,
		client.Phone,
		client.Notes,
		client.ID,
	)
	if err != nil {
		return persistence.Client{}, mapSQLError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Client{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.Client{}, persistence.ErrNotFound
	}

	s.republishClients(ctx)
	return s.GetClient(ctx, client.ID)
}

// RemoveClient deletes a client document. Sessions referencing the client are
// left untouched; they keep rendering under their stored name snapshot.
func (s *Store) RemoveClient(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
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

	s.republishClients(ctx)
	return nil
}

// GetClient retrieves a client by id.
func (s *Store) GetClient(ctx context.Context, id string) (persistence.Client, error) {
	query := `
		SELECT id, name, email, phone, notes, created_at
		FROM clients
		WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)
	client, err := scanClient(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Client{}, persistence.ErrNotFound
		}
		return persistence.Client{}, err
	}
	return client, nil
}

// ListClients returns every client ordered by creation time.
func (s *Store) ListClients(ctx context.Context) ([]persistence.Client, error) {
	query := `
		SELECT id, name, email, phone, notes, created_at
		FROM clients
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()

	clients := make([]persistence.Client, 0)
	for rows.Next() {
		client, err := scanClient(rows.Scan)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLError(err)
	}
	return clients, nil
}

func scanClient(scan func(...any) error) (persistence.Client, error) {
	var client persistence.Client
	var createdAt string
	if err := scan(&client.ID, &client.Name, &client.Email, &client.Phone, &client.Notes, &createdAt); err != nil {
		return persistence.Client{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return persistence.Client{}, fmt.Errorf("parse created_at: %w", err)
	}
	client.CreatedAt = parsed
	return client, nil
}

func mapSQLError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE") {
		return persistence.ErrDuplicate
	}
	return err
}
