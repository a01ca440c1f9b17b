package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// ClientService owns mutations against the clients collection. Reads flow
// through the live feed, never through this service; local state is
// authoritative only until the next snapshot arrives.
type ClientService struct {
	clients     persistence.ClientRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewClientService wires dependencies for client operations.
func NewClientService(clients persistence.ClientRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ClientService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ClientService{
		clients:     clients,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// Create validates and stores a new client.
func (s *ClientService) Create(ctx context.Context, principal Principal, input ClientInput) (persistence.Client, error) {
	if s == nil {
		return persistence.Client{}, fmt.Errorf("ClientService is nil")
	}
	if !principal.Authenticated() {
		return persistence.Client{}, ErrUnauthenticated
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if vErr.HasErrors() {
		return persistence.Client{}, vErr
	}

	client := persistence.Client{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		Notes:     strings.TrimSpace(input.Notes),
		CreatedAt: s.now(),
	}

	created, err := s.clients.InsertClient(ctx, client)
	if err != nil {
		logger := serviceLogger(ctx, s.logger, "clients", "create", "client_id", client.ID)
		logger.Error("failed to insert client", "error", err, "kind", ErrorKind(err))
		return persistence.Client{}, mapClientRepoError(err)
	}
	return created, nil
}

// Update replaces every mutable field of an existing client.
func (s *ClientService) Update(ctx context.Context, principal Principal, id string, input ClientInput) (persistence.Client, error) {
	if s == nil {
		return persistence.Client{}, fmt.Errorf("ClientService is nil")
	}
	if !principal.Authenticated() {
		return persistence.Client{}, ErrUnauthenticated
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if vErr.HasErrors() {
		return persistence.Client{}, vErr
	}

	existing, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return persistence.Client{}, mapClientRepoError(err)
	}

	updated := existing
	updated.Name = strings.TrimSpace(input.Name)
	updated.Email = strings.TrimSpace(input.Email)
	updated.Phone = strings.TrimSpace(input.Phone)
	updated.Notes = strings.TrimSpace(input.Notes)

	replaced, err := s.clients.ReplaceClient(ctx, updated)
	if err != nil {
		logger := serviceLogger(ctx, s.logger, "clients", "update", "client_id", id)
		logger.Error("failed to replace client", "error", err, "kind", ErrorKind(err))
		return persistence.Client{}, mapClientRepoError(err)
	}
	return replaced, nil
}

// Delete removes a client. Sessions referencing the client stay untouched and
// keep their stored name snapshot.
func (s *ClientService) Delete(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("ClientService is nil")
	}
	if !principal.Authenticated() {
		return ErrUnauthenticated
	}

	if err := s.clients.RemoveClient(ctx, id); err != nil {
		logger := serviceLogger(ctx, s.logger, "clients", "delete", "client_id", id)
		logger.Error("failed to remove client", "error", err, "kind", ErrorKind(err))
		return mapClientRepoError(err)
	}
	return nil
}

// List returns the full client collection ordered by name. It exists for
// one-shot reads such as form population; live consumers subscribe to the
// client feed instead.
func (s *ClientService) List(ctx context.Context, principal Principal) ([]persistence.Client, error) {
	if s == nil {
		return nil, fmt.Errorf("ClientService is nil")
	}
	if !principal.Authenticated() {
		return nil, ErrUnauthenticated
	}

	clients, err := s.clients.ListClients(ctx)
	if err != nil {
		logger := serviceLogger(ctx, s.logger, "clients", "list")
		logger.Error("failed to list clients", "error", err, "kind", ErrorKind(err))
		return nil, mapClientRepoError(err)
	}
	return clients, nil
}

func mapClientRepoError(err error) error {
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
