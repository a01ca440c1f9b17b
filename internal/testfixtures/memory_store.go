package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// MemoryStore is an in-memory implementation of the persistence repositories
// with the same full-snapshot feed semantics as the SQLite store. Setting
// FailWith makes every repository call return that error, which lets tests
// exercise the store-failure propagation paths.
type MemoryStore struct {
	mu           sync.Mutex
	FailWith     error
	clients      map[string]persistence.Client
	sessions     map[string]persistence.Session
	operators    map[string]persistence.Operator
	authSessions map[string]persistence.AuthSession
	clientFeeds  map[*memoryClientFeed]struct{}
	sessionFeeds map[*memorySessionFeed]struct{}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:      make(map[string]persistence.Client),
		sessions:     make(map[string]persistence.Session),
		operators:    make(map[string]persistence.Operator),
		authSessions: make(map[string]persistence.AuthSession),
		clientFeeds:  make(map[*memoryClientFeed]struct{}),
		sessionFeeds: make(map[*memorySessionFeed]struct{}),
	}
}

// InsertClient stores a new client and republishes the collection.
func (s *MemoryStore) InsertClient(_ context.Context, client persistence.Client) (persistence.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return persistence.Client{}, s.FailWith
	}
	if _, ok := s.clients[client.ID]; ok {
		return persistence.Client{}, persistence.ErrDuplicate
	}
	s.clients[client.ID] = client
	s.publishClientsLocked()
	return client, nil
}

// ReplaceClient overwrites an existing client.
func (s *MemoryStore) ReplaceClient(_ context.Context, client persistence.Client) (persistence.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return persistence.Client{}, s.FailWith
	}
	existing, ok := s.clients[client.ID]
	if !ok {
		return persistence.Client{}, persistence.ErrNotFound
	}
	client.CreatedAt = existing.CreatedAt
	s.clients[client.ID] = client
	s.publishClientsLocked()
	return client, nil
}

// RemoveClient deletes a client.
func (s *MemoryStore) RemoveClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.clients[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.clients, id)
	s.publishClientsLocked()
	return nil
}

// GetClient retrieves a client by id.
func (s *MemoryStore) GetClient(_ context.Context, id string) (persistence.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return persistence.Client{}, s.FailWith
	}
	client, ok := s.clients[id]
	if !ok {
		return persistence.Client{}, persistence.ErrNotFound
	}
	return client, nil
}

// ListClients returns every client ordered by creation time.
func (s *MemoryStore) ListClients(_ context.Context) ([]persistence.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	return s.listClientsLocked(), nil
}

func (s *MemoryStore) listClientsLocked() []persistence.Client {
	clients := make([]persistence.Client, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].CreatedAt.Equal(clients[j].CreatedAt) {
			return clients[i].ID < clients[j].ID
		}
		return clients[i].CreatedAt.Before(clients[j].CreatedAt)
	})
	return clients
}

// InsertSession stores a new session and republishes the collection.
func (s *MemoryStore) InsertSession(_ context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return persistence.Session{}, s.FailWith
	}
	if _, ok := s.sessions[session.ID]; ok {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	s.sessions[session.ID] = session
	s.publishSessionsLocked()
	return session, nil
}

// ReplaceSession overwrites an existing session.
func (s *MemoryStore) ReplaceSession(_ context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return persistence.Session{}, s.FailWith
	}
	existing, ok := s.sessions[session.ID]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.OwnerUserID = existing.OwnerUserID
	session.CreatedAt = existing.CreatedAt
	s.sessions[session.ID] = session
	s.publishSessionsLocked()
	return session, nil
}

// RemoveSession deletes a session.
func (s *MemoryStore) RemoveSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.sessions[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.sessions, id)
	s.publishSessionsLocked()
	return nil
}

// GetSession retrieves a session by id.
func (s *MemoryStore) GetSession(_ context.Context, id string) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return persistence.Session{}, s.FailWith
	}
	session, ok := s.sessions[id]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

// ListSessions returns sessions matching the filter ordered by start time.
func (s *MemoryStore) ListSessions(_ context.Context, filter persistence.SessionFilter) ([]persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	return s.listSessionsLocked(filter), nil
}

func (s *MemoryStore) listSessionsLocked(filter persistence.SessionFilter) []persistence.Session {
	sessions := make([]persistence.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		if filter.Matches(session) {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Start.Equal(sessions[j].Start) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].Start.Before(sessions[j].Start)
	})
	return sessions
}

// CreateOperator stores a new operator account.
func (s *MemoryStore) CreateOperator(_ context.Context, operator persistence.Operator) (persistence.Operator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return persistence.Operator{}, s.FailWith
	}
	for _, existing := range s.operators {
		if existing.Email == operator.Email {
			return persistence.Operator{}, persistence.ErrDuplicate
		}
	}
	s.operators[operator.ID] = operator
	return operator, nil
}

// GetOperator retrieves an operator by id.
func (s *MemoryStore) GetOperator(_ context.Context, id string) (persistence.Operator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return persistence.Operator{}, s.FailWith
	}
	operator, ok := s.operators[id]
	if !ok {
		return persistence.Operator{}, persistence.ErrNotFound
	}
	return operator, nil
}

// GetOperatorByEmail retrieves an operator by email.
func (s *MemoryStore) GetOperatorByEmail(_ context.Context, email string) (persistence.Operator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return persistence.Operator{}, s.FailWith
	}
	for _, operator := range s.operators {
		if operator.Email == email {
			return operator, nil
		}
	}
	return persistence.Operator{}, persistence.ErrNotFound
}

// CreateAuthSession stores a bearer token.
func (s *MemoryStore) CreateAuthSession(_ context.Context, session persistence.AuthSession) (persistence.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return persistence.AuthSession{}, s.FailWith
	}
	s.authSessions[session.Token] = session
	return session, nil
}

// GetAuthSession retrieves a bearer token record.
func (s *MemoryStore) GetAuthSession(_ context.Context, token string) (persistence.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return persistence.AuthSession{}, s.FailWith
	}
	session, ok := s.authSessions[token]
	if !ok {
		return persistence.AuthSession{}, persistence.ErrNotFound
	}
	return session, nil
}

// RevokeAuthSession marks a token as revoked.
func (s *MemoryStore) RevokeAuthSession(_ context.Context, token string, revokedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	session, ok := s.authSessions[token]
	if !ok || session.RevokedAt != nil {
		return persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.authSessions[token] = session
	return nil
}

// DeleteExpiredAuthSessions removes lapsed tokens.
func (s *MemoryStore) DeleteExpiredAuthSessions(_ context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	for token, session := range s.authSessions {
		if session.ExpiresAt.Before(reference) {
			delete(s.authSessions, token)
		}
	}
	return nil
}

// SubscribeClients opens a client feed with the current snapshot preloaded.
func (s *MemoryStore) SubscribeClients(ctx context.Context) (persistence.ClientFeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	feed := &memoryClientFeed{store: s, ch: make(chan persistence.ClientSnapshot, 1)}
	s.clientFeeds[feed] = struct{}{}
	feed.ch <- persistence.ClientSnapshot{Clients: s.listClientsLocked()}
	if ctx != nil {
		go func() {
			<-ctx.Done()
			feed.Close()
		}()
	}
	return feed, nil
}

// SubscribeSessions opens a session feed with the current snapshot preloaded.
func (s *MemoryStore) SubscribeSessions(ctx context.Context, filter persistence.SessionFilter) (persistence.SessionFeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	feed := &memorySessionFeed{store: s, filter: filter, ch: make(chan persistence.SessionSnapshot, 1)}
	s.sessionFeeds[feed] = struct{}{}
	feed.ch <- persistence.SessionSnapshot{Sessions: s.listSessionsLocked(filter)}
	if ctx != nil {
		go func() {
			<-ctx.Done()
			feed.Close()
		}()
	}
	return feed, nil
}

// PublishClientError injects a feed error on every client feed, as a broken
// subscription would.
func (s *MemoryStore) PublishClientError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for feed := range s.clientFeeds {
		replace(feed.ch, persistence.ClientSnapshot{Err: err})
	}
}

// PublishSessionError injects a feed error on every session feed.
func (s *MemoryStore) PublishSessionError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for feed := range s.sessionFeeds {
		replace(feed.ch, persistence.SessionSnapshot{Err: err})
	}
}

func (s *MemoryStore) publishClientsLocked() {
	for feed := range s.clientFeeds {
		replace(feed.ch, persistence.ClientSnapshot{Clients: s.listClientsLocked()})
	}
}

func (s *MemoryStore) publishSessionsLocked() {
	for feed := range s.sessionFeeds {
		replace(feed.ch, persistence.SessionSnapshot{Sessions: s.listSessionsLocked(feed.filter)})
	}
}

func replace[T any](ch chan T, value T) {
	for {
		select {
		case ch <- value:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

type memoryClientFeed struct {
	store *MemoryStore
	ch    chan persistence.ClientSnapshot
	once  sync.Once
}

func (f *memoryClientFeed) Snapshots() <-chan persistence.ClientSnapshot { return f.ch }

func (f *memoryClientFeed) Close() {
	f.once.Do(func() {
		f.store.mu.Lock()
		delete(f.store.clientFeeds, f)
		f.store.mu.Unlock()
		close(f.ch)
	})
}

type memorySessionFeed struct {
	store  *MemoryStore
	filter persistence.SessionFilter
	ch     chan persistence.SessionSnapshot
	once   sync.Once
}

func (f *memorySessionFeed) Snapshots() <-chan persistence.SessionSnapshot { return f.ch }

func (f *memorySessionFeed) Close() {
	f.once.Do(func() {
		f.store.mu.Lock()
		delete(f.store.sessionFeeds, f)
		f.store.mu.Unlock()
		close(f.ch)
	})
}
