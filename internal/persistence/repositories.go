package persistence

import (
	"context"
	"time"
)

// ClientSnapshot is one full-collection delivery on a client feed. Err is set
// in-band when the feed could not produce a snapshot; previously delivered
// state stays valid.
type ClientSnapshot struct {
	Clients []Client
	Err     error
}

// SessionSnapshot is one full-collection delivery on a session feed.
type SessionSnapshot struct {
	Sessions []Session
	Err      error
}

// ClientFeed is a standing subscription to the clients collection. Every
// committed mutation produces a fresh full snapshot; a slow consumer observes
// only the newest one.
type ClientFeed interface {
	Snapshots() <-chan ClientSnapshot
	Close()
}

// SessionFeed is a standing subscription to the sessions collection under a
// fixed filter.
type SessionFeed interface {
	Snapshots() <-chan SessionSnapshot
	Close()
}

// ClientRepository exposes document operations for the clients collection.
type ClientRepository interface {
	InsertClient(ctx context.Context, client Client) (Client, error)
	ReplaceClient(ctx context.Context, client Client) (Client, error)
	RemoveClient(ctx context.Context, id string) error
	GetClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	SubscribeClients(ctx context.Context) (ClientFeed, error)
}

// SessionRepository exposes document operations for the sessions collection.
type SessionRepository interface {
	InsertSession(ctx context.Context, session Session) (Session, error)
	ReplaceSession(ctx context.Context, session Session) (Session, error)
	RemoveSession(ctx context.Context, id string) error
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	SubscribeSessions(ctx context.Context, filter SessionFilter) (SessionFeed, error)
}

// OperatorRepository stores operator accounts.
type OperatorRepository interface {
	CreateOperator(ctx context.Context, operator Operator) (Operator, error)
	GetOperator(ctx context.Context, id string) (Operator, error)
	GetOperatorByEmail(ctx context.Context, email string) (Operator, error)
}

// AuthSessionRepository stores bearer tokens issued to operators.
type AuthSessionRepository interface {
	CreateAuthSession(ctx context.Context, session AuthSession) (AuthSession, error)
	GetAuthSession(ctx context.Context, token string) (AuthSession, error)
	RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) error
	DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error
}
