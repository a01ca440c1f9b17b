// Package livesync folds the document store's full-snapshot feeds into an
// in-memory view of the clients and sessions collections. Every delivered
// snapshot replaces the corresponding set wholesale; derived views therefore
// always recompute from the latest state and out-of-order partial updates are
// impossible by construction.
package livesync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/booking-engine/internal/persistence"
)

// State is an immutable copy of the latest reconciled snapshots. The two
// collections have no relative ordering guarantee; a session may transiently
// carry a name snapshot older than the client set shows.
type State struct {
	Clients  []persistence.Client
	Sessions []persistence.Session
}

// Listener is invoked after every applied snapshot with the fresh state.
type Listener func(State)

// ErrorHook is invoked when a feed delivers an error instead of a snapshot.
// The previous state is retained; nothing is blanked.
type ErrorHook func(collection string, err error)

// Reconciler subscribes to both collection feeds and keeps the in-memory
// client registry and session store current.
type Reconciler struct {
	clients  persistence.ClientRepository
	sessions persistence.SessionRepository
	filter   persistence.SessionFilter
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	listeners []Listener
	errHook   ErrorHook
}

// New builds a reconciler for the given operator filter. An empty owner id
// yields an empty session feed, matching the unauthenticated case.
func New(clients persistence.ClientRepository, sessions persistence.SessionRepository, filter persistence.SessionFilter, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		clients:  clients,
		sessions: sessions,
		filter:   filter,
		logger:   logger,
	}
}

// OnChange registers a listener. Registration must happen before Run.
func (r *Reconciler) OnChange(listener Listener) {
	if listener == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, listener)
	r.mu.Unlock()
}

// OnError registers the feed error hook. Registration must happen before Run.
func (r *Reconciler) OnError(hook ErrorHook) {
	r.mu.Lock()
	r.errHook = hook
	r.mu.Unlock()
}

// State returns a copy of the latest reconciled state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneState(r.state)
}

// Run subscribes to both feeds and applies snapshots in delivery order until
// the context is cancelled or both feeds close.
func (r *Reconciler) Run(ctx context.Context) error {
	clientFeed, err := r.clients.SubscribeClients(ctx)
	if err != nil {
		return fmt.Errorf("subscribe clients: %w", err)
	}
	defer clientFeed.Close()

	sessionFeed, err := r.sessions.SubscribeSessions(ctx, r.filter)
	if err != nil {
		return fmt.Errorf("subscribe sessions: %w", err)
	}
	defer sessionFeed.Close()

	clientSnapshots := clientFeed.Snapshots()
	sessionSnapshots := sessionFeed.Snapshots()

	for clientSnapshots != nil || sessionSnapshots != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case snapshot, ok := <-clientSnapshots:
			if !ok {
				clientSnapshots = nil
				continue
			}
			if snapshot.Err != nil {
				r.reportFeedError("clients", snapshot.Err)
				continue
			}
			r.applyClients(snapshot.Clients)

		case snapshot, ok := <-sessionSnapshots:
			if !ok {
				sessionSnapshots = nil
				continue
			}
			if snapshot.Err != nil {
				r.reportFeedError("sessions", snapshot.Err)
				continue
			}
			r.applySessions(snapshot.Sessions)
		}
	}
	return nil
}

func (r *Reconciler) applyClients(clients []persistence.Client) {
	r.mu.Lock()
	r.state.Clients = append([]persistence.Client(nil), clients...)
	state := cloneState(r.state)
	listeners := r.listeners
	r.mu.Unlock()

	for _, listener := range listeners {
		listener(state)
	}
}

func (r *Reconciler) applySessions(sessions []persistence.Session) {
	r.mu.Lock()
	r.state.Sessions = append([]persistence.Session(nil), sessions...)
	state := cloneState(r.state)
	listeners := r.listeners
	r.mu.Unlock()

	for _, listener := range listeners {
		listener(state)
	}
}

func (r *Reconciler) reportFeedError(collection string, err error) {
	r.logger.Error("feed delivered an error, retaining previous snapshot", "collection", collection, "error", err)
	r.mu.Lock()
	hook := r.errHook
	r.mu.Unlock()
	if hook != nil {
		hook(collection, err)
	}
}

func cloneState(state State) State {
	return State{
		Clients:  append([]persistence.Client(nil), state.Clients...),
		Sessions: append([]persistence.Session(nil), state.Sessions...),
	}
}
