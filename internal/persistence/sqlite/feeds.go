package sqlite

import (
	"context"
	"sync"

	"github.com/example/booking-engine/internal/persistence"
)

// hub tracks standing collection subscriptions. Each subscriber owns a
// capacity-one channel; publishing replaces any undelivered snapshot so a
// slow consumer always observes the newest state (latest-wins).
type hub struct {
	mu       sync.Mutex
	closed   bool
	clients  map[*clientFeed]struct{}
	sessions map[*sessionFeed]struct{}
}

func newHub() *hub {
	return &hub{
		clients:  make(map[*clientFeed]struct{}),
		sessions: make(map[*sessionFeed]struct{}),
	}
}

type clientFeed struct {
	hub  *hub
	ch   chan persistence.ClientSnapshot
	once sync.Once
}

// Snapshots returns the channel carrying full client snapshots.
func (f *clientFeed) Snapshots() <-chan persistence.ClientSnapshot { return f.ch }

// Close detaches the feed and closes its channel.
func (f *clientFeed) Close() {
	f.once.Do(func() {
		f.hub.mu.Lock()
		delete(f.hub.clients, f)
		f.hub.mu.Unlock()
		close(f.ch)
	})
}

type sessionFeed struct {
	hub    *hub
	filter persistence.SessionFilter
	ch     chan persistence.SessionSnapshot
	once   sync.Once
}

// Snapshots returns the channel carrying full session snapshots.
func (f *sessionFeed) Snapshots() <-chan persistence.SessionSnapshot { return f.ch }

// Close detaches the feed and closes its channel.
func (f *sessionFeed) Close() {
	f.once.Do(func() {
		f.hub.mu.Lock()
		delete(f.hub.sessions, f)
		f.hub.mu.Unlock()
		close(f.ch)
	})
}

// subscribeClients queries the initial snapshot, registers the feed, and
// delivers the snapshot all under the hub lock. A mutation committing
// concurrently is therefore either visible to the query or published to the
// already-registered feed; neither window can leave the subscriber on
// pre-mutation state.
func (h *hub) subscribeClients(ctx context.Context, initial func() ([]persistence.Client, error)) (*clientFeed, error) {
	h.mu.Lock()
	clients, err := initial()
	if err != nil {
		h.mu.Unlock()
		return nil, err
	}
	feed := &clientFeed{hub: h, ch: make(chan persistence.ClientSnapshot, 1)}
	h.clients[feed] = struct{}{}
	feed.ch <- persistence.ClientSnapshot{Clients: clients}
	h.mu.Unlock()
	if ctx != nil {
		go func() {
			<-ctx.Done()
			feed.Close()
		}()
	}
	return feed, nil
}

// subscribeSessions mirrors subscribeClients for the sessions collection.
func (h *hub) subscribeSessions(ctx context.Context, filter persistence.SessionFilter, initial func() ([]persistence.Session, error)) (*sessionFeed, error) {
	h.mu.Lock()
	sessions, err := initial()
	if err != nil {
		h.mu.Unlock()
		return nil, err
	}
	feed := &sessionFeed{hub: h, filter: filter, ch: make(chan persistence.SessionSnapshot, 1)}
	h.sessions[feed] = struct{}{}
	feed.ch <- persistence.SessionSnapshot{Sessions: sessions}
	h.mu.Unlock()
	if ctx != nil {
		go func() {
			<-ctx.Done()
			feed.Close()
		}()
	}
	return feed, nil
}

func (h *hub) publishClients(snapshot persistence.ClientSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for feed := range h.clients {
		replaceClientSnapshot(feed.ch, snapshot)
	}
}

func (h *hub) publishSessions(all []persistence.Session, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for feed := range h.sessions {
		snapshot := persistence.SessionSnapshot{Err: err}
		if err == nil {
			filtered := make([]persistence.Session, 0, len(all))
			for _, session := range all {
				if feed.filter.Matches(session) {
					filtered = append(filtered, session)
				}
			}
			snapshot.Sessions = filtered
		}
		replaceSessionSnapshot(feed.ch, snapshot)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*clientFeed, 0, len(h.clients))
	for feed := range h.clients {
		clients = append(clients, feed)
	}
	sessions := make([]*sessionFeed, 0, len(h.sessions))
	for feed := range h.sessions {
		sessions = append(sessions, feed)
	}
	h.mu.Unlock()

	for _, feed := range clients {
		feed.Close()
	}
	for _, feed := range sessions {
		feed.Close()
	}
}

func replaceClientSnapshot(ch chan persistence.ClientSnapshot, snapshot persistence.ClientSnapshot) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func replaceSessionSnapshot(ch chan persistence.SessionSnapshot, snapshot persistence.SessionSnapshot) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// SubscribeClients opens a standing subscription to the clients collection.
// The current snapshot is delivered immediately.
func (s *Store) SubscribeClients(ctx context.Context) (persistence.ClientFeed, error) {
	return s.hub.subscribeClients(ctx, func() ([]persistence.Client, error) {
		return s.ListClients(ctx)
	})
}

// SubscribeSessions opens a standing subscription to the sessions collection
// under the given filter. The current snapshot is delivered immediately.
func (s *Store) SubscribeSessions(ctx context.Context, filter persistence.SessionFilter) (persistence.SessionFeed, error) {
	return s.hub.subscribeSessions(ctx, filter, func() ([]persistence.Session, error) {
		return s.ListSessions(ctx, filter)
	})
}

func (s *Store) republishClients(ctx context.Context) {
	clients, err := s.ListClients(ctx)
	s.hub.publishClients(persistence.ClientSnapshot{Clients: clients, Err: err})
}

func (s *Store) republishSessions(ctx context.Context) {
	sessions, err := s.listAllSessions(ctx)
	s.hub.publishSessions(sessions, err)
}
