package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/booking-engine/internal/persistence"
	"github.com/example/booking-engine/internal/testfixtures"
)

func newSessionService(t *testing.T) (*SessionService, *testfixtures.MemoryStore, *testfixtures.Clock) {
	t.Helper()
	store := testfixtures.NewMemoryStore()
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("session")
	service := NewSessionService(store, store, ids.NextFunc(), clock.NowFunc(), nil)
	return service, store, clock
}

func seedClient(t *testing.T, store *testfixtures.MemoryStore, id, name string) persistence.Client {
	t.Helper()
	client, err := store.InsertClient(context.Background(), testfixtures.NewClient(id, name))
	if err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
	return client
}

var operator = Principal{UserID: "op-1", Email: "owner@example.com"}

func TestSessionService_Create(t *testing.T) {
	t.Parallel()

	t.Run("computes hours and snapshots the client name", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newSessionService(t)
		seedClient(t, store, "c1", "Alice")

		start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		session, err := service.Create(context.Background(), operator, SessionInput{
			ClientID: "c1",
			Start:    start,
			End:      start.Add(90 * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if session.Hours != 1.5 {
			t.Fatalf("expected 1.5 hours, got %v", session.Hours)
		}
		if session.ClientName != "Alice" {
			t.Fatalf("expected name snapshot Alice, got %q", session.ClientName)
		}
		if session.OwnerUserID != "op-1" {
			t.Fatalf("expected owner stamp op-1, got %q", session.OwnerUserID)
		}
		if !session.CreatedAt.Equal(testfixtures.ReferenceTime()) {
			t.Fatalf("expected created_at from injected clock, got %v", session.CreatedAt)
		}
	})

	t.Run("rejects end not after start without touching the store", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newSessionService(t)
		seedClient(t, store, "c1", "Alice")

		start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		for _, end := range []time.Time{start, start.Add(-time.Hour)} {
			_, err := service.Create(context.Background(), operator, SessionInput{
				ClientID: "c1",
				Start:    start,
				End:      end,
			})
			if !IsInvalidInterval(err) {
				t.Fatalf("expected invalid interval error for end %v, got %v", end, err)
			}
		}

		stored, err := store.ListSessions(context.Background(), persistence.SessionFilter{OwnerUserID: operator.UserID})
		if err != nil {
			t.Fatalf("ListSessions returned error: %v", err)
		}
		if len(stored) != 0 {
			t.Fatalf("expected sessions collection unchanged, got %d rows", len(stored))
		}
	})

	t.Run("rejects an unresolvable client reference", func(t *testing.T) {
		t.Parallel()
		service, _, _ := newSessionService(t)

		start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		_, err := service.Create(context.Background(), operator, SessionInput{
			ClientID: "ghost",
			Start:    start,
			End:      start.Add(time.Hour),
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Field("client_id") == "" {
			t.Fatalf("expected client_id validation error, got %v", err)
		}
	})

	t.Run("rejects unauthenticated principals", func(t *testing.T) {
		t.Parallel()
		service, _, _ := newSessionService(t)

		start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		_, err := service.Create(context.Background(), Principal{}, SessionInput{
			ClientID: "c1",
			Start:    start,
			End:      start.Add(time.Hour),
		})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("surfaces store failures to the caller", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newSessionService(t)
		seedClient(t, store, "c1", "Alice")
		storeErr := errors.New("connection reset")
		store.FailWith = storeErr

		start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		_, err := service.Create(context.Background(), operator, SessionInput{
			ClientID: "c1",
			Start:    start,
			End:      start.Add(time.Hour),
		})
		if !errors.Is(err, storeErr) {
			t.Fatalf("expected store error to surface, got %v", err)
		}
	})
}

func TestSessionService_Update(t *testing.T) {
	t.Parallel()

	t.Run("recomputes hours and keeps the stale name snapshot", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newSessionService(t)
		client := seedClient(t, store, "c1", "Alice")

		start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		session, err := service.Create(context.Background(), operator, SessionInput{
			ClientID: client.ID,
			Start:    start,
			End:      start.Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}

		// Rename the client behind the session's back.
		renamed := client
		renamed.Name = "Alicia"
		if _, err := store.ReplaceClient(context.Background(), renamed); err != nil {
			t.Fatalf("ReplaceClient returned error: %v", err)
		}

		updated, err := service.Update(context.Background(), operator, session.ID, SessionInput{
			Start: start,
			End:   start.Add(2 * time.Hour),
		})
		if err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		if updated.Hours != 2 {
			t.Fatalf("expected recomputed hours 2, got %v", updated.Hours)
		}
		if updated.ClientName != "Alice" {
			t.Fatalf("expected stale snapshot Alice to survive, got %q", updated.ClientName)
		}
	})

	t.Run("re-snapshots the name when a new client is supplied", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newSessionService(t)
		alice := seedClient(t, store, "c1", "Alice")
		seedClient(t, store, "c2", "Bruno")

		start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		session, err := service.Create(context.Background(), operator, SessionInput{
			ClientID: alice.ID,
			Start:    start,
			End:      start.Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}

		updated, err := service.Update(context.Background(), operator, session.ID, SessionInput{
			ClientID: "c2",
			Start:    start,
			End:      start.Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		if updated.ClientID != "c2" || updated.ClientName != "Bruno" {
			t.Fatalf("expected rebinding to Bruno, got %q/%q", updated.ClientID, updated.ClientName)
		}
	})

	t.Run("refuses updates by a different operator", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newSessionService(t)
		client := seedClient(t, store, "c1", "Alice")

		start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		session, err := service.Create(context.Background(), operator, SessionInput{
			ClientID: client.ID,
			Start:    start,
			End:      start.Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}

		intruder := Principal{UserID: "op-2", Email: "other@example.com"}
		_, err = service.Update(context.Background(), intruder, session.ID, SessionInput{
			Start: start,
			End:   start.Add(time.Hour),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("maps a missing session to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		service, _, _ := newSessionService(t)

		start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		_, err := service.Update(context.Background(), operator, "ghost", SessionInput{
			Start: start,
			End:   start.Add(time.Hour),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSessionService_Delete(t *testing.T) {
	t.Parallel()

	t.Run("removes sessions owned by the operator", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newSessionService(t)
		client := seedClient(t, store, "c1", "Alice")

		start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		session, err := service.Create(context.Background(), operator, SessionInput{
			ClientID: client.ID,
			Start:    start,
			End:      start.Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}

		if err := service.Delete(context.Background(), operator, session.ID); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
		if err := service.Delete(context.Background(), operator, session.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for second delete, got %v", err)
		}
	})

	t.Run("refuses deletes by a different operator", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newSessionService(t)
		client := seedClient(t, store, "c1", "Alice")

		start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		session, err := service.Create(context.Background(), operator, SessionInput{
			ClientID: client.ID,
			Start:    start,
			End:      start.Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}

		intruder := Principal{UserID: "op-2"}
		if err := service.Delete(context.Background(), intruder, session.ID); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestSessionService_List(t *testing.T) {
	t.Parallel()

	t.Run("unauthenticated principals see the empty set", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newSessionService(t)
		client := seedClient(t, store, "c1", "Alice")
		if _, err := service.Create(context.Background(), operator, SessionInput{
			ClientID: client.ID,
			Start:    testfixtures.ReferenceTime(),
			End:      testfixtures.ReferenceTime().Add(time.Hour),
		}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}

		sessions, err := service.List(context.Background(), Principal{})
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if len(sessions) != 0 {
			t.Fatalf("expected empty list, got %d sessions", len(sessions))
		}
	})
}
