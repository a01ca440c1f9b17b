package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/booking-engine/internal/persistence"
	"github.com/example/booking-engine/internal/testfixtures"
)

func newClientService(t *testing.T) (*ClientService, *testfixtures.MemoryStore) {
	t.Helper()
	store := testfixtures.NewMemoryStore()
	ids := testfixtures.NewIDGenerator("client")
	clock := testfixtures.NewClock(time.Time{})
	return NewClientService(store, ids.NextFunc(), clock.NowFunc(), nil), store
}

func TestClientService_Create(t *testing.T) {
	t.Parallel()

	t.Run("stores trimmed fields", func(t *testing.T) {
		t.Parallel()
		service, store := newClientService(t)

		client, err := service.Create(context.Background(), operator, ClientInput{
			Name:  "  Alice  ",
			Email: " alice@example.com ",
			Notes: "evenings only",
		})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if client.Name != "Alice" || client.Email != "alice@example.com" {
			t.Fatalf("expected trimmed fields, got %+v", client)
		}
		if _, err := store.GetClient(context.Background(), client.ID); err != nil {
			t.Fatalf("client not stored: %v", err)
		}
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		t.Parallel()
		service, _ := newClientService(t)

		_, err := service.Create(context.Background(), operator, ClientInput{Name: "   "})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Field("name") == "" {
			t.Fatalf("expected name validation error, got %v", err)
		}
	})

	t.Run("rejects unauthenticated principals", func(t *testing.T) {
		t.Parallel()
		service, _ := newClientService(t)

		_, err := service.Create(context.Background(), Principal{}, ClientInput{Name: "Alice"})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestClientService_Update(t *testing.T) {
	t.Parallel()

	t.Run("replaces every mutable field", func(t *testing.T) {
		t.Parallel()
		service, _ := newClientService(t)

		client, err := service.Create(context.Background(), operator, ClientInput{
			Name:  "Alice",
			Email: "alice@example.com",
			Phone: "0600000000",
			Notes: "initial",
		})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}

		// A full-field replace with empty optional fields clears them.
		updated, err := service.Update(context.Background(), operator, client.ID, ClientInput{Name: "Alicia"})
		if err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		if updated.Name != "Alicia" || updated.Email != "" || updated.Phone != "" || updated.Notes != "" {
			t.Fatalf("expected full replace semantics, got %+v", updated)
		}
	})

	t.Run("maps a missing client to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		service, _ := newClientService(t)

		_, err := service.Update(context.Background(), operator, "ghost", ClientInput{Name: "Nobody"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestClientService_Delete(t *testing.T) {
	t.Parallel()

	t.Run("does not cascade to sessions referencing the client", func(t *testing.T) {
		t.Parallel()
		service, store := newClientService(t)

		client, err := service.Create(context.Background(), operator, ClientInput{Name: "Alice"})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		session := testfixtures.NewSession("s1", client, operator.UserID, testfixtures.ReferenceTime(), time.Hour)
		if _, err := store.InsertSession(context.Background(), session); err != nil {
			t.Fatalf("InsertSession returned error: %v", err)
		}

		if err := service.Delete(context.Background(), operator, client.ID); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}

		remaining, err := store.ListSessions(context.Background(), persistence.SessionFilter{OwnerUserID: operator.UserID})
		if err != nil {
			t.Fatalf("ListSessions returned error: %v", err)
		}
		if len(remaining) != 1 {
			t.Fatalf("expected orphaned session to survive, got %d sessions", len(remaining))
		}
		if remaining[0].ClientName != "Alice" {
			t.Fatalf("expected last known name snapshot, got %q", remaining[0].ClientName)
		}
	})

	t.Run("maps a missing client to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		service, _ := newClientService(t)

		if err := service.Delete(context.Background(), operator, "ghost"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestClientService_List(t *testing.T) {
	t.Parallel()

	t.Run("returns the full collection", func(t *testing.T) {
		t.Parallel()
		service, _ := newClientService(t)

		for _, name := range []string{"Bob", "Alice"} {
			if _, err := service.Create(context.Background(), operator, ClientInput{Name: name}); err != nil {
				t.Fatalf("Create returned error: %v", err)
			}
		}

		clients, err := service.List(context.Background(), operator)
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		if len(clients) != 2 {
			t.Fatalf("expected 2 clients, got %d", len(clients))
		}
	})

	t.Run("rejects unauthenticated callers", func(t *testing.T) {
		t.Parallel()
		service, _ := newClientService(t)

		if _, err := service.List(context.Background(), Principal{}); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}
