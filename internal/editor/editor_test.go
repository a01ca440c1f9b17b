package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/booking-engine/internal/persistence"
	"github.com/example/booking-engine/internal/testfixtures"
)

// blockingSaver lets tests hold a submission open to exercise the in-flight
// lock.
type blockingSaver struct {
	mu      sync.Mutex
	started chan struct{}
	release chan error
	calls   int
}

func newBlockingSaver() *blockingSaver {
	return &blockingSaver{
		started: make(chan struct{}),
		release: make(chan error),
	}
}

func (b *blockingSaver) save(ctx context.Context, draft Draft) error {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	close(b.started)
	return <-b.release
}

func TestEditor_CreateRoundTrip(t *testing.T) {
	var saved []Draft
	e := New(Callbacks{
		SaveSession: func(ctx context.Context, draft Draft) error {
			saved = append(saved, draft)
			return nil
		},
	})

	start := testfixtures.ReferenceTime()
	if err := e.OpenForCreate(start, start.Add(2*time.Hour)); err != nil {
		t.Fatalf("OpenForCreate: %v", err)
	}
	if e.Mode() != Composing {
		t.Fatalf("expected Composing, got %v", e.Mode())
	}
	if e.Target() != TargetSession {
		t.Fatalf("expected session target, got %v", e.Target())
	}
	if err := e.SetClient("client-1"); err != nil {
		t.Fatalf("SetClient: %v", err)
	}
	if err := e.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if e.Mode() != Idle {
		t.Errorf("editor should return to Idle after commit, got %v", e.Mode())
	}
	if len(saved) != 1 {
		t.Fatalf("expected one save, got %d", len(saved))
	}
	if saved[0].SessionID != "" || saved[0].ClientID != "client-1" || !saved[0].Start.Equal(start) {
		t.Errorf("unexpected draft %+v", saved[0])
	}
}

func TestEditor_ReopenDiscardsDraft(t *testing.T) {
	e := New(Callbacks{
		SaveSession: func(context.Context, Draft) error { return nil },
	})

	start := testfixtures.ReferenceTime()
	if err := e.OpenForCreate(start, start.Add(time.Hour)); err != nil {
		t.Fatalf("OpenForCreate: %v", err)
	}
	if err := e.SetClient("client-1"); err != nil {
		t.Fatalf("SetClient: %v", err)
	}

	session := testfixtures.NewSession("session-9", testfixtures.NewClient("client-2", "Bob"), "op-1", start.Add(24*time.Hour), time.Hour)
	if err := e.OpenForEdit(session); err != nil {
		t.Fatalf("OpenForEdit: %v", err)
	}

	draft, ok := e.Draft()
	if !ok {
		t.Fatal("expected an open draft")
	}
	if draft.SessionID != "session-9" || draft.ClientID != "client-2" {
		t.Errorf("previous draft leaked into the new one: %+v", draft)
	}
}

func TestEditor_ClientDraftRoundTrip(t *testing.T) {
	var saved []ClientDraft
	e := New(Callbacks{
		SaveClient: func(ctx context.Context, draft ClientDraft) error {
			saved = append(saved, draft)
			return nil
		},
	})

	client := persistence.Client{ID: "client-3", Name: "Carol", Email: "carol@example.com"}
	if err := e.OpenForClientEdit(client); err != nil {
		t.Fatalf("OpenForClientEdit: %v", err)
	}
	if e.Target() != TargetClient {
		t.Fatalf("expected client target, got %v", e.Target())
	}
	if err := e.SetClientFields("Carol B", "carol@example.com", "555-0101", "prefers mornings"); err != nil {
		t.Fatalf("SetClientFields: %v", err)
	}
	if err := e.SetClient("client-1"); !errors.Is(err, ErrWrongTarget) {
		t.Fatalf("session mutation against a client draft should be rejected, got %v", err)
	}
	if err := e.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if len(saved) != 1 {
		t.Fatalf("expected one save, got %d", len(saved))
	}
	if saved[0].ClientID != "client-3" || saved[0].Name != "Carol B" || saved[0].Phone != "555-0101" {
		t.Errorf("unexpected draft %+v", saved[0])
	}
	if e.Mode() != Idle {
		t.Errorf("editor should return to Idle after commit, got %v", e.Mode())
	}
}

func TestEditor_OpenClientDiscardsSessionDraft(t *testing.T) {
	e := New(Callbacks{})

	start := testfixtures.ReferenceTime()
	if err := e.OpenForCreate(start, start.Add(time.Hour)); err != nil {
		t.Fatalf("OpenForCreate: %v", err)
	}
	if err := e.OpenForClientCreate(); err != nil {
		t.Fatalf("OpenForClientCreate: %v", err)
	}

	if _, ok := e.Draft(); ok {
		t.Error("session draft should be gone after opening a client draft")
	}
	draft, ok := e.ClientDraft()
	if !ok {
		t.Fatal("expected an open client draft")
	}
	if draft != (ClientDraft{}) {
		t.Errorf("new client draft should be empty, got %+v", draft)
	}
}

func TestEditor_CommitFailureKeepsDraft(t *testing.T) {
	saveErr := errors.New("end must be after start")
	e := New(Callbacks{
		SaveSession: func(context.Context, Draft) error { return saveErr },
	})

	start := testfixtures.ReferenceTime()
	if err := e.OpenForCreate(start, start); err != nil {
		t.Fatalf("OpenForCreate: %v", err)
	}
	if err := e.Commit(context.Background()); !errors.Is(err, saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}

	if e.Mode() != Composing {
		t.Errorf("failed commit must keep the draft open, got mode %v", e.Mode())
	}
	if _, ok := e.Draft(); !ok {
		t.Error("draft was discarded on failure")
	}
}

func TestEditor_CancelDiscards(t *testing.T) {
	e := New(Callbacks{
		SaveSession: func(context.Context, Draft) error {
			t.Fatal("save must not run")
			return nil
		},
	})

	start := testfixtures.ReferenceTime()
	if err := e.OpenForCreate(start, start.Add(time.Hour)); err != nil {
		t.Fatalf("OpenForCreate: %v", err)
	}
	e.Cancel()

	if e.Mode() != Idle {
		t.Errorf("expected Idle after cancel, got %v", e.Mode())
	}
	if err := e.Commit(context.Background()); !errors.Is(err, ErrNotComposing) {
		t.Errorf("commit after cancel should fail with ErrNotComposing, got %v", err)
	}
}

func TestEditor_SingleSubmissionAtATime(t *testing.T) {
	saver := newBlockingSaver()
	e := New(Callbacks{SaveSession: saver.save})

	start := testfixtures.ReferenceTime()
	if err := e.OpenForCreate(start, start.Add(time.Hour)); err != nil {
		t.Fatalf("OpenForCreate: %v", err)
	}

	firstDone := make(chan error, 1)
	go func() { firstDone <- e.Commit(context.Background()) }()
	<-saver.started

	if err := e.Commit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("second commit should be rejected, got %v", err)
	}
	if err := e.OpenForCreate(start, start.Add(time.Hour)); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("reopening mid-flight should be rejected, got %v", err)
	}
	if err := e.OpenForClientCreate(); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("opening a client draft mid-flight should be rejected, got %v", err)
	}

	saver.release <- nil
	if err := <-firstDone; err != nil {
		t.Fatalf("first commit failed: %v", err)
	}
	if saver.calls != 1 {
		t.Errorf("expected exactly one save call, got %d", saver.calls)
	}
}

func TestEditor_DeleteNeedsConfirmation(t *testing.T) {
	var removed []string
	e := New(Callbacks{
		DeleteSession: func(ctx context.Context, id string) error {
			removed = append(removed, id)
			return nil
		},
	})

	session := testfixtures.NewSession("session-1", testfixtures.NewClient("client-1", "Alice"), "op-1", testfixtures.ReferenceTime(), time.Hour)
	if err := e.OpenForEdit(session); err != nil {
		t.Fatalf("OpenForEdit: %v", err)
	}

	if err := e.ConfirmDelete(context.Background()); !errors.Is(err, ErrDeleteNotRequested) {
		t.Fatalf("delete without request should fail, got %v", err)
	}
	if err := e.RequestDelete(); err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	if !e.DeleteRequested() {
		t.Fatal("confirmation step should be pending")
	}
	if err := e.ConfirmDelete(context.Background()); err != nil {
		t.Fatalf("ConfirmDelete: %v", err)
	}

	if len(removed) != 1 || removed[0] != "session-1" {
		t.Errorf("unexpected removals %v", removed)
	}
	if e.Mode() != Idle {
		t.Errorf("expected Idle after deletion, got %v", e.Mode())
	}
}

func TestEditor_DeleteClient(t *testing.T) {
	var removed []string
	e := New(Callbacks{
		DeleteClient: func(ctx context.Context, id string) error {
			removed = append(removed, id)
			return nil
		},
	})

	if err := e.OpenForClientEdit(persistence.Client{ID: "client-7", Name: "Dora"}); err != nil {
		t.Fatalf("OpenForClientEdit: %v", err)
	}
	if err := e.RequestDelete(); err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	if err := e.ConfirmDelete(context.Background()); err != nil {
		t.Fatalf("ConfirmDelete: %v", err)
	}

	if len(removed) != 1 || removed[0] != "client-7" {
		t.Errorf("unexpected removals %v", removed)
	}
}

func TestEditor_DeleteRejectedForNewDraft(t *testing.T) {
	e := New(Callbacks{})

	start := testfixtures.ReferenceTime()
	if err := e.OpenForCreate(start, start.Add(time.Hour)); err != nil {
		t.Fatalf("OpenForCreate: %v", err)
	}
	if err := e.RequestDelete(); !errors.Is(err, ErrNoDeleteTarget) {
		t.Fatalf("new drafts have nothing to delete, got %v", err)
	}

	if err := e.OpenForClientCreate(); err != nil {
		t.Fatalf("OpenForClientCreate: %v", err)
	}
	if err := e.RequestDelete(); !errors.Is(err, ErrNoDeleteTarget) {
		t.Fatalf("new client drafts have nothing to delete, got %v", err)
	}
}
