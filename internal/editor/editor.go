// Package editor holds the single-writer state machine behind the booking and
// client modals. At most one draft exists at a time, session or client, never
// both; opening the editor for another target discards the previous draft
// wholesale.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// Mode is the editor lifecycle state.
type Mode int

const (
	// Idle means no draft is open.
	Idle Mode = iota
	// Composing means a draft is open and editable.
	Composing
)

// TargetKind names what the open draft edits.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetSession
	TargetClient
)

var (
	// ErrNotComposing is returned by operations that need an open draft.
	ErrNotComposing = errors.New("editor: no draft open")
	// ErrWrongTarget is returned when an operation addresses the other
	// draft kind.
	ErrWrongTarget = errors.New("editor: operation does not apply to the open draft")
	// ErrSubmitInFlight rejects a second submission while one is running.
	ErrSubmitInFlight = errors.New("editor: submission already in flight")
	// ErrNoDeleteTarget rejects deletion of a draft that has no stored
	// record behind it.
	ErrNoDeleteTarget = errors.New("editor: draft has no stored record")
	// ErrDeleteNotRequested means ConfirmDelete ran without RequestDelete.
	ErrDeleteNotRequested = errors.New("editor: deletion was not requested")
)

// Draft is the editable session form. A zero SessionID marks a new booking.
type Draft struct {
	SessionID string
	ClientID  string
	Start     time.Time
	End       time.Time
}

// ClientDraft is the editable client form. A zero ClientID marks a new client.
type ClientDraft struct {
	ClientID string
	Name     string
	Email    string
	Phone    string
	Notes    string
}

// Callbacks are the persistence operations the editor delegates to. Each
// receives a copy of the draft and may fail validation.
type Callbacks struct {
	SaveSession   func(ctx context.Context, draft Draft) error
	DeleteSession func(ctx context.Context, sessionID string) error
	SaveClient    func(ctx context.Context, draft ClientDraft) error
	DeleteClient  func(ctx context.Context, clientID string) error
}

// Editor serializes all modal mutations. Submissions run outside the lock so
// the UI can keep reading state, but only one submission runs at a time.
type Editor struct {
	callbacks Callbacks

	mu              sync.Mutex
	mode            Mode
	kind            TargetKind
	draft           Draft
	clientDraft     ClientDraft
	deleteRequested bool
	inFlight        bool
}

// New builds an idle editor around the given persistence callbacks.
func New(callbacks Callbacks) *Editor {
	return &Editor{callbacks: callbacks}
}

// Mode reports the current lifecycle state.
func (e *Editor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Target reports what kind of draft is open.
func (e *Editor) Target() TargetKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kind
}

// Draft returns a copy of the open session draft. The second result is false
// when no session draft is open.
func (e *Editor) Draft() (Draft, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft, e.mode == Composing && e.kind == TargetSession
}

// ClientDraft returns a copy of the open client draft. The second result is
// false when no client draft is open.
func (e *Editor) ClientDraft() (ClientDraft, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clientDraft, e.mode == Composing && e.kind == TargetClient
}

// DeleteRequested reports whether the confirmation step is pending.
func (e *Editor) DeleteRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleteRequested
}

// OpenForCreate starts a new-booking draft over the selected interval,
// discarding any draft already open.
func (e *Editor) OpenForCreate(start, end time.Time) error {
	return e.open(TargetSession, Draft{Start: start, End: end}, ClientDraft{})
}

// OpenForEdit starts a draft prefilled from a stored session, discarding any
// draft already open.
func (e *Editor) OpenForEdit(session persistence.Session) error {
	return e.open(TargetSession, Draft{
		SessionID: session.ID,
		ClientID:  session.ClientID,
		Start:     session.Start,
		End:       session.End,
	}, ClientDraft{})
}

// OpenForClientCreate starts an empty client draft, discarding any draft
// already open.
func (e *Editor) OpenForClientCreate() error {
	return e.open(TargetClient, Draft{}, ClientDraft{})
}

// OpenForClientEdit starts a draft prefilled from a stored client, discarding
// any draft already open.
func (e *Editor) OpenForClientEdit(client persistence.Client) error {
	return e.open(TargetClient, Draft{}, ClientDraft{
		ClientID: client.ID,
		Name:     client.Name,
		Email:    client.Email,
		Phone:    client.Phone,
		Notes:    client.Notes,
	})
}

func (e *Editor) open(kind TargetKind, draft Draft, clientDraft ClientDraft) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inFlight {
		return ErrSubmitInFlight
	}
	e.mode = Composing
	e.kind = kind
	e.draft = draft
	e.clientDraft = clientDraft
	e.deleteRequested = false
	return nil
}

// SetClient rebinds the session draft to another client.
func (e *Editor) SetClient(clientID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireLocked(TargetSession); err != nil {
		return err
	}
	e.draft.ClientID = clientID
	return nil
}

// SetInterval replaces the session draft's time interval.
func (e *Editor) SetInterval(start, end time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireLocked(TargetSession); err != nil {
		return err
	}
	e.draft.Start = start
	e.draft.End = end
	return nil
}

// SetClientFields replaces the client draft's editable fields.
func (e *Editor) SetClientFields(name, email, phone, notes string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireLocked(TargetClient); err != nil {
		return err
	}
	e.clientDraft.Name = name
	e.clientDraft.Email = email
	e.clientDraft.Phone = phone
	e.clientDraft.Notes = notes
	return nil
}

// Cancel discards the draft and returns to idle. Canceling an idle editor is
// a no-op.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inFlight {
		return
	}
	e.reset()
}

// Commit submits the open draft. On success the editor returns to idle; on
// failure it stays in Composing with the draft intact so the operator can
// correct and resubmit.
func (e *Editor) Commit(ctx context.Context) error {
	e.mu.Lock()
	if e.mode != Composing {
		e.mu.Unlock()
		return ErrNotComposing
	}
	if e.inFlight {
		e.mu.Unlock()
		return ErrSubmitInFlight
	}
	e.inFlight = true
	kind := e.kind
	draft := e.draft
	clientDraft := e.clientDraft
	e.mu.Unlock()

	var err error
	switch kind {
	case TargetSession:
		err = e.callbacks.SaveSession(ctx, draft)
	case TargetClient:
		err = e.callbacks.SaveClient(ctx, clientDraft)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false
	if err != nil {
		return err
	}
	e.reset()
	return nil
}

// RequestDelete arms the confirmation step for an existing record.
func (e *Editor) RequestDelete() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != Composing {
		return ErrNotComposing
	}
	switch e.kind {
	case TargetSession:
		if e.draft.SessionID == "" {
			return ErrNoDeleteTarget
		}
	case TargetClient:
		if e.clientDraft.ClientID == "" {
			return ErrNoDeleteTarget
		}
	default:
		return ErrNoDeleteTarget
	}
	e.deleteRequested = true
	return nil
}

// ConfirmDelete removes the stored record after RequestDelete armed it. On
// failure the draft and the pending request survive.
func (e *Editor) ConfirmDelete(ctx context.Context) error {
	e.mu.Lock()
	if e.mode != Composing {
		e.mu.Unlock()
		return ErrNotComposing
	}
	if !e.deleteRequested {
		e.mu.Unlock()
		return ErrDeleteNotRequested
	}
	if e.inFlight {
		e.mu.Unlock()
		return ErrSubmitInFlight
	}
	e.inFlight = true
	kind := e.kind
	sessionID := e.draft.SessionID
	clientID := e.clientDraft.ClientID
	e.mu.Unlock()

	var err error
	switch kind {
	case TargetSession:
		err = e.callbacks.DeleteSession(ctx, sessionID)
	case TargetClient:
		err = e.callbacks.DeleteClient(ctx, clientID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false
	if err != nil {
		return err
	}
	e.reset()
	return nil
}

func (e *Editor) requireLocked(kind TargetKind) error {
	if e.mode != Composing {
		return ErrNotComposing
	}
	if e.kind != kind {
		return ErrWrongTarget
	}
	return nil
}

func (e *Editor) reset() {
	e.mode = Idle
	e.kind = TargetNone
	e.draft = Draft{}
	e.clientDraft = ClientDraft{}
	e.deleteRequested = false
}
