package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/booking-engine/internal/persistence"
)

// FeedHandler streams live full-collection snapshots over server-sent
// events. Every committed mutation produces one `data:` frame carrying the
// entire collection; clients replace their local copy wholesale.
type FeedHandler struct {
	clients   persistence.ClientRepository
	sessions  persistence.SessionRepository
	responder responder
}

func NewFeedHandler(clients persistence.ClientRepository, sessions persistence.SessionRepository, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{clients: clients, sessions: sessions, responder: newResponder(logger)}
}

func (h *FeedHandler) StreamClients(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.clients == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	flusher, ok := prepareStream(w)
	if !ok {
		return
	}

	feed, err := h.clients.SubscribeClients(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	defer feed.Close()

	for {
		select {
		case snapshot, ok := <-feed.Snapshots():
			if !ok {
				return
			}
			writeFrame(w, flusher, clientFeedFrame{
				Clients: toClientDTOs(snapshot.Clients),
				Error:   errorText(snapshot.Err),
			})

		case <-r.Context().Done():
			return
		}
	}
}

func (h *FeedHandler) StreamSessions(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.sessions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	flusher, ok := prepareStream(w)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	filter := persistence.SessionFilter{OwnerUserID: principal.UserID}

	feed, err := h.sessions.SubscribeSessions(r.Context(), filter)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	defer feed.Close()

	for {
		select {
		case snapshot, ok := <-feed.Snapshots():
			if !ok {
				return
			}
			writeFrame(w, flusher, sessionFeedFrame{
				Sessions: toSessionDTOs(snapshot.Sessions),
				Error:    errorText(snapshot.Err),
			})

		case <-r.Context().Done():
			return
		}
	}
}

func prepareStream(w http.ResponseWriter) (http.Flusher, bool) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return nil, false
	}
	return flusher, true
}

func writeFrame(w http.ResponseWriter, flusher http.Flusher, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("failed to marshal feed frame", "error", err)
		return
	}
	w.Write([]byte("data: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
	flusher.Flush()
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

type clientFeedFrame struct {
	Clients []clientDTO `json:"clients"`
	Error   string      `json:"error,omitempty"`
}

type sessionFeedFrame struct {
	Sessions []sessionDTO `json:"sessions"`
	Error    string       `json:"error,omitempty"`
}
