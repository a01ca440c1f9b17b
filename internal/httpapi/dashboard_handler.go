package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/booking-engine/internal/ics"
	"github.com/example/booking-engine/internal/stats"
	"github.com/example/booking-engine/internal/view"
)

// DashboardHandler serves the derived read models: aggregate statistics, the
// calendar event list, responsive layout hints, and the iCalendar export.
// Everything is recomputed per request from the caller's session set.
type DashboardHandler struct {
	sessions  sessionService
	responder responder
}

func NewDashboardHandler(sessions sessionService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{sessions: sessions, responder: newResponder(logger)}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.sessions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	sessions, err := h.sessions.List(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	snapshot := stats.Compute(sessions)
	recent := stats.RecentSessions(sessions)

	h.responder.writeJSON(r.Context(), w, http.StatusOK, statsResponse{
		WelcomeName:       principal.WelcomeName(),
		TotalHours:        snapshot.TotalHours,
		TotalSessions:     snapshot.TotalSessions,
		UniqueClientCount: snapshot.UniqueClientCount,
		AverageHours:      snapshot.AverageHours,
		HoursByClient:     snapshot.HoursByClient,
		SessionsByMonth:   toMonthDTOs(snapshot.SessionsByMonth),
		RecentSessions:    toSessionDTOs(recent),
	})
}

func (h *DashboardHandler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.sessions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	sessions, err := h.sessions.List(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	events := view.BuildEvents(sessions)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, calendarEventsResponse{Events: toEventDTOs(events)})
}

func (h *DashboardHandler) CalendarLayout(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	width := intQuery(r, "width", view.TabletMaxWidth+1)
	viewportHeight := intQuery(r, "height", 900)
	navbarBottom := intQuery(r, "navbar_bottom", 0)

	layout := view.LayoutForWidth(width)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, calendarLayoutResponse{
		InitialView: layout.InitialView,
		Toolbar: toolbarDTO{
			Left:   layout.Toolbar.Left,
			Center: layout.Toolbar.Center,
			Right:  layout.Toolbar.Right,
		},
		Height: view.HeightFor(viewportHeight, navbarBottom),
	})
}

func (h *DashboardHandler) CalendarICS(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.sessions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	sessions, err := h.sessions.List(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := ics.Encode(view.BuildEvents(sessions))
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(payload)); err != nil {
		h.responder.loggerFor(r.Context()).ErrorContext(r.Context(), "failed to write ics payload", "error", err)
	}
}

func intQuery(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

type statsResponse struct {
	WelcomeName       string             `json:"welcome_name"`
	TotalHours        float64            `json:"total_hours"`
	TotalSessions     int                `json:"total_sessions"`
	UniqueClientCount int                `json:"unique_client_count"`
	AverageHours      float64            `json:"average_hours"`
	HoursByClient     map[string]float64 `json:"hours_by_client"`
	SessionsByMonth   []monthDTO         `json:"sessions_by_month"`
	RecentSessions    []sessionDTO       `json:"recent_sessions"`
}

type monthDTO struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

func toMonthDTOs(months []stats.MonthCount) []monthDTO {
	if len(months) == 0 {
		return nil
	}
	out := make([]monthDTO, 0, len(months))
	for _, month := range months {
		out = append(out, monthDTO{Label: month.Label, Count: month.Count})
	}
	return out
}

type calendarEventsResponse struct {
	Events []eventDTO `json:"events"`
}

type eventDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func toEventDTOs(events []view.Event) []eventDTO {
	if len(events) == 0 {
		return nil
	}
	out := make([]eventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, eventDTO{
			ID:    event.ID,
			Title: event.Title,
			Start: event.Start.UTC().Format(time.RFC3339Nano),
			End:   event.End.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

type calendarLayoutResponse struct {
	InitialView string     `json:"initial_view"`
	Toolbar     toolbarDTO `json:"toolbar"`
	Height      int        `json:"height"`
}

type toolbarDTO struct {
	Left   string `json:"left"`
	Center string `json:"center"`
	Right  string `json:"right"`
}
