// Package httpapi provides HTTP handlers and middleware for the booking API.
//
// The router exposes the following endpoints:
//   - POST /register: creates an operator account. Body: {"email","password"}.
//   - POST /login: issues a session token. Body: {"email","password"}. Response:
//     {"token","expires_at","welcome_name"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - POST /logout: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 and clears the cookie.
//   - GET /clients, POST /clients, PUT /clients/{id}, DELETE /clients/{id}:
//     client registry endpoints exchanging the `clientDTO` payload defined in
//     client_handler.go. Deleting a client never cascades into sessions.
//   - GET /sessions, POST /sessions, PUT /sessions/{id}, DELETE /sessions/{id}:
//     booking endpoints exchanging `sessionDTO`. Listings are scoped to the
//     authenticated operator; mutations on another operator's booking yield 403.
//   - GET /stats: aggregate dashboard figures plus the ten most recent bookings.
//   - GET /calendar/events: the calendar event list derived from the caller's
//     bookings.
//   - GET /calendar/layout?width=&height=&navbar_bottom=: responsive layout and
//     height hints for the calendar widget.
//   - GET /calendar.ics: the caller's bookings as an iCalendar download.
//   - GET /feed/clients, GET /feed/sessions: server-sent event streams carrying
//     one full-collection snapshot per committed mutation.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package httpapi
