package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wallcal/internal/calendar"
	"wallcal/internal/config"
	"wallcal/internal/ics"
	appLog "wallcal/internal/log"
)

// maxRequestBytes bounds JSON request bodies.
const maxRequestBytes = 64 << 10

// Server exposes a calendar.Store over a small JSON API plus an iCalendar
// export.
type Server struct {
	cfg   *config.Config
	store *calendar.Store
	loc   *time.Location
	mux   *http.ServeMux
}

// NewServer constructs a Server. Timestamps without an offset are read in
// loc.
func NewServer(cfg *config.Config, store *calendar.Store, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		cfg:   cfg,
		store: store,
		loc:   loc,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the server's http.Handler, wrapped in Basic Auth when it
// is configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="wallcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves on cfg.Listen until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/events/find", s.handleFind)
	s.mux.HandleFunc("/calendar.ics", s.handleExport)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventDTO is the JSON view of a calendar.Event.
type eventDTO struct {
	Title string    `json:"title"`
	At    time.Time `json:"at"`
	Notes string    `json:"notes"`
	Line  string    `json:"line"`
}

func toDTO(ev calendar.Event) eventDTO {
	return eventDTO{
		Title: ev.Title(),
		At:    ev.Timestamp(),
		Notes: ev.Notes(),
		Line:  ev.String(),
	}
}

// addRequest is the body of POST /api/events. An empty or "none"
// frequency adds a one-time event.
type addRequest struct {
	Title     string `json:"title"`
	At        string `json:"at"`
	Notes     string `json:"notes"`
	Frequency string `json:"frequency"`
}

// updateRequest is the body of PATCH /api/events. Any of the optional
// fields may be set. The timestamp is moved first since it is the only
// change that can be refused by the store; notes and title follow at the
// new timestamp.
type updateRequest struct {
	Title    string  `json:"title"`
	At       string  `json:"at"`
	NewTitle *string `json:"new_title,omitempty"`
	NewAt    *string `json:"new_at,omitempty"`
	NewNotes *string `json:"new_notes,omitempty"`
}

// handleEvents dispatches /api/events:
//
//	GET    list every event in timestamp order
//	POST   add a one-time or recurring event
//	PATCH  update title, timestamp or notes
//	DELETE ?title=&at= remove an event
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleList(w, r)
	case http.MethodPost:
		s.handleAdd(w, r)
	case http.MethodPatch:
		s.handleUpdate(w, r)
	case http.MethodDelete:
		s.handleRemove(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, PATCH, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	events := s.store.ListAll()
	dtos := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		dtos = append(dtos, toDTO(ev))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	at, err := calendar.ParseTimestamp(req.At, s.loc)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Frequency)) {
	case "", "none":
		err = s.store.AddEvent(req.Title, at, req.Notes)
	default:
		var freq calendar.Frequency
		if freq, err = calendar.ParseFrequency(req.Frequency); err == nil {
			err = s.store.AddRecurringEvent(req.Title, at, req.Notes, freq)
		}
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}

	appLog.Info("api event added", "title", req.Title, "at", at.Format(time.RFC3339), "frequency", req.Frequency)
	ev, _ := s.store.FindEvent(req.Title, at)
	writeJSON(w, http.StatusCreated, toDTO(ev))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	at, err := calendar.ParseTimestamp(req.At, s.loc)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if req.NewTitle == nil && req.NewAt == nil && req.NewNotes == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if req.NewTitle != nil && strings.TrimSpace(*req.NewTitle) == "" {
		writeError(w, http.StatusBadRequest, "new_title must not be empty")
		return
	}
	var newAt time.Time
	if req.NewAt != nil {
		if newAt, err = calendar.ParseTimestamp(*req.NewAt, s.loc); err != nil {
			writeStoreError(w, err)
			return
		}
	}

	title := req.Title
	if req.NewAt != nil {
		if err := s.store.UpdateTimestamp(title, at, newAt); err != nil {
			writeStoreError(w, err)
			return
		}
		at = newAt
	}
	if req.NewNotes != nil {
		if err := s.store.UpdateNotes(title, at, *req.NewNotes); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	if req.NewTitle != nil {
		if err := s.store.UpdateTitle(title, at, *req.NewTitle); err != nil {
			writeStoreError(w, err)
			return
		}
		title = *req.NewTitle
	}

	ev, ok := s.store.FindEvent(title, at)
	if !ok {
		writeStoreError(w, calendar.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(ev))
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	title, at, err := s.identityFromQuery(r)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	ev, err := s.store.RemoveEvent(title, at)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	appLog.Info("api event removed", "title", title, "at", at.Format(time.RFC3339))
	writeJSON(w, http.StatusOK, toDTO(ev))
}

// handleFind serves GET /api/events/find?title=&at=.
func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	title, at, err := s.identityFromQuery(r)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	ev, ok := s.store.FindEvent(title, at)
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, toDTO(ev))
}

// handleExport serves the whole calendar as text/calendar.
func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	occs := calendar.Occurrences(s.store.ListAll())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="wallcal.ics"`)
	if err := ics.Encode(w, "wallcal", occs); err != nil {
		appLog.Error("ics export failed", err)
	}
}

func (s *Server) identityFromQuery(r *http.Request) (string, time.Time, error) {
	q := r.URL.Query()
	title := q.Get("title")
	if title == "" {
		return "", time.Time{}, fmt.Errorf("%w: title is required", calendar.ErrInvalidArgument)
	}
	at, err := calendar.ParseTimestamp(q.Get("at"), s.loc)
	if err != nil {
		return "", time.Time{}, err
	}
	return title, at, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

// writeStoreError maps calendar errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, calendar.ErrOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, calendar.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("api request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
