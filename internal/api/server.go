package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/pbaille/devlog/internal/domain"
	"github.com/pbaille/devlog/internal/journal"
	"github.com/pbaille/devlog/internal/logging"
)

// Server exposes the journal over a small JSON API
type Server struct {
	journal *journal.Store
	log     logging.Logger
	addr    string
}

// New creates a new API server
func New(j *journal.Store, log logging.Logger, addr string) *Server {
	return &Server{journal: j, log: log, addr: addr}
}

// Handler returns the routed handler, CORS included
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Entries
	mux.HandleFunc("GET /entries", s.listEntries)
	mux.HandleFunc("POST /entries", s.addEntry)
	mux.HandleFunc("DELETE /entries", s.clearEntries)
	mux.HandleFunc("GET /entries/{id}", s.getEntry)
	mux.HandleFunc("DELETE /entries/{id}", s.deleteEntry)

	// Health check
	mux.HandleFunc("GET /health", s.health)

	return withCORS(s.withLogging(mux))
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "starting server", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// withCORS adds CORS headers for browser front-ends
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h.ServeHTTP(w, r)
		s.log.Debug(r.Context(), "request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

// HealthResponse reports liveness and whether the journal is persisted
type HealthResponse struct {
	Status  string         `json:"status"`
	Sync    journal.Status `json:"sync"`
	Entries int            `json:"entries"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Sync:    s.journal.Status(),
		Entries: s.journal.Len(),
	})
}

// AddEntryRequest is the request body for adding an entry
type AddEntryRequest struct {
	Text string `json:"text"`
}

// ListResponse is returned by GET /entries
type ListResponse struct {
	Entries []domain.Entry `json:"entries"`
	Query   string         `json:"query,omitempty"`
	Total   int            `json:"total"`
}

func (s *Server) addEntry(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, ok := s.journal.Create(r.Context(), req.Text)
	if !ok {
		// blank text changes nothing
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	entries := s.journal.Search(query)

	writeJSON(w, http.StatusOK, ListResponse{
		Entries: entries,
		Query:   query,
		Total:   s.journal.Len(),
	})
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.journal.Resolve(r.PathValue("id"))
	if err != nil {
		writeResolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// deleteEntry accepts a full id or a unique prefix, like getEntry
func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.journal.Resolve(r.PathValue("id"))
	if err != nil {
		writeResolveError(w, err)
		return
	}

	deleted := s.journal.Delete(r.Context(), entry.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// clearEntries wipes the journal; the client must pass confirm=true
func (s *Server) clearEntries(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "clearing all entries requires confirm=true")
		return
	}

	s.journal.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, journal.ErrAmbiguous):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusNotFound, "entry not found")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
