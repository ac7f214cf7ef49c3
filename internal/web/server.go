// Package web provides the HTTP surface for the oven-controller daemon:
// a status page, a JSON status endpoint, runtime configuration updates, and
// the lockout reset acknowledgement.
package web

import (
	"context"
	"log"
	"net"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/sweeney/oven-controller/internal/config"
	"github.com/sweeney/oven-controller/internal/status"
)

// LockoutResetter acknowledges an ignition lockout.
type LockoutResetter interface {
	ResetLockout()
}

// Server serves the status page and control endpoints over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	cfg        *config.Store
	resetter   LockoutResetter
}

// New creates a Server that reads state from the given tracker, applies
// configuration changes to cfg, and forwards lockout resets to resetter.
func New(addr string, tracker *status.Tracker, cfg *config.Store, resetter LockoutResetter) *Server {
	s := &Server{tracker: tracker, cfg: cfg, resetter: resetter}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.html", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/status.json", s.handleJSON).Methods(http.MethodGet)
	r.HandleFunc("/config", s.handleGetConfig).Methods(http.MethodGet)
	r.HandleFunc("/config", s.handlePutConfig).Methods(http.MethodPut, http.MethodPost)
	r.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: handlers.CombinedLoggingHandler(log.Writer(), r),
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// handleReset acknowledges a lockout. The reset is unconditional; the new
// state shows up in the next status snapshot.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.resetter.ResetLockout()
	w.WriteHeader(http.StatusNoContent)
}
