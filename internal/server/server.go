// Package server exposes the session engine over a local JSON control API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/duckai/ducktrack/internal/session"
)

// Server drives a session manager from HTTP. It binds to a loopback address;
// the API carries no authentication of its own.
type Server struct {
	manager *session.Manager
	addr    string
	httpSrv *http.Server
}

// StatusResponse is the JSON body of /api/status and of lifecycle command
// responses.
type StatusResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Session session.Info `json:"session"`
}

// SessionsResponse is the JSON body of /api/sessions.
type SessionsResponse struct {
	Sessions   []session.Entry `json:"sessions"`
	TotalCount int             `json:"total_count"`
	Directory  string          `json:"directory"`
}

// New creates a server for the given manager, listening on addr.
func New(manager *session.Manager, addr string) *Server {
	return &Server{manager: manager, addr: addr}
}

// Run serves the control API until ctx is cancelled, then shuts down
// gracefully. The active session, if any, is stopped on the way out.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/start", s.handleStart)
	mux.HandleFunc("/api/stop", s.handleStop)
	mux.HandleFunc("/api/pause", s.handlePause)
	mux.HandleFunc("/api/resume", s.handleResume)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/sessions", s.handleSessions)

	s.httpSrv = &http.Server{Addr: s.addr, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Control API listening", "addr", s.addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-errChan:
		return err
	}

	if err := s.manager.Stop(); err != nil {
		slog.Debug("No session to stop on shutdown", "reason", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errChan
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	sess, err := s.manager.Start()
	if err != nil {
		s.writeError(w, http.StatusConflict, err)
		return
	}
	s.writeStatus(w, "recording", fmt.Sprintf("session %s started", sess.ID()))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := s.manager.Stop(); err != nil {
		s.writeError(w, http.StatusConflict, err)
		return
	}
	s.writeStatus(w, "stopped", "")
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := s.manager.Pause(); err != nil {
		s.writeError(w, http.StatusConflict, err)
		return
	}
	s.writeStatus(w, "paused", "")
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := s.manager.Resume(); err != nil {
		s.writeError(w, http.StatusConflict, err)
		return
	}
	s.writeStatus(w, "recording", "")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeStatus(w, "ok", "")
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	store := s.manager.Store()
	entries, err := store.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionsResponse{
		Sessions:   entries,
		TotalCount: len(entries),
		Directory:  store.Root(),
	})
}

func (s *Server) writeStatus(w http.ResponseWriter, status, message string) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  status,
		Message: message,
		Session: s.manager.Status(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, StatusResponse{
		Status:  "error",
		Message: err.Error(),
		Session: s.manager.Status(),
	})
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
