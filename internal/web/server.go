// Package web provides the HTTP status and control API for the tank daemon.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sweeney/tankd/internal/leak"
	"github.com/sweeney/tankd/internal/status"
)

// ScanControl accepts operator scan commands. Implemented by the daemon's
// command channel into the control loop.
type ScanControl interface {
	// StartScan requests a manual scan; rejected when one is in progress.
	StartScan(duration time.Duration) error

	// CancelScan aborts a running scan, yielding Inconclusive.
	CancelScan() error
}

// ScanHistory reads persisted scan results.
type ScanHistory interface {
	Scans(limit int) ([]leak.Result, error)
}

// Server serves the status page and control API over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	scans      ScanControl
	history    ScanHistory
}

// New creates a Server. metricsHandler may be nil to disable /metrics.
func New(addr string, tracker *status.Tracker, scans ScanControl, history ScanHistory, metricsHandler http.Handler) *Server {
	s := &Server{tracker: tracker, scans: scans, history: history}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/scan", s.handleStartScan).Methods(http.MethodPost)
	r.HandleFunc("/api/scan", s.handleCancelScan).Methods(http.MethodDelete)
	r.HandleFunc("/api/scans", s.handleScanHistory).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: r,
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

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// scanRequest is the POST /api/scan body.
type scanRequest struct {
	Minutes int `json:"minutes"`
}

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Minutes < 1 {
		http.Error(w, "minutes must be at least 1", http.StatusBadRequest)
		return
	}

	err := s.scans.StartScan(time.Duration(req.Minutes) * time.Minute)
	switch {
	case errors.Is(err, leak.ErrScanActive), errors.Is(err, leak.ErrPumpRunning):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]int{"minutes": req.Minutes})
}

func (s *Server) handleCancelScan(w http.ResponseWriter, r *http.Request) {
	if err := s.scans.CancelScan(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleScanHistory(w http.ResponseWriter, r *http.Request) {
	const historyLimit = 50
	scans, err := s.history.Scans(historyLimit)
	if err != nil {
		log.Printf("scan history: %v", err)
		http.Error(w, "scan history unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(scans)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	// Stale sample means the control loop stopped ticking.
	if !snap.Level.Timestamp.IsZero() && snap.Now.Sub(snap.Level.Timestamp) > time.Minute {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
