package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"
)

// Server exposes the snapshot over HTTP: an HTML page at /, a JSON API under
// /api/ and a health probe.
type Server struct {
	refresher   *Refresher
	addr        string
	pollSeconds int
	autoRefresh bool
	logger      *log.Logger

	httpServer *http.Server
}

// ServerOptions contains configuration for creating a Server.
type ServerOptions struct {
	Refresher   *Refresher
	Addr        string
	PollSeconds int
	AutoRefresh bool
	Logger      *log.Logger
}

// NewServer creates a new Server.
func NewServer(opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		refresher:   opts.Refresher,
		addr:        opts.Addr,
		pollSeconds: opts.PollSeconds,
		autoRefresh: opts.AutoRefresh,
		logger:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/overview", s.handleOverview)
	mux.HandleFunc("GET /api/nodes", s.handleNodes)
	mux.HandleFunc("GET /api/transactions", s.handleTransactions)
	mux.HandleFunc("GET /api/fraud-results", s.handleFraudResults)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Dashboard listening on %s", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) snapshot(w http.ResponseWriter) (*Snapshot, bool) {
	snap := s.refresher.Snapshot()
	if snap == nil {
		http.Error(w, `{"error":"snapshot not ready"}`, http.StatusServiceUnavailable)
		return nil, false
	}
	return snap, true
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	s.writeJSON(w, snap)
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	s.writeJSON(w, snap.Nodes)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	s.writeJSON(w, snap.Transactions)
}

func (s *Server) handleFraudResults(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	s.writeJSON(w, snap.FraudResults)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	s.writeJSON(w, struct {
		Stats       any       `json:"stats"`
		FraudByNode any       `json:"fraud_by_node"`
		GeneratedAt time.Time `json:"generated_at"`
	}{snap.Stats, snap.FraudByNode, snap.GeneratedAt})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.refresher.Refresh(r.Context()); err != nil {
		s.logger.Printf("Manual refresh failed: %v", err)
		http.Error(w, `{"error":"refresh failed"}`, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]string{"status": "refreshed"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("Encoding response failed: %v", err)
	}
}
