package httpserver

import (
	"context"
	"net/http"
	"time"
)

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if !s.isReady.Load() {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	if !s.isReady.Swap(false) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "already draining"})
		return
	}
	s.logger.Info("server marked as not ready")
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "draining"})
}

func (s *Server) handleUndrain(w http.ResponseWriter, r *http.Request) {
	if s.isReady.Swap(true) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "already ready"})
		return
	}
	s.logger.Info("server marked as ready")
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Ready reports whether /readyz answers 200.
func (s *Server) Ready() bool {
	return s.isReady.Load()
}

// Drain marks the server not ready and waits for the drain period so load
// balancers stop routing to it. It returns early when ctx ends.
func (s *Server) Drain(ctx context.Context) {
	s.isReady.Store(false)
	if s.drain <= 0 {
		return
	}
	s.logger.Info("draining", "duration", s.drain)
	t := time.NewTimer(s.drain)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
