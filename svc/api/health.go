package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"cinder/svc/util"
)

type HealthResponse struct {
	Status string `json:"status"`
}
type ReadyResponse struct {
	Ready   bool   `json:"ready"`
	Backend string `json:"backend"`
}
type LiveResponse struct {
	OK bool `json:"ok"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	resp := ReadyResponse{
		Ready:   true,
		Backend: "up",
	}
	if err := s.backend.Ping(ctx); err != nil {
		util.Error().Err(err).Msg("backend health check failed")
		resp.Backend = "down"
		resp.Ready = false
	}
	w.Header().Set("Content-Type", "application/json")
	if !resp.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(resp)
}

// Live is the end-to-end probe: a real write/read round trip against the
// backend (Backend.Ping does the round trip). Concurrent probes collapse
// into a single backend call.
func (s *Server) Live(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	_, err, _ := s.probes.Do("live", func() (interface{}, error) {
		return nil, s.backend.Ping(ctx)
	})
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		util.Warn().Err(err).Msg("liveness probe failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(LiveResponse{OK: false})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(LiveResponse{OK: true})
}
