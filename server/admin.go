package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// HandleMetrics 输出竞技场运行指标
// GET /metrics
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{
		"metrics": s.arena.Metrics().Snapshot(),
	})
}

// HandleRoster 输出当前名册（经由竞技场协程读取，避免并发访问）
// GET /roster
func (s *Server) HandleRoster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	roster, err := s.arena.Roster(ctx)
	if err != nil {
		status := http.StatusGatewayTimeout
		if errors.Is(err, ErrArenaStopped) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, map[string]any{
		"players": len(roster),
		"roster":  roster,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
