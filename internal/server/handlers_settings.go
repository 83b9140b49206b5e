package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/workpulse/internal/storage"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetDataStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleIngestLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QueryIngestLogs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []storage.IngestLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// entitlementRequest toggles the unlock that opens full history and
// detailed metrics.
type entitlementRequest struct {
	Unlocked bool `json:"unlocked"`
}

func (s *Server) handleSetEntitlement(w http.ResponseWriter, r *http.Request) {
	var req entitlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	if err := s.db.SetUnlocked(r.Context(), storage.EntitlementPro, req.Unlocked); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.log.Info("entitlement changed", "name", storage.EntitlementPro, "unlocked", req.Unlocked)
	s.invalidate()
	writeJSON(w, http.StatusOK, req)
}

type allowlistRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleSetMetricEnabled(w http.ResponseWriter, r *http.Request) {
	var req allowlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "enabled is required"})
		return
	}

	name := chi.URLParam(r, "metric")
	m, err := s.db.SetMetricEnabled(r.Context(), name, *req.Enabled)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "metric not in allowlist: " + name})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.log.Info("allowlist changed", "metric", name, "enabled", m.Enabled)
	writeJSON(w, http.StatusOK, m)
}
