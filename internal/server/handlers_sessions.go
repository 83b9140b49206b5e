package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/claude/workpulse/internal/models"
	"github.com/claude/workpulse/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// sessionRequest is the body of create and update calls.
type sessionRequest struct {
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end"`
	HourlyRate  float64    `json:"hourly_rate"`
	CachedSteps *int       `json:"cached_steps"`
}

func (req sessionRequest) validate() error {
	if req.Start.IsZero() {
		return errors.New("start is required")
	}
	if req.End != nil && req.End.Before(req.Start) {
		return errors.New("end is before start")
	}
	if req.HourlyRate < 0 {
		return errors.New("hourly_rate must not be negative")
	}
	return nil
}

func decodeSession(r *http.Request) (sessionRequest, error) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON: %w", err)
	}
	return req, req.validate()
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	var start, end time.Time
	if r.URL.Query().Get("start") != "" {
		var err error
		if start, end, err = s.parseTimeRange(r); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	sessions, err := s.svc.ListSessions(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sessions == nil {
		sessions = []models.WorkSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	session, err := s.db.GetSession(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSession(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	session := &models.WorkSession{
		Start:       req.Start,
		End:         req.End,
		HourlyRate:  req.HourlyRate,
		CachedSteps: req.CachedSteps,
	}
	if err := s.db.InsertSession(r.Context(), session); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.log.Info("session created", "id", session.ID, "user", userInfoFromContext(r).Login)
	s.invalidate()
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}
	req, err := decodeSession(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	session := models.WorkSession{
		ID:          id,
		Start:       req.Start,
		End:         req.End,
		HourlyRate:  req.HourlyRate,
		CachedSteps: req.CachedSteps,
	}
	err = s.db.UpdateSession(r.Context(), session)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.invalidate()

	updated, err := s.db.GetSession(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	err = s.db.DeleteSession(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}
