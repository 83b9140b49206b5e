package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/claude/workpulse/internal/activity"
	"github.com/claude/workpulse/internal/models"
	"github.com/claude/workpulse/internal/storage"
)

func (s *Server) handleHAEIngest(w http.ResponseWriter, r *http.Request) {
	var payload models.HAEPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	result, err := s.hae.Ingest(r.Context(), &payload)
	if err != nil {
		s.log.Error("ingest error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if result.MetricsInserted > 0 {
		s.invalidate()
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	ref, err := s.parseDate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	summary, err := s.svc.WeekSummary(r.Context(), ref)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// dashboard is the refresher's committed state.
type dashboard struct {
	Generation uint64              `json:"generation"`
	Summary    *models.WeekSummary `json:"summary"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ref, err := s.parseDate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if _, err := s.svc.Refresher().Refresh(r.Context(), ref); err != nil {
		if errors.Is(err, activity.ErrSuperseded) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	cur, gen := s.svc.Refresher().Current()
	writeJSON(w, http.StatusOK, dashboard{Generation: gen, Summary: cur})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	cur, gen := s.svc.Refresher().Current()
	if cur == nil {
		var err error
		if _, err = s.svc.Refresher().Refresh(r.Context(), time.Now()); err != nil && !errors.Is(err, activity.ErrSuperseded) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		cur, gen = s.svc.Refresher().Current()
	}
	writeJSON(w, http.StatusOK, dashboard{Generation: gen, Summary: cur})
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Today(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Widget(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleLatestMetrics(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.GetLatestMetrics(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	_, locked := s.svc.AllowedKinds(r.Context())
	visible := make([]models.HealthMetricRow, 0, len(rows))
	for _, row := range rows {
		if kind, ok := models.KindForSourceMetric(row.MetricName); ok && slices.Contains(locked, kind) {
			continue
		}
		visible = append(visible, row)
	}
	writeJSON(w, http.StatusOK, visible)
}

func (s *Server) handleQueryMetrics(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseMetricKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	start, end, err := s.parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	start, err = s.svc.AuthorizeRange(r.Context(), kind, start, end)
	if err != nil {
		writeAccessError(w, err)
		return
	}

	rows, err := s.db.QueryHealthMetrics(r.Context(), models.PolicyFor(kind).SourceMetric, start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleMetricCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.Policies())
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseMetricKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	start, end, err := s.parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	start, err = s.svc.AuthorizeRange(r.Context(), kind, start, end)
	if err != nil {
		writeAccessError(w, err)
		return
	}

	agg := r.URL.Query().Get("agg")
	if agg == "" {
		agg = "daily"
	}
	bucket, ok := storage.Buckets[agg]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "agg must be hourly, daily, weekly or monthly"})
		return
	}

	points, err := s.db.GetTimeSeries(r.Context(), models.PolicyFor(kind).SourceMetric, start, end, bucket)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if points == nil {
		points = []storage.TimeSeriesPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleAllowlist(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.db.GetAllowedMetrics(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// writeAccessError maps policy refusals to 403.
func writeAccessError(w http.ResponseWriter, err error) {
	if errors.Is(err, activity.ErrMetricLocked) || errors.Is(err, activity.ErrHistoryLocked) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseDate reads the optional date parameter as a local calendar day.
func (s *Server) parseDate(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return time.Now(), nil
	}
	return time.ParseInLocation(time.DateOnly, v, s.location())
}

func (s *Server) location() *time.Location {
	if loc := s.svc.Calendar().Location; loc != nil {
		return loc
	}
	return time.Local
}

// parseTimeRange reads start and end as RFC 3339 instants or local
// calendar days.
func (s *Server) parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	loc := s.location()
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 7 days
		end = time.Now()
		start = end.AddDate(0, 0, -7)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.ParseInLocation(time.DateOnly, startStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.ParseInLocation(time.DateOnly, endStr, loc)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.AddDate(0, 0, 1)
		}
	}
	return
}
