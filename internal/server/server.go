package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/workpulse/internal/activity"
	"github.com/claude/workpulse/internal/ingest"
	"github.com/claude/workpulse/internal/models"
	"github.com/claude/workpulse/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Store is the persistence the handlers need. *storage.DB satisfies it.
type Store interface {
	activity.SessionStore
	GetSession(ctx context.Context, id uuid.UUID) (*models.WorkSession, error)
	InsertSession(ctx context.Context, s *models.WorkSession) error
	UpdateSession(ctx context.Context, s models.WorkSession) error
	DeleteSession(ctx context.Context, id uuid.UUID) error

	GetLatestMetrics(ctx context.Context) ([]models.HealthMetricRow, error)
	QueryHealthMetrics(ctx context.Context, metricName string, start, end time.Time) ([]models.HealthMetricRow, error)
	GetTimeSeries(ctx context.Context, metricName string, start, end time.Time, bucketSize string) ([]storage.TimeSeriesPoint, error)
	GetAllowedMetrics(ctx context.Context) ([]storage.AllowedMetric, error)
	SetMetricEnabled(ctx context.Context, metricName string, enabled bool) (*storage.AllowedMetric, error)
	GetDataStats(ctx context.Context) (*storage.DataStats, error)
	QueryIngestLogs(ctx context.Context, limit int) ([]storage.IngestLog, error)
	SetUnlocked(ctx context.Context, name string, unlocked bool) error
}

// Ingester stores an exported payload.
type Ingester interface {
	Ingest(ctx context.Context, payload *models.HAEPayload) (*ingest.Result, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     Store
	svc    *activity.Service
	hae    Ingester
	log    *slog.Logger
	apiKey string
	whois  WhoIser
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, svc *activity.Service, haeProvider Ingester, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		svc:    svc,
		hae:    haeProvider,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale enables per-request identity lookup through the tailnet.
// Without it every request runs as the local dev user.
func (s *Server) SetTailscale(wc WhoIser) {
	s.whois = wc
}

// Mount attaches h under pattern, e.g. the MCP endpoint.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	requireKey := APIKeyAuth(s.apiKey)

	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.With(requireKey).Post("/", s.handleHAEIngest)
		r.Get("/logs", s.handleIngestLogs)
	})

	s.router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Get("/{id}", s.handleGetSession)
		r.Group(func(r chi.Router) {
			r.Use(requireKey)
			r.Post("/", s.handleCreateSession)
			r.Put("/{id}", s.handleUpdateSession)
			r.Delete("/{id}", s.handleDeleteSession)
		})
	})

	s.router.Get("/api/v1/me", s.handleMe)
	s.router.Get("/api/v1/week", s.handleWeek)
	s.router.Post("/api/v1/refresh", s.handleRefresh)
	s.router.Get("/api/v1/dashboard", s.handleDashboard)
	s.router.Get("/api/v1/today", s.handleToday)
	s.router.Get("/api/v1/widget", s.handleWidget)

	s.router.Get("/api/v1/metrics/latest", s.handleLatestMetrics)
	s.router.Get("/api/v1/metrics/catalog", s.handleMetricCatalog)
	s.router.Get("/api/v1/metrics", s.handleQueryMetrics)
	s.router.Get("/api/v1/timeseries", s.handleTimeSeries)
	s.router.Get("/api/v1/allowlist", s.handleAllowlist)
	s.router.With(requireKey).Put("/api/v1/allowlist/{metric}", s.handleSetMetricEnabled)
	s.router.Get("/api/v1/stats", s.handleStats)

	s.router.With(requireKey).Put("/api/v1/entitlement", s.handleSetEntitlement)
}

// invalidate recomputes the dashboard week after a change. It runs
// detached from the request so the response doesn't wait for it.
func (s *Server) invalidate() {
	s.svc.Refresher().Invalidate(context.Background())
}
