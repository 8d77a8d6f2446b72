// Package chi serves the operational HTTP endpoints and the Telegram webhook.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/paperbot/internal/domain"
	"github.com/kailas-cloud/paperbot/internal/metrics"
	healthuc "github.com/kailas-cloud/paperbot/internal/usecase/health"
)

// Error codes returned in ErrorResponse.
const (
	codeCatalogUnavailable = "catalog_unavailable"
	codeUnauthorized       = "unauthorized"
	codeInternal           = "internal_error"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Catalog CatalogResponse   `json:"catalog"`
}

// CatalogResponse describes the served catalog.
type CatalogResponse struct {
	Version     uint64     `json:"version"`
	Entries     int        `json:"entries"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	AgeSec      *int64     `json:"age_sec,omitempty"`
	LastAttempt *time.Time `json:"last_attempt,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	Failures    int        `json:"consecutive_failures"`
}

// HealthChecker builds the health report.
type HealthChecker interface {
	Check() healthuc.Report
}

// Refresher forces a catalog refresh.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Options configures the router.
type Options struct {
	APIKeys     []string     // bearer keys for /admin; empty disables auth
	WebhookPath string       // route for Telegram updates, used when Webhook is set
	Webhook     http.Handler // nil in polling mode
}

// Server serves the ops endpoints.
type Server struct {
	health    HealthChecker
	refresher Refresher
	logger    *zap.Logger
	now       func() time.Time
}

// NewServer creates an ops HTTP server.
func NewServer(health HealthChecker, refresher Refresher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{health: health, refresher: refresher, logger: logger, now: time.Now}
}

// Router builds the chi router with all middleware attached.
func (s *Server) Router(opts Options) http.Handler {
	var masked []string
	if opts.Webhook != nil {
		masked = append(masked, opts.WebhookPath)
	}

	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger, masked...))
	r.Use(metrics.Middleware(masked...))

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admin", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(opts.APIKeys))
		r.Post("/refresh", s.RefreshCatalog)
	})

	if opts.Webhook != nil {
		r.Post(opts.WebhookPath, opts.Webhook.ServeHTTP)
	}

	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check()

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Catalog: s.catalogToResponse(report.Catalog),
	})
}

// RefreshCatalog handles POST /admin/refresh.
func (s *Server) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := s.refresher.Refresh(r.Context()); err != nil {
		s.logger.Warn("Forced catalog refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, codeCatalogUnavailable, safeDomainMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, s.catalogToResponse(s.health.Check().Catalog))
}

func (s *Server) catalogToResponse(info healthuc.CatalogInfo) CatalogResponse {
	resp := CatalogResponse{
		Version:   info.Version,
		Entries:   info.Entries,
		LastError: info.LastError,
		Failures:  info.Failures,
	}
	if !info.UpdatedAt.IsZero() {
		updated := info.UpdatedAt
		age := int64(s.now().Sub(updated).Seconds())
		resp.UpdatedAt = &updated
		resp.AgeSec = &age
	}
	if !info.LastAttempt.IsZero() {
		attempt := info.LastAttempt
		resp.LastAttempt = &attempt
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrCatalogFetch,
		domain.ErrCatalogParse,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}
