package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fixmycity/rainfall-service/internal/domain"
	"github.com/fixmycity/rainfall-service/internal/observability"
)

const rootBanner = "FixMyCity Backend Running"

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Forecaster produces a fresh seven-day rainfall forecast.
type Forecaster interface {
	PredictWeekly(ctx context.Context) (domain.WeeklyForecast, error)
}

// AlertPublisher delivers HIGH priority forecasts downstream.
type AlertPublisher interface {
	Publish(ctx context.Context, alert domain.ForecastAlert) error
}

// Server exposes the forecast API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	forecaster Forecaster
	publisher  AlertPublisher
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server. publisher may be nil, in which case HIGH
// priority weeks are served without publishing an alert.
func NewServer(addr string, forecaster Forecaster, ready ReadinessChecker, publisher AlertPublisher, logger *slog.Logger, metrics *observability.Metrics) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		forecaster: forecaster,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
	}

	r.Get("/", handleRoot)
	r.Get("/rainfall_prediction", s.handlePrediction)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rootBanner))
}

type predictionResponse struct {
	Forecast        domain.WeeklyForecast `json:"forecast"`
	OverallPriority domain.Priority       `json:"overall_priority"`
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	week, err := s.forecaster.PredictWeekly(r.Context())
	if err != nil {
		s.logger.Error("rainfall prediction failed",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	priority := domain.OverallPriority(week)
	s.metrics.OverallPriority.WithLabelValues(string(priority)).Inc()

	if priority == domain.PriorityHigh && s.publisher != nil {
		s.publishAlert(r, week, priority)
	}

	writeJSON(w, http.StatusOK, predictionResponse{Forecast: week, OverallPriority: priority})
}

// publishAlert is best-effort: failures are logged, never surfaced to the client.
func (s *Server) publishAlert(r *http.Request, week domain.WeeklyForecast, priority domain.Priority) {
	alert := domain.ForecastAlert{
		ID:              uuid.NewString(),
		GeneratedAt:     domain.Now().UTC(),
		OverallPriority: priority,
		HeavyRainDays:   week.HeavyRainDays(),
		Forecast:        week,
	}
	// A client hanging up must not abort a publish already in flight.
	ctx := context.WithoutCancel(r.Context())
	if err := s.publisher.Publish(ctx, alert); err != nil {
		s.logger.Warn("alert publish failed",
			"request_id", middleware.GetReqID(r.Context()),
			"alert_id", alert.ID,
			"error", err,
		)
		return
	}
	s.logger.Info("high priority alert published",
		"alert_id", alert.ID,
		"heavy_rain_days", alert.HeavyRainDays,
	)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
