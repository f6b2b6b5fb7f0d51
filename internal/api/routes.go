package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zapponejosh/parsha-api/internal/config"
	"github.com/zapponejosh/parsha-api/internal/metrics"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET  /health
//	GET  /metrics
//	GET  /api/v1/sedra/today
//	GET  /api/v1/sedra/date/{date}
//	GET  /api/v1/sedra/year/{year}
//	GET  /api/v1/sedra/year/{year}/find/{parsha}
//	GET  /api/v1/hdate/{date}
//	GET  /api/v1/gdate/{year}/{month}/{day}
//	GET  /api/v1/calendar.ics
//	POST /api/v1/admin/materialize    (X-API-Key)
//
// m may be nil, in which case /metrics is not mounted.
func SetupRoutes(handlers *Handlers, m *metrics.Metrics, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RequestIDMiddleware(),
		middleware.RealIP,
		LoggingMiddleware(logger),
		MetricsMiddleware(m),
		RecoveryMiddleware(logger),
		CORSMiddleware(),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	// ==========================================================================
	// Operational routes
	// ==========================================================================
	r.Get("/health", handlers.HealthCheck)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	// ==========================================================================
	// Public routes
	// ==========================================================================
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sedra", func(r chi.Router) {
			r.Get("/today", handlers.GetTodayReading)
			r.Get("/date/{date}", handlers.GetDateReading)
			r.Get("/year/{year}", handlers.GetYearSchedule)
			r.Get("/year/{year}/find/{parsha}", handlers.FindParsha)
		})

		r.Get("/hdate/{date}", handlers.GetHebrewDate)
		r.Get("/gdate/{year}/{month}/{day}", handlers.GetGregorianDate)
		r.Get("/calendar.ics", handlers.GetCalendarFeed)

		// ======================================================================
		// Admin routes (API key only)
		// ======================================================================
		r.With(AdminAuthMiddleware(cfg, logger)).Post("/admin/materialize", handlers.Materialize)
	})

	return r
}
