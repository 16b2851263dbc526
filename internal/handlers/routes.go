package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pysugar/api-tracker/internal/generator"
	"github.com/pysugar/api-tracker/internal/middleware"
	"github.com/pysugar/api-tracker/internal/monitor"
	"github.com/pysugar/api-tracker/internal/tracker"
)

// Deps are the services behind the dashboard routes
type Deps struct {
	Monitor       *monitor.Monitor
	Tracker       *tracker.Tracker
	Persister     *generator.Persister
	Saver         *generator.DebouncedSaver
	AdminPassword string
	// AccessLog enables chi's request logger
	AccessLog bool
}

// NewRouter builds the dashboard router
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	if d.AccessLog {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)

	adminAuth := middleware.AdminAuth(d.AdminPassword)

	r.With(adminAuth).Get("/", MonitorPageHandler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { writeOK(w) })

	r.Route("/api", func(r chi.Router) {
		r.Use(adminAuth)

		// Logs and activity
		r.Get("/logs", GetLogsHandler(d.Monitor))
		r.Post("/logs/clear", ClearLogsHandler(d.Monitor))
		r.Get("/logs/history", GetLogHistoryHandler(d.Monitor))
		r.Get("/activities", GetActivitiesHandler(d.Monitor))
		r.Post("/activities", AddActivityHandler(d.Monitor))
		r.Post("/activities/clear", ClearActivitiesHandler(d.Monitor))
		r.Post("/log", LogHandler(d.Monitor))

		// Metrics
		r.Get("/metrics", GetMetricsHandler(d.Monitor))
		r.Patch("/metrics", UpdateMetricsHandler(d.Monitor))
		r.Post("/metrics/reset", ResetMetricsHandler(d.Monitor))

		// Logging toggle
		r.Get("/logging", GetLoggingStatusHandler(d.Monitor))
		r.Post("/logging", ToggleLoggingHandler(d.Monitor))

		// Generator state
		if d.Persister != nil && d.Saver != nil {
			r.Get("/generator/state", GetGeneratorStateHandler(d.Persister))
			r.Put("/generator/state", SaveGeneratorStateHandler(d.Saver))
			r.Delete("/generator/state", ClearGeneratorStateHandler(d.Saver, d.Persister))
		}

		// Tracking backend
		if d.Tracker != nil {
			r.Get("/endpoints", EndpointsHandler(d.Tracker))
			r.Get("/docs/{docId}", DocHandler(d.Tracker))
			r.Get("/calls", CallsHandler(d.Tracker))
			r.Get("/calls/{callId}", CallDetailsHandler(d.Tracker))
			r.Post("/calls/clear", ClearCallsHandler(d.Tracker))
			r.Post("/run", RunHandler(d.Tracker))
		}

		r.Get("/version", VersionHandler())
	})

	return r
}
