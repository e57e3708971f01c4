package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"wzrd/internal/http/handlers"
	"wzrd/internal/infra"
	"wzrd/internal/middleware"
)

// Options configures the cross-cutting middleware.
type Options struct {
	Logger             infra.Logger
	AllowedOrigins     []string
	RateLimitPerMinute int
	DefaultLocale      string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.Locale(opts.DefaultLocale),
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.RateLimitPerMinute, time.Minute))

			r.Route("/videos", func(r chi.Router) {
				r.Post("/", app.VideosCreate)
				r.Get("/{job_id}", app.VideoStatus)
				r.Delete("/{job_id}", app.VideoCancel)
			})
			r.Route("/executions", func(r chi.Router) {
				r.Post("/", app.ExecutionsCreate)
				r.Get("/{job_id}", app.ExecutionStatus)
				r.Delete("/{job_id}", app.ExecutionCancel)
			})

			r.Route("/workflow-actions", func(r chi.Router) {
				r.Post("/", app.WorkflowActionsCreate)
				r.Get("/", app.WorkflowActionsList)
				r.Get("/{id}", app.WorkflowActionGet)
			})
			r.Get("/execution-logs", app.ExecutionLogsList)

			r.Get("/preferences/{user_id}", app.PreferencesGet)
			r.Put("/preferences/{user_id}", app.PreferencesPut)

			r.Route("/screen-recordings", func(r chi.Router) {
				r.Post("/", app.RecordingsUpload)
				r.Get("/", app.RecordingsList)
				r.Get("/archive", app.RecordingsArchive)
			})

			r.Get("/usage/timeline", app.UsageTimeline)
		})
	})

	return r
}
