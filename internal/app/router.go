package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/noah-isme/supabase-admin/internal/admin"
	"github.com/noah-isme/supabase-admin/internal/auth"
	"github.com/noah-isme/supabase-admin/internal/observability"
	"github.com/noah-isme/supabase-admin/internal/platform/httpx"
	"github.com/noah-isme/supabase-admin/jobs"
)

// Greeting is the plain text body served on the root route.
const Greeting = "Hello, Go with chi!"

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	AdminHandler *admin.Handler
	Verifier     *auth.Verifier
	JobHandler   *jobs.Handler
	Metrics      *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.Text(w, http.StatusOK, Greeting)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if params.Verifier != nil {
			r.Use(params.Verifier.Middleware(params.Logger))
		}
		params.AdminHandler.MountRoutes(r)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
