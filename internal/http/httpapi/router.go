package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"videoforge/internal/http/handlers"
	"videoforge/internal/infra"
	"videoforge/internal/middleware"
)

func NewRouter(app *handlers.App, logger infra.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", app.Health)

	r.Post("/generate", app.Generate)
	r.Get("/status/{job_id}", app.Status)
	r.Get("/download/{job_id}", app.Download)

	return r
}
