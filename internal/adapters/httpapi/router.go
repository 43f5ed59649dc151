package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const requestTimeout = 30 * time.Second

// NewRouter は会社 API と死活監視のルーティングを構築します。
// 会社確認 (POST /companies/check) 以外の会社 API は認証が必要です。
func NewRouter(h *Handler, health *HealthHandler, verifier ActorVerifier, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health/live", health.Live)
	r.Get("/health/ready", health.Ready)

	r.Route("/companies", func(r chi.Router) {
		r.Post("/check", h.Check)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(verifier))

			r.Get("/active", h.ListActive)
			r.Get("/deleted", h.ListDeleted)
			r.Get("/options", h.Options)
			r.Post("/", h.Create)
			r.Get("/{id}", h.Get)
			r.Put("/{id}", h.Update)
			r.Post("/{id}/toggle-active", h.ToggleActive)
			r.Delete("/{id}", h.Delete)
		})
	})

	return r
}
