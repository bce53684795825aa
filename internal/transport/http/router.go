package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-credential-api/internal/config"
	"github.com/go-credential-api/internal/transport/http/handler"
	appmiddleware "github.com/go-credential-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(securityHeaders()...)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	limit := deps.Limiter
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	healthH := handler.NewHealthHandler()
	credH := handler.NewCredentialHandler(deps.Credentials, cfg.ConfirmRedirectURL)

	r.Get("/health-check/{action}", healthH.Ping)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/auth/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/signup", credH.Signup)
			r.Post("/login", credH.Login)
			r.Get("/confirm", credH.Confirm)
		})

		if deps.Verifier != nil {
			r.With(appmiddleware.Auth(deps.Verifier)).Get("/session", handler.GetSession)
		}
	})

	return r
}

// securityHeaders sets the baseline browser hardening headers on every response.
func securityHeaders() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chimiddleware.SetHeader("X-Content-Type-Options", "nosniff"),
		chimiddleware.SetHeader("X-Frame-Options", "DENY"),
		chimiddleware.SetHeader("Referrer-Policy", "no-referrer"),
		chimiddleware.SetHeader("Strict-Transport-Security", "max-age=31536000; includeSubDomains"),
	}
}
