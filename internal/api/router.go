package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"gwi.com/prompt-history/internal/logging"
	"gwi.com/prompt-history/internal/web"
)

type RouterOptions struct {
	// AllowedOrigins enables CORS when non-empty.
	AllowedOrigins []string
}

func NewRouter(apiHandler *APIHandler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(log.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Public routes
	r.Get("/", apiHandler.IndexHandler)
	r.Post("/login", apiHandler.LoginHandler)
	r.Get("/logout", apiHandler.LogoutHandler)
	r.Get("/health", RestHandler(apiHandler.HealthHandler))

	// Session-protected routes. The guard runs before method matching so any
	// unauthenticated request is sent to the login page.
	r.Route("/chat", func(r chi.Router) {
		r.Use(apiHandler.guard.Require)
		r.Post("/", RestHandler(apiHandler.ChatHandler))
	})
	r.Route("/history", func(r chi.Router) {
		r.Use(apiHandler.guard.Require)
		r.Get("/", RestHandler(apiHandler.ListHistoryHandler))
		r.Delete("/{id}", RestHandler(apiHandler.DeleteHistoryHandler))
	})

	r.NotFound(web.Handler(apiHandler.pages).ServeHTTP)

	return r
}
