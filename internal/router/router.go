package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/memento-app/memento-api/internal/api"
	"github.com/memento-app/memento-api/internal/api/auth"
	"github.com/memento-app/memento-api/internal/api/entries"
)

// Config contains the dependencies needed for the router setup.
type Config struct {
	AuthHandler            auth.Handler
	EntriesHandler         entries.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
	AllowedOrigins         []string
}

// SetupRouter wires the API routes. Server-wide middleware (logger,
// requestID, recoverer) is applied before mounting this router in main.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Liveness probe: no auth, no store dependency.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public auth routes.
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
		})

		// Everything below requires a valid bearer token.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Get("/auth/me", cfg.AuthHandler.Me)

			r.Route("/entries", func(r chi.Router) {
				r.Get("/", cfg.EntriesHandler.ListEntriesHandler)
				r.Post("/", cfg.EntriesHandler.CreateEntryHandler)
				r.Get("/{entryID}", cfg.EntriesHandler.GetEntryHandler)
				r.Put("/{entryID}", cfg.EntriesHandler.UpdateEntryHandler)
				r.Delete("/{entryID}", cfg.EntriesHandler.DeleteEntryHandler)
				r.Patch("/{entryID}/favorite", cfg.EntriesHandler.ToggleFavoriteHandler)
			})
		})
	})

	return r
}
