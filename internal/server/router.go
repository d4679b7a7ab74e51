// Package server assembles the chi router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/syllabiq/syllabiq/internal/api"
	"github.com/syllabiq/syllabiq/internal/api/handlers"
	"github.com/syllabiq/syllabiq/internal/api/middleware"
)

const maxBodyBytes = 4 << 20

// Deps are the wired handlers the router mounts.
type Deps struct {
	Auth  middleware.Authenticator
	Query *handlers.QueryHandler
	Index *handlers.IndexHandler
}

// NewRouter builds the HTTP routing tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(deps.Auth))

		r.Post("/query", deps.Query.Submit)
		r.Route("/topics/{topicID}", func(r chi.Router) {
			r.Post("/index", deps.Index.Index)
			r.Post("/index-async", deps.Index.IndexAsync)
		})
	})

	return r
}
