package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/casefile/internal/caseservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *caseservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/cases", h.ListCases)
	r.Post("/cases", h.CreateCase)
	r.Get("/cases/latest", h.LatestCase)
	r.Get("/cases/{date}/{serial}", h.GetCase)
	r.Post("/cases/{date}/{serial}/log", h.LogCase)

	r.Get("/search", h.Search)

	return r
}
