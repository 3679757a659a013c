/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/persons/*        Persons, snapshots, RRSP room
  /api/beneficiaries/*  Beneficiaries, RESP room, grant estimates
  /api/accounts/*       Accounts, ledger entries, TFSA room

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/persons", func(r chi.Router) {
			r.Get("/", h.ListPersons)
			r.Post("/", h.CreatePerson)
			r.Get("/{id}", h.GetPerson)
			r.Post("/{id}/snapshots", h.SaveSnapshot)
			r.Get("/{id}/rrsp", h.GetRRSPRoom)
		})

		r.Route("/beneficiaries", func(r chi.Router) {
			r.Get("/", h.ListBeneficiaries)
			r.Post("/", h.CreateBeneficiary)
			r.Get("/{id}", h.GetBeneficiary)
			r.Get("/{id}/resp", h.GetRESPRoom)
			r.Post("/{id}/grant-estimate", h.EstimateGrant)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/{id}", h.GetAccount)
			r.Get("/{id}/entries", h.ListEntries)
			r.Post("/{id}/entries", h.AppendEntry)
			r.Get("/{id}/tfsa", h.GetTFSARoom)
			r.Post("/{id}/spousal-attribution", h.SpousalAttribution)
		})
	})

	return r
}
